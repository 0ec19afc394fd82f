package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	WorkerJobsCompleted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_completed_total",
			Help: "Total number of jobs completed by worker",
		},
		[]string{"task_type"},
	)

	WorkerJobsFailed = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "worker_jobs_failed_total",
			Help: "Total number of jobs failed by worker",
		},
		[]string{"task_type", "error_code"},
	)

	WorkerJobDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "worker_job_duration_seconds",
			Help: "Duration of job processing in seconds",
		},
		[]string{"task_type"},
	)

	// InterpreterRequests counts orchestrator turns by entry (text, audio)
	// and outcome (transfer, swap, query_balance, error, question, greeting,
	// fallback, failure, transcription).
	InterpreterRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "interpreter_requests_total",
			Help: "Total number of interpreter turns by entry and outcome",
		},
		[]string{"entry", "outcome"},
	)

	StageDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "interpreter_stage_duration_seconds",
			Help:    "Duration of each pipeline stage in seconds",
			Buckets: []float64{.05, .1, .25, .5, 1, 2, 5, 10, 30},
		},
		[]string{"stage", "status"},
	)

	CompletionCalls = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "completion_calls_total",
			Help: "Total number of completion service calls by backend and status",
		},
		[]string{"backend", "status"},
	)

	CircuitBreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "circuit_breaker_state",
			Help: "Circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)

	AssetCorrections = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "lexicon_asset_corrections_total",
			Help: "Advisory asset corrections found in utterances",
		},
		[]string{"asset", "kind"},
	)
)
