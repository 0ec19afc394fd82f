package main

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"milo-interpreter/internal/audit"
	"milo-interpreter/internal/common/config"
	"milo-interpreter/internal/common/database"
	"milo-interpreter/internal/common/logger"
	"milo-interpreter/internal/common/observability"
	"milo-interpreter/internal/contacts"
	"milo-interpreter/internal/genai"
	"milo-interpreter/internal/orchestrator"
	ci "milo-interpreter/internal/workers/ai-conversation/classify-intent"
	cr "milo-interpreter/internal/workers/ai-conversation/conversational-reply"
	ic "milo-interpreter/internal/workers/ai-conversation/interpret-command"
	ta "milo-interpreter/internal/workers/ai-conversation/transcribe-audio"
	dt "milo-interpreter/internal/workers/wallet/draft-transaction"
	qb "milo-interpreter/internal/workers/wallet/query-balance"
)

// app holds everything both commands share.
type app struct {
	cfg *config.Config
	zap *zap.Logger
	log logger.Logger
	obs *observability.Observability

	classify   *ci.Handler
	interpret  *ic.Handler
	reply      *cr.Handler
	transcribe *ta.Handler
	draft      *dt.Handler
	balance    *qb.Handler

	directory    *contacts.Directory
	orchestrator *orchestrator.Orchestrator
	checks       map[string]database.Pinger
	closers      []func() error
}

// newApp wires the pipeline. withStores connects the configured Postgres,
// Redis and Elasticsearch; without it the contact directory and audit trail
// are disabled.
func newApp(ctx context.Context, cfg *config.Config, withStores bool) (*app, error) {
	zapLog := logger.New(cfg.Logging.Level, cfg.Logging.Format, cfg.Logging.Output)
	a := &app{
		cfg:    cfg,
		zap:    zapLog,
		log:    logger.NewZapAdapter(zapLog),
		obs:    observability.New(cfg.App.Name),
		checks: map[string]database.Pinger{},
	}

	completer, err := genai.NewFromConfig(ctx, cfg, a.log)
	if err != nil {
		return nil, fmt.Errorf("init completion backend: %w", err)
	}

	var recorder audit.Recorder = audit.Nop{}
	var directory dt.ContactSource
	if withStores {
		rec, err := a.connectStores(ctx)
		if err != nil {
			a.close()
			return nil, err
		}
		if rec != nil {
			recorder = rec
		}
		if a.directory != nil {
			directory = a.directory
		}
	}

	a.classify = ci.NewHandler(&ci.Config{
		Timeout: workerTimeout(cfg, ci.TaskType),
	}, completer, classifyLogger{a.log})

	a.interpret = ic.NewHandler(&ic.Config{
		AssistantName: cfg.Interpreter.AssistantName,
		Timeout:       workerTimeout(cfg, ic.TaskType),
	}, completer, interpretLogger{a.log})

	a.reply = cr.NewHandler(&cr.Config{
		AssistantName: cfg.Interpreter.AssistantName,
		HistoryTurns:  cfg.Interpreter.HistoryTurns,
		Timeout:       workerTimeout(cfg, cr.TaskType),
	}, completer, replyLogger{a.log})

	transcribeCfg := ta.LoadConfig()
	transcribeCfg.Timeout = workerTimeout(cfg, ta.TaskType)
	a.transcribe = ta.NewHandler(transcribeCfg, completer, transcribeLogger{a.log})

	a.draft = dt.NewHandler(&dt.Config{
		BuilderBaseURL: cfg.APIs.TxBuilder.BaseURL,
		Timeout:        config.GetDuration(cfg.APIs.TxBuilder.Timeout),
		MaxRetries:     cfg.APIs.TxBuilder.MaxRetries,
	}, nil, directory, draftLogger{a.log})

	a.balance = qb.NewHandler(&qb.Config{
		LedgerBaseURL: cfg.APIs.Ledger.BaseURL,
		Timeout:       config.GetDuration(cfg.APIs.Ledger.Timeout),
		MaxRetries:    cfg.APIs.Ledger.MaxRetries,
	}, nil, balanceLogger{a.log})

	a.orchestrator = orchestrator.New(orchestrator.Dependencies{
		Classifier:    a.classify,
		Interpreter:   a.interpret,
		Responder:     a.reply,
		Transcriber:   a.transcribe,
		Recorder:      recorder,
		Observability: a.obs,
		Logger:        a.log,
	})
	return a, nil
}

// connectStores opens the enabled stores. It returns the audit recorder when
// auditing is on.
func (a *app) connectStores(ctx context.Context) (audit.Recorder, error) {
	cfg := a.cfg
	var recorder audit.Recorder

	var pg *database.PostgresClient
	if cfg.Database.Postgres.Enabled {
		err := retryWithBackoff(func() error {
			var err error
			pg, err = database.NewPostgres(cfg.Database.Postgres)
			if err != nil {
				return err
			}
			return pg.Ping(ctx)
		}, 10, 2*time.Second, a.zap, "PostgreSQL connection")
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, pg.Close)
		a.checks["postgres"] = pg
	}

	var rc *database.RedisClient
	if cfg.Database.Redis.Enabled {
		rc = database.NewRedis(cfg.Database.Redis)
		if err := retryWithBackoff(func() error { return rc.Ping(ctx) }, 5, time.Second, a.zap, "Redis connection"); err != nil {
			return nil, err
		}
		a.closers = append(a.closers, rc.Close)
		a.checks["redis"] = rc
	}

	if pg != nil {
		var cache *redis.Client
		if rc != nil {
			cache = rc.Client
		}
		dir := contacts.NewDirectory(pg, cache, config.GetDuration(cfg.Interpreter.ContactCacheTTL), a.log)
		if err := dir.Migrate(ctx); err != nil {
			return nil, fmt.Errorf("migrate contacts: %w", err)
		}
		a.directory = dir
	}

	if cfg.Database.Elasticsearch.Enabled {
		es, err := database.NewElasticsearch(cfg.Database.Elasticsearch)
		if err != nil {
			return nil, err
		}
		if err := retryWithBackoff(func() error { return es.Ping(ctx) }, 10, 2*time.Second, a.zap, "Elasticsearch connection"); err != nil {
			return nil, err
		}
		a.checks["elasticsearch"] = es
		if cfg.Audit.Enabled {
			recorder = audit.NewESRecorder(es, cfg.Audit.Index, config.GetDuration(cfg.Audit.Timeout))
		}
	}

	a.zap.Info("stores connected", zap.Int("count", len(a.checks)))
	return recorder, nil
}

func (a *app) close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			a.zap.Warn("close failed", zap.Error(err))
		}
	}
	a.obs.Shutdown()
	_ = a.zap.Sync()
}

func workerTimeout(cfg *config.Config, taskType string) time.Duration {
	return config.GetDuration(config.GetWorkerConfig(cfg, taskType).Timeout)
}

// retryWithBackoff attempts operation up to maxRetries times, doubling the
// delay between attempts.
func retryWithBackoff(operation func() error, maxRetries int, initialDelay time.Duration, log *zap.Logger, operationName string) error {
	var err error
	delay := initialDelay

	for i := 0; i < maxRetries; i++ {
		err = operation()
		if err == nil {
			return nil
		}

		if i < maxRetries-1 {
			log.Warn(fmt.Sprintf("%s failed, retrying...", operationName),
				zap.Error(err),
				zap.Int("attempt", i+1),
				zap.Int("maxRetries", maxRetries),
				zap.Duration("nextRetryIn", delay),
			)
			time.Sleep(delay)
			delay *= 2
		}
	}

	return fmt.Errorf("%s failed after %d attempts: %w", operationName, maxRetries, err)
}
