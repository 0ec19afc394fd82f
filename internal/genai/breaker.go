package genai

import (
	"context"
	stderrors "errors"
	"time"

	"github.com/sony/gobreaker"

	"milo-interpreter/internal/common/errors"
	"milo-interpreter/internal/common/metrics"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

type BreakerSettings struct {
	Name         string
	MaxRequests  uint32
	Interval     time.Duration
	Timeout      time.Duration
	MinRequests  uint32
	FailureRatio float64
}

// BreakerCompleter guards a backend with a circuit breaker. While the
// circuit is open, calls fail fast with COMPLETION_UNAVAILABLE.
type BreakerCompleter struct {
	next Completer
	cb   *gobreaker.CircuitBreaker
}

func NewBreakerCompleter(next Completer, s BreakerSettings, log Logger) *BreakerCompleter {
	if s.Name == "" {
		s.Name = "genai"
	}
	metrics.CircuitBreakerState.WithLabelValues(s.Name).Set(stateValue(gobreaker.StateClosed))

	cb := gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:        s.Name,
		MaxRequests: s.MaxRequests,
		Interval:    s.Interval,
		Timeout:     s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			if counts.Requests < s.MinRequests {
				return false
			}
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return failureRatio >= s.FailureRatio
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			metrics.CircuitBreakerState.WithLabelValues(name).Set(stateValue(to))
			if log != nil {
				log.Warn("Circuit breaker state changed", map[string]interface{}{
					"breaker": name,
					"from":    from.String(),
					"to":      to.String(),
				})
			}
		},
		// A caller giving up says nothing about the backend's health.
		IsSuccessful: func(err error) bool {
			var gone abandoned
			return err == nil || stderrors.As(err, &gone) || stderrors.Is(err, context.Canceled)
		},
	})

	return &BreakerCompleter{next: next, cb: cb}
}

func (b *BreakerCompleter) Complete(ctx context.Context, prompt Prompt) (string, error) {
	out, err := b.cb.Execute(func() (interface{}, error) {
		text, err := b.next.Complete(ctx, prompt)
		// Backends report a cancelled call as a timeout.
		if err != nil && stderrors.Is(ctx.Err(), context.Canceled) {
			return text, abandoned{err}
		}
		return text, err
	})
	if err != nil {
		var gone abandoned
		if stderrors.As(err, &gone) {
			return "", gone.err
		}
		if stderrors.Is(err, gobreaker.ErrOpenState) || stderrors.Is(err, gobreaker.ErrTooManyRequests) {
			return "", errors.NewCompletionUnavailableError(err)
		}
		return "", err
	}
	return out.(string), nil
}

// abandoned wraps a failure that happened after the caller cancelled.
type abandoned struct{ err error }

func (a abandoned) Error() string { return a.err.Error() }
func (a abandoned) Unwrap() error { return a.err }

// State reports the breaker state, for readiness checks.
func (b *BreakerCompleter) State() gobreaker.State {
	return b.cb.State()
}

func stateValue(s gobreaker.State) float64 {
	switch s {
	case gobreaker.StateHalfOpen:
		return 1
	case gobreaker.StateOpen:
		return 2
	default:
		return 0
	}
}
