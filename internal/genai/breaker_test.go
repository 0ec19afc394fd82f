package genai

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/sony/gobreaker"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milo-interpreter/internal/common/config"
	"milo-interpreter/internal/common/errors"
)

type TestLogger struct {
	t *testing.T
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

func testBreakerSettings() BreakerSettings {
	return BreakerSettings{
		Name:         "genai-test",
		MaxRequests:  1,
		Interval:     time.Minute,
		Timeout:      time.Minute,
		MinRequests:  2,
		FailureRatio: 0.5,
	}
}

func TestBreakerCompleter_PassThrough(t *testing.T) {
	next := CompleterFunc(func(ctx context.Context, prompt Prompt) (string, error) {
		return "echo: " + prompt.Text, nil
	})
	b := NewBreakerCompleter(next, testBreakerSettings(), &TestLogger{t: t})

	out, err := b.Complete(context.Background(), TextPrompt("hi"))
	require.NoError(t, err)
	assert.Equal(t, "echo: hi", out)
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerCompleter_OpensAfterFailures(t *testing.T) {
	calls := 0
	next := CompleterFunc(func(ctx context.Context, prompt Prompt) (string, error) {
		calls++
		return "", errors.NewCompletionFailedError(BackendHTTP, fmt.Errorf("upstream down"))
	})
	b := NewBreakerCompleter(next, testBreakerSettings(), &TestLogger{t: t})

	for i := 0; i < 2; i++ {
		_, err := b.Complete(context.Background(), TextPrompt("hi"))
		assert.Equal(t, errors.ErrCodeCompletionFailed, errors.CodeOf(err))
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())

	_, err := b.Complete(context.Background(), TextPrompt("hi"))
	require.Error(t, err)
	assert.ErrorIs(t, err, errors.ErrCompletionUnavailable)
	assert.Equal(t, 2, calls, "open circuit must not reach the backend")
}

func TestBreakerCompleter_CancellationDoesNotTrip(t *testing.T) {
	next := CompleterFunc(func(ctx context.Context, prompt Prompt) (string, error) {
		return "", ctx.Err()
	})
	b := NewBreakerCompleter(next, testBreakerSettings(), nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	for i := 0; i < 5; i++ {
		_, err := b.Complete(ctx, TextPrompt("hi"))
		assert.ErrorIs(t, err, context.Canceled)
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
}

func TestBreakerCompleter_CancellationReportedAsTimeoutDoesNotTrip(t *testing.T) {
	calls := 0
	next := CompleterFunc(func(ctx context.Context, prompt Prompt) (string, error) {
		calls++
		<-ctx.Done()
		return "", errors.NewCompletionTimeoutError(BackendHTTP)
	})
	b := NewBreakerCompleter(next, testBreakerSettings(), &TestLogger{t: t})

	for i := 0; i < 5; i++ {
		ctx, cancel := context.WithCancel(context.Background())
		cancel()
		_, err := b.Complete(ctx, TextPrompt("hi"))
		assert.Equal(t, errors.ErrCodeCompletionTimeout, errors.CodeOf(err))
	}
	assert.Equal(t, gobreaker.StateClosed, b.State())
	assert.Equal(t, 5, calls)
}

func TestBreakerCompleter_DeadlinesStillTrip(t *testing.T) {
	next := CompleterFunc(func(ctx context.Context, prompt Prompt) (string, error) {
		<-ctx.Done()
		return "", errors.NewCompletionTimeoutError(BackendGemini)
	})
	b := NewBreakerCompleter(next, testBreakerSettings(), &TestLogger{t: t})

	for i := 0; i < 2; i++ {
		ctx, cancel := context.WithTimeout(context.Background(), time.Millisecond)
		_, err := b.Complete(ctx, TextPrompt("hi"))
		cancel()
		assert.Equal(t, errors.ErrCodeCompletionTimeout, errors.CodeOf(err))
	}
	assert.Equal(t, gobreaker.StateOpen, b.State())
}

func TestNewFromConfig(t *testing.T) {
	cfg := &config.Config{
		APIs: config.APIsConfig{
			GenAI: config.GenAIConfig{Provider: config.ProviderHTTP, BaseURL: "http://localhost:9999", Timeout: 1000},
		},
	}

	c, err := NewFromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &RemoteCompleter{}, c)

	cfg.CircuitBreaker = config.CircuitBreakerConfig{Enabled: true, MaxRequests: 1, Interval: 1000, Timeout: 1000, MinRequests: 3, FailureRatio: 0.6}
	c, err = NewFromConfig(context.Background(), cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &BreakerCompleter{}, c)

	cfg.APIs.GenAI.Provider = "openai"
	_, err = NewFromConfig(context.Background(), cfg, nil)
	assert.ErrorContains(t, err, "unknown genai provider")
}
