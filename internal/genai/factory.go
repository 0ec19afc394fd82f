package genai

import (
	"context"
	"fmt"

	"milo-interpreter/internal/common/config"
)

// NewFromConfig builds the configured backend, wrapped in a circuit breaker
// when one is enabled.
func NewFromConfig(ctx context.Context, cfg *config.Config, log Logger) (Completer, error) {
	g := cfg.APIs.GenAI

	var backend Completer
	switch g.Provider {
	case config.ProviderGemini:
		c, err := NewGeminiCompleter(ctx, GeminiConfig{
			APIKey:      g.APIKey,
			Model:       g.Model,
			Timeout:     config.GetDuration(g.Timeout),
			Temperature: g.Temperature,
		})
		if err != nil {
			return nil, err
		}
		backend = c
	case config.ProviderHTTP:
		backend = NewRemoteCompleter(RemoteConfig{
			BaseURL:    g.BaseURL,
			APIKey:     g.APIKey,
			Model:      g.Model,
			Timeout:    config.GetDuration(g.Timeout),
			MaxRetries: g.MaxRetries,
		})
	default:
		return nil, fmt.Errorf("unknown genai provider %q", g.Provider)
	}

	cb := cfg.CircuitBreaker
	if !cb.Enabled {
		return backend, nil
	}
	return NewBreakerCompleter(backend, BreakerSettings{
		Name:         "genai-" + g.Provider,
		MaxRequests:  cb.MaxRequests,
		Interval:     config.GetDuration(cb.Interval),
		Timeout:      config.GetDuration(cb.Timeout),
		MinRequests:  cb.MinRequests,
		FailureRatio: cb.FailureRatio,
	}, log), nil
}
