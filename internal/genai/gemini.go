package genai

import (
	"context"
	"fmt"
	"strings"
	"time"

	"google.golang.org/genai"

	"milo-interpreter/internal/common/errors"
	"milo-interpreter/internal/common/metrics"
)

const BackendGemini = "gemini"

// contentGenerator is the slice of *genai.Models the Gemini backend uses.
type contentGenerator interface {
	GenerateContent(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error)
}

type GeminiConfig struct {
	APIKey      string
	Model       string
	Timeout     time.Duration
	Temperature float32
}

// GeminiCompleter calls the Gemini API directly.
type GeminiCompleter struct {
	models contentGenerator
	config GeminiConfig
}

func NewGeminiCompleter(ctx context.Context, cfg GeminiConfig) (*GeminiCompleter, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("GenAI API key is required")
	}
	if cfg.Model == "" {
		cfg.Model = "gemini-2.0-flash"
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create GenAI client: %w", err)
	}

	return newGeminiCompleter(client.Models, cfg), nil
}

func newGeminiCompleter(models contentGenerator, cfg GeminiConfig) *GeminiCompleter {
	return &GeminiCompleter{models: models, config: cfg}
}

func (g *GeminiCompleter) Complete(ctx context.Context, prompt Prompt) (string, error) {
	if g.config.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.config.Timeout)
		defer cancel()
	}

	parts := []*genai.Part{genai.NewPartFromText(prompt.Text)}
	for _, p := range prompt.Parts {
		parts = append(parts, genai.NewPartFromBytes(p.Data, p.MIMEType))
	}
	contents := []*genai.Content{genai.NewContentFromParts(parts, genai.RoleUser)}

	cfg := &genai.GenerateContentConfig{
		Temperature: genai.Ptr(g.config.Temperature),
	}
	if prompt.JSON {
		cfg.ResponseMIMEType = "application/json"
	}

	resp, err := g.models.GenerateContent(ctx, g.config.Model, contents, cfg)
	if err != nil {
		if ctx.Err() != nil {
			metrics.CompletionCalls.WithLabelValues(BackendGemini, "timeout").Inc()
			return "", errors.NewCompletionTimeoutError(BackendGemini)
		}
		metrics.CompletionCalls.WithLabelValues(BackendGemini, "error").Inc()
		return "", errors.NewCompletionFailedError(BackendGemini, err)
	}

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		metrics.CompletionCalls.WithLabelValues(BackendGemini, "empty").Inc()
		return "", errors.NewCompletionFailedError(BackendGemini, fmt.Errorf("empty response"))
	}

	metrics.CompletionCalls.WithLabelValues(BackendGemini, "ok").Inc()
	return text, nil
}
