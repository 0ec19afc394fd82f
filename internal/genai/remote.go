package genai

import (
	"context"
	"encoding/base64"
	stderrors "errors"
	"fmt"
	"strings"
	"time"

	"milo-interpreter/internal/common/errors"
	httpclient "milo-interpreter/internal/common/http"
	"milo-interpreter/internal/common/metrics"
)

const BackendHTTP = "http"

type RemoteConfig struct {
	BaseURL    string
	APIKey     string
	Model      string
	Timeout    time.Duration
	MaxRetries int
}

// RemoteCompleter calls a completion service over HTTP:
// POST {BaseURL}/api/ai/generate → {"text": "..."}.
type RemoteCompleter struct {
	config RemoteConfig
	client *httpclient.Client
}

type remoteRequest struct {
	Prompt string       `json:"prompt"`
	Model  string       `json:"model,omitempty"`
	Parts  []remotePart `json:"parts,omitempty"`
	JSON   bool         `json:"json,omitempty"`
}

type remotePart struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"` // base64
}

type remoteResponse struct {
	Text string `json:"text"`
}

func NewRemoteCompleter(cfg RemoteConfig) *RemoteCompleter {
	client := httpclient.NewClient(cfg.Timeout, cfg.MaxRetries)
	if cfg.APIKey != "" {
		client = client.WithHeader("X-API-Key", cfg.APIKey)
	}
	return &RemoteCompleter{
		config: cfg,
		client: client,
	}
}

func (r *RemoteCompleter) Complete(ctx context.Context, prompt Prompt) (string, error) {
	req := remoteRequest{
		Prompt: prompt.Text,
		Model:  r.config.Model,
		JSON:   prompt.JSON,
	}
	for _, p := range prompt.Parts {
		req.Parts = append(req.Parts, remotePart{
			MIMEType: p.MIMEType,
			Data:     base64.StdEncoding.EncodeToString(p.Data),
		})
	}

	var resp remoteResponse
	url := strings.TrimRight(r.config.BaseURL, "/") + "/api/ai/generate"
	if err := r.client.PostJSON(ctx, url, req, &resp); err != nil {
		if stderrors.Is(err, httpclient.ErrRequestTimeout) {
			metrics.CompletionCalls.WithLabelValues(BackendHTTP, "timeout").Inc()
			return "", errors.NewCompletionTimeoutError(BackendHTTP)
		}
		metrics.CompletionCalls.WithLabelValues(BackendHTTP, "error").Inc()
		return "", errors.NewCompletionFailedError(BackendHTTP, err)
	}

	text := strings.TrimSpace(resp.Text)
	if text == "" {
		metrics.CompletionCalls.WithLabelValues(BackendHTTP, "empty").Inc()
		return "", errors.NewCompletionFailedError(BackendHTTP, fmt.Errorf("empty response"))
	}

	metrics.CompletionCalls.WithLabelValues(BackendHTTP, "ok").Inc()
	return text, nil
}
