// Package audit keeps a best-effort trail of interpreter turns in
// Elasticsearch.
package audit

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"milo-interpreter/internal/common/database"
)

// Record is one interpreter turn. Utterances are not stored.
type Record struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"requestId,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
	Entry          string    `json:"entry"`
	Outcome        string    `json:"outcome"`
	Classification string    `json:"classification,omitempty"`
	Action         string    `json:"action,omitempty"`
	Language       string    `json:"language,omitempty"`
	ErrorCode      string    `json:"errorCode,omitempty"`
	DurationMs     int64     `json:"durationMs"`
}

type Recorder interface {
	Record(ctx context.Context, rec Record) error
}

// Nop discards records.
type Nop struct{}

func (Nop) Record(context.Context, Record) error { return nil }

const mapping = `{
	"mappings": {
		"properties": {
			"id":             {"type": "keyword"},
			"requestId":      {"type": "keyword"},
			"timestamp":      {"type": "date"},
			"entry":          {"type": "keyword"},
			"outcome":        {"type": "keyword"},
			"classification": {"type": "keyword"},
			"action":         {"type": "keyword"},
			"language":       {"type": "keyword"},
			"errorCode":      {"type": "keyword"},
			"durationMs":     {"type": "long"}
		}
	}
}`

// ESRecorder indexes records into one index, creating it on first use.
type ESRecorder struct {
	es      *database.ElasticsearchClient
	index   string
	timeout time.Duration

	mu    sync.Mutex
	ready bool
}

func NewESRecorder(es *database.ElasticsearchClient, index string, timeout time.Duration) *ESRecorder {
	return &ESRecorder{es: es, index: index, timeout: timeout}
}

func (r *ESRecorder) Record(ctx context.Context, rec Record) error {
	if r.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.timeout)
		defer cancel()
	}

	if err := r.ensureIndex(ctx); err != nil {
		return err
	}

	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = time.Now().UTC()
	}
	return r.es.IndexDocument(ctx, r.index, rec.ID, rec)
}

func (r *ESRecorder) ensureIndex(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.ready {
		return nil
	}
	if err := r.es.EnsureIndex(ctx, r.index, mapping); err != nil {
		return err
	}
	r.ready = true
	return nil
}
