package drafttransaction

import (
	"context"
	"strings"

	"milo-interpreter/internal/common/errors"
	httpclient "milo-interpreter/internal/common/http"
	"milo-interpreter/internal/models"
)

// Builder turns a validated intent into an unsigned transaction.
type Builder interface {
	Build(ctx context.Context, intent models.Intent) (*TransactionHandle, error)
}

// HTTPBuilder posts the intent JSON unchanged to {base}/build.
type HTTPBuilder struct {
	baseURL string
	client  *httpclient.Client
}

func NewHTTPBuilder(config *Config) *HTTPBuilder {
	return &HTTPBuilder{
		baseURL: strings.TrimRight(config.BuilderBaseURL, "/"),
		client:  httpclient.NewClient(config.Timeout, config.MaxRetries),
	}
}

func (b *HTTPBuilder) Build(ctx context.Context, intent models.Intent) (*TransactionHandle, error) {
	var handle TransactionHandle
	if err := b.client.PostJSON(ctx, b.baseURL+"/build", intent, &handle); err != nil {
		return nil, errors.NewTransactionBuildFailedError(err)
	}
	if handle.ID == "" && handle.TxBytes == "" {
		return nil, errors.NewTransactionBuildFailedError(errEmptyHandle)
	}
	return &handle, nil
}
