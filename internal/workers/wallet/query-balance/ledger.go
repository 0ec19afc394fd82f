package querybalance

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"milo-interpreter/internal/common/errors"
	httpclient "milo-interpreter/internal/common/http"
	"milo-interpreter/internal/models"
)

// Ledger reads on-chain balances.
type Ledger interface {
	Balance(ctx context.Context, address string, asset models.Asset) (float64, error)
}

// HTTPLedger reads GET {base}/balance/{address}/{asset} → {"balance": n}.
type HTTPLedger struct {
	baseURL string
	client  *httpclient.Client
}

func NewHTTPLedger(config *Config) *HTTPLedger {
	return &HTTPLedger{
		baseURL: strings.TrimRight(config.LedgerBaseURL, "/"),
		client:  httpclient.NewClient(config.Timeout, config.MaxRetries),
	}
}

func (l *HTTPLedger) Balance(ctx context.Context, address string, asset models.Asset) (float64, error) {
	var resp struct {
		Balance *float64 `json:"balance"`
	}
	endpoint := fmt.Sprintf("%s/balance/%s/%s", l.baseURL, url.PathEscape(address), url.PathEscape(string(asset)))
	if err := l.client.GetJSON(ctx, endpoint, &resp); err != nil {
		return 0, errors.NewBalanceQueryFailedError(err)
	}
	if resp.Balance == nil {
		return 0, errors.NewBalanceQueryFailedError(fmt.Errorf("ledger response has no balance"))
	}
	return *resp.Balance, nil
}
