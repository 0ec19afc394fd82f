// internal/workers/wallet/draft-transaction/handler_test.go
package drafttransaction

import (
	"context"
	"encoding/json"
	stderrors "errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milo-interpreter/internal/common/errors"
	"milo-interpreter/internal/contacts"
	"milo-interpreter/internal/models"
)

// ==========================
// Test Logger Implementation
// ==========================

type TestLogger struct {
	t      *testing.T
	fields map[string]interface{}
}

func NewTestLogger(t *testing.T) *TestLogger {
	return &TestLogger{
		t:      t,
		fields: make(map[string]interface{}),
	}
}

func (l *TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, l.mergeFields(fields))
}

func (l *TestLogger) With(fields map[string]interface{}) Logger {
	return &TestLogger{t: l.t, fields: l.mergeFields(fields)}
}

func (l *TestLogger) mergeFields(fields map[string]interface{}) map[string]interface{} {
	all := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		all[k] = v
	}
	for k, v := range fields {
		all[k] = v
	}
	return all
}

// ==========================
// Test Helper Functions
// ==========================

const (
	aliceAddr = "0xa11ce00000000000000000000000000000000001"
	literal   = "0x1234567890abcdef"
)

func createTestConfig(baseURL string) *Config {
	return &Config{
		BuilderBaseURL: baseURL,
		Timeout:        2 * time.Second,
		MaxRetries:     1,
	}
}

type recorder struct {
	mu    sync.Mutex
	calls int32
	body  []byte
}

func (r *recorder) record(body []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls++
	r.body = body
}

func (r *recorder) snapshot() (int32, []byte) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls, r.body
}

// builderServer records each /build body and answers with a handle.
func builderServer(t *testing.T, status int, rec *recorder) *httptest.Server {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/build", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		rec.record(body)

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		if status == http.StatusOK {
			_, _ = w.Write([]byte(`{"id":"tx-1","txBytes":"AAEC"}`))
		}
	}))
	t.Cleanup(srv.Close)
	return srv
}

type fakeDirectory struct {
	book []models.Contact
	err  error
}

func (f *fakeDirectory) Resolver(_ context.Context, _ string) (*contacts.SnapshotResolver, error) {
	if f.err != nil {
		return nil, f.err
	}
	return contacts.NewSnapshotResolver(f.book), nil
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Execute_Transfer(t *testing.T) {
	rec := &recorder{}
	srv := builderServer(t, http.StatusOK, rec)
	h := NewHandler(createTestConfig(srv.URL+"/"), nil, nil, NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{
		Intent: models.IntentEnvelope{Intent: models.TransferIntent{
			Asset: models.AssetSUI, Amount: "5.0", Recipient: "alice", Reply: "Sending",
		}},
		Contacts: []models.Contact{{Name: "Alice", Address: aliceAddr}},
	})
	require.NoError(t, err)
	assert.Equal(t, &TransactionHandle{ID: "tx-1", TxBytes: "AAEC"}, out.Transaction)
	assert.Equal(t, models.TransferIntent{Asset: models.AssetSUI, Amount: "5", Recipient: aliceAddr, Reply: "Sending"}, out.Intent.Intent)

	calls, body := rec.snapshot()
	assert.JSONEq(t,
		`{"action":"transfer","asset":"SUI","amount":"5","recipient":"`+aliceAddr+`","reply":"Sending"}`,
		string(body))
	assert.Equal(t, int32(1), calls)
}

func TestHandler_Execute_LongAmountIsNotRounded(t *testing.T) {
	rec := &recorder{}
	srv := builderServer(t, http.StatusOK, rec)
	h := NewHandler(createTestConfig(srv.URL), nil, nil, NewTestLogger(t))

	swap := models.SwapIntent{FromAsset: models.AssetSUI, ToAsset: models.AssetUSDC, Amount: "0.1234567890123456789", Reply: "Swapping"}
	out, err := h.Execute(context.Background(), &Input{Intent: models.IntentEnvelope{Intent: swap}})
	require.NoError(t, err)
	assert.Equal(t, swap, out.Intent.Intent)

	_, body := rec.snapshot()
	assert.Contains(t, string(body), `"amount":"0.1234567890123456789"`)
}

func TestHandler_Execute_Swap(t *testing.T) {
	rec := &recorder{}
	srv := builderServer(t, http.StatusOK, rec)
	h := NewHandler(createTestConfig(srv.URL), nil, nil, NewTestLogger(t))

	swap := models.SwapIntent{FromAsset: models.AssetSUI, ToAsset: models.AssetUSDC, Amount: "10", Reply: "Swapping"}
	out, err := h.Execute(context.Background(), &Input{Intent: models.IntentEnvelope{Intent: swap}})
	require.NoError(t, err)
	assert.Equal(t, swap, out.Intent.Intent)

	_, body := rec.snapshot()
	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(body, &sent))
	assert.Equal(t, "swap", sent["action"])
	assert.Equal(t, "USDC", sent["toAsset"])
}

func TestHandler_Execute_UsesDirectory(t *testing.T) {
	rec := &recorder{}
	srv := builderServer(t, http.StatusOK, rec)

	dir := &fakeDirectory{book: []models.Contact{{Name: "Alice", Address: aliceAddr}}}
	h := NewHandler(createTestConfig(srv.URL), nil, dir, NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{
		Intent: models.IntentEnvelope{Intent: models.TransferIntent{Asset: models.AssetUSDC, Amount: "1", Recipient: "Alice"}},
		Owner:  "0xowner0000000001",
	})
	require.NoError(t, err)
	assert.Equal(t, aliceAddr, out.Intent.Intent.(models.TransferIntent).Recipient)
}

func TestDrafter_RecipientFallback(t *testing.T) {
	rec := &recorder{}
	srv := builderServer(t, http.StatusOK, rec)

	failing := contactsResolverFunc(func(context.Context, string) (string, error) {
		return "", errors.NewDatabaseConnectionFailedError(stderrors.New("down"))
	})
	d := NewDrafter(NewHTTPBuilder(createTestConfig(srv.URL)), NewTestLogger(t))

	// A literal address from the interpreter survives a failed lookup.
	_, intent, err := d.Draft(context.Background(),
		models.TransferIntent{Asset: models.AssetSUI, Amount: "1", Recipient: literal}, failing)
	require.NoError(t, err)
	assert.Equal(t, literal, intent.(models.TransferIntent).Recipient)

	// A name does not.
	_, _, err = d.Draft(context.Background(),
		models.TransferIntent{Asset: models.AssetSUI, Amount: "1", Recipient: "Bob"}, failing)
	assert.Equal(t, errors.ErrCodeContactResolutionFailed, errors.CodeOf(err))
	assert.Equal(t, `"Bob" is not a saved contact and does not appear to be a valid Sui address.`, errors.UserMessage(err))
	calls, _ := rec.snapshot()
	assert.Equal(t, int32(1), calls)
}

type contactsResolverFunc func(ctx context.Context, token string) (string, error)

func (f contactsResolverFunc) Resolve(ctx context.Context, token string) (string, error) {
	return f(ctx, token)
}

func TestDrafter_Rejects(t *testing.T) {
	rec := &recorder{}
	srv := builderServer(t, http.StatusOK, rec)
	d := NewDrafter(NewHTTPBuilder(createTestConfig(srv.URL)), NewTestLogger(t))

	tests := []struct {
		name   string
		intent models.Intent
	}{
		{"nil", nil},
		{"error intent", models.ErrorIntent{Message: "nope"}},
		{"balance", models.BalanceQueryIntent{}},
		{"bad asset", models.TransferIntent{Asset: "DOGE", Amount: "1", Recipient: literal}},
		{"zero amount", models.TransferIntent{Asset: models.AssetSUI, Amount: "0", Recipient: literal}},
		{"same asset swap", models.SwapIntent{FromAsset: models.AssetSUI, ToAsset: models.AssetSUI, Amount: "1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := d.Draft(context.Background(), tt.intent, nil)
			assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))
		})
	}
	calls, _ := rec.snapshot()
	assert.Equal(t, int32(0), calls)
}

func TestHTTPBuilder_Failures(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantCalls int32
	}{
		{"client error not retried", http.StatusBadRequest, 1},
		{"server error retried", http.StatusBadGateway, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := &recorder{}
			srv := builderServer(t, tt.status, rec)

			_, err := NewHTTPBuilder(createTestConfig(srv.URL)).Build(context.Background(),
				models.SwapIntent{FromAsset: models.AssetSUI, ToAsset: models.AssetUSDC, Amount: "1"})
			assert.Equal(t, errors.ErrCodeTransactionBuildFailed, errors.CodeOf(err))
			calls, _ := rec.snapshot()
			assert.Equal(t, tt.wantCalls, calls)
		})
	}
}

func TestHTTPBuilder_EmptyHandle(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{}`))
	}))
	defer srv.Close()

	_, err := NewHTTPBuilder(createTestConfig(srv.URL)).Build(context.Background(), models.BalanceQueryIntent{})
	assert.Equal(t, errors.ErrCodeTransactionBuildFailed, errors.CodeOf(err))
}
