package api

import (
	"bytes"
	"context"
	"encoding/json"
	stderrors "errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milo-interpreter/internal/common/database"
	"milo-interpreter/internal/common/errors"
	"milo-interpreter/internal/models"
	"milo-interpreter/internal/orchestrator"
	drafttransaction "milo-interpreter/internal/workers/wallet/draft-transaction"
	querybalance "milo-interpreter/internal/workers/wallet/query-balance"
)

type TestLogger struct {
	t *testing.T
}

func (l TestLogger) Info(msg string, fields map[string]interface{}) {
	l.t.Logf("INFO: %s %v", msg, fields)
}

func (l TestLogger) Warn(msg string, fields map[string]interface{}) {
	l.t.Logf("WARN: %s %v", msg, fields)
}

func (l TestLogger) Error(msg string, fields map[string]interface{}) {
	l.t.Logf("ERROR: %s %v", msg, fields)
}

type fakeChat struct {
	mu    sync.Mutex
	text  []orchestrator.Request
	audio []orchestrator.AudioRequest

	textResp  *orchestrator.Response
	audioResp *orchestrator.Response
}

func (f *fakeChat) HandleText(_ context.Context, req orchestrator.Request) *orchestrator.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text = append(f.text, req)
	return f.textResp
}

func (f *fakeChat) HandleAudio(_ context.Context, req orchestrator.AudioRequest) *orchestrator.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.audio = append(f.audio, req)
	return f.audioResp
}

type memoryContacts struct {
	mu    sync.Mutex
	books map[string][]models.Contact
	err   error
}

func (m *memoryContacts) List(_ context.Context, owner string) ([]models.Contact, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return nil, m.err
	}
	return m.books[owner], nil
}

func (m *memoryContacts) Save(_ context.Context, owner string, c models.Contact) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c.Name == "" {
		return errors.NewInvalidRequestError("contact name is required")
	}
	m.books[owner] = append(m.books[owner], c)
	return nil
}

func (m *memoryContacts) Delete(_ context.Context, owner, name string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var kept []models.Contact
	for _, c := range m.books[owner] {
		if !strings.EqualFold(c.Name, name) {
			kept = append(kept, c)
		}
	}
	n := int64(len(m.books[owner]) - len(kept))
	m.books[owner] = kept
	return n, nil
}

type drafterFunc func(ctx context.Context, input *drafttransaction.Input) (*drafttransaction.Output, error)

func (f drafterFunc) Execute(ctx context.Context, input *drafttransaction.Input) (*drafttransaction.Output, error) {
	return f(ctx, input)
}

type balanceFunc func(ctx context.Context, input *querybalance.Input) (*querybalance.Output, error)

func (f balanceFunc) Execute(ctx context.Context, input *querybalance.Input) (*querybalance.Output, error) {
	return f(ctx, input)
}

type pingFunc func(ctx context.Context) error

func (f pingFunc) Ping(ctx context.Context) error { return f(ctx) }

func newTestServer(t *testing.T, deps Dependencies) *httptest.Server {
	deps.Logger = TestLogger{t: t}
	srv := httptest.NewServer(NewServer(deps).Router())
	t.Cleanup(srv.Close)
	return srv
}

func post(t *testing.T, url, body string) (*http.Response, map[string]interface{}) {
	t.Helper()
	resp, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	return decode(t, resp)
}

func decode(t *testing.T, resp *http.Response) (*http.Response, map[string]interface{}) {
	t.Helper()
	defer resp.Body.Close()
	var out map[string]interface{}
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return resp, out
}

var aliceTransfer = models.TransferIntent{
	Asset:     models.AssetSUI,
	Amount:    "5",
	Recipient: "0xabc123def456",
	Reply:     "Sending 5 SUI to Alice.",
}

func TestChat_Command(t *testing.T) {
	chat := &fakeChat{textResp: &orchestrator.Response{Intent: aliceTransfer}}
	srv := newTestServer(t, Dependencies{Chat: chat})

	resp, body := post(t, srv.URL+"/api/chat",
		`{"prompt":"send 5 SUI to Alice","contacts":[{"name":"Alice","address":"0xabc123def456"}]}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{
		"action":    "transfer",
		"asset":     "SUI",
		"amount":    "5",
		"recipient": "0xabc123def456",
		"reply":     "Sending 5 SUI to Alice.",
	}, body)
	assert.Equal(t, "*", resp.Header.Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, resp.Header.Get(RequestIDHeader))

	require.Len(t, chat.text, 1)
	assert.Equal(t, []models.Contact{{Name: "Alice", Address: "0xabc123def456"}}, chat.text[0].Contacts)
	assert.Equal(t, resp.Header.Get(RequestIDHeader), chat.text[0].RequestID)
}

func TestChat_Conversational(t *testing.T) {
	chat := &fakeChat{textResp: &orchestrator.Response{
		Conversation: models.NewConversationResult(models.ClassGreeting, "Hi! I'm Milo."),
	}}
	srv := newTestServer(t, Dependencies{Chat: chat})

	resp, body := post(t, srv.URL+"/api/chat",
		`{"prompt":"hello","history":[{"role":"user","text":"hey"}]}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{
		"type":    "conversational",
		"intent":  "greeting",
		"message": "Hi! I'm Milo.",
	}, body)
	assert.Equal(t, []models.Turn{{Role: "user", Text: "hey"}}, chat.text[0].History)
}

func TestChat_Audio(t *testing.T) {
	chat := &fakeChat{audioResp: &orchestrator.Response{
		Transcription: &models.TranscriptionResult{Transcription: "send 5 SUI to Alice"},
	}}
	srv := newTestServer(t, Dependencies{Chat: chat})

	resp, body := post(t, srv.URL+"/api/chat",
		`{"audioBase64":"UklGRg==","mimeType":"audio/wav","prompt":"ignored"}`)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{"transcription": "send 5 SUI to Alice"}, body)
	require.Len(t, chat.audio, 1)
	assert.Empty(t, chat.text)
	assert.Equal(t, []byte("RIFF"), chat.audio[0].Audio)
	assert.Equal(t, "en", chat.audio[0].Language)
}

func TestChat_RequestIDIsPropagated(t *testing.T) {
	chat := &fakeChat{textResp: &orchestrator.Response{Intent: models.BalanceQueryIntent{}}}
	srv := newTestServer(t, Dependencies{Chat: chat})

	req, err := http.NewRequest(http.MethodPost, srv.URL+"/api/chat", strings.NewReader(`{"prompt":"balance?"}`))
	require.NoError(t, err)
	req.Header.Set(RequestIDHeader, "req-42")
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	resp.Body.Close()

	assert.Equal(t, "req-42", resp.Header.Get(RequestIDHeader))
	assert.Equal(t, "req-42", chat.text[0].RequestID)
}

func TestChat_Rejections(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		expected string
	}{
		{"invalid json", `{"prompt":`, "Invalid JSON"},
		{"wrong type", `{"prompt":5}`, "Invalid request"},
		{"bad history role", `{"prompt":"hi","history":[{"role":"system","text":"x"}]}`, "Invalid request"},
		{"empty", `{}`, "Missing prompt or audio data"},
		{"blank prompt", `{"prompt":"   "}`, "Missing prompt or audio data"},
		{"audio without mime type", `{"audioBase64":"UklGRg=="}`, "Missing prompt or audio data"},
		{"undecodable audio", `{"audioBase64":"!!!","mimeType":"audio/wav"}`, "Invalid request"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			chat := &fakeChat{}
			srv := newTestServer(t, Dependencies{Chat: chat})

			resp, body := post(t, srv.URL+"/api/chat", tt.body)

			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
			assert.Equal(t, tt.expected, body["error"])
			assert.Empty(t, chat.text)
			assert.Empty(t, chat.audio)
		})
	}
}

func TestChat_MethodNotAllowed(t *testing.T) {
	srv := newTestServer(t, Dependencies{Chat: &fakeChat{}})

	resp, err := http.Get(srv.URL + "/api/chat")
	require.NoError(t, err)
	resp, body := decode(t, resp)

	assert.Equal(t, http.StatusMethodNotAllowed, resp.StatusCode)
	assert.Equal(t, "Method not allowed", body["error"])
}

func TestChat_Preflight(t *testing.T) {
	srv := newTestServer(t, Dependencies{Chat: &fakeChat{}, Balance: balanceFunc(nil)})

	for _, path := range []string{"/api/chat", "/api/balance/0xabc123def456"} {
		req, err := http.NewRequest(http.MethodOptions, srv.URL+path, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		resp.Body.Close()

		assert.Equal(t, http.StatusOK, resp.StatusCode, path)
		assert.Contains(t, resp.Header.Get("Access-Control-Allow-Methods"), "POST", path)
	}
}

func TestChat_Failure(t *testing.T) {
	chat := &fakeChat{textResp: &orchestrator.Response{
		Err:     errors.NewCommandInterpretationFailedError(stderrors.New("unexpected end of JSON input")),
		Message: "Failed to process command",
	}}
	srv := newTestServer(t, Dependencies{Chat: chat})

	resp, body := post(t, srv.URL+"/api/chat", `{"prompt":"send 5 SUI to Alice"}`)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, map[string]interface{}{
		"error":   "Failed to process request",
		"details": "Failed to process command",
	}, body)
}

func TestChat_AudioFailure(t *testing.T) {
	chat := &fakeChat{audioResp: &orchestrator.Response{
		Err: errors.NewTranscriptionFailedError("transcribe", stderrors.New("quota exceeded")),
	}}
	srv := newTestServer(t, Dependencies{Chat: chat})

	resp, body := post(t, srv.URL+"/api/chat", `{"audioBase64":"UklGRg==","mimeType":"audio/webm"}`)

	assert.Equal(t, http.StatusInternalServerError, resp.StatusCode)
	assert.Equal(t, "Failed to transcribe audio", body["details"])
	assert.NotContains(t, body["details"], "quota")
}

func TestChat_OwnerContacts(t *testing.T) {
	book := []models.Contact{{Name: "Bob", Address: "0xb0b000000001"}}
	store := &memoryContacts{books: map[string][]models.Contact{"0xowner0000001": book}}
	chat := &fakeChat{textResp: &orchestrator.Response{Intent: models.BalanceQueryIntent{}}}
	srv := newTestServer(t, Dependencies{Chat: chat, Contacts: store})

	post(t, srv.URL+"/api/chat", `{"prompt":"send 1 SUI to Bob","owner":"0xowner0000001"}`)
	post(t, srv.URL+"/api/chat",
		`{"prompt":"send 1 SUI to Bob","owner":"0xowner0000001","contacts":[{"name":"Bob","address":"0xinline000001"}]}`)

	require.Len(t, chat.text, 2)
	assert.Equal(t, book, chat.text[0].Contacts)
	assert.Equal(t, "0xinline000001", chat.text[1].Contacts[0].Address)

	store.err = errors.NewQueryExecutionFailedError("contacts", stderrors.New("connection reset"))
	resp, _ := post(t, srv.URL+"/api/chat", `{"prompt":"send 1 SUI to Bob","owner":"0xowner0000001"}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Empty(t, chat.text[2].Contacts)
}

func TestContacts(t *testing.T) {
	store := &memoryContacts{books: map[string][]models.Contact{}}
	srv := newTestServer(t, Dependencies{Chat: &fakeChat{}, Contacts: store})
	base := srv.URL + "/api/contacts/0xowner0000001"

	resp, body := post(t, base, `{"name":"Alice","address":"0xabc123def456"}`)
	assert.Equal(t, http.StatusCreated, resp.StatusCode)
	assert.Equal(t, "Alice", body["name"])

	resp, body = post(t, base, `{"name":"","address":"0xabc123def456"}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid request", body["error"])

	got, err := http.Get(base)
	require.NoError(t, err)
	resp, body = decode(t, got)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, []interface{}{map[string]interface{}{"name": "Alice", "address": "0xabc123def456"}}, body["contacts"])

	del := func(name string) *http.Response {
		req, err := http.NewRequest(http.MethodDelete, base+"/"+name, nil)
		require.NoError(t, err)
		resp, err := http.DefaultClient.Do(req)
		require.NoError(t, err)
		return resp
	}
	resp, body = decode(t, del("alice"))
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, float64(1), body["deleted"])

	resp, _ = decode(t, del("alice"))
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	got, err = http.Get(srv.URL + "/api/contacts/0xother0000001")
	require.NoError(t, err)
	_, body = decode(t, got)
	assert.Equal(t, []interface{}{}, body["contacts"])
}

func TestContacts_NotRoutedWithoutDirectory(t *testing.T) {
	srv := newTestServer(t, Dependencies{Chat: &fakeChat{}})

	resp, err := http.Get(srv.URL + "/api/contacts/0xowner0000001")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestDraft(t *testing.T) {
	drafter := drafterFunc(func(_ context.Context, in *drafttransaction.Input) (*drafttransaction.Output, error) {
		if in.Owner == "0xbroken000001" {
			return nil, errors.NewTransactionBuildFailedError(stderrors.New("builder returned 503"))
		}
		return &drafttransaction.Output{
			Transaction: &drafttransaction.TransactionHandle{ID: "tx-1"},
			Intent:      in.Intent,
		}, nil
	})
	srv := newTestServer(t, Dependencies{Chat: &fakeChat{}, Drafter: drafter})
	url := srv.URL + "/api/transactions/draft"

	resp, body := post(t, url,
		`{"intent":{"action":"swap","fromAsset":"USDC","toAsset":"SUI","amount":"2","reply":"ok"}}`)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "tx-1", body["transaction"].(map[string]interface{})["id"])
	assert.Equal(t, "swap", body["intent"].(map[string]interface{})["action"])

	resp, body = post(t, url, `{"intent":null}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, "Invalid request", body["error"])

	resp, _ = post(t, url, `{"intent":{"action":"mint"}}`)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, body = post(t, url,
		`{"owner":"0xbroken000001","intent":{"action":"query_balance"}}`)
	assert.Equal(t, http.StatusBadGateway, resp.StatusCode)
	assert.Equal(t, "Failed to build transaction", body["error"])
}

func TestBalance(t *testing.T) {
	var got *querybalance.Input
	balance := balanceFunc(func(_ context.Context, in *querybalance.Input) (*querybalance.Output, error) {
		got = in
		v := 12.5
		return &querybalance.Output{Address: in.Address, Asset: models.AssetSUI, Supported: true, Balance: &v, Message: "12.5 SUI"}, nil
	})
	srv := newTestServer(t, Dependencies{Chat: &fakeChat{}, Balance: balance})

	r, err := http.Get(srv.URL + "/api/balance/0xabc123def456?asset=sui&language=fr")
	require.NoError(t, err)
	resp, body := decode(t, r)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 12.5, body["balance"])
	assert.Equal(t, &querybalance.Input{Address: "0xabc123def456", Asset: "sui", Language: "fr"}, got)
}

func TestHealthAndReady(t *testing.T) {
	var healthy atomic.Bool
	healthy.Store(true)
	srv := newTestServer(t, Dependencies{
		Chat:    &fakeChat{},
		Version: "1.2.3",
		Checks: map[string]database.Pinger{
			"redis": pingFunc(func(context.Context) error {
				if healthy.Load() {
					return nil
				}
				return stderrors.New("connection refused")
			}),
		},
	})

	r, err := http.Get(srv.URL + "/health")
	require.NoError(t, err)
	resp, body := decode(t, r)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "healthy", body["status"])
	assert.Equal(t, "1.2.3", body["version"])

	r, err = http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	resp, body = decode(t, r)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ready", body["status"])

	healthy.Store(false)
	r, err = http.Get(srv.URL + "/ready")
	require.NoError(t, err)
	resp, body = decode(t, r)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
	assert.Equal(t, "unavailable", body["status"])
}

func TestMetricsEndpoint(t *testing.T) {
	srv := newTestServer(t, Dependencies{Chat: &fakeChat{}})

	resp, err := http.Get(srv.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()

	var buf bytes.Buffer
	_, err = buf.ReadFrom(resp.Body)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, buf.String(), "go_goroutines")
}
