// internal/workers/ai-conversation/conversational-reply/handler_test.go
package conversationalreply

import (
	"context"
	stderrors "errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"milo-interpreter/internal/common/errors"
	"milo-interpreter/internal/genai"
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

func createTestConfig() *Config {
	return &Config{
		AssistantName: "Milo",
		HistoryTurns:  2,
		Timeout:       5 * time.Second,
	}
}

type stubCompleter struct {
	reply   string
	err     error
	prompts []genai.Prompt
}

func (s *stubCompleter) Complete(_ context.Context, p genai.Prompt) (string, error) {
	s.prompts = append(s.prompts, p)
	return s.reply, s.err
}

// ==========================
// Core Functionality Tests
// ==========================

func TestHandler_Respond(t *testing.T) {
	tests := []struct {
		name     string
		intent   models.Classification
		reply    string
		tone     string
		expected string
	}{
		{
			name:     "greeting",
			intent:   models.ClassGreeting,
			reply:    "  Hi there! Want to send, swap or check your balance?\n",
			tone:     greetingTone,
			expected: "Hi there! Want to send, swap or check your balance?",
		},
		{
			name:     "question",
			intent:   models.ClassQuestion,
			reply:    "Gas is the fee paid to run a transaction.",
			tone:     questionTone,
			expected: "Gas is the fee paid to run a transaction.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stub := &stubCompleter{reply: tt.reply}
			h := NewHandler(createTestConfig(), stub, NewTestLogger(t))

			got, err := h.Respond(context.Background(), "hello, what is gas?", tt.intent)
			require.NoError(t, err)
			assert.Equal(t, models.NewConversationResult(tt.intent, tt.expected), got)
			assert.Equal(t, "conversational", got.Type)

			require.Len(t, stub.prompts, 1)
			assert.False(t, stub.prompts[0].JSON)
			assert.Contains(t, stub.prompts[0].Text, tt.tone)
			assert.Contains(t, stub.prompts[0].Text, "You are Milo")
		})
	}
}

func TestHandler_RespondWithHistory(t *testing.T) {
	stub := &stubCompleter{reply: "Sure."}
	h := NewHandler(createTestConfig(), stub, NewTestLogger(t))

	history := []models.Turn{
		{Role: "user", Text: "first"},
		{Role: "assistant", Text: "second"},
		{Role: "user", Text: "third"},
	}
	_, err := h.RespondWithHistory(context.Background(), "and then?", models.ClassQuestion, history)
	require.NoError(t, err)

	prompt := stub.prompts[0].Text
	assert.NotContains(t, prompt, "first")
	assert.Contains(t, prompt, "assistant: second")
	assert.Contains(t, prompt, "user: third")
	assert.Len(t, history, 3)
}

func TestHandler_Respond_Failures(t *testing.T) {
	tests := []struct {
		name  string
		reply string
		err   error
	}{
		{"empty reply", "", nil},
		{"whitespace reply", " \n\t", nil},
		{"completion failure", "", errors.NewCompletionFailedError("http", stderrors.New("500"))},
		{"completion timeout", "", errors.NewCompletionTimeoutError("http")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewHandler(createTestConfig(), &stubCompleter{reply: tt.reply, err: tt.err}, NewTestLogger(t))

			got, err := h.Respond(context.Background(), "hi", models.ClassGreeting)
			require.Error(t, err)
			assert.Nil(t, got)
			assert.Equal(t, errors.ErrCodeResponseGenerationFailed, errors.CodeOf(err))
			assert.Equal(t, "Failed to generate conversational response", errors.UserMessage(err))
		})
	}
}

func TestHandler_Respond_RejectsCommand(t *testing.T) {
	stub := &stubCompleter{reply: "unused"}
	h := NewHandler(createTestConfig(), stub, NewTestLogger(t))

	_, err := h.Respond(context.Background(), "send 5 SUI", models.ClassCommand)
	assert.Equal(t, errors.ErrCodeInvalidRequest, errors.CodeOf(err))
	assert.Empty(t, stub.prompts)
}

func TestHandler_Execute(t *testing.T) {
	h := NewHandler(createTestConfig(), &stubCompleter{reply: "Hello!"}, NewTestLogger(t))

	out, err := h.Execute(context.Background(), &Input{Utterance: "hi", Intent: "greeting"})
	require.NoError(t, err)
	assert.Equal(t, &Output{Type: "conversational", Intent: models.ClassGreeting, Message: "Hello!"}, out)

	// An unrecognised label is answered as a question.
	out, err = h.Execute(context.Background(), &Input{Utterance: "what is Sui?"})
	require.NoError(t, err)
	assert.Equal(t, models.ClassQuestion, out.Intent)
}
