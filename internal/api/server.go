// Package api is the HTTP surface of the interpreter.
package api

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"milo-interpreter/internal/common/database"
	"milo-interpreter/internal/common/errors"
	"milo-interpreter/internal/models"
	"milo-interpreter/internal/orchestrator"
	drafttransaction "milo-interpreter/internal/workers/wallet/draft-transaction"
	querybalance "milo-interpreter/internal/workers/wallet/query-balance"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
}

// Chat runs interpreter turns.
type Chat interface {
	HandleText(ctx context.Context, req orchestrator.Request) *orchestrator.Response
	HandleAudio(ctx context.Context, req orchestrator.AudioRequest) *orchestrator.Response
}

// ContactStore is the owner-scoped address book.
type ContactStore interface {
	List(ctx context.Context, owner string) ([]models.Contact, error)
	Save(ctx context.Context, owner string, c models.Contact) error
	Delete(ctx context.Context, owner, name string) (int64, error)
}

type Drafter interface {
	Execute(ctx context.Context, input *drafttransaction.Input) (*drafttransaction.Output, error)
}

type BalanceQuerier interface {
	Execute(ctx context.Context, input *querybalance.Input) (*querybalance.Output, error)
}

// Dependencies are the collaborators behind the routes. Only Chat and
// Logger are required; the rest enable their routes when set.
type Dependencies struct {
	Chat         Chat
	Contacts     ContactStore
	Drafter      Drafter
	Balance      BalanceQuerier
	Checks       map[string]database.Pinger
	Logger       Logger
	MaxBodyBytes int64
	Version      string
}

type Server struct {
	deps Dependencies
}

func NewServer(deps Dependencies) *Server {
	if deps.MaxBodyBytes == 0 {
		deps.MaxBodyBytes = 20 << 20
	}
	return &Server{deps: deps}
}

// Router builds the route table.
func (s *Server) Router() http.Handler {
	r := mux.NewRouter()
	r.Use(s.requestID, s.logRequests, cors)

	r.HandleFunc("/api/chat", s.handleChat)

	if s.deps.Contacts != nil {
		r.HandleFunc("/api/contacts/{owner}", s.handleListContacts).Methods(http.MethodGet)
		r.HandleFunc("/api/contacts/{owner}", s.handleSaveContact).Methods(http.MethodPost)
		r.HandleFunc("/api/contacts/{owner}/{name}", s.handleDeleteContact).Methods(http.MethodDelete)
	}
	if s.deps.Drafter != nil {
		r.HandleFunc("/api/transactions/draft", s.handleDraft).Methods(http.MethodPost)
	}
	if s.deps.Balance != nil {
		r.HandleFunc("/api/balance/{address}", s.handleBalance).Methods(http.MethodGet)
	}

	r.HandleFunc("/health", s.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/ready", s.handleReady).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	// Preflight for routes that are method-restricted.
	r.Methods(http.MethodOptions).HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{
		"status":  "healthy",
		"version": s.deps.Version,
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	results, ok := database.CheckAll(ctx, s.deps.Checks)
	status, code := "ready", http.StatusOK
	if !ok {
		status, code = "unavailable", http.StatusServiceUnavailable
	}
	writeJSON(w, code, map[string]interface{}{
		"status": status,
		"checks": results,
	})
}

type errorBody struct {
	Error   string `json:"error"`
	Details string `json:"details,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorBody{Error: msg})
}

// writeFailure maps err to a status and a user-facing body. Diagnostic
// detail stays in the logs.
func (s *Server) writeFailure(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	fields := map[string]interface{}{
		"requestId": RequestIDFrom(r.Context()),
		"path":      r.URL.Path,
		"errorCode": string(errors.CodeOf(err)),
		"error":     err.Error(),
	}
	if status >= http.StatusInternalServerError {
		s.deps.Logger.Error("request failed", fields)
		writeJSON(w, status, errorBody{Error: errors.DefaultUserMessage, Details: errors.UserMessage(err)})
		return
	}
	s.deps.Logger.Warn("request rejected", fields)
	writeError(w, status, errors.UserMessage(err))
}

func statusFor(err error) int {
	switch errors.CodeOf(err) {
	case errors.ErrCodeInvalidRequest:
		return http.StatusBadRequest
	case errors.ErrCodeContactResolutionFailed:
		return http.StatusUnprocessableEntity
	case errors.ErrCodeTransactionBuildFailed, errors.ErrCodeBalanceQueryFailed,
		errors.ErrCodeCompletionUnavailable:
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
