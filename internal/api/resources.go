package api

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"milo-interpreter/internal/common/errors"
	"milo-interpreter/internal/models"
	drafttransaction "milo-interpreter/internal/workers/wallet/draft-transaction"
	querybalance "milo-interpreter/internal/workers/wallet/query-balance"
)

func (s *Server) handleListContacts(w http.ResponseWriter, r *http.Request) {
	owner := mux.Vars(r)["owner"]
	book, err := s.deps.Contacts.List(r.Context(), owner)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if book == nil {
		book = []models.Contact{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"owner":    owner,
		"contacts": book,
	})
}

func (s *Server) handleSaveContact(w http.ResponseWriter, r *http.Request) {
	var c models.Contact
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.deps.MaxBodyBytes)).Decode(&c); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if err := s.deps.Contacts.Save(r.Context(), mux.Vars(r)["owner"], c); err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (s *Server) handleDeleteContact(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	n, err := s.deps.Contacts.Delete(r.Context(), vars["owner"], vars["name"])
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	if n == 0 {
		writeError(w, http.StatusNotFound, "Contact not found")
		return
	}
	writeJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (s *Server) handleDraft(w http.ResponseWriter, r *http.Request) {
	var input drafttransaction.Input
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, s.deps.MaxBodyBytes)).Decode(&input); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON")
		return
	}
	if input.Intent.Intent == nil {
		s.writeFailure(w, r, errors.NewInvalidRequestError("intent is required"))
		return
	}

	out, err := s.deps.Drafter.Execute(r.Context(), &input)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}

// handleBalance is GET /api/balance/{address}?asset=SUI&language=fr.
func (s *Server) handleBalance(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	out, err := s.deps.Balance.Execute(r.Context(), &querybalance.Input{
		Address:  mux.Vars(r)["address"],
		Asset:    models.Asset(q.Get("asset")),
		Language: q.Get("language"),
	})
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, out)
}
