package api

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"milo-interpreter/internal/common/errors"
	"milo-interpreter/internal/common/validation"
	"milo-interpreter/internal/models"
	"milo-interpreter/internal/orchestrator"
	transcribeaudio "milo-interpreter/internal/workers/ai-conversation/transcribe-audio"
)

const defaultAudioLanguage = "en"

var chatRequestSchema = validation.MustCompile("chat request", `{
	"type": "object",
	"properties": {
		"prompt":      {"type": "string"},
		"owner":       {"type": "string"},
		"audioBase64": {"type": "string"},
		"mimeType":    {"type": "string"},
		"language":    {"type": "string"},
		"contacts": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["name", "address"],
				"properties": {
					"name":    {"type": "string"},
					"address": {"type": "string"}
				}
			}
		},
		"history": {
			"type": "array",
			"items": {
				"type": "object",
				"required": ["role", "text"],
				"properties": {
					"role": {"type": "string", "enum": ["user", "assistant"]},
					"text": {"type": "string"}
				}
			}
		}
	}
}`)

type chatRequest struct {
	Prompt      string           `json:"prompt"`
	Owner       string           `json:"owner"`
	Contacts    []models.Contact `json:"contacts"`
	History     []models.Turn    `json:"history"`
	AudioBase64 string           `json:"audioBase64"`
	MimeType    string           `json:"mimeType"`
	Language    string           `json:"language"`
}

// handleChat is POST /api/chat. Audio wins over prompt when both are sent.
func (s *Server) handleChat(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "Method not allowed")
		return
	}

	req, err := s.decodeChat(w, r)
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	switch {
	case req.AudioBase64 != "" && req.MimeType != "":
		s.chatAudio(w, r, req)
	case strings.TrimSpace(req.Prompt) != "":
		s.chatText(w, r, req)
	default:
		writeError(w, http.StatusBadRequest, "Missing prompt or audio data")
	}
}

func (s *Server) decodeChat(w http.ResponseWriter, r *http.Request) (*chatRequest, error) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, s.deps.MaxBodyBytes))
	if err != nil {
		return nil, stdError("Request body too large")
	}

	var raw interface{}
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, stdError("Invalid JSON")
	}
	if err := chatRequestSchema.Check(raw); err != nil {
		s.deps.Logger.Warn("chat request failed validation", map[string]interface{}{
			"requestId": RequestIDFrom(r.Context()),
			"error":     err.Error(),
		})
		return nil, stdError("Invalid request")
	}

	var req chatRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, stdError("Invalid JSON")
	}
	return &req, nil
}

func (s *Server) chatAudio(w http.ResponseWriter, r *http.Request, req *chatRequest) {
	audio, err := transcribeaudio.DecodeAudio(req.AudioBase64)
	if err != nil {
		s.writeFailure(w, r, err)
		return
	}

	lang := req.Language
	if lang == "" {
		lang = defaultAudioLanguage
	}

	resp := s.deps.Chat.HandleAudio(r.Context(), orchestrator.AudioRequest{
		RequestID: RequestIDFrom(r.Context()),
		Audio:     audio,
		MimeType:  req.MimeType,
		Language:  lang,
		Contacts:  req.Contacts,
		History:   req.History,
	})
	if resp.Failed() {
		s.writeFailure(w, r, resp.Err)
		return
	}
	writeJSON(w, http.StatusOK, resp.Transcription)
}

func (s *Server) chatText(w http.ResponseWriter, r *http.Request, req *chatRequest) {
	resp := s.deps.Chat.HandleText(r.Context(), orchestrator.Request{
		RequestID: RequestIDFrom(r.Context()),
		Prompt:    req.Prompt,
		Contacts:  s.contactsFor(r, req),
		History:   req.History,
	})
	if resp.Failed() {
		s.writeFailure(w, r, resp.Err)
		return
	}
	if resp.Intent != nil {
		writeJSON(w, http.StatusOK, resp.Intent)
		return
	}
	writeJSON(w, http.StatusOK, resp.Conversation)
}

// contactsFor prefers inline contacts, then the owner's stored book. A
// directory failure degrades to an empty book.
func (s *Server) contactsFor(r *http.Request, req *chatRequest) []models.Contact {
	if len(req.Contacts) > 0 || req.Owner == "" || s.deps.Contacts == nil {
		return req.Contacts
	}
	book, err := s.deps.Contacts.List(r.Context(), req.Owner)
	if err != nil {
		s.deps.Logger.Warn("contact directory unavailable, continuing without contacts", map[string]interface{}{
			"requestId": RequestIDFrom(r.Context()),
			"errorCode": string(errors.CodeOf(err)),
			"error":     err.Error(),
		})
		return nil
	}
	return book
}

type stdError string

func (e stdError) Error() string { return string(e) }
