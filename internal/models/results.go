// internal/models/results.go
package models

import "strings"

// Classification is the router's verdict on an utterance.
type Classification string

const (
	ClassCommand  Classification = "command"
	ClassQuestion Classification = "question"
	ClassGreeting Classification = "greeting"
)

// ParseClassification accepts the three known values, case-insensitively.
func ParseClassification(s string) (Classification, bool) {
	switch c := Classification(strings.ToLower(strings.TrimSpace(s))); c {
	case ClassCommand, ClassQuestion, ClassGreeting:
		return c, true
	}
	return "", false
}

func (c Classification) Conversational() bool {
	return c == ClassQuestion || c == ClassGreeting
}

const ConversationalType = "conversational"

type ConversationResult struct {
	Type    string         `json:"type"`
	Intent  Classification `json:"intent"`
	Message string         `json:"message"`
}

func NewConversationResult(intent Classification, message string) *ConversationResult {
	return &ConversationResult{
		Type:    ConversationalType,
		Intent:  intent,
		Message: message,
	}
}

type TranscriptionResult struct {
	Transcription string `json:"transcription"`
}
