// internal/workers/ai-conversation/conversational-reply/models.go
package conversationalreply

import "milo-interpreter/internal/models"

type Input struct {
	Utterance string                `json:"utterance"`
	Intent    models.Classification `json:"intent"`
	History   []models.Turn         `json:"history"`
}

type Output struct {
	Type    string                `json:"type"`
	Intent  models.Classification `json:"intent"`
	Message string                `json:"message"`
}
