// internal/workers/ai-conversation/interpret-command/models.go
package interpretcommand

import "milo-interpreter/internal/models"

type Input struct {
	Utterance string           `json:"utterance"`
	Contacts  []models.Contact `json:"contacts"`
}

type Output struct {
	Intent models.IntentEnvelope `json:"intent"`
}
