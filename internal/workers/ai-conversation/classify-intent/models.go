// internal/workers/ai-conversation/classify-intent/models.go
package classifyintent

import "milo-interpreter/internal/models"

type Input struct {
	Utterance string `json:"utterance"`
}

type Output struct {
	Intent models.Classification `json:"intent"`
}
