// Package genai is the boundary to the text-completion service: a single
// Completer contract with swappable backends, plus the parser that turns
// model output into JSON.
package genai

import (
	"context"
)

// Part is a binary attachment, such as recorded audio.
type Part struct {
	MIMEType string
	Data     []byte
}

type Prompt struct {
	Text  string
	Parts []Part
	// JSON asks the backend for a bare JSON response where it supports it.
	// Callers still parse defensively.
	JSON bool
}

// Completer submits a prompt and returns the model's text.
type Completer interface {
	Complete(ctx context.Context, prompt Prompt) (string, error)
}

// CompleterFunc adapts a function to Completer.
type CompleterFunc func(ctx context.Context, prompt Prompt) (string, error)

func (f CompleterFunc) Complete(ctx context.Context, prompt Prompt) (string, error) {
	return f(ctx, prompt)
}

// TextPrompt is a plain text prompt.
func TextPrompt(text string) Prompt {
	return Prompt{Text: text}
}

// JSONPrompt is a text prompt expecting a JSON object back.
func JSONPrompt(text string) Prompt {
	return Prompt{Text: text, JSON: true}
}
