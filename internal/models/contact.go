// internal/models/contact.go
package models

// Contact is one address-book entry. Names are not unique.
type Contact struct {
	Name    string `json:"name"`
	Address string `json:"address"`
}

// Turn is one prior exchange in a conversation.
type Turn struct {
	Role string `json:"role"` // "user" or "assistant"
	Text string `json:"text"`
}

// Utterance is a single user turn. History is read-only context.
type Utterance struct {
	Text    string `json:"text"`
	Image   []byte `json:"-"`
	History []Turn `json:"history,omitempty"`
}
