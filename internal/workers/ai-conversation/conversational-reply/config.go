// internal/workers/ai-conversation/conversational-reply/config.go
package conversationalreply

import "time"

type Config struct {
	AssistantName string
	// HistoryTurns caps how many prior turns are quoted back to the model.
	HistoryTurns int
	Timeout      time.Duration
}

func LoadConfig() *Config {
	return &Config{
		AssistantName: "Milo",
		HistoryTurns:  6,
		Timeout:       30 * time.Second,
	}
}
