// internal/workers/ai-conversation/interpret-command/config.go
package interpretcommand

import "time"

type Config struct {
	AssistantName string
	Timeout       time.Duration
}

func LoadConfig() *Config {
	return &Config{
		AssistantName: "Milo",
		Timeout:       30 * time.Second,
	}
}
