// internal/workers/wallet/draft-transaction/config.go
package drafttransaction

import "time"

type Config struct {
	BuilderBaseURL string
	Timeout        time.Duration
	MaxRetries     int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    15 * time.Second,
		MaxRetries: 2,
	}
}
