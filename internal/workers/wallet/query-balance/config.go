// internal/workers/wallet/query-balance/config.go
package querybalance

import "time"

type Config struct {
	LedgerBaseURL string
	Timeout       time.Duration
	MaxRetries    int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:    10 * time.Second,
		MaxRetries: 2,
	}
}
