// internal/workers/ai-conversation/transcribe-audio/config.go
package transcribeaudio

import "time"

type Config struct {
	// MaxAudioBytes bounds decoded audio size; zero means unbounded.
	MaxAudioBytes int
	Timeout       time.Duration
}

func LoadConfig() *Config {
	return &Config{
		MaxAudioBytes: 10 << 20,
		Timeout:       60 * time.Second,
	}
}
