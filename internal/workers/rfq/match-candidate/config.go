// internal/workers/rfq/match-candidate/config.go
package matchcandidate

import "time"

type Config struct {
	Timeout      time.Duration
	DefaultLimit int
	MaxLimit     int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:      30 * time.Second,
		DefaultLimit: 10,
		MaxLimit:     100,
	}
}
