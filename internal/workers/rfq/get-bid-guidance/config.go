// internal/workers/rfq/get-bid-guidance/config.go
package getbidguidance

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 10 * time.Second,
	}
}
