// internal/workers/rfq/facilitate-partnership/config.go
package facilitatepartnership

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
