// internal/workers/rfq/process-opportunity/config.go
package processopportunity

import "time"

type Config struct {
	Timeout time.Duration
	// MaxMatchesInOutput caps the matches written back as process variables.
	MaxMatchesInOutput int
}

func LoadConfig() *Config {
	return &Config{
		Timeout:            60 * time.Second,
		MaxMatchesInOutput: 25,
	}
}
