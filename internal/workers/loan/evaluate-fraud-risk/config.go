// internal/workers/loan/evaluate-fraud-risk/config.go
package evaluatefraudrisk

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
