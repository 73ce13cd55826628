// internal/workers/loan/generate-sanction-letter/config.go
package generatesanctionletter

import "time"

type Config struct {
	Timeout time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
