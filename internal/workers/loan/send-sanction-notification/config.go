// internal/workers/loan/send-sanction-notification/config.go
package sendsanctionnotification

import "time"

type Config struct {
	EmailEnabled bool
	FromEmail    string
	// OpsEmail receives every notification in addition to the applicant.
	OpsEmail string
	Timeout  time.Duration
}

func LoadConfig() *Config {
	return &Config{
		Timeout: 30 * time.Second,
	}
}
