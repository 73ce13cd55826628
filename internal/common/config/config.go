// internal/common/config/config.go
package config

import "time"

// Config is the main application configuration struct.
type Config struct {
	App          AppConfig               `mapstructure:"app"`
	Server       ServerConfig            `mapstructure:"server"`
	Intake       IntakeConfig            `mapstructure:"intake"`
	Verification VerificationConfig      `mapstructure:"verification"`
	Database     DatabaseConfig          `mapstructure:"database"`
	Integrations IntegrationConfig       `mapstructure:"integrations"`
	Camunda      CamundaConfig           `mapstructure:"camunda"`
	Workers      map[string]WorkerConfig `mapstructure:"workers"`
	Logging      LoggingConfig           `mapstructure:"logging"`
	Tracing      TracingConfig           `mapstructure:"tracing"`
}

// --- Core App/Infrastructure Config ---
type AppConfig struct {
	Name        string `mapstructure:"name"`
	Version     string `mapstructure:"version"`
	Environment string `mapstructure:"environment"`
}

// ServerConfig configures the HTTP API.
type ServerConfig struct {
	Address         string  `mapstructure:"address"`
	ReadTimeout     int     `mapstructure:"read_timeout"`     // milliseconds
	WriteTimeout    int     `mapstructure:"write_timeout"`    // milliseconds
	IdleTimeout     int     `mapstructure:"idle_timeout"`     // milliseconds
	RequestTimeout  int     `mapstructure:"request_timeout"`  // milliseconds
	ShutdownTimeout int     `mapstructure:"shutdown_timeout"` // milliseconds
	RateLimit       float64 `mapstructure:"rate_limit"`       // requests per second per client
	RateBurst       int     `mapstructure:"rate_burst"`
	MaxUploadBytes  int64   `mapstructure:"max_upload_bytes"`
}

// IntakeConfig selects the collaborators the conversation uses.
type IntakeConfig struct {
	// Provider is "demo" or "live" for PAN, OTP and OCR alike.
	Provider string `mapstructure:"provider"`
	DemoOTP  string `mapstructure:"demo_otp"`
	OTPTTL   int    `mapstructure:"otp_ttl"` // seconds
	// OCRFailureRate is the share of demo uploads that fail extraction, 0..1.
	OCRFailureRate float64 `mapstructure:"ocr_failure_rate"`
}

// VerificationConfig points the live providers at their endpoints.
type VerificationConfig struct {
	PANURL    string `mapstructure:"pan_url"`
	PANAPIKey string `mapstructure:"pan_api_key"`
	OCRURL    string `mapstructure:"ocr_url"`
	Timeout   int    `mapstructure:"timeout"` // milliseconds
}

type DatabaseConfig struct {
	Redis RedisConfig `mapstructure:"redis"`
}

type RedisConfig struct {
	Address  string `mapstructure:"address"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// IntegrationConfig holds settings for outbound AWS channels.
type IntegrationConfig struct {
	AWS struct {
		Region string `mapstructure:"region"`
		SES    struct {
			Enabled   bool   `mapstructure:"enabled"`
			FromEmail string `mapstructure:"from_email"`
			// OpsEmail receives a copy of every sanction notification.
			OpsEmail string `mapstructure:"ops_email"`
		} `mapstructure:"ses"`
		SNS struct {
			Enabled            bool   `mapstructure:"enabled"`
			DefaultSMSSenderID string `mapstructure:"default_sms_sender_id"`
			OTPTopicARN        string `mapstructure:"otp_topic_arn"`
		} `mapstructure:"sns"`
	} `mapstructure:"aws"`
}

type CamundaConfig struct {
	Enabled        bool   `mapstructure:"enabled"`
	BrokerAddress  string `mapstructure:"broker_address"`
	MaxJobsActive  int    `mapstructure:"max_jobs_active"`
	Timeout        int    `mapstructure:"timeout"`         // milliseconds
	RequestTimeout int    `mapstructure:"request_timeout"` // milliseconds
	// SanctionProcessID is the BPMN process started when an applicant
	// accepts an offer.
	SanctionProcessID string `mapstructure:"sanction_process_id"`
	// HealthAddress is where the worker manager serves /health and /metrics.
	HealthAddress string `mapstructure:"health_address"`
}

// WorkerConfig holds the core settings applicable to every worker.
type WorkerConfig struct {
	Enabled       bool `mapstructure:"enabled"`
	MaxJobsActive int  `mapstructure:"max_jobs_active"`
	Timeout       int  `mapstructure:"timeout"`     // milliseconds
	MaxRetries    int  `mapstructure:"max_retries"` // For error handling
}

// LoggingConfig holds logging settings.
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
	Output string `mapstructure:"output"`
}

// TracingConfig enables the Jaeger exporter when Endpoint is set.
type TracingConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`
	SampleRatio float64 `mapstructure:"sample_ratio"`
}

// IsDemo reports whether the in-process demo collaborators are in use.
func (c IntakeConfig) IsDemo() bool {
	return c.Provider == "" || c.Provider == ProviderDemo
}

// OTPExpiry converts OTPTTL to a duration.
func (c IntakeConfig) OTPExpiry() time.Duration {
	return time.Duration(c.OTPTTL) * time.Second
}

const (
	ProviderDemo = "demo"
	ProviderLive = "live"
)
