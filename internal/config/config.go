// Package config defines the configuration surface for the chatrelay service.
//
// There are two layers with different lifecycles:
//
//   - Config: process-level settings (listen port, primary endpoint, retry
//     policy, auth token). Loaded once at startup via environment variables
//     and immutable thereafter. Any missing required value causes startup to
//     fail immediately (fail fast).
//   - FeedConfig: the live routing/policy/style settings (mirror list,
//     per-action endpoints, exclusion policy, display styling). Read from a
//     YAML file through a FeedSource on every dispatch so that operator
//     edits are visible without a restart.
package config

import (
	"fmt"
	"time"
)

// Config is the process-level configuration struct for the relay. It is
// populated once during initialization and never modified. Sub-components
// receive only the specific config subsets they require.
type Config struct {
	// System metadata
	Environment string `envconfig:"APP_ENV" default:"local" validate:"oneof=local dev staging prod"`
	LogLevel    string `envconfig:"LOG_LEVEL" default:"info"`

	Server   ServerConfig
	Delivery DeliveryConfig

	// FeedFile is the path to the live YAML feed configuration
	// (routing, exclusion policy, styling).
	FeedFile string `envconfig:"FEED_CONFIG_FILE" validate:"required"`
}

// ServerConfig holds HTTP ingest server configuration.
type ServerConfig struct {
	Port string `envconfig:"PORT" default:"8080"`

	// IngestToken authenticates the event-detection layer. Requests to
	// /v1/events must carry it as a bearer token.
	IngestToken string `envconfig:"INGEST_TOKEN" validate:"required,min=16"`

	// RequestTimeout bounds one ingest request end to end, including the
	// synchronous delivery attempts it triggers. It must exceed the worst
	// case of DELIVERY_MAX_RETRY_WAIT sleeps the retry loop can take.
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"60s"`
}

// DeliveryConfig holds settings for outbound webhook delivery.
type DeliveryConfig struct {
	// PrimaryURL is the default destination webhook. The engine refuses to
	// start without it.
	PrimaryURL string `envconfig:"WEBHOOK_PRIMARY_URL" validate:"required,url"`

	// AlertURL is the fixed operator-alerting destination for delivery
	// failure diagnostics. Optional: when empty, failures are only logged.
	AlertURL string `envconfig:"WEBHOOK_ALERT_URL" validate:"omitempty,url"`

	UserAgent string        `envconfig:"WEBHOOK_USER_AGENT" default:"Chatrelay-Webhook/1.0"`
	Timeout   time.Duration `envconfig:"WEBHOOK_TIMEOUT" default:"10s"`

	// ProxyURL routes outbound POSTs through an HTTP proxy when set.
	ProxyURL string `envconfig:"WEBHOOK_PROXY_URL" validate:"omitempty,url"`

	// MaxAttempts bounds the rate-limit retry loop per destination.
	// The loop is never unbounded.
	MaxAttempts int `envconfig:"DELIVERY_MAX_ATTEMPTS" default:"5" validate:"min=1,max=25"`

	// MaxRetryWait caps a single retry_after sleep. Destinations asking for
	// longer waits are treated as failed rather than blocking the caller.
	MaxRetryWait time.Duration `envconfig:"DELIVERY_MAX_RETRY_WAIT" default:"30s"`

	// PacingRPS / PacingBurst configure the per-destination token bucket
	// applied ahead of the destination's own rate limiter.
	PacingRPS   float64 `envconfig:"DELIVERY_PACING_RPS" default:"5" validate:"gt=0"`
	PacingBurst int     `envconfig:"DELIVERY_PACING_BURST" default:"5" validate:"min=1"`
}

// ConfigErrorType categorizes configuration loading failures to aid debugging.
type ConfigErrorType string

const (
	// ErrValidation indicates the configuration failed struct validation rules.
	ErrValidation ConfigErrorType = "VALIDATION_FAILED"
	// ErrParsing indicates a failure when parsing environment variable values
	// into their target types.
	ErrParsing ConfigErrorType = "PARSING_FAILED"
	// ErrFeedFile indicates the live feed configuration file could not be
	// read or parsed.
	ErrFeedFile ConfigErrorType = "FEED_FILE_FAILED"
)

// ConfigError is a diagnostic error type returned by LoadConfig and FeedSource
// implementations.
type ConfigError struct {
	Type    ConfigErrorType
	Message string
	Err     error
}

// Error implements the error interface.
func (e *ConfigError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("[%s] %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("[%s] %s", e.Type, e.Message)
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *ConfigError) Unwrap() error {
	return e.Err
}
