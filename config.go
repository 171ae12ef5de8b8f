package formmail

import (
	"fmt"
	"time"

	"github.com/braamfashionweek/formmail/internal/providers"
)

// Config holds the complete transport configuration.
type Config struct {
	// Transport contains relay provider configuration.
	Transport TransportConfig

	// Templates contains template engine configuration.
	Templates TemplateConfig

	// Retry contains retry policy configuration.
	Retry RetryConfig

	// CircuitBreaker contains circuit breaker configuration.
	CircuitBreaker CircuitBreakerConfig

	// Monitoring contains observability configuration.
	Monitoring MonitoringConfig
}

// TransportConfig contains relay settings.
type TransportConfig struct {
	// Type specifies the relay provider to use.
	Type ProviderType

	// Settings contains provider-specific settings for the primary provider.
	Settings ProviderSettings

	// Fallback contains settings for a fallback provider (optional).
	// The "type" key selects the fallback provider type.
	Fallback *ProviderSettings

	// ServiceID is the relay service identifier.
	ServiceID string

	// TemplateID is the relay template identifier.
	TemplateID string

	// Recipient is the inbox that receives applications and contact messages.
	Recipient string

	// Sender is the From address used when the message is rendered locally.
	Sender Address

	// Timeout bounds a single send.
	Timeout time.Duration
}

// ProviderType represents the type of relay provider.
type ProviderType string

const (
	// ProviderEmailJS represents the EmailJS hosted relay.
	ProviderEmailJS ProviderType = providers.EmailJS

	// ProviderAWSSES represents Amazon Simple Email Service.
	ProviderAWSSES ProviderType = providers.AWSSES

	// ProviderSendGrid represents the SendGrid email service.
	ProviderSendGrid ProviderType = providers.SendGrid

	// ProviderMailgun represents the Mailgun email service.
	ProviderMailgun ProviderType = providers.Mailgun

	// ProviderSMTP represents a generic SMTP server.
	ProviderSMTP ProviderType = providers.SMTP

	// ProviderPostmark represents the Postmark email service.
	ProviderPostmark ProviderType = providers.Postmark

	// ProviderDevDir writes requests to a local directory.
	ProviderDevDir ProviderType = providers.DevDir
)

// String returns the string representation of the provider type.
func (pt ProviderType) String() string {
	return string(pt)
}

// Valid checks if the provider type is supported.
func (pt ProviderType) Valid() bool {
	switch pt {
	case ProviderEmailJS, ProviderAWSSES, ProviderSendGrid, ProviderMailgun,
		ProviderSMTP, ProviderPostmark, ProviderDevDir:
		return true
	default:
		return false
	}
}

// TemplateConfig contains template engine configuration.
type TemplateConfig struct {
	// Enabled indicates whether local template rendering is enabled.
	Enabled bool

	// Directory is the path to the directory containing email templates.
	Directory string

	// Extension lists the file extensions treated as templates.
	Extension []string
}

// RetryConfig contains retry policy configuration.
type RetryConfig struct {
	// Enabled indicates whether retries are enabled.
	Enabled bool

	// MaxAttempts is the maximum number of attempts (including the initial attempt).
	MaxAttempts int

	// InitialDelay is the initial delay before the first retry.
	InitialDelay time.Duration

	// MaxDelay is the maximum delay between retries.
	MaxDelay time.Duration

	// Multiplier is the backoff multiplier (should be > 1.0 for exponential backoff).
	Multiplier float64

	// Jitter indicates whether random jitter should be added to delays.
	Jitter bool
}

// CircuitBreakerConfig contains circuit breaker configuration.
type CircuitBreakerConfig struct {
	// Enabled indicates whether the circuit breaker is enabled.
	Enabled bool

	// FailureThreshold is the number of failures that opens the circuit.
	FailureThreshold int

	// SuccessThreshold is the number of successes needed to close the circuit.
	SuccessThreshold int

	// Timeout is how long the circuit stays open before a trial request.
	Timeout time.Duration

	// ResetTimeout is how long to wait before resetting failure counts.
	ResetTimeout time.Duration
}

// MonitoringConfig contains observability configuration.
type MonitoringConfig struct {
	// Tracing contains distributed tracing configuration.
	Tracing TracingConfig
}

// TracingConfig contains distributed tracing configuration.
type TracingConfig struct {
	// Enabled indicates whether tracing is enabled.
	Enabled bool

	// ServiceName is the tracer name used for spans.
	ServiceName string
}

// LoggingConfig describes the service logger.
type LoggingConfig struct {
	// Level is the logging level (debug, info, warn, error).
	Level string

	// Format is the log format (json, text).
	Format string

	// Output is where to write logs (stdout, stderr, or file path).
	Output string
}

// DefaultConfig returns a configuration with sensible defaults.
// Failed sends are not retried: the user is asked to resubmit instead.
func DefaultConfig() Config {
	return Config{
		Transport: TransportConfig{
			Type:     ProviderEmailJS,
			Settings: ProviderSettings{},
			Timeout:  30 * time.Second,
		},
		Templates: TemplateConfig{
			Enabled:   true,
			Extension: []string{".html", ".txt"},
		},
		Retry: RetryConfig{
			Enabled:      false,
			MaxAttempts:  3,
			InitialDelay: 100 * time.Millisecond,
			MaxDelay:     5 * time.Second,
			Multiplier:   2.0,
			Jitter:       true,
		},
		CircuitBreaker: CircuitBreakerConfig{
			Enabled:          false,
			FailureThreshold: 5,
			SuccessThreshold: 3,
			Timeout:          60 * time.Second,
			ResetTimeout:     300 * time.Second,
		},
		Monitoring: MonitoringConfig{
			Tracing: TracingConfig{
				Enabled:     true,
				ServiceName: "formmail",
			},
		},
	}
}

// Validate checks if the configuration is valid and complete. Errors match
// ErrInvalidConfiguration and unwrap to a *ValidationError.
func (c *Config) Validate() error {
	if err := c.validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidConfiguration, err)
	}
	return nil
}

func (c *Config) validate() error {
	if !c.Transport.Type.Valid() {
		return &ValidationError{
			Field:   "transport.type",
			Message: "invalid or unsupported provider type: " + string(c.Transport.Type),
		}
	}

	if c.Transport.Timeout <= 0 {
		return &ValidationError{
			Field:   "transport.timeout",
			Message: "timeout must be greater than 0",
		}
	}

	if c.Transport.Type != ProviderEmailJS {
		if c.Transport.Recipient == "" {
			return &ValidationError{
				Field:   "transport.recipient",
				Message: "recipient is required when messages are rendered locally",
			}
		}
		if !c.Transport.Sender.Valid() {
			return &ValidationError{
				Field:   "transport.sender",
				Message: "a valid sender address is required when messages are rendered locally",
			}
		}
	}

	if c.Retry.Enabled {
		if c.Retry.MaxAttempts < 1 {
			return &ValidationError{
				Field:   "retry.max_attempts",
				Message: "max attempts must be at least 1",
			}
		}
		if c.Retry.Multiplier <= 1.0 {
			return &ValidationError{
				Field:   "retry.multiplier",
				Message: "multiplier must be greater than 1.0",
			}
		}
	}

	if c.CircuitBreaker.Enabled && c.CircuitBreaker.FailureThreshold < 1 {
		return &ValidationError{
			Field:   "circuit_breaker.failure_threshold",
			Message: "failure threshold must be at least 1",
		}
	}

	return nil
}
