package core

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"net/mail"
	"strings"
	"time"
)

// Provider defines the interface for email relay providers.
// Implementations handle provider-specific logic for delivering a form payload.
type Provider interface {
	// Send delivers a single request using the provider's API.
	Send(ctx context.Context, req *SendRequest) (*SendResult, error)

	// ValidateConfig validates the provider configuration.
	// Returns an error if the configuration is invalid or incomplete.
	ValidateConfig() error

	// Name returns the provider's name for identification and logging.
	Name() string
}

// ProviderSettings represents configuration settings for email providers.
type ProviderSettings map[string]string

// Get retrieves a configuration value by key.
func (ps ProviderSettings) Get(key string) string {
	return ps[key]
}

// Set sets a configuration value.
func (ps ProviderSettings) Set(key, value string) {
	ps[key] = value
}

// Payload is the flat key-value parameter set handed to the relay.
// Keys follow the relay template variables (from_name, from_email, message, ...).
type Payload map[string]string

// Get returns the value for key, or an empty string.
func (p Payload) Get(key string) string {
	return p[key]
}

// SendRequest is a single relay call.
type SendRequest struct {
	// ServiceID identifies the relay service (EmailJS service id).
	ServiceID string

	// TemplateID identifies the relay template.
	TemplateID string

	// Payload holds the template parameters.
	Payload Payload

	// Email is the locally rendered message for providers that do not
	// render templates themselves. Nil for template-rendering relays.
	Email *Email
}

// RenderedEmail returns the locally rendered email for providers that need one.
func (r *SendRequest) RenderedEmail(provider string) (*Email, error) {
	if r.Email == nil {
		return nil, NewProviderError(provider, "not_rendered", "request carries no rendered email")
	}
	return r.Email, nil
}

// Address represents an email address with optional display name.
type Address struct {
	Name  string `json:"name"`  // Display name (optional)
	Email string `json:"email"` // Email address (required)
}

// String returns the formatted email address.
// If Name is provided, returns "Name <email@domain.com>"
// Otherwise returns just "email@domain.com"
func (a Address) String() string {
	if a.Name != "" {
		return mime.QEncoding.Encode("UTF-8", a.Name) + " <" + a.Email + ">"
	}
	return a.Email
}

// Valid checks if the address has a valid email format.
func (a Address) Valid() bool {
	if a.Email == "" {
		return false
	}
	_, err := mail.ParseAddress(a.String())
	return err == nil
}

// Email represents a rendered email message.
type Email struct {
	From     Address           `json:"from"`               // Sender address
	To       []Address         `json:"to"`                 // Primary recipients
	ReplyTo  *Address          `json:"reply_to,omitempty"` // Reply-To address (optional)
	Subject  string            `json:"subject"`            // Email subject
	HTMLBody string            `json:"html_body"`          // HTML body content
	TextBody string            `json:"text_body"`          // Plain text body content
	Headers  map[string]string `json:"headers"`            // Custom headers
	Tag      string            `json:"tag,omitempty"`      // Provider tag for analytics
}

// Validate checks if the email has valid structure and required fields.
func (e *Email) Validate() error {
	if !e.From.Valid() {
		return &ValidationError{Field: "from", Message: "invalid or missing sender address"}
	}

	if len(e.To) == 0 {
		return &ValidationError{Field: "to", Message: "at least one recipient required"}
	}

	for i, to := range e.To {
		if !to.Valid() {
			return &ValidationError{
				Field:   "to",
				Message: fmt.Sprintf("invalid recipient address at index %d", i),
			}
		}
	}

	if e.ReplyTo != nil && !e.ReplyTo.Valid() {
		return &ValidationError{Field: "reply_to", Message: "invalid reply-to address"}
	}

	if strings.TrimSpace(e.Subject) == "" {
		return &ValidationError{Field: "subject", Message: "subject is required"}
	}

	if strings.TrimSpace(e.TextBody) == "" && strings.TrimSpace(e.HTMLBody) == "" {
		return &ValidationError{Field: "body", Message: "either text or HTML body is required"}
	}

	return nil
}

// SendResult contains the result of a relay call.
type SendResult struct {
	// MessageID is the unique identifier assigned by the provider.
	MessageID string

	// Provider is the name of the provider that accepted the request.
	Provider string

	// Status is the provider status code (HTTP status for HTTP relays).
	Status int

	// Text is the provider's response text.
	Text string

	// Timestamp when the request was accepted by the provider.
	Timestamp time.Time
}

// ValidationError represents a configuration or message validation error.
type ValidationError struct {
	// Field is the name of the field that failed validation.
	Field string

	// Message is the validation error message.
	Message string

	// Value is the invalid value (optional).
	Value interface{}
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	if e.Value != nil {
		return fmt.Sprintf("validation error in %s: %s (value: %v)", e.Field, e.Message, e.Value)
	}
	return fmt.Sprintf("validation error in %s: %s", e.Field, e.Message)
}

// Is implements error matching for errors.Is.
func (e *ValidationError) Is(target error) bool {
	_, ok := target.(*ValidationError)
	return ok
}

// ProviderError represents an error from an email provider.
type ProviderError struct {
	// Provider is the name of the provider that generated the error.
	Provider string

	// Code is the provider-specific error code.
	Code string

	// Message is the error message from the provider.
	Message string

	// StatusCode is the HTTP status code (for HTTP-based providers).
	StatusCode int

	// IsRetryable indicates whether the error can be retried.
	IsRetryable bool

	// IsTemporary indicates whether the error is temporary.
	IsTemporary bool

	// Cause is the underlying error that caused this provider error.
	Cause error
}

// Error implements the error interface.
func (e *ProviderError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("provider %s error [%s] (status: %d): %s",
			e.Provider, e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("provider %s error [%s]: %s", e.Provider, e.Code, e.Message)
}

// Unwrap returns the underlying error.
func (e *ProviderError) Unwrap() error {
	return e.Cause
}

// Is implements error matching for errors.Is.
func (e *ProviderError) Is(target error) bool {
	pe, ok := target.(*ProviderError)
	if !ok {
		return false
	}
	return e.Provider == pe.Provider && e.Code == pe.Code
}

// Retryable implements RetryableError for ProviderError.
func (e *ProviderError) Retryable() bool {
	return e.IsRetryable
}

// Temporary implements TemporaryError for ProviderError.
func (e *ProviderError) Temporary() bool {
	return e.IsTemporary
}

// RetryableError interface indicates whether an error can be retried.
type RetryableError interface {
	Retryable() bool
}

// TemporaryError interface indicates whether an error is temporary.
type TemporaryError interface {
	Temporary() bool
}

// NewProviderError creates a new provider error.
func NewProviderError(provider, code, message string) *ProviderError {
	return &ProviderError{
		Provider: provider,
		Code:     code,
		Message:  message,
	}
}

// NewRetryableProviderError creates a new retryable provider error.
func NewRetryableProviderError(provider, code, message string) *ProviderError {
	return &ProviderError{
		Provider:    provider,
		Code:        code,
		Message:     message,
		IsRetryable: true,
	}
}

// NewTemporaryProviderError creates a new temporary provider error.
func NewTemporaryProviderError(provider, code, message string) *ProviderError {
	return &ProviderError{
		Provider:    provider,
		Code:        code,
		Message:     message,
		IsRetryable: true,
		IsTemporary: true,
	}
}

// NewValidationError creates a new validation error.
func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{
		Field:   field,
		Message: message,
	}
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}

	var re RetryableError
	if errors.As(err, &re) {
		return re.Retryable()
	}

	return false
}

// IsTemporary checks if an error is temporary.
func IsTemporary(err error) bool {
	if err == nil {
		return false
	}

	var te TemporaryError
	if errors.As(err, &te) {
		return te.Temporary()
	}

	return false
}

// GetRetryAfter extracts retry delay from an error if available.
func GetRetryAfter(err error) time.Duration {
	if err == nil {
		return 0
	}

	var rateLimited interface{ RetryAfter() time.Duration }
	if errors.As(err, &rateLimited) {
		return rateLimited.RetryAfter()
	}

	return 0
}
