package formmail

import (
	"errors"
	"fmt"
)

// Predefined sentinel errors for common cases.
var (
	// ErrValidation indicates a submission failed local validation and was not sent.
	ErrValidation = errors.New("submission failed validation")

	// ErrNotConfigured indicates the transport or its identifiers are missing.
	ErrNotConfigured = errors.New("transport not configured")

	// ErrTransportFailed indicates the relay rejected or could not be reached.
	ErrTransportFailed = errors.New("transport failed")

	// ErrUnknownForm indicates a form id that is not in the catalog.
	ErrUnknownForm = errors.New("unknown form")

	// ErrTemplateNotFound indicates a requested template was not found.
	ErrTemplateNotFound = errors.New("template not found")

	// ErrProviderTimeout indicates a provider operation timed out.
	ErrProviderTimeout = errors.New("provider timeout")

	// ErrCircuitBreakerOpen indicates the circuit breaker is open.
	ErrCircuitBreakerOpen = errors.New("circuit breaker open")

	// ErrInvalidConfiguration indicates invalid configuration.
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrClientClosed indicates the client has been closed.
	ErrClientClosed = errors.New("client closed")
)

// TemplateError represents an error in template processing.
type TemplateError struct {
	// Template is the name of the template that caused the error.
	Template string

	// Operation is the operation that failed (e.g., "parse", "render").
	Operation string

	// Message is the error message.
	Message string

	// Cause is the underlying error.
	Cause error
}

// Error implements the error interface.
func (e *TemplateError) Error() string {
	return fmt.Sprintf("template error in %s during %s: %s", e.Template, e.Operation, e.Message)
}

// Unwrap returns the underlying error.
func (e *TemplateError) Unwrap() error {
	return e.Cause
}

// NewTemplateError creates a new template error.
func NewTemplateError(template, operation, message string, cause error) *TemplateError {
	return &TemplateError{
		Template:  template,
		Operation: operation,
		Message:   message,
		Cause:     cause,
	}
}

// SubmissionError describes why a form submission did not go out.
// It matches its Kind sentinel with errors.Is and unwraps to Cause.
type SubmissionError struct {
	// Form is the id of the form being submitted.
	Form string

	// Kind is one of ErrValidation, ErrNotConfigured or ErrTransportFailed.
	Kind error

	// Result is set when Kind is ErrValidation.
	Result *Result

	// Cause is the underlying transport or configuration error.
	Cause error
}

// Error implements the error interface.
func (e *SubmissionError) Error() string {
	switch {
	case e.Result != nil && !e.Result.Valid:
		return fmt.Sprintf("form %s: %v: %d invalid field(s)", e.Form, e.Kind, len(e.Result.Errors))
	case e.Cause != nil:
		return fmt.Sprintf("form %s: %v: %v", e.Form, e.Kind, e.Cause)
	default:
		return fmt.Sprintf("form %s: %v", e.Form, e.Kind)
	}
}

// Unwrap returns the underlying error.
func (e *SubmissionError) Unwrap() error {
	return e.Cause
}

// Is implements error matching for errors.Is.
func (e *SubmissionError) Is(target error) bool {
	return e.Kind != nil && target == e.Kind
}
