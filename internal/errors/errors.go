package errors

import (
	"fmt"
)

// PoliError is the structured error type for polisearch.
// It provides context for error handling, logging, and user presentation.
type PoliError struct {
	// Code is the unique error code (e.g., "ERR_102_CONFIG_INVALID").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Capability, etc.).
	Category Category

	// Severity is the error severity level.
	Severity Severity

	// Details contains additional context as key-value pairs.
	Details map[string]string

	// Cause is the underlying error that caused this error.
	Cause error

	// Retryable indicates if the operation can be retried.
	Retryable bool

	// Suggestion is an actionable suggestion for the user.
	Suggestion string
}

// Error implements the error interface.
func (e *PoliError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *PoliError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with PoliError.
func (e *PoliError) Is(target error) bool {
	if t, ok := target.(*PoliError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *PoliError) WithDetail(key, value string) *PoliError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *PoliError) WithSuggestion(suggestion string) *PoliError {
	e.Suggestion = suggestion
	return e
}

// New creates a new PoliError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *PoliError {
	return &PoliError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a PoliError from an existing error.
// The error's message becomes the PoliError message.
func Wrap(code string, err error) *PoliError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration error. Configuration errors are fatal
// and rejected before any processing starts.
func ConfigError(message string, cause error) *PoliError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IndexUnavailable creates an error signalling that the vector index
// capability is unreachable, timed out, or returned malformed results.
// Retrieval degrades to lexical-only ranking rather than failing the query.
func IndexUnavailable(message string, cause error) *PoliError {
	return New(ErrCodeCapabilityUnavailable, message, cause)
}

// EmptyCorpus creates an error raised at index-build time when zero chunks
// were produced from the source pages.
func EmptyCorpus(message string) *PoliError {
	return New(ErrCodeEmptyCorpus, message, nil).
		WithSuggestion("check that the extracted pages contain text")
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *PoliError {
	return New(ErrCodeInvalidInput, message, cause)
}

// IsRetryable checks if an error is retryable.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if pe, ok := err.(*PoliError); ok {
		return pe.Retryable
	}
	return false
}

// IsIndexUnavailable reports whether the error is a capability failure that
// should degrade retrieval instead of failing it.
func IsIndexUnavailable(err error) bool {
	if err == nil {
		return false
	}
	if pe, ok := err.(*PoliError); ok {
		return pe.Category == CategoryCapability
	}
	return false
}

// GetCode extracts the error code from a PoliError.
// Returns empty string if not a PoliError.
func GetCode(err error) string {
	if pe, ok := err.(*PoliError); ok {
		return pe.Code
	}
	return ""
}
