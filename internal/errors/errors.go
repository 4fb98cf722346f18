package errors

import (
	"fmt"
)

// LexError is the structured error type for lexkb.
// It provides rich context for error handling, logging, and user presentation.
type LexError struct {
	// Code is the unique error code (e.g., "ERR_203_CORRUPT_BUNDLE").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Network, etc.).
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
func (e *LexError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *LexError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with LexError.
func (e *LexError) Is(target error) bool {
	if t, ok := target.(*LexError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *LexError) WithDetail(key, value string) *LexError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *LexError) WithSuggestion(suggestion string) *LexError {
	e.Suggestion = suggestion
	return e
}

// New creates a new LexError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *LexError {
	return &LexError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a LexError from an existing error.
// The error's message becomes the LexError message.
func Wrap(code string, err error) *LexError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *LexError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *LexError {
	return New(ErrCodeFileNotFound, message, cause)
}

// CorruptionError creates a persisted-artifact corruption error.
// Corruption errors are fatal: a misaligned index must never be queried.
func CorruptionError(message string, cause error) *LexError {
	return New(ErrCodeCorruptBundle, message, cause)
}

// ValidationError creates a validation-related error.
func ValidationError(message string, cause error) *LexError {
	return New(ErrCodeInvalidInput, message, cause)
}

// ModelMismatchError creates an embedder/index model mismatch error.
func ModelMismatchError(indexModel, currentModel string) *LexError {
	return New(ErrCodeModelMismatch,
		fmt.Sprintf("index was built with embedding model %q but current embedder is %q", indexModel, currentModel),
		nil).
		WithSuggestion("rebuild the index with 'lexkb index' or configure the matching embedding model")
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *LexError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a LexError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if le, ok := err.(*LexError); ok {
		return le.Retryable
	}
	return false
}

// IsFatal checks if an error has fatal severity.
// Fatal errors should abort the current operation.
func IsFatal(err error) bool {
	if err == nil {
		return false
	}
	if le, ok := err.(*LexError); ok {
		return le.Severity == SeverityFatal
	}
	return false
}

// GetCode extracts the error code from a LexError.
// Returns empty string if not a LexError.
func GetCode(err error) string {
	if le, ok := err.(*LexError); ok {
		return le.Code
	}
	return ""
}

// GetCategory extracts the category from a LexError.
// Returns empty string if not a LexError.
func GetCategory(err error) Category {
	if le, ok := err.(*LexError); ok {
		return le.Category
	}
	return ""
}
