package errors

import (
	"fmt"
)

// TallyError is the structured error type for TallyMCP.
// It provides rich context for error handling, logging, and user presentation.
type TallyError struct {
	// Code is the unique error code (e.g., "ERR_401_INVALID_INPUT").
	Code string

	// Message is the human-readable error message.
	Message string

	// Category is the error category (Config, IO, Validation, etc.).
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
func (e *TallyError) Error() string {
	return fmt.Sprintf("[%s] %s", e.Code, e.Message)
}

// Unwrap returns the underlying cause for error chain support.
func (e *TallyError) Unwrap() error {
	return e.Cause
}

// Is checks if this error matches the target error by code.
// This enables errors.Is() to work with TallyError.
func (e *TallyError) Is(target error) bool {
	if t, ok := target.(*TallyError); ok {
		return e.Code == t.Code
	}
	return false
}

// WithDetail adds a key-value detail to the error.
// Returns the error for method chaining.
func (e *TallyError) WithDetail(key, value string) *TallyError {
	if e.Details == nil {
		e.Details = make(map[string]string)
	}
	e.Details[key] = value
	return e
}

// WithSuggestion adds an actionable suggestion for the user.
// Returns the error for method chaining.
func (e *TallyError) WithSuggestion(suggestion string) *TallyError {
	e.Suggestion = suggestion
	return e
}

// New creates a new TallyError with the given code and message.
// Category, severity, and retryable flag are derived from the code.
func New(code string, message string, cause error) *TallyError {
	return &TallyError{
		Code:      code,
		Message:   message,
		Category:  categoryFromCode(code),
		Severity:  severityFromCode(code),
		Cause:     cause,
		Retryable: isRetryableCode(code),
	}
}

// Wrap creates a TallyError from an existing error.
// The error's message becomes the TallyError message.
func Wrap(code string, err error) *TallyError {
	if err == nil {
		return nil
	}
	return New(code, err.Error(), err)
}

// InvalidInputError creates an input validation error.
func InvalidInputError(message string) *TallyError {
	return New(ErrCodeInvalidInput, message, nil)
}

// ReconcileError creates an index-matching consistency error.
// These signal a contract violation between solver output and the original
// input and are never retryable.
func ReconcileError(message string) *TallyError {
	return New(ErrCodeReconcileFailed, message, nil)
}

// ResourceError creates a memory-budget error.
func ResourceError(message string) *TallyError {
	return New(ErrCodeMemoryBudget, message, nil)
}

// ConfigError creates a configuration-related error.
func ConfigError(message string, cause error) *TallyError {
	return New(ErrCodeConfigInvalid, message, cause)
}

// IOError creates an I/O-related error.
func IOError(message string, cause error) *TallyError {
	return New(ErrCodeFileNotFound, message, cause)
}

// InternalError creates an internal error.
func InternalError(message string, cause error) *TallyError {
	return New(ErrCodeInternal, message, cause)
}

// IsRetryable checks if an error is retryable.
// Returns true if the error is a TallyError with Retryable flag set.
func IsRetryable(err error) bool {
	if err == nil {
		return false
	}
	if te, ok := err.(*TallyError); ok {
		return te.Retryable
	}
	return false
}

// IsValidation checks if an error belongs to the validation category.
func IsValidation(err error) bool {
	if te, ok := err.(*TallyError); ok {
		return te.Category == CategoryValidation
	}
	return false
}

// GetCode extracts the error code from a TallyError.
// Returns empty string if not a TallyError.
func GetCode(err error) string {
	if te, ok := err.(*TallyError); ok {
		return te.Code
	}
	return ""
}

// GetCategory extracts the category from a TallyError.
// Returns empty string if not a TallyError.
func GetCategory(err error) Category {
	if te, ok := err.(*TallyError); ok {
		return te.Category
	}
	return ""
}
