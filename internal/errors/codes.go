// Package errors provides structured error handling for TallyMCP.
//
// Error codes follow the pattern ERR_XXX_DESCRIPTION where:
//   - 1XX: Configuration errors
//   - 2XX: IO errors (file, disk)
//   - 4XX: Validation errors
//   - 5XX: Internal errors
//   - 6XX: Resource errors
package errors

// Category defines error categories for classification.
type Category string

const (
	// CategoryConfig indicates configuration-related errors.
	CategoryConfig Category = "CONFIG"
	// CategoryIO indicates file and disk I/O errors.
	CategoryIO Category = "IO"
	// CategoryValidation indicates input validation errors.
	CategoryValidation Category = "VALIDATION"
	// CategoryInternal indicates unexpected internal errors.
	CategoryInternal Category = "INTERNAL"
	// CategoryResource indicates budget or capacity errors.
	CategoryResource Category = "RESOURCE"
)

// Severity defines error severity levels.
type Severity string

const (
	// SeverityFatal indicates unrecoverable error, must abort.
	SeverityFatal Severity = "FATAL"
	// SeverityError indicates operation failed but can continue.
	SeverityError Severity = "ERROR"
	// SeverityWarning indicates degraded operation, continuing.
	SeverityWarning Severity = "WARNING"
)

// Error codes organized by category.
const (
	// Config errors (100-199)
	ErrCodeConfigInvalid = "ERR_102_CONFIG_INVALID"

	// IO errors (200-299)
	ErrCodeFileNotFound   = "ERR_201_FILE_NOT_FOUND"
	ErrCodeFilePermission = "ERR_202_FILE_PERMISSION"
	ErrCodeHistoryLocked  = "ERR_203_HISTORY_LOCKED"

	// Validation errors (400-499)
	ErrCodeInvalidInput     = "ERR_401_INVALID_INPUT"
	ErrCodeEmptyInput       = "ERR_402_EMPTY_INPUT"
	ErrCodeInvalidTarget    = "ERR_403_INVALID_TARGET"
	ErrCodeInvalidSolutions = "ERR_404_INVALID_MAX_SOLUTIONS"
	ErrCodeInputTooLarge    = "ERR_405_INPUT_TOO_LARGE"

	// Internal errors (500-599)
	ErrCodeInternal        = "ERR_501_INTERNAL"
	ErrCodeReconcileFailed = "ERR_502_RECONCILE_FAILED"
	ErrCodeHistoryCorrupt  = "ERR_503_HISTORY_CORRUPT"

	// Resource errors (600-699)
	ErrCodeMemoryBudget   = "ERR_601_MEMORY_BUDGET_EXCEEDED"
	ErrCodeBudgetTooSmall = "ERR_602_MEMORY_BUDGET_TOO_SMALL"
)

// categoryFromCode extracts category from error code.
func categoryFromCode(code string) Category {
	if len(code) < 7 {
		return CategoryInternal
	}

	switch code[4] {
	case '1':
		return CategoryConfig
	case '2':
		return CategoryIO
	case '4':
		return CategoryValidation
	case '6':
		return CategoryResource
	default:
		return CategoryInternal
	}
}

// severityFromCode determines severity based on error code.
func severityFromCode(code string) Severity {
	switch code {
	case ErrCodeHistoryCorrupt:
		return SeverityFatal
	case ErrCodeHistoryLocked:
		return SeverityWarning
	}
	return SeverityError
}

// isRetryableCode checks if an error code represents a retryable error.
// Memory budget breaches can be retried with relaxed constraints; a locked
// history store can be retried once the other process releases it.
func isRetryableCode(code string) bool {
	switch code {
	case ErrCodeMemoryBudget, ErrCodeHistoryLocked:
		return true
	}
	return false
}
