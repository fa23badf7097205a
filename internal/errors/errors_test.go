package errors

import (
	stderrors "errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_DerivesCategoryFromCode(t *testing.T) {
	tests := []struct {
		name     string
		code     string
		expected Category
	}{
		{"config code", ErrCodeConfigInvalid, CategoryConfig},
		{"io code", ErrCodeFileNotFound, CategoryIO},
		{"validation code", ErrCodeInvalidInput, CategoryValidation},
		{"internal code", ErrCodeInternal, CategoryInternal},
		{"resource code", ErrCodeMemoryBudget, CategoryResource},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := New(tt.code, "test", nil)
			assert.Equal(t, tt.expected, err.Category)
		})
	}
}

func TestError_FormatsCodeAndMessage(t *testing.T) {
	err := New(ErrCodeInvalidInput, "numbers must be positive", nil)

	assert.Equal(t, "[ERR_401_INVALID_INPUT] numbers must be positive", err.Error())
}

func TestWrap_PreservesCause(t *testing.T) {
	// Given: an underlying error
	cause := fmt.Errorf("disk exploded")

	// When: wrapping it
	err := Wrap(ErrCodeFileNotFound, cause)

	// Then: cause is reachable through errors.Unwrap
	require.NotNil(t, err)
	assert.Equal(t, cause, stderrors.Unwrap(err))
}

func TestWrap_NilReturnsNil(t *testing.T) {
	assert.Nil(t, Wrap(ErrCodeInternal, nil))
}

func TestIs_MatchesByCode(t *testing.T) {
	err := InvalidInputError("empty list")
	target := New(ErrCodeInvalidInput, "different message", nil)

	assert.True(t, stderrors.Is(err, target))
	assert.False(t, stderrors.Is(err, New(ErrCodeInternal, "x", nil)))
}

func TestGetCategory(t *testing.T) {
	assert.Equal(t, CategoryResource, GetCategory(ResourceError("budget breached")))
	assert.Equal(t, CategoryConfig, GetCategory(ConfigError("bad yaml", nil)))
	assert.Equal(t, Category(""), GetCategory(fmt.Errorf("plain error")))
}

func TestIsRetryable(t *testing.T) {
	assert.True(t, IsRetryable(ResourceError("budget breached")))
	assert.False(t, IsRetryable(InvalidInputError("bad input")))
	assert.False(t, IsRetryable(nil))
	assert.False(t, IsRetryable(fmt.Errorf("plain error")))
}

func TestIsValidation(t *testing.T) {
	assert.True(t, IsValidation(New(ErrCodeEmptyInput, "empty", nil)))
	assert.False(t, IsValidation(ReconcileError("mismatch")))
	assert.False(t, IsValidation(fmt.Errorf("plain")))
}

func TestWithDetail_Chains(t *testing.T) {
	err := InternalError("boom", nil).
		WithDetail("index", "3").
		WithDetail("value", "2.50").
		WithSuggestion("re-run with --debug")

	assert.Equal(t, "3", err.Details["index"])
	assert.Equal(t, "2.50", err.Details["value"])
	assert.Equal(t, "re-run with --debug", err.Suggestion)
}

func TestFormatForCLI_IncludesSuggestionAndRetry(t *testing.T) {
	err := ResourceError("memory budget exceeded").
		WithSuggestion("increase --memory-budget")

	out := FormatForCLI(err)

	assert.Contains(t, out, "memory budget exceeded")
	assert.Contains(t, out, "increase --memory-budget")
	assert.Contains(t, out, "retried")
}

func TestFormatForUser_PlainError(t *testing.T) {
	out := FormatForUser(fmt.Errorf("plain"), false)
	assert.Equal(t, "plain", out)
}
