package input

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tallyerr "github.com/tallykit/tallymcp/internal/errors"
)

func TestParseNumbers_ValidInput(t *testing.T) {
	numbers, err := ParseNumbers("1.00\n2.5\n300\n0.01\n", 0)
	require.NoError(t, err)

	assert.Equal(t, []float64{1.00, 2.5, 300, 0.01}, numbers)
}

func TestParseNumbers_SkipsBlankLines(t *testing.T) {
	numbers, err := ParseNumbers("1.00\n\n  \n2.00\n", 0)
	require.NoError(t, err)

	assert.Equal(t, []float64{1.00, 2.00}, numbers)
}

func TestParseNumbers_RejectsBadLines(t *testing.T) {
	tests := []struct {
		name string
		text string
	}{
		{"three decimals", "1.234"},
		{"negative", "-1.00"},
		{"zero", "0"},
		{"zero with decimals", "0.00"},
		{"letters", "abc"},
		{"embedded comma", "1,000"},
		{"leading plus", "+5"},
		{"scientific notation", "1e3"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseNumbers(tt.text, 0)
			require.Error(t, err)
			assert.True(t, tallyerr.IsValidation(err))
		})
	}
}

func TestParseNumbers_ReportsLineNumber(t *testing.T) {
	_, err := ParseNumbers("1.00\n2.00\nbogus\n", 0)
	require.Error(t, err)

	assert.Contains(t, err.Error(), "line 3")
}

func TestParseNumbers_EmptyInputFails(t *testing.T) {
	_, err := ParseNumbers("   \n  \n", 0)
	require.Error(t, err)
	assert.Equal(t, tallyerr.ErrCodeEmptyInput, tallyerr.GetCode(err))
}

func TestParseNumbers_EnforcesCap(t *testing.T) {
	text := strings.Repeat("1.00\n", 301)

	_, err := ParseNumbers(text, 300)
	require.Error(t, err)
	assert.Equal(t, tallyerr.ErrCodeInputTooLarge, tallyerr.GetCode(err))

	numbers, err := ParseNumbers(text, 0)
	require.NoError(t, err)
	assert.Len(t, numbers, 301)
}

func TestParseTarget(t *testing.T) {
	target, err := ParseTarget(" 12.50 ")
	require.NoError(t, err)
	assert.Equal(t, 12.50, target)

	_, err = ParseTarget("0")
	assert.Error(t, err)

	_, err = ParseTarget("12.505")
	assert.Error(t, err)

	_, err = ParseTarget("-4")
	require.Error(t, err)
	assert.Equal(t, tallyerr.ErrCodeInvalidTarget, tallyerr.GetCode(err))
}

func TestLoadFile(t *testing.T) {
	// Given: an amounts file
	path := filepath.Join(t.TempDir(), "amounts.txt")
	require.NoError(t, os.WriteFile(path, []byte("10.00\n20.00\n"), 0o644))

	// When: loading
	numbers, err := LoadFile(path, 300)
	require.NoError(t, err)

	// Then
	assert.Equal(t, []float64{10, 20}, numbers)
}

func TestLoadFile_MissingFile(t *testing.T) {
	_, err := LoadFile(filepath.Join(t.TempDir(), "absent.txt"), 0)
	require.Error(t, err)
	assert.Equal(t, tallyerr.ErrCodeFileNotFound, tallyerr.GetCode(err))
}
