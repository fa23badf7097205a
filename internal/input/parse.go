// Package input parses amount lists for the solver.
//
// The input contract is strict: one positive decimal amount per line, at
// most two fractional digits. Validation happens here so the solver can
// trust its inputs (it still defends independently).
package input

import (
	"fmt"
	"os"
	"regexp"
	"strconv"
	"strings"

	tallyerr "github.com/tallykit/tallymcp/internal/errors"
)

// amountPattern accepts positive decimals with at most two fractional digits.
var amountPattern = regexp.MustCompile(`^[0-9]+(\.[0-9]{1,2})?$`)

// ParseNumbers parses newline-separated amounts from text.
// Blank lines are skipped. maxInputs caps the list length; pass 0 for no cap.
// Errors carry the 1-based line number of the offending entry.
func ParseNumbers(text string, maxInputs int) ([]float64, error) {
	lines := strings.Split(strings.TrimSpace(text), "\n")
	numbers := make([]float64, 0, len(lines))

	for i, line := range lines {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		if !amountPattern.MatchString(line) {
			return nil, tallyerr.InvalidInputError(
				fmt.Sprintf("line %d: %q is not a positive amount with at most two decimals", i+1, line)).
				WithDetail("line", strconv.Itoa(i+1))
		}

		num, err := strconv.ParseFloat(line, 64)
		if err != nil {
			return nil, tallyerr.Wrap(tallyerr.ErrCodeInvalidInput, err).
				WithDetail("line", strconv.Itoa(i+1))
		}
		if num <= 0 {
			return nil, tallyerr.InvalidInputError(
				fmt.Sprintf("line %d: %q is not positive", i+1, line)).
				WithDetail("line", strconv.Itoa(i+1))
		}

		numbers = append(numbers, num)
	}

	if len(numbers) == 0 {
		return nil, tallyerr.New(tallyerr.ErrCodeEmptyInput, "no amounts found in input", nil)
	}
	if maxInputs > 0 && len(numbers) > maxInputs {
		return nil, tallyerr.New(tallyerr.ErrCodeInputTooLarge,
			fmt.Sprintf("input has %d amounts, maximum is %d", len(numbers), maxInputs), nil).
			WithSuggestion("split the input or raise solver.max_inputs in the config")
	}

	return numbers, nil
}

// ParseTarget parses a single target amount with the same lexical contract
// as list entries.
func ParseTarget(text string) (float64, error) {
	text = strings.TrimSpace(text)
	if !amountPattern.MatchString(text) {
		return 0, tallyerr.New(tallyerr.ErrCodeInvalidTarget,
			fmt.Sprintf("%q is not a positive amount with at most two decimals", text), nil)
	}

	target, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return 0, tallyerr.Wrap(tallyerr.ErrCodeInvalidTarget, err)
	}
	if target <= 0 {
		return 0, tallyerr.New(tallyerr.ErrCodeInvalidTarget,
			fmt.Sprintf("target %q must be positive", text), nil)
	}
	return target, nil
}

// LoadFile reads and parses an amounts file.
func LoadFile(path string, maxInputs int) ([]float64, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, tallyerr.New(tallyerr.ErrCodeFileNotFound,
				fmt.Sprintf("amounts file not found: %s", path), err)
		}
		return nil, tallyerr.Wrap(tallyerr.ErrCodeFilePermission, err)
	}

	return ParseNumbers(string(data), maxInputs)
}
