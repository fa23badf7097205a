package errors

import (
	"fmt"
	"strings"
)

// FormatForUser returns a user-friendly error message.
// If debug is true, includes additional technical details.
func FormatForUser(err error, debug bool) string {
	if err == nil {
		return ""
	}

	te, ok := err.(*TallyError)
	if !ok {
		return err.Error()
	}

	var sb strings.Builder

	sb.WriteString("Error: ")
	sb.WriteString(te.Message)
	sb.WriteString("\n")

	if te.Suggestion != "" {
		sb.WriteString("\nSuggestion: ")
		sb.WriteString(te.Suggestion)
		sb.WriteString("\n")
	}

	if debug {
		if te.Cause != nil {
			sb.WriteString(fmt.Sprintf("\nCause: %v\n", te.Cause))
		}
		for k, v := range te.Details {
			sb.WriteString(fmt.Sprintf("  %s: %s\n", k, v))
		}
	}

	sb.WriteString(fmt.Sprintf("\n[%s]", te.Code))

	return sb.String()
}

// FormatForCLI formats an error for CLI output.
// Uses a concise format suitable for terminal display.
func FormatForCLI(err error) string {
	if err == nil {
		return ""
	}

	te, ok := err.(*TallyError)
	if !ok {
		te = Wrap(ErrCodeInternal, err)
	}

	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Error: %s\n", te.Message))

	if te.Suggestion != "" {
		sb.WriteString(fmt.Sprintf("Try: %s\n", te.Suggestion))
	}

	if te.Retryable {
		sb.WriteString("This operation can be retried.\n")
	}

	return sb.String()
}
