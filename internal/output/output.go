// Package output provides consistent CLI output formatting for solve results.
package output

import (
	"fmt"
	"io"
	"strings"

	"github.com/tallykit/tallymcp/internal/reconcile"
)

// Writer provides formatted output for CLI.
type Writer struct {
	out io.Writer
}

// New creates a new output Writer.
func New(out io.Writer) *Writer {
	return &Writer{out: out}
}

// Status prints a status message with an icon.
// Errors from writing are intentionally ignored for console output.
func (w *Writer) Status(icon, msg string) {
	if icon != "" {
		_, _ = fmt.Fprintf(w.out, "%s %s\n", icon, msg)
	} else {
		_, _ = fmt.Fprintf(w.out, "   %s\n", msg)
	}
}

// Statusf prints a formatted status message with an icon.
func (w *Writer) Statusf(icon, format string, args ...any) {
	w.Status(icon, fmt.Sprintf(format, args...))
}

// Success prints a success message with checkmark.
func (w *Writer) Success(msg string) {
	w.Status("✅", msg)
}

// Successf prints a formatted success message.
func (w *Writer) Successf(format string, args ...any) {
	w.Success(fmt.Sprintf(format, args...))
}

// Warning prints a warning message.
func (w *Writer) Warning(msg string) {
	w.Status("⚠️ ", msg)
}

// Warningf prints a formatted warning message.
func (w *Writer) Warningf(format string, args ...any) {
	w.Warning(fmt.Sprintf(format, args...))
}

// Error prints an error message.
func (w *Writer) Error(msg string) {
	w.Status("❌", msg)
}

// Errorf prints a formatted error message.
func (w *Writer) Errorf(format string, args ...any) {
	w.Error(fmt.Sprintf(format, args...))
}

// Blank prints an empty line.
func (w *Writer) Blank() {
	_, _ = fmt.Fprintln(w.out)
}

// Views prints reconciled solutions as numbered lists of amounts.
// Padded repeats are labeled as duplicates of an earlier solution.
func (w *Writer) Views(amounts []float64, views []reconcile.View) {
	if len(views) == 0 {
		w.Status("", "no solutions found")
		return
	}

	for i, v := range views {
		parts := make([]string, 0, len(v.Indices))
		sum := 0.0
		for _, idx := range v.Indices {
			parts = append(parts, formatAmount(amounts[idx]))
			sum += amounts[idx]
		}

		label := fmt.Sprintf("solution %d", i+1)
		if !v.Unique {
			label += " (duplicate)"
		}
		_, _ = fmt.Fprintf(w.out, "%s: %s = %s\n",
			label, strings.Join(parts, " + "), formatAmount(sum))
	}
}

// Positions prints which input rows each solution uses, one row per amount.
func (w *Writer) Positions(amounts []float64, views []reconcile.View) {
	if len(views) == 0 {
		return
	}

	for pos, amt := range amounts {
		marks := make([]string, 0, len(views))
		for i, v := range views {
			if containsIndex(v.Indices, pos) {
				marks = append(marks, fmt.Sprintf("#%d", i+1))
			}
		}
		if len(marks) == 0 {
			continue
		}
		_, _ = fmt.Fprintf(w.out, "  row %d (%s): %s\n",
			pos+1, formatAmount(amt), strings.Join(marks, " "))
	}
}

func containsIndex(indices []int, idx int) bool {
	for _, i := range indices {
		if i == idx {
			return true
		}
	}
	return false
}

func formatAmount(v float64) string {
	return fmt.Sprintf("%.2f", v)
}
