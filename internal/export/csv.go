// Package export writes reconciled results as CSV.
//
// The layout mirrors the result grid users see: one row per original amount,
// one column per solution view, an "x" marking the positions that view
// selected. Duplicate (padding) views are labeled as such in the header.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"strconv"

	"github.com/tallykit/tallymcp/internal/reconcile"
)

// WriteCSV writes the result grid for the given original amounts and views.
func WriteCSV(w io.Writer, original []float64, views []reconcile.View) error {
	cw := csv.NewWriter(w)

	header := []string{"position", "amount"}
	for i, v := range views {
		label := fmt.Sprintf("solution_%d", i+1)
		if !v.Unique {
			label += "_dup"
		}
		header = append(header, label)
	}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write header: %w", err)
	}

	selected := make([]map[int]bool, len(views))
	for i, v := range views {
		selected[i] = make(map[int]bool, len(v.Indices))
		for _, idx := range v.Indices {
			selected[i][idx] = true
		}
	}

	for pos, amount := range original {
		row := []string{
			strconv.Itoa(pos + 1),
			strconv.FormatFloat(amount, 'f', 2, 64),
		}
		for i := range views {
			if selected[i][pos] {
				row = append(row, "x")
			} else {
				row = append(row, "")
			}
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write row %d: %w", pos+1, err)
		}
	}

	cw.Flush()
	return cw.Error()
}

// WriteCSVFile writes the result grid to a file, creating or truncating it.
func WriteCSVFile(path string, original []float64, views []reconcile.View) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create export file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if err := WriteCSV(f, original, views); err != nil {
		return err
	}
	return f.Sync()
}
