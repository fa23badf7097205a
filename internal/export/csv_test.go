package export

import (
	"bytes"
	"encoding/csv"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tallykit/tallymcp/internal/reconcile"
)

func TestWriteCSV_MarksSelectedPositions(t *testing.T) {
	// Given: 4 amounts and two unique views
	original := []float64{1.00, 2.00, 3.00, 4.00}
	views := []reconcile.View{
		{Indices: []int{0, 3}, Unique: true},
		{Indices: []int{1, 2}, Unique: true},
	}

	// When: writing CSV
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, original, views))

	// Then: the grid matches views column by column
	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)

	require.Len(t, records, 5)
	assert.Equal(t, []string{"position", "amount", "solution_1", "solution_2"}, records[0])
	assert.Equal(t, []string{"1", "1.00", "x", ""}, records[1])
	assert.Equal(t, []string{"2", "2.00", "", "x"}, records[2])
	assert.Equal(t, []string{"3", "3.00", "", "x"}, records[3])
	assert.Equal(t, []string{"4", "4.00", "x", ""}, records[4])
}

func TestWriteCSV_LabelsDuplicateViews(t *testing.T) {
	original := []float64{2.00, 2.00}
	views := []reconcile.View{
		{Indices: []int{0, 1}, Unique: true},
		{Indices: []int{0, 1}, Unique: false},
	}

	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, original, views))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, []string{"position", "amount", "solution_1", "solution_2_dup"}, records[0])
}

func TestWriteCSV_NoViews(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, []float64{5.00}, nil))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 2)
	assert.Equal(t, []string{"position", "amount"}, records[0])
	assert.Equal(t, []string{"1", "5.00"}, records[1])
}

func TestWriteCSVFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "result.csv")
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))

	err := WriteCSVFile(path, []float64{1.50}, []reconcile.View{{Indices: []int{0}, Unique: true}})
	require.NoError(t, err)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "1.50")
}
