package cmd

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	root := NewRootCmd()
	var buf bytes.Buffer
	root.SetOut(&buf)
	root.SetErr(&buf)
	root.SetIn(strings.NewReader(stdin))
	root.SetArgs(args)
	err := root.Execute()
	return buf.String(), err
}

func TestSolveCmd_FromStdin(t *testing.T) {
	// Given amounts on stdin and the documented scenario target
	stdin := "1.00\n2.00\n3.00\n4.00\n"

	// When solve runs requesting two solutions
	out, err := runCLI(t, stdin,
		"solve", "--target", "5.00", "-n", "2", "--plain", "--no-history")

	// Then both subsets are printed smallest-first
	require.NoError(t, err)
	assert.Contains(t, out, "solution 1: 1.00 + 4.00 = 5.00")
	assert.Contains(t, out, "solution 2: 2.00 + 3.00 = 5.00")
}

func TestSolveCmd_FromFile(t *testing.T) {
	// Given an amounts file
	dir := t.TempDir()
	path := filepath.Join(dir, "amounts.txt")
	require.NoError(t, os.WriteFile(path, []byte("10.00\n20.00\n30.00\n"), 0o644))

	// When solve runs against it
	out, err := runCLI(t, "",
		"solve", "-t", "30.00", "-f", path, "-n", "2", "--plain", "--no-history")

	// Then both matches appear: 10+20 and the single 30
	require.NoError(t, err)
	assert.Contains(t, out, "10.00 + 20.00 = 30.00")
	assert.Contains(t, out, "30.00 = 30.00")
}

func TestSolveCmd_NoSolutions(t *testing.T) {
	out, err := runCLI(t, "5.00\n",
		"solve", "-t", "10.00", "--plain", "--no-history")

	require.NoError(t, err)
	assert.Contains(t, out, "no solutions found")
}

func TestSolveCmd_InvalidAmountFails(t *testing.T) {
	// Given a malformed amount with three decimal places
	out, err := runCLI(t, "1.123\n",
		"solve", "-t", "5.00", "--plain", "--no-history")

	// Then the line number is reported and the command fails
	require.Error(t, err)
	assert.Contains(t, out, "line 1")
}

func TestSolveCmd_MissingTargetFails(t *testing.T) {
	_, err := runCLI(t, "1.00\n", "solve", "--plain", "--no-history")
	require.Error(t, err)
}

func TestSolveCmd_CSVOutput(t *testing.T) {
	// Given a solvable input and CSV format
	stdin := "1.00\n2.00\n3.00\n4.00\n"

	// When solve writes CSV to stdout
	out, err := runCLI(t, stdin,
		"solve", "-t", "5.00", "-n", "2", "--format", "csv", "--plain", "--no-history")

	// Then the grid has a header and marked rows
	require.NoError(t, err)
	assert.Contains(t, out, "position,amount,solution_1,solution_2")
	assert.Contains(t, out, "x")
}

func TestSolveCmd_CSVFile(t *testing.T) {
	// Given an output path
	dir := t.TempDir()
	outPath := filepath.Join(dir, "matches.csv")

	// When solve writes to it
	_, err := runCLI(t, "2.00\n3.00\n",
		"solve", "-t", "5.00", "-o", outPath, "--plain", "--no-history")

	// Then the file exists with the grid
	require.NoError(t, err)
	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "position,amount")
}
