package cmd

import (
	"bufio"
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/tallykit/tallymcp/internal/logging"
)

// logsOptions holds CLI flags for logs.
type logsOptions struct {
	lines   int
	level   string
	logFile string
}

func newLogsCmd() *cobra.Command {
	var opts logsOptions

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "View recent log entries",
		Long: `Show the tail of the tallymcp log file.

Logs are written under ~/.tallymcp/logs/ when commands run with --debug.

Examples:
  tallymcp logs                 # Show last 50 lines
  tallymcp logs -n 200          # Show last 200 lines
  tallymcp logs --level error   # Show only error entries`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return runLogs(cmd, opts)
		},
	}

	cmd.Flags().IntVarP(&opts.lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().StringVar(&opts.level, "level", "", "Filter by log level (debug|info|warn|error)")
	cmd.Flags().StringVar(&opts.logFile, "file", "", "Path to log file (overrides the default location)")

	return cmd
}

func runLogs(cmd *cobra.Command, opts logsOptions) error {
	path, err := logging.FindLogFile(opts.logFile)
	if err != nil {
		return err
	}

	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	var minLevel *slog.Level
	if opts.level != "" {
		lv := logging.LevelFromString(opts.level)
		minLevel = &lv
	}

	// Keep only the last N matching lines in a ring.
	ring := make([]string, 0, opts.lines)
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if minLevel != nil && !lineAtLevel(line, *minLevel) {
			continue
		}
		if opts.lines > 0 && len(ring) == opts.lines {
			ring = ring[1:]
		}
		ring = append(ring, line)
	}
	if err := scanner.Err(); err != nil {
		return fmt.Errorf("read log file: %w", err)
	}

	out := cmd.OutOrStdout()
	for _, line := range ring {
		_, _ = fmt.Fprintln(out, line)
	}
	return nil
}

// lineAtLevel reports whether a JSON log line is at or above min.
// Unparseable lines are kept so nothing silently disappears.
func lineAtLevel(line string, min slog.Level) bool {
	var entry struct {
		Level string `json:"level"`
	}
	if err := json.Unmarshal([]byte(line), &entry); err != nil || entry.Level == "" {
		return true
	}
	return logging.LevelFromString(strings.ToLower(entry.Level)) >= min
}
