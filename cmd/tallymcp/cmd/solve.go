package cmd

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/spf13/cobra"

	"github.com/tallykit/tallymcp/internal/async"
	"github.com/tallykit/tallymcp/internal/cache"
	"github.com/tallykit/tallymcp/internal/config"
	tallyerr "github.com/tallykit/tallymcp/internal/errors"
	"github.com/tallykit/tallymcp/internal/export"
	"github.com/tallykit/tallymcp/internal/input"
	"github.com/tallykit/tallymcp/internal/output"
	"github.com/tallykit/tallymcp/internal/reconcile"
	"github.com/tallykit/tallymcp/internal/solver"
	"github.com/tallykit/tallymcp/internal/store"
	"github.com/tallykit/tallymcp/internal/ui"
)

// solveOptions holds CLI flags for solve.
type solveOptions struct {
	target         string
	file           string
	maxSolutions   int
	memoryBudgetMB int
	format         string // "text", "csv"
	outputPath     string
	plain          bool
	noHistory      bool
}

func newSolveCmd() *cobra.Command {
	var opts solveOptions

	cmd := &cobra.Command{
		Use:   "solve",
		Short: "Find which subsets of the amounts sum to the target",
		Long: `Find every combination of the input amounts that sums to the target.

Amounts are read one per line from --file or stdin: plain decimals with
up to two decimal places, e.g. invoice amounts pasted from a ledger.

Examples:
  tallymcp solve --target 150.00 --file invoices.txt
  cat amounts.txt | tallymcp solve -t 99.95 -n 3
  tallymcp solve -t 150.00 -f invoices.txt --format csv -o matches.csv`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runSolve(cmd.Context(), cmd, opts)
		},
	}

	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "Target sum (required)")
	cmd.Flags().StringVarP(&opts.file, "file", "f", "", "Read amounts from file instead of stdin")
	cmd.Flags().IntVarP(&opts.maxSolutions, "max-solutions", "n", 0, "Number of solutions to find (default from config)")
	cmd.Flags().IntVar(&opts.memoryBudgetMB, "memory-budget", 0, "Soft memory ceiling in MB (default from config)")
	cmd.Flags().StringVar(&opts.format, "format", "text", "Output format: text, csv")
	cmd.Flags().StringVarP(&opts.outputPath, "output", "o", "", "Write CSV output to file (implies --format csv)")
	cmd.Flags().BoolVar(&opts.plain, "plain", false, "Plain progress output (no TUI)")
	cmd.Flags().BoolVar(&opts.noHistory, "no-history", false, "Skip recording this run in history")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runSolve(ctx context.Context, cmd *cobra.Command, opts solveOptions) error {
	out := output.New(cmd.OutOrStdout())

	cfg, err := config.Load()
	if err != nil {
		out.Error(tallyerr.FormatForCLI(err))
		return err
	}

	target, err := input.ParseTarget(opts.target)
	if err != nil {
		out.Error(tallyerr.FormatForCLI(err))
		return err
	}

	amounts, err := loadAmounts(cmd, opts.file, cfg.Solver.MaxInputs)
	if err != nil {
		out.Error(tallyerr.FormatForCLI(err))
		return err
	}

	constraints := solver.Constraints{
		MaxSolutions:   cfg.Solver.MaxSolutions,
		MemoryBudgetMB: cfg.Solver.MemoryBudgetMB,
	}
	if opts.maxSolutions > 0 {
		constraints.MaxSolutions = opts.maxSolutions
	}
	if opts.memoryBudgetMB > 0 {
		constraints.MemoryBudgetMB = opts.memoryBudgetMB
	}

	slog.Info("solve_started",
		slog.Int("amounts", len(amounts)),
		slog.Float64("target", target),
		slog.Int("max_solutions", constraints.MaxSolutions))

	bg := async.NewBackgroundSolver()
	if err := bg.Start(ctx, amounts, target, constraints); err != nil {
		out.Error(tallyerr.FormatForCLI(err))
		return err
	}

	var stopped atomic.Bool
	renderer := ui.NewRenderer(ui.Config{
		Output: cmd.ErrOrStderr(),
		Label:  fmt.Sprintf("solving %d amounts for %.2f", len(amounts), target),
		OnStop: func() {
			stopped.Store(true)
			bg.RequestStop()
		},
	}, opts.plain)
	_ = renderer.Start(ctx)

	ticker := time.NewTicker(50 * time.Millisecond)
	defer ticker.Stop()
poll:
	for {
		status := bg.Poll()
		renderer.SetPercent(status.Progress.Percent)
		switch status.State {
		case async.StateCompleted, async.StateFailed:
			break poll
		}
		select {
		case <-ticker.C:
		case <-ctx.Done():
			stopped.Store(true)
			bg.RequestStop()
		}
	}
	renderer.Finish()

	result, err := bg.Wait()
	if err != nil {
		slog.Error("solve_failed",
			slog.String("code", tallyerr.GetCode(err)),
			slog.String("category", string(tallyerr.GetCategory(err))))
		out.Error(tallyerr.FormatForCLI(err))
		return err
	}

	var views []reconcile.View
	if len(result.Solutions) > 0 {
		views, err = reconcile.Reconcile(amounts, result.Solutions, constraints.MaxSolutions)
		if err != nil {
			out.Error(tallyerr.FormatForCLI(err))
			return err
		}
	}

	if !opts.noHistory && cfg.History.Enabled {
		recordHistory(ctx, cfg, amounts, target, constraints.MaxSolutions, views, stopped.Load(), result.Elapsed, out)
	}

	if opts.outputPath != "" || opts.format == "csv" {
		return writeCSVResult(cmd, opts.outputPath, amounts, views, out)
	}

	out.Views(amounts, views)
	if len(views) > 0 {
		out.Blank()
		out.Positions(amounts, views)
	}
	out.Blank()
	out.Statusf("", "searched %d amounts in %.2fs", len(amounts), result.Elapsed.Seconds())

	return nil
}

// loadAmounts reads amounts from the given file, or stdin when path is empty.
func loadAmounts(cmd *cobra.Command, path string, maxInputs int) ([]float64, error) {
	if path != "" {
		return input.LoadFile(path, maxInputs)
	}

	data, err := io.ReadAll(cmd.InOrStdin())
	if err != nil {
		return nil, tallyerr.IOError("failed to read amounts from stdin", err)
	}
	return input.ParseNumbers(string(data), maxInputs)
}

// writeCSVResult writes the solution grid to a file or stdout.
func writeCSVResult(cmd *cobra.Command, path string, amounts []float64, views []reconcile.View, out *output.Writer) error {
	if path == "" {
		return export.WriteCSV(cmd.OutOrStdout(), amounts, views)
	}
	if err := export.WriteCSVFile(path, amounts, views); err != nil {
		out.Error(tallyerr.FormatForCLI(err))
		return err
	}
	out.Successf("wrote %s", path)
	return nil
}

// recordHistory saves the run, warning instead of failing when the store
// is unavailable (locked by another process, bad path).
func recordHistory(ctx context.Context, cfg *config.Config, amounts []float64, target float64, maxSolutions int, views []reconcile.View, stopped bool, elapsed time.Duration, out *output.Writer) {
	h, err := store.OpenHistory(cfg.History.Path, cfg.History.MaxRuns)
	if err != nil {
		out.Warningf("history unavailable: %s", tallyerr.FormatForCLI(err))
		return
	}
	defer func() { _ = h.Close() }()

	unique := 0
	for _, v := range views {
		if v.Unique {
			unique++
		}
	}

	run := store.Run{
		InputDigest:    cache.Key(amounts, target, maxSolutions),
		InputCount:     len(amounts),
		Target:         target,
		MaxSolutions:   maxSolutions,
		SolutionsFound: len(views),
		UniqueFound:    unique,
		Stopped:        stopped,
		ElapsedSeconds: elapsed.Seconds(),
	}
	if _, err := h.SaveRun(ctx, run); err != nil {
		out.Warningf("failed to record run: %s", tallyerr.FormatForCLI(err))
	}
}
