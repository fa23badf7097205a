package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tallykit/tallymcp/internal/async"
	"github.com/tallykit/tallymcp/internal/config"
	tallyerr "github.com/tallykit/tallymcp/internal/errors"
	"github.com/tallykit/tallymcp/internal/input"
	"github.com/tallykit/tallymcp/internal/output"
	"github.com/tallykit/tallymcp/internal/reconcile"
	"github.com/tallykit/tallymcp/internal/solver"
	"github.com/tallykit/tallymcp/internal/watcher"
)

// watchOptions holds CLI flags for watch.
type watchOptions struct {
	target       string
	maxSolutions int
	debounceMS   int
}

func newWatchCmd() *cobra.Command {
	var opts watchOptions

	cmd := &cobra.Command{
		Use:   "watch <amounts-file>",
		Short: "Re-solve whenever the amounts file changes",
		Long: `Watch an amounts file and re-run the solve on every save.

Useful while cleaning up a ledger export: edit the file in one terminal
and see matching subsets update in another.

Example:
  tallymcp watch invoices.txt --target 150.00`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runWatch(cmd.Context(), cmd, args[0], opts)
		},
	}

	cmd.Flags().StringVarP(&opts.target, "target", "t", "", "Target sum (required)")
	cmd.Flags().IntVarP(&opts.maxSolutions, "max-solutions", "n", 0, "Number of solutions to find (default from config)")
	cmd.Flags().IntVar(&opts.debounceMS, "debounce", 0, "Debounce window in milliseconds (default 300)")
	_ = cmd.MarkFlagRequired("target")

	return cmd
}

func runWatch(ctx context.Context, cmd *cobra.Command, path string, opts watchOptions) error {
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

	constraints := solver.Constraints{
		MaxSolutions:   cfg.Solver.MaxSolutions,
		MemoryBudgetMB: cfg.Solver.MemoryBudgetMB,
	}
	if opts.maxSolutions > 0 {
		constraints.MaxSolutions = opts.maxSolutions
	}

	w, err := watcher.New(path, time.Duration(opts.debounceMS)*time.Millisecond)
	if err != nil {
		out.Error(tallyerr.FormatForCLI(err))
		return err
	}
	defer func() { _ = w.Stop() }()

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := w.Start(ctx); err != nil {
		out.Error(tallyerr.FormatForCLI(err))
		return err
	}

	out.Statusf("", "watching %s, target %.2f (ctrl+c to stop)", path, target)

	// Solve once with the current contents before waiting for changes.
	solveFile(ctx, out, path, target, constraints, cfg.Solver.MaxInputs)

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return nil
			case err, ok := <-w.Errors():
				if !ok {
					return nil
				}
				slog.Warn("watch error", slog.String("error", err.Error()))
			case c, ok := <-w.Changes():
				if !ok {
					return nil
				}
				out.Blank()
				out.Statusf("", "%s changed at %s", path, c.Timestamp.Format("15:04:05"))
				solveFile(ctx, out, path, target, constraints, cfg.Solver.MaxInputs)
			}
		}
	})

	return g.Wait()
}

// solveFile runs one solve over the file's current contents.
// Failures are reported and swallowed so the watch keeps running.
func solveFile(ctx context.Context, out *output.Writer, path string, target float64, constraints solver.Constraints, maxInputs int) {
	amounts, err := input.LoadFile(path, maxInputs)
	if err != nil {
		out.Error(tallyerr.FormatForCLI(err))
		return
	}

	bg := async.NewBackgroundSolver()
	if err := bg.Start(ctx, amounts, target, constraints); err != nil {
		out.Error(tallyerr.FormatForCLI(err))
		return
	}

	// Stop the solve when the watch context ends (Ctrl-C or shutdown).
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			bg.RequestStop()
		case <-watchDone:
		}
	}()

	result, err := bg.Wait()
	if err != nil {
		out.Error(tallyerr.FormatForCLI(err))
		return
	}

	var views []reconcile.View
	if len(result.Solutions) > 0 {
		views, err = reconcile.Reconcile(amounts, result.Solutions, constraints.MaxSolutions)
		if err != nil {
			out.Error(tallyerr.FormatForCLI(err))
			return
		}
	}

	out.Views(amounts, views)
	out.Statusf("", "searched %d amounts in %.2fs", len(amounts), result.Elapsed.Seconds())
}
