package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/tallykit/tallymcp/internal/config"
	tallyerr "github.com/tallykit/tallymcp/internal/errors"
	"github.com/tallykit/tallymcp/internal/output"
	"github.com/tallykit/tallymcp/internal/store"
)

func newHistoryCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "history",
		Short: "Inspect recorded solve runs",
	}

	var limit int
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List recent runs, newest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryList(cmd.Context(), cmd, limit)
		},
	}
	listCmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of runs to show")

	clearCmd := &cobra.Command{
		Use:   "clear",
		Short: "Delete all recorded runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistoryClear(cmd.Context(), cmd)
		},
	}

	cmd.AddCommand(listCmd)
	cmd.AddCommand(clearCmd)
	return cmd
}

func openHistory(out *output.Writer) (*store.HistoryStore, *config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		out.Error(tallyerr.FormatForCLI(err))
		return nil, nil, err
	}

	h, err := store.OpenHistory(cfg.History.Path, cfg.History.MaxRuns)
	if err != nil {
		out.Error(tallyerr.FormatForCLI(err))
		return nil, nil, err
	}
	return h, cfg, nil
}

func runHistoryList(ctx context.Context, cmd *cobra.Command, limit int) error {
	out := output.New(cmd.OutOrStdout())

	h, _, err := openHistory(out)
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	runs, err := h.ListRuns(ctx, limit)
	if err != nil {
		out.Error(tallyerr.FormatForCLI(err))
		return err
	}

	if len(runs) == 0 {
		out.Status("", "no recorded runs")
		return nil
	}

	for _, r := range runs {
		stopped := ""
		if r.Stopped {
			stopped = " (stopped)"
		}
		out.Statusf("", "#%d %s  target %.2f  %d amounts  %d found (%d unique)  %.2fs%s",
			r.ID,
			r.CreatedAt.Local().Format("2006-01-02 15:04"),
			r.Target,
			r.InputCount,
			r.SolutionsFound,
			r.UniqueFound,
			r.ElapsedSeconds,
			stopped)
	}
	return nil
}

func runHistoryClear(ctx context.Context, cmd *cobra.Command) error {
	out := output.New(cmd.OutOrStdout())

	h, _, err := openHistory(out)
	if err != nil {
		return err
	}
	defer func() { _ = h.Close() }()

	if err := h.Clear(ctx); err != nil {
		out.Error(tallyerr.FormatForCLI(err))
		return err
	}
	out.Success("history cleared")
	return nil
}
