package cmd

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"

	"github.com/tallykit/tallymcp/internal/config"
	tallyerr "github.com/tallykit/tallymcp/internal/errors"
	"github.com/tallykit/tallymcp/internal/mcp"
	"github.com/tallykit/tallymcp/internal/output"
	"github.com/tallykit/tallymcp/internal/store"
)

func newServeCmd() *cobra.Command {
	var noHistory bool

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Run the MCP server on stdio",
		Long: `Run the Model Context Protocol server so AI assistants can call
the solve tools directly.

Register with Claude Code:
  claude mcp add tallymcp -- tallymcp serve

Stdout carries JSON-RPC exclusively; diagnostics go to the log file
(enable with --debug).`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context(), cmd, noHistory)
		},
	}

	cmd.Flags().BoolVar(&noHistory, "no-history", false, "Skip recording solves in history")

	return cmd
}

func runServe(ctx context.Context, cmd *cobra.Command, noHistory bool) error {
	out := output.New(cmd.ErrOrStderr())

	cfg, err := config.Load()
	if err != nil {
		out.Error(tallyerr.FormatForCLI(err))
		return err
	}

	server, err := mcp.NewServer(cfg)
	if err != nil {
		out.Error(tallyerr.FormatForCLI(err))
		return err
	}
	defer func() { _ = server.Close() }()

	if !noHistory && cfg.History.Enabled {
		h, err := store.OpenHistory(cfg.History.Path, cfg.History.MaxRuns)
		if err != nil {
			// Another process may hold the lock; serve without history.
			slog.Warn("history unavailable", slog.String("error", err.Error()))
		} else {
			server.SetHistory(h)
		}
	}

	ctx, cancel := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer cancel()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return server.Serve(ctx, cfg.Server.Transport)
	})

	if err := g.Wait(); err != nil && err != context.Canceled {
		return err
	}
	return nil
}
