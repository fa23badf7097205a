package mcp

import (
	"context"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/tallykit/tallymcp/internal/async"
	"github.com/tallykit/tallymcp/internal/cache"
	"github.com/tallykit/tallymcp/internal/reconcile"
	"github.com/tallykit/tallymcp/internal/solver"
	"github.com/tallykit/tallymcp/internal/store"
)

// SolveInput defines the input schema for the solve and start_solve tools.
type SolveInput struct {
	Amounts        []float64 `json:"amounts" jsonschema:"the candidate amounts to draw subsets from"`
	Target         float64   `json:"target" jsonschema:"the total each subset must sum to"`
	MaxSolutions   int       `json:"max_solutions,omitempty" jsonschema:"number of solutions requested, default from config"`
	MemoryBudgetMB int       `json:"memory_budget_mb,omitempty" jsonschema:"soft memory ceiling in MB, default from config"`
}

// SolutionOutput is one reconciled solution view.
type SolutionOutput struct {
	Indices []int     `json:"indices" jsonschema:"zero-based positions into the submitted amounts"`
	Amounts []float64 `json:"amounts" jsonschema:"the amounts at those positions"`
	Unique  bool      `json:"unique" jsonschema:"false when this view repeats an earlier solution to pad the requested count"`
}

// SolveOutput defines the output schema for the solve tool.
type SolveOutput struct {
	Solutions      []SolutionOutput `json:"solutions" jsonschema:"reconciled solution views"`
	UniqueCount    int              `json:"unique_count" jsonschema:"number of distinct solutions found"`
	ElapsedSeconds float64          `json:"elapsed_seconds" jsonschema:"wall-clock solve duration"`
	Cached         bool             `json:"cached,omitempty" jsonschema:"true when served from the result cache"`
}

// StartSolveOutput defines the output schema for the start_solve tool.
type StartSolveOutput struct {
	State string `json:"state" jsonschema:"harness state after starting: running"`
}

// StatusInput is the (empty) input schema for solve_status and stop_solve.
type StatusInput struct{}

// StatusOutput defines the output schema for the solve_status tool.
type StatusOutput struct {
	State          string           `json:"state" jsonschema:"idle, running, completed, or failed"`
	Percent        float64          `json:"percent" jsonschema:"progress percent, monotonic, 100 when done"`
	ElapsedSeconds float64          `json:"elapsed_seconds" jsonschema:"seconds since the solve started"`
	Solutions      []SolutionOutput `json:"solutions,omitempty" jsonschema:"reconciled solutions, present once completed"`
	UniqueCount    int              `json:"unique_count,omitempty" jsonschema:"number of distinct solutions found"`
	Error          string           `json:"error,omitempty" jsonschema:"failure message when state is failed"`
}

// StopSolveOutput defines the output schema for the stop_solve tool.
type StopSolveOutput struct {
	State string `json:"state" jsonschema:"harness state when the stop request was delivered"`
}

// constraintsFor merges per-request overrides with configured defaults.
func (s *Server) constraintsFor(input SolveInput) solver.Constraints {
	c := solver.Constraints{
		MaxSolutions:   s.config.Solver.MaxSolutions,
		MemoryBudgetMB: s.config.Solver.MemoryBudgetMB,
	}
	if input.MaxSolutions > 0 {
		c.MaxSolutions = input.MaxSolutions
	}
	if input.MemoryBudgetMB > 0 {
		c.MemoryBudgetMB = input.MemoryBudgetMB
	}
	return c
}

// mcpSolveHandler is the MCP SDK handler for the solve tool.
// It runs the search on the request goroutine and honors request cancellation.
func (s *Server) mcpSolveHandler(ctx context.Context, _ *mcp.CallToolRequest, input SolveInput) (
	*mcp.CallToolResult,
	SolveOutput,
	error,
) {
	if len(input.Amounts) == 0 {
		return nil, SolveOutput{}, NewInvalidParamsError("amounts parameter is required and must be non-empty")
	}

	constraints := s.constraintsFor(input)
	if err := solver.Validate(input.Amounts, input.Target, constraints); err != nil {
		return nil, SolveOutput{}, MapError(err)
	}

	key := cache.Key(input.Amounts, input.Target, constraints.MaxSolutions)
	if entry, ok := s.results.Get(key); ok {
		s.logger.Debug("solve served from cache", slog.String("key", key[:12]))
		out := SolveOutput{
			Solutions:      viewsToOutput(input.Amounts, entry.Views),
			UniqueCount:    countUnique(entry.Views),
			ElapsedSeconds: entry.ElapsedSeconds,
			Cached:         true,
		}
		return nil, out, nil
	}

	start := time.Now()
	cancel := solver.NewCancel()

	// Propagate request cancellation into the search.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			cancel.Stop()
		case <-watchDone:
		}
	}()

	s.logger.Info("solve started",
		slog.Int("amounts", len(input.Amounts)),
		slog.Float64("target", input.Target),
		slog.Int("max_solutions", constraints.MaxSolutions))

	raw, err := solver.Search(input.Amounts, input.Target, constraints, cancel, nil)
	if err != nil {
		return nil, SolveOutput{}, MapError(err)
	}
	elapsed := time.Since(start)

	var views []reconcile.View
	if len(raw) > 0 {
		views, err = reconcile.Reconcile(input.Amounts, raw, constraints.MaxSolutions)
		if err != nil {
			return nil, SolveOutput{}, MapError(err)
		}
	}

	out := SolveOutput{
		Solutions:      viewsToOutput(input.Amounts, views),
		UniqueCount:    countUnique(views),
		ElapsedSeconds: elapsed.Seconds(),
	}

	s.results.Add(key, cache.Entry{Views: views, ElapsedSeconds: out.ElapsedSeconds})
	s.recordRun(ctx, input.Amounts, input.Target, constraints.MaxSolutions, views, cancel.Stopped(), elapsed)

	s.logger.Info("solve completed",
		slog.Int("solutions", len(views)),
		slog.Int("unique", out.UniqueCount),
		slog.Duration("duration", elapsed))

	return nil, out, nil
}

// mcpStartSolveHandler is the MCP SDK handler for the start_solve tool.
func (s *Server) mcpStartSolveHandler(_ context.Context, _ *mcp.CallToolRequest, input SolveInput) (
	*mcp.CallToolResult,
	StartSolveOutput,
	error,
) {
	if len(input.Amounts) == 0 {
		return nil, StartSolveOutput{}, NewInvalidParamsError("amounts parameter is required and must be non-empty")
	}
	if s.background.IsRunning() {
		return nil, StartSolveOutput{}, MapError(ErrSolveInProgress)
	}

	constraints := s.constraintsFor(input)

	// The worker must outlive this request, so it gets a background context.
	if err := s.background.Start(context.Background(), input.Amounts, input.Target, constraints); err != nil {
		return nil, StartSolveOutput{}, MapError(err)
	}

	s.mu.Lock()
	s.lastAmounts = append([]float64(nil), input.Amounts...)
	s.lastRequested = constraints.MaxSolutions
	s.mu.Unlock()

	s.logger.Info("background solve started",
		slog.Int("amounts", len(input.Amounts)),
		slog.Float64("target", input.Target))

	return nil, StartSolveOutput{State: string(async.StateRunning)}, nil
}

// mcpSolveStatusHandler is the MCP SDK handler for the solve_status tool.
func (s *Server) mcpSolveStatusHandler(ctx context.Context, _ *mcp.CallToolRequest, _ StatusInput) (
	*mcp.CallToolResult,
	StatusOutput,
	error,
) {
	status := s.background.Poll()

	out := StatusOutput{
		State:          string(status.State),
		Percent:        status.Progress.Percent,
		ElapsedSeconds: float64(status.Progress.ElapsedSeconds),
	}

	switch status.State {
	case async.StateFailed:
		out.Error = status.Progress.ErrorMessage

	case async.StateCompleted:
		s.mu.RLock()
		amounts := s.lastAmounts
		requested := s.lastRequested
		s.mu.RUnlock()

		if status.Result != nil && len(status.Result.Solutions) > 0 && len(amounts) > 0 {
			views, err := reconcile.Reconcile(amounts, status.Result.Solutions, requested)
			if err != nil {
				return nil, StatusOutput{}, MapError(err)
			}
			out.Solutions = viewsToOutput(amounts, views)
			out.UniqueCount = countUnique(views)
		}
	}

	return nil, out, nil
}

// mcpStopSolveHandler is the MCP SDK handler for the stop_solve tool.
func (s *Server) mcpStopSolveHandler(_ context.Context, _ *mcp.CallToolRequest, _ StatusInput) (
	*mcp.CallToolResult,
	StopSolveOutput,
	error,
) {
	status := s.background.Poll()
	s.background.RequestStop()

	s.logger.Info("stop requested", slog.String("state", string(status.State)))

	return nil, StopSolveOutput{State: string(status.State)}, nil
}

// recordRun saves a completed solve to history when recording is enabled.
func (s *Server) recordRun(ctx context.Context, amounts []float64, target float64, maxSolutions int, views []reconcile.View, stopped bool, elapsed time.Duration) {
	s.mu.RLock()
	h := s.history
	s.mu.RUnlock()
	if h == nil {
		return
	}

	run := store.Run{
		InputDigest:    cache.Key(amounts, target, maxSolutions),
		InputCount:     len(amounts),
		Target:         target,
		MaxSolutions:   maxSolutions,
		SolutionsFound: len(views),
		UniqueFound:    countUnique(views),
		Stopped:        stopped,
		ElapsedSeconds: elapsed.Seconds(),
	}
	if _, err := h.SaveRun(ctx, run); err != nil {
		s.logger.Warn("failed to record run", slog.String("error", err.Error()))
	}
}

// viewsToOutput converts reconciled views to the wire format.
func viewsToOutput(amounts []float64, views []reconcile.View) []SolutionOutput {
	out := make([]SolutionOutput, 0, len(views))
	for _, v := range views {
		vals := make([]float64, 0, len(v.Indices))
		for _, idx := range v.Indices {
			vals = append(vals, amounts[idx])
		}
		out = append(out, SolutionOutput{
			Indices: v.Indices,
			Amounts: vals,
			Unique:  v.Unique,
		})
	}
	return out
}

// countUnique counts the distinct (non-padded) views.
func countUnique(views []reconcile.View) int {
	n := 0
	for _, v := range views {
		if v.Unique {
			n++
		}
	}
	return n
}
