package async

import (
	"context"
	"sync"
	"time"

	"github.com/tallykit/tallymcp/internal/solver"
)

// Result carries the output of one completed solve.
type Result struct {
	// Solutions are raw solver solutions in discovery order.
	Solutions [][]float64

	// Elapsed is the wall-clock duration of the solve.
	Elapsed time.Duration
}

// Status is what Poll returns: the harness state plus, in terminal states,
// the result or error of the last run.
type Status struct {
	State    SolveState
	Progress ProgressSnapshot
	Result   *Result
	Err      error
}

// BackgroundSolver runs solver.Search off the caller's goroutine.
// The caller polls for completion; the worker never touches caller state.
// All methods are safe for concurrent use; RequestStop is the only one
// intended to be called while a solve is running.
type BackgroundSolver struct {
	mu       sync.Mutex
	running  bool
	started  bool
	progress *SolveProgress
	cancel   *solver.Cancel
	doneCh   chan struct{}
	result   *Result
	err      error
}

// NewBackgroundSolver creates an idle background solver.
func NewBackgroundSolver() *BackgroundSolver {
	return &BackgroundSolver{}
}

// Start validates the inputs synchronously and, if they pass, launches one
// worker goroutine for this invocation. Any worker from a previous run is
// joined first. Returns a validation error before any search work begins.
func (b *BackgroundSolver) Start(ctx context.Context, numbers []float64, target float64, constraints solver.Constraints) error {
	if err := solver.Validate(numbers, target, constraints); err != nil {
		return err
	}

	b.mu.Lock()
	prev := b.doneCh
	b.mu.Unlock()
	if prev != nil {
		<-prev
	}

	b.mu.Lock()
	b.running = true
	b.started = true
	b.progress = NewSolveProgress()
	b.cancel = solver.NewCancel()
	b.doneCh = make(chan struct{})
	b.result = nil
	b.err = nil
	progress := b.progress
	cancel := b.cancel
	doneCh := b.doneCh
	b.mu.Unlock()

	// The input is owned by the caller; the worker gets its own copy.
	owned := make([]float64, len(numbers))
	copy(owned, numbers)

	go b.run(ctx, owned, target, constraints, progress, cancel, doneCh)
	return nil
}

// run is the worker. It communicates only through the progress tracker and
// the solver's own return values.
func (b *BackgroundSolver) run(ctx context.Context, numbers []float64, target float64, constraints solver.Constraints, progress *SolveProgress, cancel *solver.Cancel, doneCh chan struct{}) {
	defer close(doneCh)

	// Propagate context cancellation into the cooperative flag.
	watchDone := make(chan struct{})
	defer close(watchDone)
	go func() {
		select {
		case <-ctx.Done():
			cancel.Stop()
		case <-watchDone:
		}
	}()

	start := time.Now()
	solutions, err := solver.Search(numbers, target, constraints, cancel, progress.SetPercent)
	elapsed := time.Since(start)

	b.mu.Lock()
	defer b.mu.Unlock()
	b.running = false

	if err != nil {
		b.err = err
		progress.SetFailed(err.Error())
		return
	}

	// A stopped search is a normal completion with whatever was found.
	b.result = &Result{Solutions: solutions, Elapsed: elapsed}
	progress.SetCompleted()
}

// Poll reports the current state without blocking.
func (b *BackgroundSolver) Poll() Status {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.started {
		return Status{State: StateIdle}
	}

	st := Status{Progress: b.progress.Snapshot()}
	switch {
	case b.running:
		st.State = StateRunning
	case b.err != nil:
		st.State = StateFailed
		st.Err = b.err
	default:
		st.State = StateCompleted
		st.Result = b.result
	}
	return st
}

// RequestStop asks the running solve to stop. Fire-and-forget: cessation is
// eventual, bounded by the unwind of one pruned recursion branch. Safe to
// call at any time, in any state.
func (b *BackgroundSolver) RequestStop() {
	b.mu.Lock()
	cancel := b.cancel
	b.mu.Unlock()

	if cancel != nil {
		cancel.Stop()
	}
}

// IsRunning returns true while a worker is active.
func (b *BackgroundSolver) IsRunning() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.running
}

// Wait blocks until the current worker completes, then returns the terminal
// result or error. Returns immediately if no solve was ever started.
func (b *BackgroundSolver) Wait() (*Result, error) {
	b.mu.Lock()
	doneCh := b.doneCh
	b.mu.Unlock()

	if doneCh != nil {
		<-doneCh
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	return b.result, b.err
}
