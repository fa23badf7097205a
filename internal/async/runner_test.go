package async

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	tallyerr "github.com/tallykit/tallymcp/internal/errors"
	"github.com/tallykit/tallymcp/internal/solver"
)

func constraints(maxSolutions int) solver.Constraints {
	return solver.Constraints{MaxSolutions: maxSolutions, MemoryBudgetMB: 1024}
}

func TestBackgroundSolver_IdleBeforeStart(t *testing.T) {
	b := NewBackgroundSolver()

	st := b.Poll()
	assert.Equal(t, StateIdle, st.State)
	assert.False(t, b.IsRunning())
}

func TestBackgroundSolver_CompletesWithSolutions(t *testing.T) {
	// Given: a solvable input
	b := NewBackgroundSolver()
	err := b.Start(context.Background(), []float64{1, 2, 3, 4}, 5, constraints(2))
	require.NoError(t, err)

	// When: waiting for the worker
	result, err := b.Wait()
	require.NoError(t, err)

	// Then: terminal state is Completed with both pairs found
	require.NotNil(t, result)
	assert.Len(t, result.Solutions, 2)

	st := b.Poll()
	assert.Equal(t, StateCompleted, st.State)
	assert.Equal(t, 100.0, st.Progress.Percent)
	require.NotNil(t, st.Result)
}

func TestBackgroundSolver_InvalidInputFailsSynchronously(t *testing.T) {
	b := NewBackgroundSolver()

	err := b.Start(context.Background(), nil, 5, constraints(1))
	require.Error(t, err)
	assert.Equal(t, tallyerr.ErrCodeEmptyInput, tallyerr.GetCode(err))

	// No worker was spawned; the harness stays idle.
	assert.Equal(t, StateIdle, b.Poll().State)
}

func TestBackgroundSolver_RequestStopCompletesNormally(t *testing.T) {
	// Given: an input large enough that the search does not finish instantly
	numbers := make([]float64, 40)
	for i := range numbers {
		numbers[i] = float64(i + 1)
	}

	b := NewBackgroundSolver()
	require.NoError(t, b.Start(context.Background(), numbers, 1e9, constraints(1000000)))

	// When: stopping mid-flight
	b.RequestStop()

	result, err := b.Wait()

	// Then: cancellation is not an error
	require.NoError(t, err)
	require.NotNil(t, result)
	assert.Equal(t, StateCompleted, b.Poll().State)
}

func TestBackgroundSolver_ContextCancellationStopsWorker(t *testing.T) {
	numbers := make([]float64, 40)
	for i := range numbers {
		numbers[i] = float64(i + 1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	b := NewBackgroundSolver()
	require.NoError(t, b.Start(ctx, numbers, 1e9, constraints(1000000)))

	cancel()

	done := make(chan struct{})
	go func() {
		_, _ = b.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("worker did not stop after context cancellation")
	}
}

func TestBackgroundSolver_RestartJoinsPreviousWorker(t *testing.T) {
	b := NewBackgroundSolver()

	require.NoError(t, b.Start(context.Background(), []float64{1, 2, 3}, 3, constraints(5)))
	_, err := b.Wait()
	require.NoError(t, err)

	// Second run reinitializes terminal state.
	require.NoError(t, b.Start(context.Background(), []float64{2, 5}, 7, constraints(1)))
	result, err := b.Wait()
	require.NoError(t, err)

	require.Len(t, result.Solutions, 1)
	assert.Equal(t, []float64{2, 5}, result.Solutions[0])
}

func TestBackgroundSolver_RequestStopBeforeStartIsNoop(t *testing.T) {
	b := NewBackgroundSolver()
	b.RequestStop()

	assert.Equal(t, StateIdle, b.Poll().State)
}

func TestSolveProgress_MonotonicPercent(t *testing.T) {
	p := NewSolveProgress()

	p.SetPercent(40)
	p.SetPercent(20) // stale report, dropped
	assert.Equal(t, 40.0, p.Snapshot().Percent)

	p.SetPercent(80)
	assert.Equal(t, 80.0, p.Snapshot().Percent)

	p.SetCompleted()
	snap := p.Snapshot()
	assert.Equal(t, 100.0, snap.Percent)
	assert.Equal(t, string(StateCompleted), snap.State)
}

func TestSolveProgress_Failed(t *testing.T) {
	p := NewSolveProgress()
	assert.True(t, p.Running())

	p.SetFailed("boom")

	snap := p.Snapshot()
	assert.False(t, p.Running())
	assert.Equal(t, string(StateFailed), snap.State)
	assert.Equal(t, "boom", snap.ErrorMessage)
}

func TestBackgroundSolver_BudgetBreachReachesFailed(t *testing.T) {
	// Given a solve that must blow the smallest allowed memory budget:
	// 300 unit amounts, target 3, millions of matching triples
	numbers := make([]float64, 300)
	for i := range numbers {
		numbers[i] = 1
	}
	c := solver.Constraints{MaxSolutions: 5_000_000, MemoryBudgetMB: solver.MinMemoryBudgetMB}

	b := NewBackgroundSolver()
	require.NoError(t, b.Start(context.Background(), numbers, 3, c))

	// When the worker finishes
	result, err := b.Wait()

	// Then the harness lands in Failed carrying the resource error
	require.Error(t, err)
	assert.Equal(t, tallyerr.ErrCodeMemoryBudget, tallyerr.GetCode(err))
	assert.Nil(t, result)

	status := b.Poll()
	assert.Equal(t, StateFailed, status.State)
	assert.NotEmpty(t, status.Progress.ErrorMessage)
	require.Error(t, status.Err)
	assert.Equal(t, tallyerr.ErrCodeMemoryBudget, tallyerr.GetCode(status.Err))
}
