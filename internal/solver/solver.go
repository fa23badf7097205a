// Package solver implements the subset-sum search core.
//
// Given a list of positive amounts and a target, it enumerates subsets whose
// sum matches the target within a fixed tolerance, up to a caller-supplied
// cap. The search is a pruned depth-first backtracking over a sorted copy of
// the input; callers recover original positions afterwards via the reconcile
// package.
package solver

import (
	"fmt"
	"math"
	"sort"

	tallyerr "github.com/tallykit/tallymcp/internal/errors"
)

// Epsilon is the floating-point tolerance for sum equality.
const Epsilon = 1e-6

// MinMemoryBudgetMB is the documented floor for Constraints.MemoryBudgetMB.
const MinMemoryBudgetMB = 64

// Constraints bound a single search invocation.
type Constraints struct {
	// MaxSolutions caps how many raw solutions the search collects.
	MaxSolutions int

	// MemoryBudgetMB is a soft ceiling on the search's estimated live
	// allocations. Breaching it stops the search with a resource error.
	MemoryBudgetMB int
}

// ProgressFunc receives coarse progress percentages in [0,100].
// It is called from the searching goroutine.
type ProgressFunc func(pct float64)

// state is the per-invocation search state. It is owned by exactly one
// Search call and discarded when it returns.
type state struct {
	sorted    []float64
	target    float64
	cap       int
	cancel    *Cancel
	tracker   *memoryTracker
	solutions [][]float64
	subset    []int
	exceeded  bool
}

// Search finds up to constraints.MaxSolutions subsets of numbers summing to
// target within Epsilon. The returned solutions hold values in discovery
// order, taken from an internally sorted copy of the input.
//
// cancel may be shared with another goroutine; setting it stops the search
// cooperatively at the next recursive call. A cancelled search is not an
// error: it returns whatever was found so far.
func Search(numbers []float64, target float64, constraints Constraints, cancel *Cancel, progress ProgressFunc) ([][]float64, error) {
	if err := Validate(numbers, target, constraints); err != nil {
		return nil, err
	}
	if cancel == nil {
		cancel = NewCancel()
	}

	sorted := make([]float64, len(numbers))
	copy(sorted, numbers)
	sort.Float64s(sorted)

	s := &state{
		sorted:  sorted,
		target:  target,
		cap:     constraints.MaxSolutions,
		cancel:  cancel,
		tracker: newMemoryTracker(constraints.MemoryBudgetMB),
		subset:  make([]int, 0, len(sorted)),
	}

	n := len(sorted)
	for i := 0; i < n; i++ {
		if cancel.Stopped() {
			break
		}

		// Lexicographic enumeration: all subsets whose smallest chosen
		// index is i, smallest first. The solution test for the
		// single-element subset {i} happens inside the recursion like
		// any other node.
		s.subset = append(s.subset, i)
		s.backtrack(i+1, sorted[i])
		s.subset = s.subset[:0]

		if progress != nil {
			progress(math.Min(99.9, float64(i+1)/float64(n)*100))
		}
	}

	// A breached budget is a failure, not a completion: progress stays
	// where the abort left it rather than jumping to 100.
	if s.exceeded {
		return nil, tallyerr.ResourceError(
			fmt.Sprintf("estimated memory use exceeded budget of %d MB", constraints.MemoryBudgetMB)).
			WithSuggestion("retry with a larger --memory-budget or fewer inputs")
	}

	if progress != nil {
		progress(100)
	}

	return s.solutions, nil
}

// backtrack explores include/exclude decisions for indices >= start with the
// running sum of the current subset. The subset slice is reused across the
// whole search; solutions copy out of it.
func (s *state) backtrack(start int, sum float64) {
	if s.cancel.Stopped() {
		return
	}

	if !s.tracker.allocate(frameBytes) {
		s.exceeded = true
		s.cancel.Stop()
		return
	}
	defer s.tracker.deallocate(frameBytes)

	if math.Abs(sum-s.target) < Epsilon {
		s.record()
		return
	}

	// All inputs are strictly positive, so sums only grow along a branch.
	if sum > s.target {
		return
	}
	if start >= len(s.sorted) {
		return
	}

	s.subset = append(s.subset, start)
	s.backtrack(start+1, sum+s.sorted[start])
	s.subset = s.subset[:len(s.subset)-1]

	s.backtrack(start+1, sum)
}

// record copies the current subset's values into the result buffer and stops
// the search once the cap is reached.
func (s *state) record() {
	if len(s.solutions) >= s.cap {
		return
	}

	if !s.tracker.allocate(solutionBytes(len(s.subset))) {
		s.exceeded = true
		s.cancel.Stop()
		return
	}

	values := make([]float64, len(s.subset))
	for i, idx := range s.subset {
		values[i] = s.sorted[idx]
	}
	s.solutions = append(s.solutions, values)

	if len(s.solutions) >= s.cap {
		s.cancel.Stop()
	}
}

// Validate checks search inputs without starting a search.
// The same checks are expected upstream; the solver defends regardless.
func Validate(numbers []float64, target float64, constraints Constraints) error {
	if len(numbers) == 0 {
		return tallyerr.New(tallyerr.ErrCodeEmptyInput, "input list is empty", nil)
	}
	for i, v := range numbers {
		if v <= 0 || math.IsNaN(v) || math.IsInf(v, 0) {
			return tallyerr.InvalidInputError(
				fmt.Sprintf("amount at position %d must be a positive number, got %v", i, v)).
				WithDetail("position", fmt.Sprintf("%d", i))
		}
	}
	if target <= 0 || math.IsNaN(target) || math.IsInf(target, 0) {
		return tallyerr.New(tallyerr.ErrCodeInvalidTarget,
			fmt.Sprintf("target must be a positive number, got %v", target), nil)
	}
	if constraints.MaxSolutions < 1 {
		return tallyerr.New(tallyerr.ErrCodeInvalidSolutions,
			fmt.Sprintf("max solutions must be at least 1, got %d", constraints.MaxSolutions), nil)
	}
	if constraints.MemoryBudgetMB < MinMemoryBudgetMB {
		return tallyerr.New(tallyerr.ErrCodeBudgetTooSmall,
			fmt.Sprintf("memory budget must be at least %d MB, got %d",
				MinMemoryBudgetMB, constraints.MemoryBudgetMB), nil)
	}
	return nil
}
