// Package reconcile maps raw solver output back onto original input
// positions and normalizes the result count for display and export.
//
// The solver works on a sorted copy of the input, so its solutions are bags
// of values with no position information. Reconciliation restores positions,
// collapses duplicate solutions found along different traversal paths, and
// pads or truncates to the exact number of views the caller asked for.
package reconcile

import (
	"fmt"
	"sort"
	"strconv"

	tallyerr "github.com/tallykit/tallymcp/internal/errors"
)

// View is one reconciled solution: positions into the original input.
type View struct {
	// Indices are original input positions, one per solution value, in the
	// order the solver emitted the values. No position repeats within a view.
	Indices []int `json:"indices"`

	// Unique is false for views that pad the result set by repeating an
	// earlier unique view.
	Unique bool `json:"unique"`
}

// Reconcile produces exactly requestedCount views from the raw solutions,
// or none at all when raw is empty.
//
// Each raw solution is matched against the original (unsorted) input
// independently: for every value, the earliest original position holding
// that value and not already used by this view is consumed. Solutions that
// are the same multiset of values collapse to the first one found; if fewer
// unique solutions exist than requested, the unique ones repeat round-robin
// with Unique=false.
func Reconcile(original []float64, raw [][]float64, requestedCount int) ([]View, error) {
	if requestedCount < 1 {
		return nil, tallyerr.New(tallyerr.ErrCodeInvalidSolutions,
			fmt.Sprintf("requested count must be at least 1, got %d", requestedCount), nil)
	}
	if len(raw) == 0 {
		return nil, nil
	}

	unique := dedupe(raw)

	views := make([]View, 0, requestedCount)
	for _, solution := range unique {
		if len(views) == requestedCount {
			break
		}
		indices, err := matchIndices(original, solution)
		if err != nil {
			return nil, err
		}
		views = append(views, View{Indices: indices, Unique: true})
	}

	// The caller's result grid is fixed-width: repeat unique views
	// round-robin, flagged as duplicates, rather than fabricating new
	// combinations.
	for k := 0; len(views) < requestedCount; k++ {
		src := views[k%len(unique)]
		views = append(views, View{Indices: src.Indices, Unique: false})
	}

	return views, nil
}

// matchIndices maps one solution's values to distinct original positions.
// The value-to-positions queues are built fresh per call so matches made for
// one solution never consume positions needed by another.
func matchIndices(original []float64, solution []float64) ([]int, error) {
	queues := make(map[string][]int, len(original))
	for i, v := range original {
		key := valueKey(v)
		queues[key] = append(queues[key], i)
	}

	indices := make([]int, 0, len(solution))
	for _, v := range solution {
		key := valueKey(v)
		queue := queues[key]
		if len(queue) == 0 {
			return nil, tallyerr.ReconcileError(
				fmt.Sprintf("solution value %v has no unused position in the input", v)).
				WithDetail("value", key)
		}
		indices = append(indices, queue[0])
		queues[key] = queue[1:]
	}

	return indices, nil
}

// dedupe keeps the first solution per distinct signature, preserving
// discovery order. It is idempotent: running it on already-unique input
// returns the same sequence.
func dedupe(raw [][]float64) [][]float64 {
	seen := make(map[string]struct{}, len(raw))
	unique := make([][]float64, 0, len(raw))
	for _, solution := range raw {
		sig := Signature(solution)
		if _, dup := seen[sig]; dup {
			continue
		}
		seen[sig] = struct{}{}
		unique = append(unique, solution)
	}
	return unique
}

// Signature returns a canonical key for a solution: its values sorted and
// rendered exactly. Two solutions are the same iff their signatures match.
func Signature(solution []float64) string {
	values := make([]float64, len(solution))
	copy(values, solution)
	sort.Float64s(values)

	var sig string
	for i, v := range values {
		if i > 0 {
			sig += ","
		}
		sig += valueKey(v)
	}
	return sig
}

// valueKey renders a float bit-exactly for map keying. Inputs carry at most
// two fractional digits, so equal amounts always have identical bits.
func valueKey(v float64) string {
	return strconv.FormatFloat(v, 'g', -1, 64)
}
