package solver

// Memory accounting is an estimate, not a measurement: each recursion frame
// and each stored solution is charged a fixed cost against the budget. The
// goal is to stop runaway searches before the process does, not to track the
// allocator byte-for-byte.
const frameBytes = 128

// solutionBytes estimates the cost of storing a solution of n values.
func solutionBytes(n int) int64 {
	const sliceHeader = 24
	return sliceHeader + int64(n)*8
}

// memoryTracker tracks estimated live bytes against a soft budget.
// It is owned by a single search invocation.
type memoryTracker struct {
	current int64
	peak    int64
	limit   int64
}

func newMemoryTracker(limitMB int) *memoryTracker {
	return &memoryTracker{
		limit: int64(limitMB) * 1024 * 1024,
	}
}

// allocate charges size bytes and reports whether the budget still holds.
// A failed allocation leaves the counter unchanged.
func (m *memoryTracker) allocate(size int64) bool {
	next := m.current + size
	if next > m.limit {
		return false
	}
	m.current = next
	if next > m.peak {
		m.peak = next
	}
	return true
}

// deallocate releases size bytes.
func (m *memoryTracker) deallocate(size int64) {
	m.current -= size
}

// peakBytes returns the highest observed estimate.
func (m *memoryTracker) peakBytes() int64 {
	return m.peak
}
