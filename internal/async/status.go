// Package async provides background solve execution for TallyMCP.
package async

import (
	"sync"
	"time"
)

// SolveState represents the harness state machine.
type SolveState string

const (
	// StateIdle indicates no solve has started yet.
	StateIdle SolveState = "idle"
	// StateRunning indicates a solve is in progress.
	StateRunning SolveState = "running"
	// StateCompleted indicates the last solve finished normally
	// (including cooperative cancellation).
	StateCompleted SolveState = "completed"
	// StateFailed indicates the last solve ended with an error.
	StateFailed SolveState = "failed"
)

// ProgressSnapshot is an immutable snapshot of solve progress.
type ProgressSnapshot struct {
	State          string  `json:"state"`
	Percent        float64 `json:"percent"`
	ElapsedSeconds int     `json:"elapsed_seconds"`
	ErrorMessage   string  `json:"error_message,omitempty"`
}

// SolveProgress provides thread-safe tracking of solve progress.
// The worker goroutine writes, any number of pollers read.
type SolveProgress struct {
	mu sync.RWMutex

	state        SolveState
	percent      float64
	startTime    time.Time
	errorMessage string
}

// NewSolveProgress creates a progress tracker for a starting solve.
func NewSolveProgress() *SolveProgress {
	return &SolveProgress{
		state:     StateRunning,
		startTime: time.Now(),
	}
}

// SetPercent records a progress percentage. Progress never decreases: stale
// reports are dropped so pollers always observe a monotonic sequence.
func (p *SolveProgress) SetPercent(pct float64) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if pct > p.percent {
		p.percent = pct
	}
}

// SetCompleted marks the solve finished and forces progress to 100.
func (p *SolveProgress) SetCompleted() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = StateCompleted
	p.percent = 100
}

// SetFailed marks the solve failed with an error message.
func (p *SolveProgress) SetFailed(message string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.state = StateFailed
	p.errorMessage = message
}

// Running returns true while the solve is still in progress.
func (p *SolveProgress) Running() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.state == StateRunning
}

// Snapshot returns an immutable copy of the current progress state.
func (p *SolveProgress) Snapshot() ProgressSnapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return ProgressSnapshot{
		State:          string(p.state),
		Percent:        p.percent,
		ElapsedSeconds: int(time.Since(p.startTime).Seconds()),
		ErrorMessage:   p.errorMessage,
	}
}
