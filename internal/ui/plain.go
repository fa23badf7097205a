package ui

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// PlainRenderer prints progress lines (for CI/pipes).
// Only meaningful changes are printed, at most one line per whole percent.
type PlainRenderer struct {
	mu       sync.Mutex
	out      io.Writer
	label    string
	lastPct  int
	finished bool
}

// NewPlainRenderer creates a plain text renderer.
func NewPlainRenderer(cfg Config) *PlainRenderer {
	return &PlainRenderer{
		out:     cfg.Output,
		label:   cfg.Label,
		lastPct: -1,
	}
}

// Start implements Renderer.
func (r *PlainRenderer) Start(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.label != "" {
		_, _ = fmt.Fprintf(r.out, "%s\n", r.label)
	}
	return nil
}

// SetPercent implements Renderer.
func (r *PlainRenderer) SetPercent(pct float64) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.finished {
		return
	}

	whole := int(pct)
	if whole <= r.lastPct {
		return
	}
	r.lastPct = whole
	_, _ = fmt.Fprintf(r.out, "progress: %d%%\n", whole)
}

// Finish implements Renderer.
func (r *PlainRenderer) Finish() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.finished = true
}
