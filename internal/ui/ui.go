// Package ui provides terminal progress display for running solves.
//
// Interactive terminals get a bubbletea TUI with a progress bar; pipes and
// CI get plain line output.
package ui

import (
	"context"
	"io"
	"os"

	"github.com/mattn/go-isatty"
)

// Renderer displays solve progress.
// SetPercent may be called from any goroutine.
type Renderer interface {
	// Start begins rendering. Non-blocking.
	Start(ctx context.Context) error

	// SetPercent updates the displayed progress, in [0,100].
	SetPercent(pct float64)

	// Finish stops rendering and waits for the display to settle.
	Finish()
}

// Config configures a renderer.
type Config struct {
	// Output is where rendering goes, usually os.Stdout.
	Output io.Writer

	// Label is the one-line description of the running solve.
	Label string

	// OnStop is called when the user interactively requests a stop
	// (q or ctrl+c in the TUI). May be nil.
	OnStop func()
}

// IsTTY reports whether w is an interactive terminal.
func IsTTY(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NewRenderer picks a TUI for interactive terminals and plain output
// otherwise. forcePlain skips TTY detection.
func NewRenderer(cfg Config, forcePlain bool) Renderer {
	if !forcePlain && IsTTY(cfg.Output) {
		if r, err := NewTUIRenderer(cfg); err == nil {
			return r
		}
	}
	return NewPlainRenderer(cfg)
}
