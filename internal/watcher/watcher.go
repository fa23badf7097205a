// Package watcher re-runs solves when the amounts file changes on disk.
//
// fsnotify watches the file's directory rather than the file itself: most
// editors save atomically (write temp, rename over), which would otherwise
// drop the watch after the first save.
package watcher

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounceWindow is how long to wait after the last write before
// emitting a change. Editors often produce several events per save.
const DefaultDebounceWindow = 300 * time.Millisecond

// Change is one debounced modification of the watched file.
type Change struct {
	// Path is the absolute path of the watched file.
	Path string

	// Timestamp is when the last underlying event was detected.
	Timestamp time.Time
}

// FileWatcher watches a single amounts file for changes.
type FileWatcher struct {
	fsWatcher *fsnotify.Watcher
	debouncer *debouncer
	logger    *slog.Logger

	path    string
	changes chan Change
	errs    chan error
	stopCh  chan struct{}

	mu      sync.Mutex
	stopped bool
}

// New creates a watcher for the file at path. The debounce window controls
// how long rapid successive writes are coalesced; zero means the default.
func New(path string, window time.Duration) (*FileWatcher, error) {
	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve absolute path: %w", err)
	}
	if window <= 0 {
		window = DefaultDebounceWindow
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("create fsnotify watcher: %w", err)
	}

	w := &FileWatcher{
		fsWatcher: fsw,
		debouncer: newDebouncer(window),
		logger:    slog.Default(),
		path:      absPath,
		changes:   make(chan Change, 16),
		errs:      make(chan error, 4),
		stopCh:    make(chan struct{}),
	}
	return w, nil
}

// Start begins watching. It returns once the watch is established; events
// flow on Changes until Stop is called or the context is canceled.
func (w *FileWatcher) Start(ctx context.Context) error {
	dir := filepath.Dir(w.path)
	if err := w.fsWatcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	w.logger.Debug("watching file",
		slog.String("path", w.path),
		slog.String("dir", dir))

	go w.forward(ctx)
	go w.loop(ctx)
	return nil
}

// Changes returns the debounced change channel.
// Closed when the watcher stops.
func (w *FileWatcher) Changes() <-chan Change {
	return w.changes
}

// Errors returns non-fatal watcher errors.
func (w *FileWatcher) Errors() <-chan error {
	return w.errs
}

// Stop stops the watcher and releases resources. Safe to call multiple times.
func (w *FileWatcher) Stop() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.stopped {
		return nil
	}
	w.stopped = true
	close(w.stopCh)
	w.debouncer.stop()
	return w.fsWatcher.Close()
}

// loop translates raw fsnotify events into debounced changes.
func (w *FileWatcher) loop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			_ = w.Stop()
			return
		case <-w.stopCh:
			return

		case ev, ok := <-w.fsWatcher.Events:
			if !ok {
				return
			}
			if !w.matches(ev.Name) {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.logger.Debug("file event",
				slog.String("op", ev.Op.String()),
				slog.String("name", ev.Name))
			w.debouncer.add(Change{Path: w.path, Timestamp: time.Now()})

		case err, ok := <-w.fsWatcher.Errors:
			if !ok {
				return
			}
			select {
			case w.errs <- err:
			default:
				w.logger.Warn("dropping watcher error", slog.String("error", err.Error()))
			}
		}
	}
}

// forward relays debounced changes to the public channel.
func (w *FileWatcher) forward(ctx context.Context) {
	defer close(w.changes)
	for {
		select {
		case <-ctx.Done():
			return
		case <-w.stopCh:
			return
		case c, ok := <-w.debouncer.out:
			if !ok {
				return
			}
			select {
			case w.changes <- c:
			default:
				// Consumer is behind; a newer change supersedes anyway.
			}
		}
	}
}

// matches reports whether an event path refers to the watched file.
func (w *FileWatcher) matches(name string) bool {
	abs, err := filepath.Abs(name)
	if err != nil {
		return false
	}
	return abs == w.path
}
