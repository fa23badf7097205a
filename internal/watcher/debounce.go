package watcher

import (
	"sync"
	"time"
)

// debouncer coalesces rapid changes: only the newest change within the
// window is emitted, once the window has been quiet.
type debouncer struct {
	window  time.Duration
	out     chan Change
	mu      sync.Mutex
	pending *Change
	timer   *time.Timer
	stopped bool
}

func newDebouncer(window time.Duration) *debouncer {
	return &debouncer{
		window: window,
		out:    make(chan Change, 4),
	}
}

// add records a change and (re)arms the flush timer.
func (d *debouncer) add(c Change) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	d.pending = &c
	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.window, d.flush)
}

// flush emits the pending change, if any.
func (d *debouncer) flush() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped || d.pending == nil {
		return
	}
	c := *d.pending
	d.pending = nil

	select {
	case d.out <- c:
	default:
	}
}

// stop prevents further emissions and closes the output channel.
func (d *debouncer) stop() {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	close(d.out)
}
