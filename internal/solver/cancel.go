package solver

import "sync/atomic"

// Cancel is a cooperative cancellation flag shared between the searching
// goroutine and an external stop request. It is safe for concurrent use.
type Cancel struct {
	flag atomic.Bool
}

// NewCancel creates an unset cancellation flag.
func NewCancel() *Cancel {
	return &Cancel{}
}

// Stop sets the flag. Safe to call from any goroutine, repeatedly.
func (c *Cancel) Stop() {
	c.flag.Store(true)
}

// Stopped reports whether the flag is set.
func (c *Cancel) Stopped() bool {
	return c.flag.Load()
}
