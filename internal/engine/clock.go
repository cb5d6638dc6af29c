package engine

import "sync/atomic"

// Clock is the session's monotonic tick counter.
//
// Advance is called exactly once per simulation frame. Cooldown windows and
// probe deadlines are all expressed in these ticks.
//
// Thread-safety: Clock is safe for concurrent use (atomic operations).
// Session still reads and advances it under its own lock so a tick and the
// sweep that follows it are observed together.
type Clock struct {
	tick atomic.Int64
}

// NewClock creates a new clock starting at 0.
func NewClock() *Clock {
	return &Clock{}
}

// NewClockAt creates a new clock starting at a specific tick.
func NewClockAt(start int64) *Clock {
	c := &Clock{}
	c.tick.Store(start)
	return c
}

// Advance increments the clock by exactly one and returns the new tick.
func (c *Clock) Advance() int64 {
	return c.tick.Add(1)
}

// Current returns the current tick without advancing.
func (c *Clock) Current() int64 {
	return c.tick.Load()
}

// Reset returns the clock to tick 0 for a new session.
func (c *Clock) Reset() {
	c.tick.Store(0)
}
