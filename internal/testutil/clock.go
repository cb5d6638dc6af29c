package testutil

import "sync"

// ManualWallClock is a wall clock that only moves when a test moves it.
//
// Implements engine.WallClock.
//
// Thread-safety: All methods are safe for concurrent use via internal mutex.
type ManualWallClock struct {
	mu  sync.Mutex
	now int64
}

// NewManualWallClock creates a wall clock reading startMs.
func NewManualWallClock(startMs int64) *ManualWallClock {
	return &ManualWallClock{now: startMs}
}

// NowMs returns the current reading in milliseconds.
func (c *ManualWallClock) NowMs() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// Advance moves the clock forward by ms and returns the new reading.
// Negative values are ignored; wall time in tests never runs backwards.
func (c *ManualWallClock) Advance(ms int64) int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	if ms > 0 {
		c.now += ms
	}
	return c.now
}

// Set jumps the clock to ms.
func (c *ManualWallClock) Set(ms int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = ms
}
