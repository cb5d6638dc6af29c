package testutil

import (
	"sync"

	"github.com/roach88/hotbar/internal/ir"
)

// RecordingChannel captures every probe sent to it.
//
// Implements engine.Channel. Set Err to make every send fail after being
// recorded.
//
// Thread-safety: safe for concurrent use via internal mutex.
type RecordingChannel struct {
	mu   sync.Mutex
	sent []ir.InteractItem
	Err  error
}

// NewRecordingChannel creates an empty recording channel.
func NewRecordingChannel() *RecordingChannel {
	return &RecordingChannel{}
}

// Send records p.
func (c *RecordingChannel) Send(p ir.InteractItem) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, p)
	return c.Err
}

// Sent returns a copy of the recorded probes in send order.
func (c *RecordingChannel) Sent() []ir.InteractItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]ir.InteractItem, len(c.sent))
	copy(out, c.sent)
	return out
}

// Len returns how many probes were sent.
func (c *RecordingChannel) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.sent)
}
