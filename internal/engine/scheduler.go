package engine

import (
	"github.com/roach88/hotbar/internal/ir"
)

// Channel sends probes to the server. A nil Channel means the connection
// is unavailable.
type Channel interface {
	Send(ir.InteractItem) error
}

// SendFailure pairs a probe with the error its send returned.
type SendFailure struct {
	Probe ir.PendingProbe
	Err   error
}

// DrainResult reports what a Drain did.
type DrainResult struct {
	// Sent lists the probes handed to the channel, in insertion order,
	// including those whose send failed.
	Sent []ir.PendingProbe

	// Failed lists sends that returned an error. Failed probes are not
	// retried.
	Failed []SendFailure

	// Dropped counts probes discarded because the channel was unavailable.
	Dropped int
}

// Scheduler holds probes waiting for their fire tick.
//
// Scheduler is not synchronized; Session guards it with the session lock
// and calls Take under the lock, then Send outside it.
//
// INVARIANTS:
//   - Probes fire in insertion order
//   - A probe is removed before it is sent, so it is sent at most once
type Scheduler struct {
	pending []ir.PendingProbe
}

// NewScheduler creates an empty scheduler.
func NewScheduler() *Scheduler {
	return &Scheduler{}
}

// Schedule enqueues payload to fire delayTicks after now.
func (s *Scheduler) Schedule(payload ir.InteractItem, delayTicks, now int64) ir.PendingProbe {
	probe := ir.PendingProbe{
		Payload:       payload,
		ScheduledTick: now,
		FireTick:      now + max(delayTicks, 0),
	}
	s.pending = append(s.pending, probe)
	return probe
}

// Take removes and returns every probe ready at now, in insertion order.
func (s *Scheduler) Take(now int64) []ir.PendingProbe {
	var ready []ir.PendingProbe
	kept := s.pending[:0]
	for _, p := range s.pending {
		if p.Ready(now) {
			ready = append(ready, p)
		} else {
			kept = append(kept, p)
		}
	}
	clear(s.pending[len(kept):])
	s.pending = kept
	return ready
}

// Drain fires ready probes through ch. With a nil ch the whole queue is
// dropped instead, ready or not.
func (s *Scheduler) Drain(now int64, ch Channel) DrainResult {
	if ch == nil {
		return DrainResult{Dropped: s.Clear()}
	}
	return Send(s.Take(now), ch)
}

// Send hands each probe to ch in order. Errors are collected and the
// remaining probes are still sent.
func Send(probes []ir.PendingProbe, ch Channel) DrainResult {
	result := DrainResult{Sent: probes}
	for _, p := range probes {
		if err := ch.Send(p.Payload); err != nil {
			result.Failed = append(result.Failed, SendFailure{Probe: p, Err: err})
		}
	}
	return result
}

// Clear discards every pending probe and returns how many there were.
func (s *Scheduler) Clear() int {
	n := len(s.pending)
	clear(s.pending)
	s.pending = s.pending[:0]
	return n
}

// Len returns the number of pending probes.
func (s *Scheduler) Len() int {
	return len(s.pending)
}

// Pending returns a copy of the pending probes in insertion order.
func (s *Scheduler) Pending() []ir.PendingProbe {
	out := make([]ir.PendingProbe, len(s.pending))
	copy(out, s.pending)
	return out
}
