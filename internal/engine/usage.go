package engine

import (
	"github.com/roach88/hotbar/internal/ir"
)

// Default retention bounds for the usage log.
const (
	DefaultUsageCapacity = 64
	DefaultUsageMaxAgeMs = 10_000
)

// UsageLog is a bounded, append-only record of local item uses.
//
// Retention is bounded two ways: at most capacity events are kept (oldest
// evicted first), and on every Record events older than maxAgeMs relative
// to the new event's timestamp are dropped. A maxAgeMs of 0 disables the
// age bound.
//
// UsageLog is not synchronized; Session guards it with the session lock.
type UsageLog struct {
	events   []ir.UsageEvent
	capacity int
	maxAgeMs int64
	revision uint64
}

// NewUsageLog creates a usage log with the given bounds.
// A non-positive capacity falls back to DefaultUsageCapacity.
func NewUsageLog(capacity int, maxAgeMs int64) *UsageLog {
	if capacity <= 0 {
		capacity = DefaultUsageCapacity
	}
	return &UsageLog{
		events:   make([]ir.UsageEvent, 0, capacity),
		capacity: capacity,
		maxAgeMs: max(maxAgeMs, 0),
	}
}

// Record appends a usage event, evicting by age then by capacity.
func (u *UsageLog) Record(item ir.ItemStack, wallClockMs int64) ir.UsageEvent {
	event := ir.UsageEvent{Item: item, WallClockMs: wallClockMs}

	if u.maxAgeMs > 0 {
		cutoff := wallClockMs - u.maxAgeMs
		drop := 0
		for drop < len(u.events) && u.events[drop].WallClockMs < cutoff {
			drop++
		}
		u.evict(drop)
	}
	if len(u.events) >= u.capacity {
		u.evict(len(u.events) - u.capacity + 1)
	}

	u.events = append(u.events, event)
	u.revision++
	return event
}

// evict removes the n oldest events, reusing the backing array.
func (u *UsageLog) evict(n int) {
	if n <= 0 {
		return
	}
	kept := copy(u.events, u.events[n:])
	clear(u.events[kept:])
	u.events = u.events[:kept]
}

// Snapshot returns a copy of the retained events in insertion order.
func (u *UsageLog) Snapshot() []ir.UsageEvent {
	out := make([]ir.UsageEvent, len(u.events))
	copy(out, u.events)
	return out
}

// Len returns the number of retained events.
func (u *UsageLog) Len() int {
	return len(u.events)
}

// Clear drops every event.
func (u *UsageLog) Clear() {
	u.evict(len(u.events))
	u.revision++
}

// Revision changes whenever the retained events change. Snapshots taken at
// the same revision are identical.
func (u *UsageLog) Revision() uint64 {
	return u.revision
}

// BestMatch returns the event whose timestamp is nearest targetMs.
// Ties resolve to the earliest inserted event. ok is false when events
// is empty.
//
// BestMatch is pure; callers pass a snapshot taken under the session lock.
func BestMatch(events []ir.UsageEvent, targetMs int64) (best ir.UsageEvent, ok bool) {
	var bestDist int64
	for i, ev := range events {
		dist := absDiff(ev.WallClockMs, targetMs)
		if i == 0 || dist < bestDist {
			best, bestDist, ok = ev, dist, true
		}
	}
	return best, ok
}

func absDiff(a, b int64) int64 {
	if a > b {
		return a - b
	}
	return b - a
}
