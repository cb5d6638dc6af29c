package engine

import (
	"sort"

	"github.com/roach88/hotbar/internal/ir"
)

// Ledger maps ability IDs to their active cooldown window, plus one global
// window shared by every ability.
//
// Ledger is not synchronized; Session guards it with the session lock.
//
// INVARIANTS:
//   - At most one entry per ability; the first write wins until it expires
//   - The global entry always exists ({0,0} when unset)
//   - Every entry has EndTick >= StartTick
type Ledger struct {
	entries map[string]ir.CooldownEntry
	global  ir.CooldownEntry
}

// NewLedger creates an empty ledger.
func NewLedger() *Ledger {
	return &Ledger{
		entries: make(map[string]ir.CooldownEntry),
	}
}

// Set starts a cooldown of durationTicks for ability at tick now.
//
// If the ability is already cooling down the call is a no-op and returns
// false: a repeated server notification must not extend or replace the
// running window. Negative durations are treated as zero.
func (l *Ledger) Set(ability string, durationTicks, now int64) (ir.CooldownEntry, bool) {
	if existing, ok := l.entries[ability]; ok {
		return existing, false
	}

	entry := ir.CooldownEntry{StartTick: now, EndTick: now + max(durationTicks, 0)}
	l.entries[ability] = entry
	return entry, true
}

// Remove clears ability's cooldown unconditionally.
func (l *Ledger) Remove(ability string) {
	delete(l.entries, ability)
}

// Get returns the entry for ability, if any.
func (l *Ledger) Get(ability string) (ir.CooldownEntry, bool) {
	entry, ok := l.entries[ability]
	return entry, ok
}

// Progress returns how much of ability's cooldown remains, in [0,1].
// 1 means just started, 0 means available (or not tracked).
func (l *Ledger) Progress(ability string, now int64, partialTick float64) float64 {
	entry, ok := l.entries[ability]
	if !ok {
		return 0
	}
	return entryProgress(entry, now, partialTick)
}

// Sweep removes every entry whose window has passed (now > EndTick) and
// returns how many were removed. The global entry is never swept.
func (l *Ledger) Sweep(now int64) int {
	removed := 0
	for ability, entry := range l.entries {
		if entry.Expired(now) {
			delete(l.entries, ability)
			removed++
		}
	}
	return removed
}

// SetGlobal replaces the global cooldown with a window starting at now.
func (l *Ledger) SetGlobal(durationTicks, now int64) ir.CooldownEntry {
	l.global = ir.CooldownEntry{StartTick: now, EndTick: now + max(durationTicks, 0)}
	return l.global
}

// Global returns the global cooldown window.
func (l *Ledger) Global() ir.CooldownEntry {
	return l.global
}

// GlobalProgress applies the Progress formula to the global window.
func (l *Ledger) GlobalProgress(now int64, partialTick float64) float64 {
	return entryProgress(l.global, now, partialTick)
}

// Len returns the number of abilities cooling down.
func (l *Ledger) Len() int {
	return len(l.entries)
}

// Entries returns a copy of all entries keyed by ability.
func (l *Ledger) Entries() map[string]ir.CooldownEntry {
	out := make(map[string]ir.CooldownEntry, len(l.entries))
	for ability, entry := range l.entries {
		out[ability] = entry
	}
	return out
}

// Abilities returns the tracked ability IDs in sorted order.
func (l *Ledger) Abilities() []string {
	out := make([]string, 0, len(l.entries))
	for ability := range l.entries {
		out = append(out, ability)
	}
	sort.Strings(out)
	return out
}

// Clear drops every entry and resets the global window.
func (l *Ledger) Clear() {
	clear(l.entries)
	l.global = ir.CooldownEntry{}
}

// entryProgress computes clamp((end - (now + partial)) / (end - start), 0, 1).
// A zero-length window has no progress.
func entryProgress(entry ir.CooldownEntry, now int64, partialTick float64) float64 {
	span := float64(entry.Duration())
	if span <= 0 {
		return 0
	}
	remaining := float64(entry.EndTick) - (float64(now) + partialTick)
	return min(max(remaining/span, 0), 1)
}
