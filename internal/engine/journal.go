package engine

import (
	"context"
	"sort"
	"sync"

	"github.com/roach88/hotbar/internal/ir"
)

// Journal persists session entries. Implemented by store.Store (SQLite)
// and MemoryJournal.
//
// Append must be idempotent on Entry.ID.
type Journal interface {
	Append(ctx context.Context, e ir.Entry) error
}

// MemoryJournal keeps entries in memory. Used by the harness and replay.
//
// Thread-safety: MemoryJournal is safe for concurrent use.
type MemoryJournal struct {
	mu      sync.Mutex
	entries []ir.Entry
	seen    map[string]bool
}

// NewMemoryJournal creates an empty in-memory journal.
func NewMemoryJournal() *MemoryJournal {
	return &MemoryJournal{seen: make(map[string]bool)}
}

// Append stores e unless an entry with the same ID already exists.
func (j *MemoryJournal) Append(_ context.Context, e ir.Entry) error {
	j.mu.Lock()
	defer j.mu.Unlock()

	if j.seen[e.ID] {
		return nil
	}
	j.seen[e.ID] = true
	j.entries = append(j.entries, e)
	return nil
}

// Entries returns all entries in append order.
func (j *MemoryJournal) Entries() []ir.Entry {
	j.mu.Lock()
	defer j.mu.Unlock()

	out := make([]ir.Entry, len(j.entries))
	copy(out, j.entries)
	return out
}

// Session returns the entries of one session, ordered by seq, then id.
func (j *MemoryJournal) Session(token string) []ir.Entry {
	var out []ir.Entry
	for _, e := range j.Entries() {
		if e.SessionToken == token {
			out = append(out, e)
		}
	}
	sortEntries(out)
	return out
}

// Sessions returns session tokens in the order their first entry was written.
func (j *MemoryJournal) Sessions() []string {
	var tokens []string
	seen := make(map[string]bool)
	for _, e := range j.Entries() {
		if e.Kind == ir.KindSessionStart && !seen[e.SessionToken] {
			seen[e.SessionToken] = true
			tokens = append(tokens, e.SessionToken)
		}
	}
	return tokens
}

// sortEntries applies the journal ordering within a session: seq ASC, id ASC.
func sortEntries(entries []ir.Entry) {
	sort.SliceStable(entries, func(i, k int) bool {
		if entries[i].Seq != entries[k].Seq {
			return entries[i].Seq < entries[k].Seq
		}
		return entries[i].ID < entries[k].ID
	})
}
