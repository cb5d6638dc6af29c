package store

import (
	"path/filepath"
	"testing"

	"github.com/roach88/hotbar/internal/ir"
)

// createTestStore creates a new store in a temp dir for testing.
func createTestStore(t *testing.T) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

// createTestEntry builds an entry with its content-addressed ID filled in.
func createTestEntry(token string, seq int64, kind ir.EntryKind, tick int64, data map[string]any) ir.Entry {
	return ir.Entry{
		ID:           ir.MustEntryID(token, seq, kind, tick, data),
		SessionToken: token,
		Seq:          seq,
		Kind:         kind,
		Tick:         tick,
		WallMs:       1000 + seq,
		Data:         data,
	}
}

// createTestStart builds the session_start entry for token.
func createTestStart(token string) ir.Entry {
	return createTestEntry(token, 1, ir.KindSessionStart, 0, map[string]any{
		"config":          map[string]any{"enabled": true, "ticks_per_second": int64(20)},
		"engine_version":  ir.EngineVersion,
		"journal_version": ir.JournalVersion,
	})
}
