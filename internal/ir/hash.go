package ir

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
)

// Domain prefixes for content-addressed identity.
// Version suffix enables future algorithm migration.
const (
	DomainEntry = "hotbar/entry/v1"
)

// hashWithDomain computes SHA-256 hash with domain separation.
// Format: SHA256(domain + 0x00 + data)
func hashWithDomain(domain string, data []byte) string {
	h := sha256.New()
	h.Write([]byte(domain))
	h.Write([]byte{0x00})
	h.Write(data)
	return hex.EncodeToString(h.Sum(nil))
}

// EntryID computes the content-addressed ID for a journal entry.
// The ID is stable across replays given the same session, seq, kind,
// tick and data; wall-clock time is excluded.
func EntryID(sessionToken string, seq int64, kind EntryKind, tick int64, data map[string]any) (string, error) {
	obj := map[string]any{
		"session": sessionToken,
		"seq":     seq,
		"kind":    string(kind),
		"tick":    tick,
		"data":    data,
	}

	canonical, err := MarshalCanonical(obj)
	if err != nil {
		return "", fmt.Errorf("EntryID: failed to marshal: %w", err)
	}

	return hashWithDomain(DomainEntry, canonical), nil
}

// MustEntryID is like EntryID but panics on error.
// Use only in tests or when inputs are known to be valid.
func MustEntryID(sessionToken string, seq int64, kind EntryKind, tick int64, data map[string]any) string {
	id, err := EntryID(sessionToken, seq, kind, tick, data)
	if err != nil {
		panic(err)
	}
	return id
}
