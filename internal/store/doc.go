// Package store provides the SQLite-backed session journal.
//
// The journal is append-only:
//   - sessions: one row per session token, written with its session_start entry
//   - entries: every input and decision of a session, keyed by content hash
//
// # Ordering
//
// Seq is a per-session logical clock. Reads always use
// ORDER BY seq ASC, id COLLATE BINARY ASC so that replay sees the same
// sequence regardless of wall time.
//
// # Idempotency
//
// Entry IDs are computed by ir.EntryID (RFC 8785 canonical JSON, SHA-256
// with domain separation). Writing the same entry twice is a no-op.
//
// # Database Configuration
//
//   - WAL mode: trace and replay read while a live run appends
//   - synchronous=NORMAL, busy_timeout=5000, immediate write transactions
//   - foreign_keys=ON: entries must belong to a known session
package store
