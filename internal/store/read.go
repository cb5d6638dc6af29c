package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/hotbar/internal/ir"
)

// ErrSessionNotFound is returned when a session token has no session row.
var ErrSessionNotFound = errors.New("session not found")

// SessionInfo summarizes one journaled session.
type SessionInfo struct {
	Token          string         `json:"token"`
	StartedMs      int64          `json:"started_ms"`
	EngineVersion  string         `json:"engine_version"`
	JournalVersion string         `json:"journal_version"`
	Config         map[string]any `json:"config"`
	Entries        int            `json:"entries"`
}

// ReadSession returns every entry of a session.
// Results are ordered deterministically: ORDER BY seq ASC, id COLLATE BINARY ASC.
//
// Returns an empty slice (not nil) if the session has no entries.
func (s *Store) ReadSession(ctx context.Context, token string) ([]ir.Entry, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, session_token, seq, kind, tick, wall_ms, data
		FROM entries
		WHERE session_token = ?
		ORDER BY seq ASC, id COLLATE BINARY ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("query entries: %w", err)
	}
	defer rows.Close()

	entries := []ir.Entry{}
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate entries: %w", err)
	}

	return entries, nil
}

// GetSession returns the summary of one session, or ErrSessionNotFound.
func (s *Store) GetSession(ctx context.Context, token string) (SessionInfo, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT s.token, s.started_ms, s.engine_version, s.journal_version, s.config,
		       (SELECT COUNT(*) FROM entries e WHERE e.session_token = s.token)
		FROM sessions s
		WHERE s.token = ?
	`, token)

	info, err := scanSession(row)
	if errors.Is(err, sql.ErrNoRows) {
		return SessionInfo{}, fmt.Errorf("%w: %s", ErrSessionNotFound, token)
	}
	if err != nil {
		return SessionInfo{}, err
	}
	return info, nil
}

// ListSessions returns all sessions, oldest first.
// Sessions started in the same millisecond are ordered by token.
func (s *Store) ListSessions(ctx context.Context) ([]SessionInfo, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT s.token, s.started_ms, s.engine_version, s.journal_version, s.config,
		       (SELECT COUNT(*) FROM entries e WHERE e.session_token = s.token)
		FROM sessions s
		ORDER BY s.started_ms ASC, s.token COLLATE BINARY ASC
	`)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions := []SessionInfo{}
	for rows.Next() {
		info, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, info)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate sessions: %w", err)
	}

	return sessions, nil
}

// LastSeq returns the highest seq written for a session, or 0.
func (s *Store) LastSeq(ctx context.Context, token string) (int64, error) {
	var seq int64
	err := s.db.QueryRowContext(ctx, `
		SELECT COALESCE(MAX(seq), 0) FROM entries WHERE session_token = ?
	`, token).Scan(&seq)
	if err != nil {
		return 0, fmt.Errorf("get last seq: %w", err)
	}
	return seq, nil
}

// CountKinds returns how many entries of each kind a session has.
func (s *Store) CountKinds(ctx context.Context, token string) (map[ir.EntryKind]int, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT kind, COUNT(*) FROM entries
		WHERE session_token = ?
		GROUP BY kind
		ORDER BY kind COLLATE BINARY ASC
	`, token)
	if err != nil {
		return nil, fmt.Errorf("count kinds: %w", err)
	}
	defer rows.Close()

	counts := make(map[ir.EntryKind]int)
	for rows.Next() {
		var kind string
		var n int
		if err := rows.Scan(&kind, &n); err != nil {
			return nil, fmt.Errorf("scan kind count: %w", err)
		}
		counts[ir.EntryKind(kind)] = n
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate kind counts: %w", err)
	}
	return counts, nil
}

// scanner is satisfied by *sql.Row and *sql.Rows.
type scanner interface {
	Scan(dest ...any) error
}

// scanEntry scans a row into an Entry.
func scanEntry(row scanner) (ir.Entry, error) {
	var e ir.Entry
	var kind, dataJSON string

	if err := row.Scan(&e.ID, &e.SessionToken, &e.Seq, &kind, &e.Tick, &e.WallMs, &dataJSON); err != nil {
		return ir.Entry{}, fmt.Errorf("scan entry: %w", err)
	}
	e.Kind = ir.EntryKind(kind)

	data, err := unmarshalData(dataJSON)
	if err != nil {
		return ir.Entry{}, err
	}
	e.Data = data

	return e, nil
}

// scanSession scans a row into a SessionInfo.
func scanSession(row scanner) (SessionInfo, error) {
	var info SessionInfo
	var cfgJSON string

	if err := row.Scan(
		&info.Token, &info.StartedMs, &info.EngineVersion, &info.JournalVersion, &cfgJSON, &info.Entries,
	); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return SessionInfo{}, err
		}
		return SessionInfo{}, fmt.Errorf("scan session: %w", err)
	}

	cfg, err := unmarshalData(cfgJSON)
	if err != nil {
		return SessionInfo{}, err
	}
	info.Config = cfg

	return info, nil
}
