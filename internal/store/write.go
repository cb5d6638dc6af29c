package store

import (
	"context"
	"fmt"

	"github.com/roach88/hotbar/internal/ir"
)

// Append inserts a journal entry.
// Uses ON CONFLICT DO NOTHING for idempotency - duplicate IDs are silently ignored.
// Other constraint violations (e.g., an entry for an unknown session) still
// return errors.
//
// A session_start entry also registers its session row, in the same
// transaction.
func (s *Store) Append(ctx context.Context, e ir.Entry) error {
	if e.ID == "" {
		return fmt.Errorf("append entry: empty id (session=%s seq=%d)", e.SessionToken, e.Seq)
	}

	dataJSON, err := marshalData(e.Data)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("append entry: begin: %w", err)
	}
	defer tx.Rollback()

	if e.Kind == ir.KindSessionStart {
		cfgJSON, err := sessionConfig(e)
		if err != nil {
			return fmt.Errorf("append entry: %w", err)
		}
		engineVersion, _ := e.Data["engine_version"].(string)
		journalVersion, _ := e.Data["journal_version"].(string)

		_, err = tx.ExecContext(ctx, `
			INSERT INTO sessions (token, started_ms, engine_version, journal_version, config)
			VALUES (?, ?, ?, ?, ?)
			ON CONFLICT(token) DO NOTHING
		`, e.SessionToken, e.WallMs, engineVersion, journalVersion, cfgJSON)
		if err != nil {
			return fmt.Errorf("append entry: write session: %w", err)
		}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO entries (id, session_token, seq, kind, tick, wall_ms, data)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT DO NOTHING
	`,
		e.ID,
		e.SessionToken,
		e.Seq,
		string(e.Kind),
		e.Tick,
		e.WallMs,
		dataJSON,
	)
	if err != nil {
		return fmt.Errorf("append entry: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("append entry: commit: %w", err)
	}
	return nil
}
