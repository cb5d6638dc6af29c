package store

import (
	"context"
	"fmt"

	"github.com/roach88/hotbar/internal/ir"
)

// Replay returns the entries of a session in journal order, ready for
// engine.Replay. The session must exist and start with its session_start
// entry.
func (s *Store) Replay(ctx context.Context, token string) ([]ir.Entry, error) {
	if _, err := s.GetSession(ctx, token); err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	entries, err := s.ReadSession(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("replay: %w", err)
	}

	if len(entries) == 0 || entries[0].Kind != ir.KindSessionStart {
		return nil, fmt.Errorf("replay: session %s does not start with %s", token, ir.KindSessionStart)
	}

	return entries, nil
}
