package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/hotbar/internal/engine"
	"github.com/roach88/hotbar/internal/mmoitems"
	"github.com/roach88/hotbar/internal/store"
)

// ReplayOptions holds flags for the replay command.
type ReplayOptions struct {
	*RootOptions
	Database string
	Session  string // optional - specific session only
}

// ReplaySessionResult holds the replay result for a single session.
type ReplaySessionResult struct {
	Session    string            `json:"session"`
	Inputs     int               `json:"inputs"`
	Outputs    int               `json:"outputs"`
	Consistent bool              `json:"consistent"`
	Mismatches []engine.Mismatch `json:"mismatches,omitempty"`
}

// ReplayResult holds the overall replay result.
type ReplayResult struct {
	Sessions      []ReplaySessionResult `json:"sessions"`
	TotalSessions int                   `json:"total_sessions"`
	AllConsistent bool                  `json:"all_consistent"`
}

// NewReplayCommand creates the replay command.
func NewReplayCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ReplayOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "replay",
		Short: "Re-drive journaled sessions and verify their decisions",
		Long: `Replay the inputs of each journaled session through a fresh engine and
check that it makes the same decisions (probes, dropped probes, cooldowns,
rejections) at the same ticks as the recording.

Exit codes:
  0 - Every session replayed consistently
  1 - At least one session diverged
  2 - Command error (database not found, unknown session, etc.)

Examples:
  hotbar replay --db ./hotbar.db
  hotbar replay --db ./hotbar.db --session s-1
  hotbar replay --db ./hotbar.db --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runReplay(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "replay specific session only")

	return cmd
}

func runReplay(opts *ReplayOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	var tokens []string
	if opts.Session != "" {
		tokens = []string{opts.Session}
	} else {
		sessions, err := st.ListSessions(ctx)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to list sessions", err)
		}
		for _, s := range sessions {
			tokens = append(tokens, s.Token)
		}
	}

	result := ReplayResult{
		Sessions:      make([]ReplaySessionResult, 0, len(tokens)),
		TotalSessions: len(tokens),
		AllConsistent: true,
	}

	resolver := mmoitems.NewResolver()
	for _, token := range tokens {
		sessionResult, err := replaySession(ctx, st, token, resolver)
		if errors.Is(err, store.ErrSessionNotFound) {
			return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", token))
		}
		if err != nil {
			return WrapExitError(ExitCommandError, fmt.Sprintf("failed to replay session %s", token), err)
		}

		result.Sessions = append(result.Sessions, sessionResult)
		if !sessionResult.Consistent {
			result.AllConsistent = false
		}
	}

	if opts.Format == "json" {
		return outputReplayJSON(cmd, result)
	}
	return outputReplayText(cmd, result, opts.Verbose)
}

// replaySession reads one session from the journal and re-drives it.
func replaySession(ctx context.Context, st *store.Store, token string, meta engine.ItemMetadata) (ReplaySessionResult, error) {
	entries, err := st.Replay(ctx, token)
	if err != nil {
		return ReplaySessionResult{}, err
	}

	replayed, err := engine.Replay(entries, meta)
	if err != nil {
		return ReplaySessionResult{}, err
	}

	return ReplaySessionResult{
		Session:    token,
		Inputs:     replayed.Inputs,
		Outputs:    replayed.Outputs,
		Consistent: replayed.OK(),
		Mismatches: replayed.Mismatches,
	}, nil
}

// outputReplayJSON outputs the replay result as JSON.
func outputReplayJSON(cmd *cobra.Command, result ReplayResult) error {
	response := CLIResponse{
		Status: "ok",
		Data:   result,
	}

	if !result.AllConsistent {
		response.Status = "error"
		response.Error = &CLIError{
			Code:    "REPLAY_DIVERGED",
			Message: "replayed decisions differ from the journal",
		}
	}

	encoder := json.NewEncoder(cmd.OutOrStdout())
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(response); err != nil {
		return err
	}

	if !result.AllConsistent {
		return NewExitError(ExitFailure, "replay diverged")
	}
	return nil
}

// outputReplayText outputs the replay result as text.
func outputReplayText(cmd *cobra.Command, result ReplayResult, verbose bool) error {
	w := cmd.OutOrStdout()

	if result.TotalSessions == 0 {
		fmt.Fprintln(w, "No sessions found in database.")
		return nil
	}

	fmt.Fprintf(w, "Replay Summary: %d session(s)\n", result.TotalSessions)
	fmt.Fprintln(w)

	for _, s := range result.Sessions {
		status := "✓"
		if !s.Consistent {
			status = "✗"
		}
		fmt.Fprintf(w, "%s Session: %s\n", status, s.Session)
		fmt.Fprintf(w, "  Entries: %d inputs, %d decisions\n", s.Inputs, s.Outputs)

		for _, m := range s.Mismatches {
			fmt.Fprintf(w, "  decision %d differs\n", m.Index)
			if !verbose {
				continue
			}
			if m.Recorded != nil {
				fmt.Fprintf(w, "    recorded: tick %d %s%s\n", m.Recorded.Tick, m.Recorded.Kind, formatData(m.Recorded.Data))
			} else {
				fmt.Fprintln(w, "    recorded: (none)")
			}
			if m.Replayed != nil {
				fmt.Fprintf(w, "    replayed: tick %d %s%s\n", m.Replayed.Tick, m.Replayed.Kind, formatData(m.Replayed.Data))
			} else {
				fmt.Fprintln(w, "    replayed: (none)")
			}
		}
	}

	fmt.Fprintln(w)
	if result.AllConsistent {
		fmt.Fprintln(w, "All sessions replayed consistently.")
		return nil
	}

	fmt.Fprintln(w, "Replay diverged.")
	return NewExitError(ExitFailure, "replay diverged")
}
