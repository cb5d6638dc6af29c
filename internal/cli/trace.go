package cli

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/spf13/cobra"

	"github.com/roach88/hotbar/internal/ir"
	"github.com/roach88/hotbar/internal/store"
)

// TraceOptions holds flags for the trace command.
type TraceOptions struct {
	*RootOptions
	Database string
	Session  string // optional - list sessions when empty
	Kind     string // optional - filter to one entry kind
}

// TraceEvent is one journal entry in the trace timeline.
type TraceEvent struct {
	Seq    int64          `json:"seq"`
	Kind   string         `json:"kind"`
	Tick   int64          `json:"tick"`
	WallMs int64          `json:"wall_ms"`
	ID     string         `json:"id"`
	Data   map[string]any `json:"data,omitempty"`
}

// TraceResult holds the trace of one session.
type TraceResult struct {
	Session  store.SessionInfo `json:"session"`
	Timeline []TraceEvent      `json:"timeline"`
	Stats    TraceStats        `json:"stats"`
}

// TraceStats holds summary statistics for the trace.
type TraceStats struct {
	TotalEntries int            `json:"total_entries"`
	Inputs       int            `json:"inputs"`
	Decisions    int            `json:"decisions"`
	ByKind       map[string]int `json:"by_kind"`
}

// NewTraceCommand creates the trace command.
func NewTraceCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TraceOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "trace",
		Short: "Show the journal of a session",
		Long: `Show what a journaled session was fed and what it decided.

Without --session, lists the sessions in the journal. With --session, prints
the session's timeline (every tick, use, chat message, probe and cooldown
in order) and per-kind statistics.

Examples:
  hotbar trace --db ./hotbar.db
  hotbar trace --db ./hotbar.db --session s-1
  hotbar trace --db ./hotbar.db --session s-1 --kind cooldown_set
  hotbar trace --db ./hotbar.db --session s-1 --format json`,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTrace(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal (required)")
	_ = cmd.MarkFlagRequired("db")
	cmd.Flags().StringVar(&opts.Session, "session", "", "session token to trace")
	cmd.Flags().StringVar(&opts.Kind, "kind", "", "filter the timeline to one entry kind")

	return cmd
}

func runTrace(opts *TraceOptions, cmd *cobra.Command) error {
	ctx := context.Background()

	st, err := store.Open(opts.Database)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to open database", err)
	}
	defer st.Close()

	if opts.Session == "" {
		return listSessions(ctx, opts, st, cmd)
	}

	info, err := st.GetSession(ctx, opts.Session)
	if errors.Is(err, store.ErrSessionNotFound) {
		return NewExitError(ExitCommandError, fmt.Sprintf("session not found: %s", opts.Session))
	}
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to get session", err)
	}

	entries, err := st.ReadSession(ctx, opts.Session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to read session", err)
	}

	counts, err := st.CountKinds(ctx, opts.Session)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to count entries", err)
	}

	result := TraceResult{
		Session:  info,
		Timeline: buildTimeline(entries, opts.Kind),
		Stats:    calculateTraceStats(counts),
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		return formatter.SuccessFor(info.Token, result)
	}

	outputTraceText(cmd, result, opts.Kind == "")
	return nil
}

func listSessions(ctx context.Context, opts *TraceOptions, st *store.Store, cmd *cobra.Command) error {
	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return WrapExitError(ExitCommandError, "failed to list sessions", err)
	}

	if opts.Format == "json" {
		formatter := &OutputFormatter{Format: "json", Writer: cmd.OutOrStdout()}
		return formatter.Success(sessions)
	}

	w := cmd.OutOrStdout()
	if len(sessions) == 0 {
		fmt.Fprintln(w, "No sessions found.")
		return nil
	}
	for _, s := range sessions {
		fmt.Fprintf(w, "%s  started=%d  entries=%d  engine=%s\n", s.Token, s.StartedMs, s.Entries, s.EngineVersion)
	}
	return nil
}

// buildTimeline converts entries into timeline events, keeping only kind
// when it is set.
func buildTimeline(entries []ir.Entry, kind string) []TraceEvent {
	timeline := make([]TraceEvent, 0, len(entries))
	for _, e := range entries {
		if kind != "" && string(e.Kind) != kind {
			continue
		}
		timeline = append(timeline, TraceEvent{
			Seq:    e.Seq,
			Kind:   string(e.Kind),
			Tick:   e.Tick,
			WallMs: e.WallMs,
			ID:     e.ID,
			Data:   e.Data,
		})
	}
	return timeline
}

// calculateTraceStats splits per-kind counts into inputs and decisions.
func calculateTraceStats(counts map[ir.EntryKind]int) TraceStats {
	stats := TraceStats{ByKind: make(map[string]int, len(counts))}
	for kind, n := range counts {
		stats.ByKind[string(kind)] = n
		stats.TotalEntries += n
		if kind.IsInput() {
			stats.Inputs += n
		} else {
			stats.Decisions += n
		}
	}
	return stats
}

// outputTraceText prints the timeline. With collapseTicks, runs of tick
// entries are summarized as a count.
func outputTraceText(cmd *cobra.Command, result TraceResult, collapseTicks bool) {
	w := cmd.OutOrStdout()

	fmt.Fprintf(w, "Session: %s\n", result.Session.Token)
	fmt.Fprintf(w, "Engine:  %s (journal %s)\n", result.Session.EngineVersion, result.Session.JournalVersion)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Timeline:")
	ticks := 0
	for _, e := range result.Timeline {
		if collapseTicks && e.Kind == string(ir.KindTick) {
			ticks++
			continue
		}
		if ticks > 0 {
			fmt.Fprintf(w, "  ... %d ticks\n", ticks)
			ticks = 0
		}
		fmt.Fprintf(w, "  [%d] tick %d  %s%s\n", e.Seq, e.Tick, e.Kind, formatData(e.Data))
	}
	if ticks > 0 {
		fmt.Fprintf(w, "  ... %d ticks\n", ticks)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Stats:")
	fmt.Fprintf(w, "  Total entries: %d\n", result.Stats.TotalEntries)
	fmt.Fprintf(w, "  Inputs:        %d\n", result.Stats.Inputs)
	fmt.Fprintf(w, "  Decisions:     %d\n", result.Stats.Decisions)

	kinds := make([]string, 0, len(result.Stats.ByKind))
	for k := range result.Stats.ByKind {
		kinds = append(kinds, k)
	}
	sort.Strings(kinds)
	for _, k := range kinds {
		fmt.Fprintf(w, "    %-22s %d\n", k, result.Stats.ByKind[k])
	}
}
