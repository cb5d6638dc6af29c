package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/roach88/hotbar/internal/config"
	"github.com/roach88/hotbar/internal/ir"
)

// WallClock supplies wall-clock milliseconds for usage timestamps.
type WallClock interface {
	NowMs() int64
}

type systemWallClock struct{}

func (systemWallClock) NowMs() int64 { return time.Now().UnixMilli() }

// ItemUse is a local attempt to use the item in hand.
type ItemUse struct {
	Item      ir.ItemStack
	Hand      ir.Hand
	Spectator bool
}

// TickResult reports what one Tick did.
type TickResult struct {
	Tick    int64
	InWorld bool
	Swept   int
	Drain   DrainResult
}

// State is a point-in-time copy of a session, for diagnostics and tests.
type State struct {
	Token     string                      `json:"session"`
	Tick      int64                       `json:"tick"`
	Enabled   bool                        `json:"enabled"`
	Cooldowns map[string]ir.CooldownEntry `json:"cooldowns"`
	Global    ir.CooldownEntry            `json:"global"`
	Pending   []ir.PendingProbe           `json:"pending"`
	Usages    int                         `json:"usages"`
}

// SessionOption configures a Session.
type SessionOption func(*Session)

// WithWallClock replaces the system wall clock.
func WithWallClock(w WallClock) SessionOption {
	return func(s *Session) {
		s.wall = w
	}
}

// WithJournal records every input and decision to j.
func WithJournal(j Journal) SessionOption {
	return func(s *Session) {
		s.journal = j
	}
}

// WithTokenGenerator sets how session tokens are generated.
// Default: UUIDv7Generator.
func WithTokenGenerator(g SessionTokenGenerator) SessionOption {
	return func(s *Session) {
		s.tokens = g
	}
}

// Session is the state of one connected game session: tick clock,
// cooldown ledger, usage log and probe scheduler.
//
// Thread-safety model:
//   - All methods are safe from any goroutine (tick loop, network receive)
//   - One mutex guards all state; reads copy under the lock
//   - Probe sends, the usage scan and journal writes run outside the lock
//
// INVARIANTS:
//   - The clock advances exactly once per Tick
//   - Join and disconnect clear everything and start a new session token
//   - Journal seq is assigned under the lock, so seq order is decision order
type Session struct {
	mu         sync.Mutex
	cfg        config.Config
	meta       ItemMetadata
	clock      *Clock
	ledger     *Ledger
	usage      *UsageLog
	sched      *Scheduler
	wall       WallClock
	tokens     SessionTokenGenerator
	journal    Journal
	token      string
	seq        int64
	generation uint64
}

// NewSession creates a session and opens its first journal session.
// meta resolves item abilities; nil means no item ever has one.
func NewSession(cfg config.Config, meta ItemMetadata, opts ...SessionOption) *Session {
	s := &Session{
		cfg:    cfg,
		meta:   meta,
		clock:  NewClock(),
		ledger: NewLedger(),
		usage:  NewUsageLog(cfg.UsageCapacity, cfg.UsageMaxAge.Milliseconds()),
		sched:  NewScheduler(),
		wall:   systemWallClock{},
		tokens: UUIDv7Generator{},
	}

	for _, opt := range opts {
		opt(s)
	}

	s.mu.Lock()
	s.token = s.tokens.Generate()
	entries := s.startEntry(nil, s.wall.NowMs())
	s.mu.Unlock()

	s.flush(entries)
	return s
}

// Tick advances the clock. When the player is in a world it then sweeps
// expired cooldowns and fires ready probes through ch; a nil ch drops every
// pending probe.
//
// The clock advances even when the sweep or sends fail.
func (s *Session) Tick(inWorld bool, ch Channel) TickResult {
	s.mu.Lock()
	now := s.clock.Advance()
	wallMs := s.wall.NowMs()
	res := TickResult{Tick: now, InWorld: inWorld}

	entries := s.note(nil, ir.KindTick, wallMs, map[string]any{
		"in_world": inWorld,
		"channel":  ch != nil,
	})

	var ready []ir.PendingProbe
	if inWorld {
		res.Swept = s.ledger.Sweep(now)
		if ch == nil {
			res.Drain.Dropped = s.sched.Clear()
		} else {
			ready = s.sched.Take(now)
		}
	}

	if res.Drain.Dropped > 0 {
		entries = s.note(entries, ir.KindProbesDropped, wallMs, map[string]any{"count": res.Drain.Dropped})
	}
	for _, p := range ready {
		entries = s.note(entries, ir.KindProbeSent, wallMs, probeData(p))
	}
	s.mu.Unlock()

	if len(ready) > 0 {
		res.Drain = Send(ready, ch)
		for _, f := range res.Drain.Failed {
			slog.Warn("probe send failed",
				"sequence", f.Probe.Payload.Sequence,
				"hand", f.Probe.Payload.Hand.String(),
				"error", f.Err,
			)
		}
	}
	if res.Drain.Dropped > 0 {
		slog.Debug("probes dropped: channel unavailable",
			"count", res.Drain.Dropped,
			"tick", now,
		)
	}

	s.flush(entries)
	return res
}

// OnItemUse records a local item use and schedules a probe for it.
//
// Nothing is captured when the feature is disabled, the player is a
// spectator, or the item grants no ability. Returns whether the use was
// captured.
func (s *Session) OnItemUse(use ItemUse) bool {
	hasAbility := s.meta != nil && s.meta.HasAbility(use.Item)

	s.mu.Lock()
	now := s.clock.Current()
	wallMs := s.wall.NowMs()
	entries := s.note(nil, ir.KindUse, wallMs, useData(use))

	captured := s.cfg.Enabled && !use.Spectator && hasAbility
	var probe ir.PendingProbe
	if captured {
		s.usage.Record(use.Item, wallMs)
		probe = s.sched.Schedule(
			ir.InteractItem{Hand: use.Hand, Sequence: now},
			int64(s.cfg.ProbeDelayTicks),
			now,
		)
	}
	s.mu.Unlock()

	s.flush(entries)

	if captured {
		slog.Debug("item use captured",
			"item", use.Item.ID,
			"hand", use.Hand.String(),
			"tick", now,
			"fire_tick", probe.FireTick,
		)
	}
	return captured
}

// Correlate matches a server notification to a logged item use and starts
// the ability's cooldown.
//
// Returns a *CorrelationError when no cooldown could be derived. A
// notification for an ability already cooling down succeeds with
// Applied=false and leaves the running window unchanged.
//
// The nearest-use scan runs on a snapshot without the lock. The chat entry
// and its decision are journaled together once the lock is retaken, at the
// tick current then. If the usage log or the session changed during the
// scan, the match is redone under the lock against the current log.
func (s *Session) Correlate(message string, latencyMs int64) (*ir.Correlation, error) {
	s.mu.Lock()
	c := s.correlator()
	if !c.Enabled {
		s.mu.Unlock()
		return nil, newCorrelationError(ErrCodeDisabled, message, "cooldown prediction is disabled")
	}
	if _, ok := Recognize(message, c.prefix()); !ok {
		s.mu.Unlock()
		return nil, newCorrelationError(ErrCodeNotRecognized, message, "missing prefix %q", c.prefix())
	}

	wallMs := s.wall.NowMs()
	gen := s.generation
	rev := s.usage.Revision()
	usages := s.usage.Snapshot()
	s.mu.Unlock()

	corr, err := c.Resolve(message, usages, wallMs, latencyMs)

	s.mu.Lock()
	if !s.cfg.Enabled {
		s.mu.Unlock()
		return nil, newCorrelationError(ErrCodeDisabled, message, "cooldown prediction is disabled")
	}
	if s.generation != gen || s.usage.Revision() != rev {
		corr, err = c.Resolve(message, s.usage.Snapshot(), wallMs, latencyMs)
	}

	entries := s.note(nil, ir.KindChat, wallMs, map[string]any{
		"message":    message,
		"latency_ms": latencyMs,
	})
	if err != nil {
		entries = s.note(entries, ir.KindCorrelationRejected, wallMs, map[string]any{
			"code": string(CorrelationCode(err)),
		})
	} else {
		corr.Entry, corr.Applied = s.ledger.Set(corr.Ability, corr.Ticks, s.clock.Current())
		entries = s.note(entries, ir.KindCooldownSet, wallMs, correlationData(corr))
	}
	s.mu.Unlock()

	s.flush(entries)
	return corr, err
}

// OnChatMessage is the host's chat hook. It never fails: rejected
// notifications are logged at debug level. Returns whether a new cooldown
// was started.
func (s *Session) OnChatMessage(message string, latencyMs int64) bool {
	corr, err := s.Correlate(message, latencyMs)
	if err != nil {
		if !IsIgnored(err) {
			slog.Debug("correlation rejected",
				"code", string(CorrelationCode(err)),
				"error", err,
			)
		}
		return false
	}

	slog.Debug("cooldown set",
		"ability", corr.Ability,
		"ticks", corr.Ticks,
		"latency_ms", corr.LatencyMs,
		"applied", corr.Applied,
	)
	return corr.Applied
}

// OnJoin resets the session when the player joins a server.
func (s *Session) OnJoin() {
	s.reset(ir.KindJoin)
}

// OnDisconnect resets the session when the connection closes.
func (s *Session) OnDisconnect() {
	s.reset(ir.KindDisconnect)
}

func (s *Session) reset(kind ir.EntryKind) {
	s.mu.Lock()
	wallMs := s.wall.NowMs()
	next := s.tokens.Generate()
	cleared := s.sched.Len()

	entries := s.note(nil, kind, wallMs, map[string]any{
		"next_session":      next,
		"cleared_probes":    cleared,
		"cleared_cooldowns": s.ledger.Len(),
	})

	s.clock.Reset()
	s.ledger.Clear()
	s.usage.Clear()
	s.sched.Clear()
	s.generation++
	s.token = next
	s.seq = 0
	entries = s.startEntry(entries, wallMs)
	s.mu.Unlock()

	s.flush(entries)

	slog.Debug("session reset",
		"reason", string(kind),
		"session", next,
		"cleared_probes", cleared,
	)
}

// SetGlobal starts a global cooldown of durationTicks from the current tick,
// replacing any previous one. Correlation never sets it.
func (s *Session) SetGlobal(durationTicks int64) ir.CooldownEntry {
	s.mu.Lock()
	entry := s.ledger.SetGlobal(durationTicks, s.clock.Current())
	entries := s.note(nil, ir.KindSetGlobal, s.wall.NowMs(), map[string]any{"ticks": durationTicks})
	s.mu.Unlock()

	s.flush(entries)
	return entry
}

// SetEnabled switches cooldown prediction on or off.
// Existing cooldowns keep running; new uses and notifications are ignored
// while disabled.
func (s *Session) SetEnabled(enabled bool) {
	s.mu.Lock()
	s.cfg.Enabled = enabled
	entries := s.note(nil, ir.KindSetEnabled, s.wall.NowMs(), map[string]any{"enabled": enabled})
	s.mu.Unlock()

	s.flush(entries)
}

// Progress returns the remaining fraction of ability's cooldown.
func (s *Session) Progress(ability string, partialTick float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.Progress(ability, s.clock.Current(), partialTick)
}

// GlobalProgress returns the remaining fraction of the global cooldown.
func (s *Session) GlobalProgress(partialTick float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.ledger.GlobalProgress(s.clock.Current(), partialTick)
}

// OverlayProgress is what the hotbar draws for ability: its own progress,
// or the global cooldown's when the ability is not cooling down.
func (s *Session) OverlayProgress(ability string, partialTick float64) float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.clock.Current()
	if p := s.ledger.Progress(ability, now, partialTick); p > 0 {
		return p
	}
	return s.ledger.GlobalProgress(now, partialTick)
}

// IsCoolingDown reports whether ability has cooldown left at the current tick.
func (s *Session) IsCoolingDown(ability string) bool {
	return s.Progress(ability, 0) > 0
}

// CurrentTick returns the session clock.
func (s *Session) CurrentTick() int64 {
	return s.clock.Current()
}

// Token returns the current session token.
func (s *Session) Token() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.token
}

// Config returns the session configuration.
func (s *Session) Config() config.Config {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cfg
}

// Snapshot copies the session state.
func (s *Session) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()

	return State{
		Token:     s.token,
		Tick:      s.clock.Current(),
		Enabled:   s.cfg.Enabled,
		Cooldowns: s.ledger.Entries(),
		Global:    s.ledger.Global(),
		Pending:   s.sched.Pending(),
		Usages:    s.usage.Len(),
	}
}

// correlator builds a Correlator from the current config. Caller holds s.mu.
func (s *Session) correlator() Correlator {
	return Correlator{
		Enabled:        s.cfg.Enabled,
		Prefix:         s.cfg.NotificationPrefix,
		TicksPerSecond: int64(s.cfg.TicksPerSecond),
		Metadata:       s.meta,
	}
}

// startEntry notes the session_start entry. Caller holds s.mu.
func (s *Session) startEntry(entries []ir.Entry, wallMs int64) []ir.Entry {
	return s.note(entries, ir.KindSessionStart, wallMs, map[string]any{
		"config":          s.cfg.Data(),
		"engine_version":  ir.EngineVersion,
		"journal_version": ir.JournalVersion,
	})
}

// note appends a journal entry for the current session and assigns its
// seq. Caller holds s.mu. A no-op without a journal.
func (s *Session) note(entries []ir.Entry, kind ir.EntryKind, wallMs int64, data map[string]any) []ir.Entry {
	if s.journal == nil {
		return entries
	}
	s.seq++
	return append(entries, ir.Entry{
		SessionToken: s.token,
		Seq:          s.seq,
		Kind:         kind,
		Tick:         s.clock.Current(),
		WallMs:       wallMs,
		Data:         data,
	})
}

// flush writes noted entries to the journal. Must be called without s.mu.
// Journal failures are logged and never reach the host.
func (s *Session) flush(entries []ir.Entry) {
	for _, e := range entries {
		id, err := ir.EntryID(e.SessionToken, e.Seq, e.Kind, e.Tick, e.Data)
		if err != nil {
			slog.Warn("journal entry dropped",
				"kind", string(e.Kind),
				"seq", e.Seq,
				"error", err,
			)
			continue
		}
		e.ID = id

		if err := s.journal.Append(context.Background(), e); err != nil {
			slog.Warn("journal append failed",
				"id", e.ID,
				"kind", string(e.Kind),
				"error", err,
			)
		}
	}
}

func probeData(p ir.PendingProbe) map[string]any {
	return map[string]any{
		"hand":           p.Payload.Hand.String(),
		"sequence":       p.Payload.Sequence,
		"scheduled_tick": p.ScheduledTick,
		"fire_tick":      p.FireTick,
	}
}

func useData(use ItemUse) map[string]any {
	stack, err := use.Item.Canonical()
	if err != nil {
		slog.Warn("item tags not journaled",
			"item", use.Item.ID,
			"error", err,
		)
		stack = map[string]any{"id": use.Item.ID, "count": use.Item.Count}
	}
	return map[string]any{
		"item":      stack,
		"hand":      use.Hand.String(),
		"spectator": use.Spectator,
	}
}

func correlationData(c *ir.Correlation) map[string]any {
	return map[string]any{
		"ability":    c.Ability,
		"ticks":      c.Ticks,
		"latency_ms": c.LatencyMs,
		"usage_ms":   c.Usage.WallClockMs,
		"start_tick": c.Entry.StartTick,
		"end_tick":   c.Entry.EndTick,
		"applied":    c.Applied,
	}
}
