package harness

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/roach88/hotbar/internal/config"
	"github.com/roach88/hotbar/internal/engine"
	"github.com/roach88/hotbar/internal/ir"
	"github.com/roach88/hotbar/internal/mmoitems"
	"github.com/roach88/hotbar/internal/testutil"
)

// DefaultSession is the session token prefix when a scenario sets none.
const DefaultSession = "scenario"

// Option configures Run.
type Option func(*options)

type options struct {
	journal engine.Journal
	logger  *slog.Logger
}

// WithJournal also records the run to j (for example a store.Store).
func WithJournal(j engine.Journal) Option {
	return func(o *options) {
		o.journal = j
	}
}

// WithLogger routes step logs to logger. Default: discarded.
func WithLogger(logger *slog.Logger) Option {
	return func(o *options) {
		o.logger = logger
	}
}

// Harness runs one scenario against a real engine.Session with a manual
// wall clock, a recording channel and sequential session tokens, so every
// run of the same scenario produces the same trace.
type Harness struct {
	session   *engine.Session
	journal   *engine.MemoryJournal
	wall      *testutil.ManualWallClock
	channel   *testutil.RecordingChannel
	items     map[string]ir.ItemStack
	tickMs    int64
	latencyMs int64
	inWorld   bool
	channelUp bool
	logger    *slog.Logger
}

// Run executes a test scenario and returns the result.
//
// Execution flow:
// 1. Build the config from the scenario's overrides
// 2. Open a session (its session_start is the first trace entry)
// 3. Apply steps in order, evaluating inline assert steps as they come
// 4. Evaluate the final assertions
//
// An error is returned only when the scenario cannot run; failed
// assertions are reported in Result.Errors.
func Run(scenario *Scenario, opts ...Option) (*Result, error) {
	o := options{logger: slog.New(slog.NewTextHandler(io.Discard, nil))}
	for _, opt := range opts {
		opt(&o)
	}

	cfg, err := scenarioConfig(scenario)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: %w", scenario.Name, err)
	}

	prefix := scenario.Session
	if prefix == "" {
		prefix = DefaultSession
	}

	h := &Harness{
		journal:   engine.NewMemoryJournal(),
		wall:      testutil.NewManualWallClock(scenario.StartMs),
		channel:   testutil.NewRecordingChannel(),
		items:     scenario.Items,
		tickMs:    cfg.TickInterval.Milliseconds(),
		inWorld:   true,
		channelUp: true,
		logger:    o.logger,
	}

	var journal engine.Journal = h.journal
	if o.journal != nil {
		journal = teeJournal{h.journal, o.journal}
	}

	h.session = engine.NewSession(cfg, mmoitems.NewResolver(),
		engine.WithWallClock(h.wall),
		engine.WithJournal(journal),
		engine.WithTokenGenerator(testutil.NewSequentialTokenGenerator(prefix)),
	)

	result := NewResult()
	for i, step := range scenario.Steps {
		if err := h.apply(step, result); err != nil {
			return nil, fmt.Errorf("scenario %s: step %d: %w", scenario.Name, i, err)
		}
	}

	for _, msg := range EvaluateAssertions(h.assertionContext(), scenario.Assertions) {
		result.AddError(msg)
	}

	for _, e := range h.journal.Entries() {
		result.AddEntry(e)
	}
	result.State = h.session.Snapshot()
	result.ProbesSent = h.channel.Len()

	return result, nil
}

// apply runs one step.
func (h *Harness) apply(step Step, result *Result) error {
	switch {
	case step.Tick > 0:
		var ch engine.Channel
		if h.channelUp {
			ch = h.channel
		}
		for range step.Tick {
			h.wall.Advance(h.tickMs)
			res := h.session.Tick(h.inWorld, ch)
			h.logger.Debug("tick",
				"tick", res.Tick,
				"swept", res.Swept,
				"sent", len(res.Drain.Sent),
				"dropped", res.Drain.Dropped,
			)
		}

	case step.Use != "":
		hand, err := ir.ParseHand(step.Hand)
		if err != nil {
			return err
		}
		captured := h.session.OnItemUse(engine.ItemUse{
			Item:      h.items[step.Use],
			Hand:      hand,
			Spectator: step.Spectator,
		})
		h.logger.Debug("use", "item", step.Use, "captured", captured)

	case step.Chat != nil:
		applied := h.session.OnChatMessage(*step.Chat, h.latencyMs)
		h.logger.Debug("chat", "message", *step.Chat, "applied", applied)

	case step.AdvanceMs > 0:
		h.wall.Advance(step.AdvanceMs)

	case step.LatencyMs != nil:
		h.latencyMs = *step.LatencyMs

	case step.Join:
		h.session.OnJoin()

	case step.Disconnect:
		h.session.OnDisconnect()

	case step.ChannelDown:
		h.channelUp = false

	case step.ChannelUp:
		h.channelUp = true

	case step.InWorld != nil:
		h.inWorld = *step.InWorld

	case step.SetGlobal != nil:
		h.session.SetGlobal(*step.SetGlobal)

	case step.SetEnabled != nil:
		h.session.SetEnabled(*step.SetEnabled)

	case step.Assert != nil:
		for _, msg := range EvaluateAssertions(h.assertionContext(), []Assertion{*step.Assert}) {
			result.AddError(msg)
		}

	default:
		return fmt.Errorf("no action")
	}
	return nil
}

func (h *Harness) assertionContext() *AssertionContext {
	return &AssertionContext{
		Session: h.session,
		Channel: h.channel,
		Journal: h.journal,
	}
}

// scenarioConfig unifies the scenario's overrides with the config schema.
// The overrides are encoded as JSON, which is valid CUE.
func scenarioConfig(s *Scenario) (config.Config, error) {
	if len(s.Config) == 0 {
		return config.Default(), nil
	}

	data, err := json.Marshal(s.Config)
	if err != nil {
		return config.Config{}, fmt.Errorf("encode config overrides: %w", err)
	}
	return config.Parse(data, s.Name+".config")
}

// teeJournal appends to every journal in order.
type teeJournal []engine.Journal

func (t teeJournal) Append(ctx context.Context, e ir.Entry) error {
	var errs []error
	for _, j := range t {
		if err := j.Append(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
