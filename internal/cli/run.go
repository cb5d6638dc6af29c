package cli

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/hotbar/internal/config"
	"github.com/roach88/hotbar/internal/engine"
	"github.com/roach88/hotbar/internal/mmoitems"
	"github.com/roach88/hotbar/internal/store"
)

// RunOptions holds flags for the run command.
type RunOptions struct {
	*RootOptions
	ConfigPath   string
	Database     string        // overrides journal_path from the config
	TickInterval time.Duration // overrides tick_interval from the config

	// TokenGenerator allows overriding the session token generator (for testing).
	// If nil, defaults to UUIDv7Generator.
	TokenGenerator engine.SessionTokenGenerator
}

// progressLine answers a progress query.
type progressLine struct {
	Type    string  `json:"type"`
	Ability string  `json:"ability"`
	Value   float64 `json:"value"`
	Tick    int64   `json:"tick"`
}

// NewRunCommand creates the run command.
func NewRunCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Drive a live engine from a stream of host events",
		Long: `Start the cooldown engine on a real-time tick loop and feed it host
events read from stdin, one JSON object per line:

  {"type":"use","item":{"id":"minecraft:stick","count":1,"tags":{...}},"hand":"main"}
  {"type":"chat","message":"[CD] 4.5s"}
  {"type":"latency","latency_ms":120}
  {"type":"world","in_world":false}
  {"type":"channel","up":false}
  {"type":"join"} / {"type":"disconnect"}
  {"type":"set_global","ticks":20} / {"type":"set_enabled","enabled":false}
  {"type":"progress","ability":"FROSTBOLT"}
  {"type":"place","item":{...},"block_entity":true,"sneaking":false}
  {"type":"charge_label","item":{...},"label":"x3"}
  {"type":"wait","ms":500}

Probes and query answers are written to stdout as JSON lines. The engine
stops at end of input or on SIGINT/SIGTERM.

Examples:
  hotbar run < events.jsonl
  hotbar run --config hotbar.cue --db ./hotbar.db < events.jsonl`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runEngine(opts, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.ConfigPath, "config", "", "path to CUE config file")
	cmd.Flags().StringVar(&opts.Database, "db", "", "path to SQLite journal")
	cmd.Flags().DurationVar(&opts.TickInterval, "tick-interval", 0, "wall time between ticks")

	return cmd
}

func runEngine(opts *RunOptions, cmd *cobra.Command) error {
	cfg, err := config.Resolve(opts.ConfigPath)
	if err != nil {
		return WrapExitError(ExitCommandError, "invalid config", err)
	}
	if opts.Database != "" {
		cfg.JournalPath = opts.Database
	}
	if opts.TickInterval > 0 {
		cfg.TickInterval = opts.TickInterval
	}

	tokens := opts.TokenGenerator
	if tokens == nil {
		tokens = engine.UUIDv7Generator{}
	}
	sessionOpts := []engine.SessionOption{engine.WithTokenGenerator(tokens)}

	if cfg.JournalPath != "" {
		slog.Info("opening journal", "path", cfg.JournalPath)
		st, err := store.Open(cfg.JournalPath)
		if err != nil {
			return WrapExitError(ExitCommandError, "failed to open database", err)
		}
		defer func() {
			if closeErr := st.Close(); closeErr != nil {
				slog.Error("error closing database", "error", closeErr)
			}
		}()
		sessionOpts = append(sessionOpts, engine.WithJournal(st))
	}

	items := mmoitems.NewResolver()
	items.ChargeCounterDisabled = cfg.ChargeCounterDisabled

	out := newLineWriter(cmd.OutOrStdout())
	host := newStreamHost(out)
	session := engine.NewSession(cfg, items, sessionOpts...)
	eng := engine.New(session, host, engine.WithTickInterval(cfg.TickInterval))

	// Use command's context if available (for testing), otherwise create one
	parentCtx := cmd.Context()
	if parentCtx == nil {
		parentCtx = context.Background()
	}
	ctx, cancel := context.WithCancel(parentCtx)
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	go func() {
		select {
		case sig := <-sigChan:
			slog.Info("received signal, shutting down", "signal", sig)
			cancel()
		case <-ctx.Done():
		}
	}()

	go func() {
		if err := readHostEvents(ctx, cmd.InOrStdin(), eng, host, items, out); err != nil {
			slog.Error("reading host events", "error", err)
		}
		eng.Stop()
	}()

	if err := eng.Run(ctx); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
		return WrapExitError(ExitFailure, "engine error", err)
	}

	state := session.Snapshot()
	slog.Info("engine stopped", "session", state.Token, "tick", state.Tick)

	if opts.Format == "json" {
		return out.write(map[string]any{"type": "summary", "state": state})
	}
	fmt.Fprintf(cmd.OutOrStdout(), "session %s stopped at tick %d with %d active cooldown(s)\n",
		state.Token, state.Tick, len(state.Cooldowns))
	return nil
}

// readHostEvents applies input lines until EOF or ctx is done.
// Malformed lines are logged and skipped.
func readHostEvents(ctx context.Context, r io.Reader, eng *engine.Engine, host *streamHost, items *mmoitems.Resolver, out *lineWriter) error {
	scanner := bufio.NewScanner(r)
	line := 0
	for scanner.Scan() {
		line++
		if ctx.Err() != nil {
			return nil
		}
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}

		var ev hostEvent
		if err := json.Unmarshal(raw, &ev); err != nil {
			slog.Warn("skipping malformed event", "line", line, "error", err)
			continue
		}

		if err := applyHostEvent(ctx, ev, eng, host, items, out); err != nil {
			slog.Warn("skipping event", "line", line, "type", ev.Type, "error", err)
		}
	}
	return scanner.Err()
}

func applyHostEvent(ctx context.Context, ev hostEvent, eng *engine.Engine, host *streamHost, items *mmoitems.Resolver, out *lineWriter) error {
	queued, ok, err := ev.toEngineEvent()
	if err != nil {
		return err
	}
	if ok {
		if !eng.Enqueue(queued) {
			return fmt.Errorf("engine stopped")
		}
		return nil
	}

	session := eng.Session()
	switch ev.Type {
	case "latency":
		host.setLatency(ev.LatencyMs)
	case "world":
		if ev.InWorld == nil {
			return fmt.Errorf("missing in_world")
		}
		host.setInWorld(*ev.InWorld)
	case "channel":
		if ev.Up == nil {
			return fmt.Errorf("missing up")
		}
		host.setChannelUp(*ev.Up)
	case "set_global":
		session.SetGlobal(ev.Ticks)
	case "set_enabled":
		if ev.Enabled == nil {
			return fmt.Errorf("missing enabled")
		}
		session.SetEnabled(*ev.Enabled)
	case "progress":
		return out.write(progressLine{
			Type:    "progress",
			Ability: ev.Ability,
			Value:   session.OverlayProgress(ev.Ability, 0),
			Tick:    session.CurrentTick(),
		})
	case "place":
		return out.write(placeLine{
			Type:    "place",
			Item:    ev.Item.ID,
			Allowed: mmoitems.InteractionAllowed(ev.Item, ev.BlockEntity, ev.Sneaking),
		})
	case "charge_label":
		label, shown := items.ChargeLabel(ev.Item, ev.Label)
		return out.write(chargeLabelLine{
			Type:  "charge_label",
			Item:  ev.Item.ID,
			Label: label,
			Shown: shown,
		})
	case "wait":
		select {
		case <-time.After(time.Duration(ev.Ms) * time.Millisecond):
		case <-ctx.Done():
		}
	}
	return nil
}
