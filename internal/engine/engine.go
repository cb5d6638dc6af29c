package engine

import (
	"context"
	"log/slog"
	"time"
)

// DefaultTickInterval is one game tick at 20 ticks per second.
const DefaultTickInterval = 50 * time.Millisecond

// Host is the game client as seen by the Engine, polled once per tick.
type Host interface {
	// InWorld reports whether a player is present. Ticks outside a world
	// only advance the clock.
	InWorld() bool

	// Channel returns the connection probes are sent on, or nil when there
	// is none. Return an untyped nil, not a nil pointer.
	Channel() Channel

	// LatencyMs returns the measured round trip to the server.
	LatencyMs() int64
}

// Engine is an optional single-writer driver for a Session.
//
// Hosts that cannot call Session methods from their own threads post Events
// instead; Run applies them in FIFO order and ticks the session on a timer.
//
// Thread-safety model:
//   - Enqueue(): safe from any goroutine
//   - Run(): must be called from exactly one goroutine
//   - Step(): for tests and hosts with their own frame loop; not concurrently with Run
type Engine struct {
	session  *Session
	host     Host
	queue    *eventQueue
	interval time.Duration
}

// EngineOption allows configuration of engine parameters.
type EngineOption func(*Engine)

// WithTickInterval sets the wall time between ticks.
//
// Default: 50ms (DefaultTickInterval)
func WithTickInterval(d time.Duration) EngineOption {
	return func(e *Engine) {
		if d > 0 {
			e.interval = d
		}
	}
}

// New creates an Engine driving session with host.
func New(session *Session, host Host, opts ...EngineOption) *Engine {
	e := &Engine{
		session:  session,
		host:     host,
		queue:    newEventQueue(),
		interval: DefaultTickInterval,
	}

	for _, opt := range opts {
		opt(e)
	}

	return e
}

// Session returns the driven session, for render queries.
func (e *Engine) Session() *Session {
	return e.session
}

// Enqueue submits an event for processing by the Run loop.
// Thread-safe: may be called from any goroutine.
//
// Returns false if the engine has been stopped.
func (e *Engine) Enqueue(ev Event) bool {
	return e.queue.Enqueue(ev)
}

// Run ticks the session every interval and applies queued events as they
// arrive. Blocks until ctx is cancelled or Stop is called.
//
// ERROR HANDLING: nothing here fails. Rejected correlations and failed
// sends are logged by the Session and the loop continues.
func (e *Engine) Run(ctx context.Context) error {
	slog.Info("engine starting",
		"session", e.session.Token(),
		"tick_interval", e.interval,
	)

	ticker := time.NewTicker(e.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("engine stopping: context cancelled")
			e.queue.Close()
			return ctx.Err()

		case <-ticker.C:
			e.Step()

		case _, ok := <-e.queue.Wait():
			e.processPending()
			if !ok {
				// Signal channel closes when the queue is closed.
				slog.Info("engine stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop gracefully shuts down the engine.
// Closes the event queue, which will cause Run() to return.
func (e *Engine) Stop() {
	e.queue.Close()
}

// Step applies every queued event, then advances the session by one tick.
func (e *Engine) Step() TickResult {
	e.processPending()
	return e.session.Tick(e.host.InWorld(), e.host.Channel())
}

// processPending applies queued events in FIFO order.
func (e *Engine) processPending() {
	for {
		ev, ok := e.queue.TryDequeue()
		if !ok {
			return
		}
		e.processEvent(ev)
	}
}

// processEvent routes an event to the matching Session hook.
func (e *Engine) processEvent(ev Event) {
	switch ev.Type {
	case EventItemUse:
		e.session.OnItemUse(ev.Use)
	case EventChat:
		e.session.OnChatMessage(ev.Message, e.host.LatencyMs())
	case EventJoin:
		e.session.OnJoin()
	case EventDisconnect:
		e.session.OnDisconnect()
	default:
		slog.Warn("unknown event type", "type", int(ev.Type))
	}
}
