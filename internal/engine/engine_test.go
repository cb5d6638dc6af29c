package engine

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hotbar/internal/ir"
	"github.com/roach88/hotbar/internal/testutil"
)

// fakeHost is a Host with settable answers.
type fakeHost struct {
	inWorld atomic.Bool
	latency atomic.Int64
	ch      Channel
}

func newFakeHost(ch Channel) *fakeHost {
	h := &fakeHost{ch: ch}
	h.inWorld.Store(true)
	return h
}

func (h *fakeHost) InWorld() bool    { return h.inWorld.Load() }
func (h *fakeHost) Channel() Channel { return h.ch }
func (h *fakeHost) LatencyMs() int64 { return h.latency.Load() }

func newTestEngine(t *testing.T, host Host, opts ...EngineOption) (*Engine, *testutil.ManualWallClock) {
	t.Helper()
	wall := testutil.NewManualWallClock(0)
	s := NewSession(testConfig(), testMeta,
		WithWallClock(wall),
		WithTokenGenerator(testutil.NewSequentialTokenGenerator("e")),
	)
	return New(s, host, opts...), wall
}

func useEvent(id string) Event {
	return Event{Type: EventItemUse, Use: ItemUse{Item: ir.ItemStack{ID: id, Count: 1}}}
}

func TestEngine_StepAppliesEventsThenTicks(t *testing.T) {
	ch := testutil.NewRecordingChannel()
	host := newFakeHost(ch)
	e, _ := newTestEngine(t, host)

	require.True(t, e.Enqueue(useEvent("frost_staff")))

	res := e.Step()
	assert.Equal(t, int64(1), res.Tick)
	require.Len(t, e.Session().Snapshot().Pending, 1, "use applied before the tick")
	assert.Equal(t, int64(0), e.Session().Snapshot().Pending[0].ScheduledTick)

	e.Step()
	assert.Equal(t, 1, ch.Len())
}

func TestEngine_ChatUsesHostLatency(t *testing.T) {
	host := newFakeHost(testutil.NewRecordingChannel())
	host.latency.Store(1_200)
	e, wall := newTestEngine(t, host)

	e.Enqueue(useEvent("frost_staff"))
	e.Step()
	wall.Advance(1_200)
	e.Enqueue(Event{Type: EventChat, Message: "[CD] 2.0s"})
	e.Step()

	cooldowns := e.Session().Snapshot().Cooldowns
	require.Contains(t, cooldowns, "FROSTBOLT")
	assert.Equal(t, int64(60), cooldowns["FROSTBOLT"].Duration(), "40 ticks plus one second of latency")
}

func TestEngine_JoinAndDisconnectEvents(t *testing.T) {
	e, _ := newTestEngine(t, newFakeHost(nil))

	e.Enqueue(useEvent("frost_staff"))
	e.Enqueue(Event{Type: EventDisconnect})
	e.Step()
	assert.Empty(t, e.Session().Snapshot().Pending)
	assert.Equal(t, "e-2", e.Session().Token())

	e.Enqueue(Event{Type: EventJoin})
	e.Enqueue(Event{Type: EventType(42)})
	e.Step()
	assert.Equal(t, "e-3", e.Session().Token())
	assert.Equal(t, int64(1), e.Session().CurrentTick())
}

func TestEngine_NilChannelDropsProbes(t *testing.T) {
	host := newFakeHost(nil)
	e, _ := newTestEngine(t, host)

	e.Enqueue(useEvent("frost_staff"))
	e.Enqueue(useEvent("fire_staff"))
	res := e.Step()

	assert.Equal(t, 2, res.Drain.Dropped)
}

func TestEngine_OutOfWorld(t *testing.T) {
	host := newFakeHost(testutil.NewRecordingChannel())
	host.inWorld.Store(false)
	e, _ := newTestEngine(t, host)

	e.Enqueue(useEvent("frost_staff"))
	for range 3 {
		res := e.Step()
		assert.False(t, res.InWorld)
	}
	assert.Len(t, e.Session().Snapshot().Pending, 1)
	assert.Equal(t, int64(3), e.Session().CurrentTick())
}

func TestEngine_RunTicksUntilCancelled(t *testing.T) {
	ch := testutil.NewRecordingChannel()
	e, _ := newTestEngine(t, newFakeHost(ch), WithTickInterval(time.Millisecond))

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- e.Run(ctx) }()

	e.Enqueue(useEvent("frost_staff"))

	assert.Eventually(t, func() bool {
		return ch.Len() == 1 && e.Session().CurrentTick() >= 5
	}, 2*time.Second, time.Millisecond)

	cancel()
	select {
	case err := <-done:
		assert.True(t, errors.Is(err, context.Canceled))
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}

	assert.False(t, e.Enqueue(useEvent("frost_staff")), "queue closed after cancel")
}

func TestEngine_StopEndsRun(t *testing.T) {
	e, _ := newTestEngine(t, newFakeHost(nil), WithTickInterval(time.Hour))

	done := make(chan error, 1)
	go func() { done <- e.Run(context.Background()) }()

	e.Enqueue(Event{Type: EventJoin})
	e.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("Run did not return after Stop")
	}
	assert.Equal(t, int64(0), e.Session().CurrentTick(), "no tick fired with an hour interval")
}

func TestEngine_WithTickIntervalIgnoresNonPositive(t *testing.T) {
	e, _ := newTestEngine(t, newFakeHost(nil), WithTickInterval(0))
	assert.Equal(t, DefaultTickInterval, e.interval)
}
