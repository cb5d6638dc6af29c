package harness

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hotbar/internal/config"
	"github.com/roach88/hotbar/internal/engine"
	"github.com/roach88/hotbar/internal/testutil"
)

func ptr[T any](v T) *T { return &v }

func TestAssertionError_Format(t *testing.T) {
	err := &AssertionError{
		Type:     AssertTick,
		Expected: "tick 3",
		Actual:   "tick 2",
		Trace: []TraceEvent{
			{Session: "s-1", Kind: "probe_sent", Tick: 2, Data: map[string]any{"hand": "main"}},
		},
	}

	msg := err.Error()
	assert.Contains(t, msg, "Assertion failed: tick")
	assert.Contains(t, msg, "Expected: tick 3")
	assert.Contains(t, msg, "Actual: tick 2")
	assert.Contains(t, msg, "[1] s-1 tick=2 probe_sent")
}

func TestAssertionError_NoTrace(t *testing.T) {
	err := &AssertionError{Type: AssertTick, Expected: "a", Actual: "b"}
	assert.NotContains(t, err.Error(), "Decisions")
}

func TestEvaluateAssertions_GlobalOverlay(t *testing.T) {
	session := engine.NewSession(config.Default(), nil,
		engine.WithWallClock(testutil.NewManualWallClock(0)),
	)
	session.SetGlobal(10)
	session.Tick(true, nil)

	actx := &AssertionContext{Session: session, Channel: testutil.NewRecordingChannel()}

	failures := EvaluateAssertions(actx, []Assertion{
		{Type: AssertProgress, Ability: "ANY", Value: ptr(0.9)},
		{Type: AssertProgress, Ability: "ANY", Partial: 0.5, Value: ptr(0.85)},
		{Type: AssertNoCooldown, Ability: "ANY"},
		{Type: AssertPendingProbes, Count: ptr(0)},
		{Type: AssertProbesSent, Count: ptr(0)},
		{Type: AssertTick, Tick: ptr(int64(1))},
	})
	assert.Empty(t, failures)

	failures = EvaluateAssertions(actx, []Assertion{
		{Type: AssertProgress, Ability: "ANY", Value: ptr(0.5)},
	})
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], "Actual: 0.9000")
}

func TestEvaluateAssertions_UnknownType(t *testing.T) {
	session := engine.NewSession(config.Default(), nil)
	failures := EvaluateAssertions(&AssertionContext{Session: session}, []Assertion{{Type: "vibes"}})
	require.Len(t, failures, 1)
	assert.Contains(t, failures[0], `unknown assertion type "vibes"`)
}
