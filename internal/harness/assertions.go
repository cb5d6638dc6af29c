package harness

import (
	"fmt"
	"math"
	"strings"

	"github.com/roach88/hotbar/internal/engine"
	"github.com/roach88/hotbar/internal/testutil"
)

// ProgressTolerance is the allowed error of a progress assertion.
const ProgressTolerance = 1e-6

// AssertionContext is what assertions inspect.
type AssertionContext struct {
	Session *engine.Session
	Channel *testutil.RecordingChannel
	Journal *engine.MemoryJournal
}

// decisions returns the decision events journaled so far.
func (c *AssertionContext) decisions() []TraceEvent {
	if c.Journal == nil {
		return nil
	}
	r := NewResult()
	for _, e := range c.Journal.Entries() {
		r.AddEntry(e)
	}
	return r.Decisions()
}

// AssertionError is returned when an assertion fails.
// It includes detailed context to help debug the failure.
type AssertionError struct {
	Type     string       // Assertion type for categorization
	Expected string       // Human-readable expected outcome
	Actual   string       // Human-readable actual outcome
	Trace    []TraceEvent // Decisions made so far
}

// Error implements the error interface.
func (e *AssertionError) Error() string {
	var buf strings.Builder

	fmt.Fprintf(&buf, "Assertion failed: %s\n", e.Type)
	fmt.Fprintf(&buf, "  Expected: %s\n", e.Expected)
	fmt.Fprintf(&buf, "  Actual: %s\n", e.Actual)

	if len(e.Trace) > 0 {
		fmt.Fprintf(&buf, "\nDecisions:\n")
		for i, event := range e.Trace {
			fmt.Fprintf(&buf, "  [%d] %s tick=%d %s %v\n", i+1, event.Session, event.Tick, event.Kind, event.Data)
		}
	}

	return buf.String()
}

// EvaluateAssertions checks every assertion and returns the failure
// messages. An empty slice means all passed.
func EvaluateAssertions(actx *AssertionContext, assertions []Assertion) []string {
	var failures []string
	for _, a := range assertions {
		if err := evaluate(actx, a); err != nil {
			failures = append(failures, err.Error())
		}
	}
	return failures
}

func evaluate(actx *AssertionContext, a Assertion) error {
	switch a.Type {
	case AssertProgress:
		return assertProgress(actx, a)
	case AssertCooldown:
		return assertCooldown(actx, a)
	case AssertNoCooldown:
		return assertNoCooldown(actx, a)
	case AssertProbesSent:
		return assertCount(actx, a, actx.Channel.Len())
	case AssertPendingProbes:
		return assertCount(actx, a, len(actx.Session.Snapshot().Pending))
	case AssertTick:
		return assertTick(actx, a)
	default:
		return fmt.Errorf("unknown assertion type %q", a.Type)
	}
}

// assertProgress compares the overlay progress of an ability.
func assertProgress(actx *AssertionContext, a Assertion) error {
	got := actx.Session.OverlayProgress(a.Ability, a.Partial)
	if math.Abs(got-*a.Value) > ProgressTolerance {
		return &AssertionError{
			Type:     AssertProgress,
			Expected: fmt.Sprintf("%s progress %.4f at tick %d+%.2f", a.Ability, *a.Value, actx.Session.CurrentTick(), a.Partial),
			Actual:   fmt.Sprintf("%.4f", got),
			Trace:    actx.decisions(),
		}
	}
	return nil
}

// assertCooldown checks the exact window of an ability.
func assertCooldown(actx *AssertionContext, a Assertion) error {
	entry, ok := actx.Session.Snapshot().Cooldowns[a.Ability]
	if !ok {
		return &AssertionError{
			Type:     AssertCooldown,
			Expected: fmt.Sprintf("%s cooling down [%d, %d]", a.Ability, *a.Start, *a.End),
			Actual:   "no cooldown",
			Trace:    actx.decisions(),
		}
	}
	if entry.StartTick != *a.Start || entry.EndTick != *a.End {
		return &AssertionError{
			Type:     AssertCooldown,
			Expected: fmt.Sprintf("%s cooling down [%d, %d]", a.Ability, *a.Start, *a.End),
			Actual:   fmt.Sprintf("[%d, %d]", entry.StartTick, entry.EndTick),
			Trace:    actx.decisions(),
		}
	}
	return nil
}

// assertNoCooldown checks that an ability has no window.
func assertNoCooldown(actx *AssertionContext, a Assertion) error {
	if entry, ok := actx.Session.Snapshot().Cooldowns[a.Ability]; ok {
		return &AssertionError{
			Type:     AssertNoCooldown,
			Expected: fmt.Sprintf("%s not cooling down", a.Ability),
			Actual:   fmt.Sprintf("[%d, %d]", entry.StartTick, entry.EndTick),
			Trace:    actx.decisions(),
		}
	}
	return nil
}

// assertCount compares a probe count.
func assertCount(actx *AssertionContext, a Assertion, got int) error {
	if got != *a.Count {
		return &AssertionError{
			Type:     a.Type,
			Expected: fmt.Sprintf("%d probes", *a.Count),
			Actual:   fmt.Sprintf("%d probes", got),
			Trace:    actx.decisions(),
		}
	}
	return nil
}

// assertTick compares the session clock.
func assertTick(actx *AssertionContext, a Assertion) error {
	if got := actx.Session.CurrentTick(); got != *a.Tick {
		return &AssertionError{
			Type:     AssertTick,
			Expected: fmt.Sprintf("tick %d", *a.Tick),
			Actual:   fmt.Sprintf("tick %d", got),
			Trace:    actx.decisions(),
		}
	}
	return nil
}
