package harness

import (
	"github.com/roach88/hotbar/internal/engine"
	"github.com/roach88/hotbar/internal/ir"
)

// TraceEvent is one journal entry of a scenario run.
type TraceEvent struct {
	Session string         `json:"session"`
	Seq     int64          `json:"seq"`
	Kind    string         `json:"kind"`
	Tick    int64          `json:"tick"`
	WallMs  int64          `json:"wall_ms"`
	Data    map[string]any `json:"data,omitempty"`
}

// IsDecision reports whether the event records an engine decision rather
// than a host input.
func (e TraceEvent) IsDecision() bool {
	return !ir.EntryKind(e.Kind).IsInput()
}

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every assertion held.
	Pass bool `json:"pass"`

	// Trace contains every journal entry in write order, across sessions.
	Trace []TraceEvent `json:"trace"`

	// Errors contains assertion failure messages.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`

	// State is the session after the last step.
	State engine.State `json:"state"`

	// ProbesSent counts probes that reached the channel.
	ProbesSent int `json:"probes_sent"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEvent{},
		Errors: []string{},
	}
}

// AddError adds an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddEntry appends a journal entry to the trace.
func (r *Result) AddEntry(e ir.Entry) {
	r.Trace = append(r.Trace, TraceEvent{
		Session: e.SessionToken,
		Seq:     e.Seq,
		Kind:    string(e.Kind),
		Tick:    e.Tick,
		WallMs:  e.WallMs,
		Data:    e.Data,
	})
}

// Decisions returns the decision events of the trace.
func (r *Result) Decisions() []TraceEvent {
	var out []TraceEvent
	for _, e := range r.Trace {
		if e.IsDecision() {
			out = append(out, e)
		}
	}
	return out
}
