package harness

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/roach88/hotbar/internal/ir"
)

// Scenario is a scripted play session.
// Steps drive one engine.Session in order; assertions check its state after
// the last step.
type Scenario struct {
	// Name uniquely identifies this scenario and names its golden file.
	Name string `yaml:"name"`

	// Description explains what this scenario validates.
	Description string `yaml:"description"`

	// Session is the prefix of the generated session tokens
	// ("<session>-1", "<session>-2", ...). Defaults to "scenario".
	Session string `yaml:"session,omitempty"`

	// Config overrides configuration fields, using the same names as a
	// config file (e.g. probe_delay_ticks, usage_max_age).
	Config map[string]any `yaml:"config,omitempty"`

	// StartMs is the wall clock when the session opens.
	StartMs int64 `yaml:"start_ms,omitempty"`

	// Items names the item stacks that use steps refer to.
	Items map[string]ir.ItemStack `yaml:"items"`

	// Steps are applied in order.
	Steps []Step `yaml:"steps"`

	// Assertions are evaluated after the last step.
	Assertions []Assertion `yaml:"assertions"`
}

// Step is one host event. Exactly one action field is set.
type Step struct {
	// Tick runs N simulation frames, advancing the wall clock by the
	// configured tick interval before each.
	Tick int `yaml:"tick,omitempty"`

	// Use names an item from Scenario.Items to use.
	Use       string `yaml:"use,omitempty"`
	Hand      string `yaml:"hand,omitempty"`
	Spectator bool   `yaml:"spectator,omitempty"`

	// Chat delivers a server chat message with the current latency.
	Chat *string `yaml:"chat,omitempty"`

	// AdvanceMs moves the wall clock without ticking.
	AdvanceMs int64 `yaml:"advance_ms,omitempty"`

	// LatencyMs sets the round-trip latency reported for later chat steps.
	LatencyMs *int64 `yaml:"latency_ms,omitempty"`

	Join        bool `yaml:"join,omitempty"`
	Disconnect  bool `yaml:"disconnect,omitempty"`
	ChannelDown bool `yaml:"channel_down,omitempty"`
	ChannelUp   bool `yaml:"channel_up,omitempty"`

	// InWorld toggles whether ticks sweep and drain.
	InWorld *bool `yaml:"in_world,omitempty"`

	// SetGlobal starts a global cooldown of N ticks.
	SetGlobal *int64 `yaml:"set_global,omitempty"`

	// SetEnabled toggles the feature.
	SetEnabled *bool `yaml:"set_enabled,omitempty"`

	// Assert checks session state at this point of the script.
	Assert *Assertion `yaml:"assert,omitempty"`
}

// Assertion checks session state.
type Assertion struct {
	// Type specifies the assertion type:
	// - "progress": overlay progress of Ability equals Value
	// - "cooldown": Ability's window is [Start, End]
	// - "no_cooldown": Ability has no window
	// - "probes_sent": Count probes reached the channel so far
	// - "pending_probes": Count probes are waiting
	// - "tick": the session clock equals Tick
	Type string `yaml:"type"`

	Ability string `yaml:"ability,omitempty"`

	// Partial is the render partial tick for progress (0 when omitted).
	Partial float64 `yaml:"partial,omitempty"`

	// Value is the expected progress (used by progress).
	Value *float64 `yaml:"value,omitempty"`

	// Start and End bound the expected window (used by cooldown).
	Start *int64 `yaml:"start,omitempty"`
	End   *int64 `yaml:"end,omitempty"`

	// Count is the expected number of probes.
	Count *int `yaml:"count,omitempty"`

	// Tick is the expected session clock (used by tick).
	Tick *int64 `yaml:"tick,omitempty"`
}

// Assertion type constants.
const (
	AssertProgress      = "progress"
	AssertCooldown      = "cooldown"
	AssertNoCooldown    = "no_cooldown"
	AssertProbesSent    = "probes_sent"
	AssertPendingProbes = "pending_probes"
	AssertTick          = "tick"
)

// LoadScenario reads and parses a scenario YAML file.
// Returns an error if the file doesn't exist, is malformed,
// contains unknown fields (typos), or is missing required fields.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read scenario file: %w", err)
	}
	return ParseScenario(data)
}

// ParseScenario parses scenario YAML.
func ParseScenario(data []byte) (*Scenario, error) {
	// Strict field validation catches typos like "assertion:" vs "assertions:".
	var scenario Scenario
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&scenario); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := validateScenario(&scenario); err != nil {
		return nil, fmt.Errorf("invalid scenario: %w", err)
	}

	return &scenario, nil
}

// validateScenario checks that required fields are present and valid.
func validateScenario(s *Scenario) error {
	if s.Name == "" {
		return fmt.Errorf("name is required")
	}

	if s.Description == "" {
		return fmt.Errorf("description is required")
	}

	if len(s.Steps) == 0 {
		return fmt.Errorf("steps list is required and must be non-empty")
	}

	for name, item := range s.Items {
		if item.ID == "" {
			return fmt.Errorf("items[%s]: id is required", name)
		}
	}

	for i, step := range s.Steps {
		if err := validateStep(i, &step, s.Items); err != nil {
			return err
		}
	}

	for i, assertion := range s.Assertions {
		if err := validateAssertion(fmt.Sprintf("assertions[%d]", i), &assertion); err != nil {
			return err
		}
	}

	return nil
}

// validateStep checks that a step sets exactly one action.
func validateStep(index int, st *Step, items map[string]ir.ItemStack) error {
	actions := 0
	for _, set := range []bool{
		st.Tick != 0,
		st.Use != "",
		st.Chat != nil,
		st.AdvanceMs != 0,
		st.LatencyMs != nil,
		st.Join,
		st.Disconnect,
		st.ChannelDown,
		st.ChannelUp,
		st.InWorld != nil,
		st.SetGlobal != nil,
		st.SetEnabled != nil,
		st.Assert != nil,
	} {
		if set {
			actions++
		}
	}

	switch {
	case actions == 0:
		return fmt.Errorf("steps[%d]: no action", index)
	case actions > 1:
		return fmt.Errorf("steps[%d]: %d actions, want exactly one", index, actions)
	case st.Tick < 0:
		return fmt.Errorf("steps[%d]: tick must be positive", index)
	case st.AdvanceMs < 0:
		return fmt.Errorf("steps[%d]: advance_ms must not be negative", index)
	}

	if st.Use != "" {
		if _, ok := items[st.Use]; !ok {
			return fmt.Errorf("steps[%d]: unknown item %q", index, st.Use)
		}
		if _, err := ir.ParseHand(st.Hand); err != nil {
			return fmt.Errorf("steps[%d]: %w", index, err)
		}
	} else if st.Hand != "" || st.Spectator {
		return fmt.Errorf("steps[%d]: hand and spectator only apply to use", index)
	}

	if st.Assert != nil {
		return validateAssertion(fmt.Sprintf("steps[%d].assert", index), st.Assert)
	}
	return nil
}

// validateAssertion validates a single assertion based on its type.
func validateAssertion(where string, a *Assertion) error {
	if a.Type == "" {
		return fmt.Errorf("%s: type is required", where)
	}

	switch a.Type {
	case AssertProgress:
		if a.Ability == "" || a.Value == nil {
			return fmt.Errorf("%s: ability and value are required for progress", where)
		}
	case AssertCooldown:
		if a.Ability == "" || a.Start == nil || a.End == nil {
			return fmt.Errorf("%s: ability, start and end are required for cooldown", where)
		}
	case AssertNoCooldown:
		if a.Ability == "" {
			return fmt.Errorf("%s: ability is required for no_cooldown", where)
		}
	case AssertProbesSent, AssertPendingProbes:
		if a.Count == nil || *a.Count < 0 {
			return fmt.Errorf("%s: non-negative count is required for %s", where, a.Type)
		}
	case AssertTick:
		if a.Tick == nil {
			return fmt.Errorf("%s: tick is required", where)
		}
	default:
		return fmt.Errorf("%s: unknown assertion type %q", where, a.Type)
	}

	return nil
}
