package harness

import (
	"testing"

	"github.com/sebdah/goldie/v2"

	"github.com/roach88/hotbar/internal/ir"
)

// TraceSnapshot captures the decisions of a scenario run.
// Inputs are left out: they restate the scenario file.
type TraceSnapshot struct {
	ScenarioName string       `json:"scenario_name"`
	Decisions    []TraceEvent `json:"decisions"`
}

// toCanonicalMap converts a TraceSnapshot to a map[string]any for canonical JSON serialization.
// Seq and wall time are omitted so that adding an input kind does not
// rewrite every golden file.
func (s *TraceSnapshot) toCanonicalMap() map[string]any {
	decisions := make([]any, len(s.Decisions))
	for i, event := range s.Decisions {
		eventMap := map[string]any{
			"session": event.Session,
			"kind":    event.Kind,
			"tick":    event.Tick,
		}
		if event.Data != nil {
			eventMap["data"] = event.Data
		}
		decisions[i] = eventMap
	}

	return map[string]any{
		"scenario_name": s.ScenarioName,
		"decisions":     decisions,
	}
}

// MarshalSnapshot renders the decisions of result as canonical JSON.
func MarshalSnapshot(name string, result *Result) ([]byte, error) {
	snapshot := TraceSnapshot{
		ScenarioName: name,
		Decisions:    result.Decisions(),
	}
	return ir.MarshalCanonical(snapshot.toCanonicalMap())
}

// RunWithGolden executes a scenario and compares its decisions against a
// golden file stored in testdata/golden/{scenario.Name}.golden
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Returns error if scenario execution fails.
// Test failure (via goldie) occurs if the trace doesn't match the golden file.
func RunWithGolden(t *testing.T, scenario *Scenario) (*Result, error) {
	t.Helper()

	result, err := Run(scenario)
	if err != nil {
		return nil, err
	}

	if err := AssertGolden(t, scenario.Name, result); err != nil {
		return nil, err
	}
	return result, nil
}

// AssertGolden compares the given result's decisions against a golden file.
// This is useful when you've already run a scenario and want to compare
// the result against a golden file without re-running.
func AssertGolden(t *testing.T, scenarioName string, result *Result) error {
	t.Helper()

	traceJSON, err := MarshalSnapshot(scenarioName, result)
	if err != nil {
		return err
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenarioName, traceJSON)

	return nil
}
