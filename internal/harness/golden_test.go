package harness

import (
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scenarioDir holds the shared scenarios, also used by the CLI tests.
const scenarioDir = "../../testdata/scenarios"

// TestGoldenScenarios runs every checked-in scenario and compares its
// decisions with testdata/golden/<name>.golden.
func TestGoldenScenarios(t *testing.T) {
	tests := []string{
		"frostbolt",
		"disconnect_clears_probes",
		"channel_unavailable",
		"latency_and_global",
	}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			scenario, err := LoadScenario(filepath.Join(scenarioDir, name+".yaml"))
			require.NoError(t, err)
			assert.Equal(t, name, scenario.Name)

			result, err := RunWithGolden(t, scenario)
			require.NoError(t, err)
			assert.True(t, result.Pass, "errors: %v", result.Errors)
		})
	}
}

func TestMarshalSnapshot_Canonical(t *testing.T) {
	result := NewResult()
	result.Trace = []TraceEvent{
		{Session: "s-1", Seq: 1, Kind: "session_start", Data: map[string]any{"engine_version": "x"}},
		{Session: "s-1", Seq: 2, Kind: "tick", Tick: 1, Data: map[string]any{"in_world": true}},
		{Session: "s-1", Seq: 3, Kind: "probes_dropped", Tick: 1, Data: map[string]any{"count": 2}},
	}

	got, err := MarshalSnapshot("snap", result)
	require.NoError(t, err)
	assert.Equal(t,
		`{"decisions":[{"data":{"count":2},"kind":"probes_dropped","session":"s-1","tick":1}],"scenario_name":"snap"}`,
		string(got))
}

func TestMarshalSnapshot_NoDecisions(t *testing.T) {
	got, err := MarshalSnapshot("quiet", NewResult())
	require.NoError(t, err)
	assert.Equal(t, `{"decisions":[],"scenario_name":"quiet"}`, string(got))
}
