package harness

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const minimalScenario = `
name: minimal
description: "One tick"
steps:
  - tick: 1
`

func TestParseScenario_Minimal(t *testing.T) {
	s, err := ParseScenario([]byte(minimalScenario))
	require.NoError(t, err)

	assert.Equal(t, "minimal", s.Name)
	require.Len(t, s.Steps, 1)
	assert.Equal(t, 1, s.Steps[0].Tick)
	assert.Empty(t, s.Assertions)
}

func TestParseScenario_FullStepSet(t *testing.T) {
	s, err := ParseScenario([]byte(`
name: everything
description: "Every step kind"
session: run
start_ms: 5000
config:
  probe_delay_ticks: 3
items:
  staff:
    id: minecraft:stick
    count: 1
    tags:
      MMOITEMS_ABILITY: '[{"Id":"BLINK"}]'
steps:
  - use: staff
    hand: off
    spectator: true
  - tick: 2
  - chat: "[CD] 1s"
  - advance_ms: 30
  - latency_ms: 0
  - join: true
  - disconnect: true
  - channel_down: true
  - channel_up: true
  - in_world: false
  - set_global: 10
  - set_enabled: false
  - assert: { type: tick, tick: 0 }
`))
	require.NoError(t, err)

	assert.Equal(t, "run", s.Session)
	assert.Equal(t, int64(5000), s.StartMs)
	assert.Equal(t, 3, s.Config["probe_delay_ticks"])
	assert.Equal(t, `[{"Id":"BLINK"}]`, s.Items["staff"].Tags.String("MMOITEMS_ABILITY"))
	require.Len(t, s.Steps, 13)

	assert.Equal(t, "off", s.Steps[0].Hand)
	assert.True(t, s.Steps[0].Spectator)
	require.NotNil(t, s.Steps[4].LatencyMs)
	assert.Equal(t, int64(0), *s.Steps[4].LatencyMs)
	require.NotNil(t, s.Steps[9].InWorld)
	assert.False(t, *s.Steps[9].InWorld)
	require.NotNil(t, s.Steps[12].Assert)
	assert.Equal(t, AssertTick, s.Steps[12].Assert.Type)
}

func TestParseScenario_Errors(t *testing.T) {
	tests := []struct {
		name    string
		yaml    string
		wantErr string
	}{
		{
			name:    "unknown field",
			yaml:    "name: x\ndescription: y\nstep:\n  - tick: 1\n",
			wantErr: "field step not found",
		},
		{
			name:    "missing name",
			yaml:    "description: y\nsteps:\n  - tick: 1\n",
			wantErr: "name is required",
		},
		{
			name:    "missing description",
			yaml:    "name: x\nsteps:\n  - tick: 1\n",
			wantErr: "description is required",
		},
		{
			name:    "no steps",
			yaml:    "name: x\ndescription: y\n",
			wantErr: "steps list is required",
		},
		{
			name:    "empty step",
			yaml:    "name: x\ndescription: y\nsteps:\n  - {}\n",
			wantErr: "steps[0]: no action",
		},
		{
			name:    "two actions",
			yaml:    "name: x\ndescription: y\nsteps:\n  - tick: 1\n    join: true\n",
			wantErr: "steps[0]: 2 actions",
		},
		{
			name:    "negative tick",
			yaml:    "name: x\ndescription: y\nsteps:\n  - tick: -1\n",
			wantErr: "tick must be positive",
		},
		{
			name:    "unknown item",
			yaml:    "name: x\ndescription: y\nsteps:\n  - use: wand\n",
			wantErr: `unknown item "wand"`,
		},
		{
			name:    "bad hand",
			yaml:    "name: x\ndescription: y\nitems:\n  wand: { id: minecraft:stick, count: 1 }\nsteps:\n  - use: wand\n    hand: left\n",
			wantErr: `unknown hand "left"`,
		},
		{
			name:    "hand without use",
			yaml:    "name: x\ndescription: y\nsteps:\n  - tick: 1\n    hand: off\n",
			wantErr: "only apply to use",
		},
		{
			name:    "item without id",
			yaml:    "name: x\ndescription: y\nitems:\n  wand: { count: 1 }\nsteps:\n  - tick: 1\n",
			wantErr: "items[wand]: id is required",
		},
		{
			name:    "unknown assertion",
			yaml:    "name: x\ndescription: y\nsteps:\n  - tick: 1\nassertions:\n  - type: vibes\n",
			wantErr: `unknown assertion type "vibes"`,
		},
		{
			name:    "progress without value",
			yaml:    "name: x\ndescription: y\nsteps:\n  - tick: 1\nassertions:\n  - type: progress\n    ability: A\n",
			wantErr: "ability and value are required",
		},
		{
			name:    "cooldown without end",
			yaml:    "name: x\ndescription: y\nsteps:\n  - tick: 1\nassertions:\n  - type: cooldown\n    ability: A\n    start: 1\n",
			wantErr: "start and end are required",
		},
		{
			name:    "negative count",
			yaml:    "name: x\ndescription: y\nsteps:\n  - tick: 1\nassertions:\n  - type: probes_sent\n    count: -1\n",
			wantErr: "non-negative count",
		},
		{
			name:    "inline assert without tick",
			yaml:    "name: x\ndescription: y\nsteps:\n  - assert: { type: tick }\n",
			wantErr: "steps[0].assert: tick is required",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseScenario([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestLoadScenario_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "minimal.yaml")
	require.NoError(t, os.WriteFile(path, []byte(minimalScenario), 0o644))

	s, err := LoadScenario(path)
	require.NoError(t, err)
	assert.Equal(t, "minimal", s.Name)
}

func TestLoadScenario_Missing(t *testing.T) {
	_, err := LoadScenario(filepath.Join(t.TempDir(), "nope.yaml"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to read scenario file")
}
