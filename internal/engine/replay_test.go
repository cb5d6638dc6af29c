package engine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hotbar/internal/ir"
)

// recordSession drives a representative session and returns its journal.
func recordSession(t *testing.T) *fixture {
	t.Helper()
	f := newFixture(t, testConfig())

	f.use("frost_staff")
	f.tick()
	f.tick()
	f.wall.Advance(120)
	f.session.OnChatMessage("[CD] 2.0s", 120)
	f.session.OnChatMessage("[CD] 9.0s", 120)
	f.session.OnChatMessage("[CD] ???", 120)
	f.session.SetGlobal(10)
	f.session.OnItemUse(ItemUse{Item: ir.ItemStack{ID: "heal_wand", Count: 1, Tags: ir.Tags{"charges": 3}}, Hand: ir.HandOff})
	f.session.Tick(true, nil)
	f.session.Tick(false, nil)
	f.use("fire_staff")
	f.session.SetEnabled(false)
	f.use("fire_staff")
	for range 45 {
		f.tick()
	}
	f.session.OnDisconnect()
	return f
}

func outputKinds(entries []ir.Entry) []ir.EntryKind {
	var out []ir.EntryKind
	for _, e := range entries {
		if !e.Kind.IsInput() {
			out = append(out, e.Kind)
		}
	}
	return out
}

func TestReplay_ReproducesRecording(t *testing.T) {
	f := recordSession(t)
	entries := f.journal.Session("s-1")

	assert.Equal(t, []ir.EntryKind{
		ir.KindProbeSent,
		ir.KindCooldownSet,
		ir.KindCooldownSet,
		ir.KindCorrelationRejected,
		ir.KindProbesDropped,
		ir.KindProbeSent,
	}, outputKinds(entries))

	res, err := Replay(entries, testMeta)
	require.NoError(t, err)
	assert.True(t, res.OK(), "mismatches: %+v", res.Mismatches)
	assert.Equal(t, "s-1", res.Session)
	assert.Equal(t, 6, res.Outputs)
	assert.Equal(t, len(entries)-1-6, res.Inputs)
}

func TestReplay_DetectsDivergence(t *testing.T) {
	entries := recordSession(t).journal.Session("s-1")

	for i := range entries {
		if entries[i].Kind == ir.KindCooldownSet {
			data := make(map[string]any, len(entries[i].Data))
			for k, v := range entries[i].Data {
				data[k] = v
			}
			data["ticks"] = int64(41)
			entries[i].Data = data
			break
		}
	}

	res, err := Replay(entries, testMeta)
	require.NoError(t, err)
	require.False(t, res.OK())
	require.Len(t, res.Mismatches, 1)
	assert.Equal(t, 1, res.Mismatches[0].Index)
	assert.Equal(t, int64(41), res.Mismatches[0].Recorded.Data["ticks"])
	assert.Equal(t, int64(40), res.Mismatches[0].Replayed.Data["ticks"])
}

func TestReplay_DifferentMetadataDiverges(t *testing.T) {
	entries := recordSession(t).journal.Session("s-1")

	res, err := Replay(entries, abilityMeta{})
	require.NoError(t, err)
	assert.False(t, res.OK(), "without abilities no probe is scheduled")
}

func TestReplay_MissingOutput(t *testing.T) {
	entries := recordSession(t).journal.Session("s-1")

	var trimmed []ir.Entry
	dropped := false
	for _, e := range entries {
		if !dropped && e.Kind == ir.KindProbesDropped {
			dropped = true
			continue
		}
		trimmed = append(trimmed, e)
	}

	res, err := Replay(trimmed, testMeta)
	require.NoError(t, err)
	require.NotEmpty(t, res.Mismatches)
	assert.Equal(t, ir.KindProbesDropped, res.Mismatches[0].Replayed.Kind)
}

func TestReplay_DecodedData(t *testing.T) {
	entries := recordSession(t).journal.Session("s-1")

	// Round-trip every entry's data through canonical JSON, as the store does.
	for i := range entries {
		raw, err := ir.MarshalCanonical(entries[i].Data)
		require.NoError(t, err)
		decoded, err := ir.DecodeData(raw)
		require.NoError(t, err)
		entries[i].Data = decoded
	}

	res, err := Replay(entries, testMeta)
	require.NoError(t, err)
	assert.True(t, res.OK(), "mismatches: %+v", res.Mismatches)
}

func TestReplay_Errors(t *testing.T) {
	_, err := Replay(nil, testMeta)
	assert.Error(t, err)

	entries := recordSession(t).journal.Session("s-1")

	_, err = Replay(entries[1:], testMeta)
	assert.ErrorContains(t, err, "first entry")

	noConfig := append([]ir.Entry(nil), entries...)
	noConfig[0].Data = map[string]any{}
	_, err = Replay(noConfig, testMeta)
	assert.ErrorContains(t, err, "no config")

	mixed := append([]ir.Entry(nil), entries...)
	mixed[3].SessionToken = "other"
	_, err = Replay(mixed, testMeta)
	assert.ErrorContains(t, err, "belongs to session")
}
