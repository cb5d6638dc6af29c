package ir

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTagsAccessors(t *testing.T) {
	tags := Tags{
		"MMOITEMS_ABILITY": `[{"Id":"FROSTBOLT"}]`,
		"MMOITEMS_CHARGES": float64(3),
		"MMOITEMS_UNIQUE":  uint8(1),
		"Unbreakable":      true,
		"half":             2.5,
	}

	assert.Equal(t, `[{"Id":"FROSTBOLT"}]`, tags.String("MMOITEMS_ABILITY"))
	assert.Equal(t, "", tags.String("MMOITEMS_CHARGES"))
	assert.Equal(t, int64(3), tags.Int("MMOITEMS_CHARGES"))
	assert.Equal(t, int64(0), tags.Int("half"), "non-integral floats are not integers")
	assert.Equal(t, int64(0), tags.Int("missing"))
	assert.True(t, tags.Bool("Unbreakable"))
	assert.True(t, tags.Bool("MMOITEMS_UNIQUE"), "NBT booleans are bytes")
	assert.False(t, tags.Bool("missing"))
	assert.Equal(t, []string{"MMOITEMS_ABILITY", "MMOITEMS_CHARGES", "MMOITEMS_UNIQUE", "Unbreakable", "half"}, tags.Keys())
}

func TestTagsIntFromJSONNumber(t *testing.T) {
	assert.Equal(t, int64(12), Tags{"n": json.Number("12")}.Int("n"))
}

func TestItemStackCanonical(t *testing.T) {
	stack := ItemStack{
		ID:    "minecraft:stick",
		Count: 1,
		Tags:  Tags{"MMOITEMS_ABILITY": `[{"Id":"FROSTBOLT"}]`, "charges": float64(2)},
	}

	data, err := stack.Canonical()
	require.NoError(t, err)

	encoded, err := MarshalCanonical(data)
	require.NoError(t, err)
	assert.Equal(t, `{"count":1,"id":"minecraft:stick","tags":{"MMOITEMS_ABILITY":"[{\"Id\":\"FROSTBOLT\"}]","charges":2}}`, string(encoded))
}

func TestItemStackCanonicalRejectsBadTags(t *testing.T) {
	_, err := ItemStack{ID: "x", Count: 1, Tags: Tags{"speed": 1.5}}.Canonical()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "non-integral")

	_, err = ItemStack{ID: "x", Count: 1, Tags: Tags{"list": []string{"a"}}}.Canonical()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unsupported type")
}

func TestItemStackFromData(t *testing.T) {
	original := ItemStack{
		ID:    "minecraft:blaze_rod",
		Count: 1,
		Tags:  Tags{"MMOITEMS_ABILITY": `[{"Id":"FIREBALL"}]`},
	}
	data, err := original.Canonical()
	require.NoError(t, err)

	encoded, err := MarshalCanonical(map[string]any{"item": data})
	require.NoError(t, err)
	decoded, err := DecodeData(encoded)
	require.NoError(t, err)

	stack, err := ItemStackFromData(decoded["item"].(map[string]any))
	require.NoError(t, err)
	assert.Equal(t, original, stack)
}

func TestItemStackFromDataErrors(t *testing.T) {
	_, err := ItemStackFromData(map[string]any{"count": int64(1)})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing id")

	_, err = ItemStackFromData(map[string]any{"id": "minecraft:stick"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing count")
}

func TestItemStackFromDataNoTags(t *testing.T) {
	stack, err := ItemStackFromData(map[string]any{"id": "minecraft:stick", "count": 1, "tags": map[string]any{}})
	require.NoError(t, err)
	assert.Nil(t, stack.Tags)
}
