package mmoitems

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/hotbar/internal/ir"
)

func staff(abilityJSON string) ir.ItemStack {
	return ir.ItemStack{
		ID:    "minecraft:stick",
		Count: 1,
		Tags:  ir.Tags{TagAbility: abilityJSON},
	}
}

func TestAbilityID(t *testing.T) {
	tests := []struct {
		name   string
		stack  ir.ItemStack
		want   string
		wantOK bool
	}{
		{"single ability", staff(`[{"Id":"FROSTBOLT","CastMode":"RIGHT_CLICK"}]`), "FROSTBOLT", true},
		{"first of many", staff(`[{"Id":"FIREBALL"},{"Id":"HEAL"}]`), "FIREBALL", true},
		{"empty array", staff(`[]`), "", false},
		{"malformed json", staff(`[{"Id":`), "", false},
		{"missing id", staff(`[{"CastMode":"LEFT_CLICK"}]`), "", false},
		{"no tag", ir.ItemStack{ID: "minecraft:dirt", Count: 1}, "", false},
	}

	r := NewResolver()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := r.AbilityID(tt.stack)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.wantOK, r.HasAbility(tt.stack))
		})
	}
}

func TestAbilities_Malformed(t *testing.T) {
	_, err := NewResolver().Abilities(staff(`not json`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), TagAbility)
}

func TestAbilities_Decodes(t *testing.T) {
	abilities, err := NewResolver().Abilities(staff(`[{"Id":"BLINK","CastMode":"SHIFT_RIGHT_CLICK"}]`))
	require.NoError(t, err)
	require.Len(t, abilities, 1)
	assert.Equal(t, Ability{ID: "BLINK", Mode: "SHIFT_RIGHT_CLICK"}, abilities[0])
}

func TestInteractionAllowed(t *testing.T) {
	locked := ir.ItemStack{ID: "minecraft:player_head", Count: 1, Tags: ir.Tags{TagDisableInteraction: true}}
	lockedByte := ir.ItemStack{ID: "minecraft:player_head", Count: 1, Tags: ir.Tags{TagDisableInteraction: int64(1)}}
	plain := ir.ItemStack{ID: "minecraft:cobblestone", Count: 64}

	tests := []struct {
		name           string
		stack          ir.ItemStack
		blockEntityHit bool
		sneaking       bool
		want           bool
	}{
		{"plain item places", plain, false, false, true},
		{"locked item on air block", locked, false, false, false},
		{"locked item opens chest", locked, true, false, true},
		{"locked item sneaking at chest", locked, true, true, false},
		{"byte tag honoured", lockedByte, false, false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, InteractionAllowed(tt.stack, tt.blockEntityHit, tt.sneaking))
		})
	}
}

func TestChargeLabel(t *testing.T) {
	potion := ir.ItemStack{ID: "minecraft:potion", Count: 1, Tags: ir.Tags{TagMaxConsume: 3}}

	r := NewResolver()

	label, ok := r.ChargeLabel(potion, "")
	require.True(t, ok)
	assert.Equal(t, "3", label)

	label, ok = r.ChargeLabel(potion, "x")
	require.True(t, ok)
	assert.Equal(t, "x", label)

	stacked := potion
	stacked.Count = 2
	_, ok = r.ChargeLabel(stacked, "")
	assert.False(t, ok, "stacks of more than one show the vanilla count")

	_, ok = r.ChargeLabel(ir.ItemStack{ID: "minecraft:apple", Count: 1}, "")
	assert.False(t, ok)

	disabled := &Resolver{ChargeCounterDisabled: true}
	_, ok = disabled.ChargeLabel(potion, "")
	assert.False(t, ok)
}
