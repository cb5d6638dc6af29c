// Package mmoitems reads MMOItems metadata from item stack tags.
//
// MMOItems stores item behaviour in NBT tags on the stack. The cooldown
// engine only needs to know whether an item grants an ability and which one;
// the block-placement guard and charge counter live here too because they
// read the same tags.
package mmoitems

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/roach88/hotbar/internal/ir"
)

// Tag names written by the MMOItems server plugin.
const (
	TagAbility            = "MMOITEMS_ABILITY"
	TagMaxConsume         = "MMOITEMS_MAX_CONSUME"
	TagDisableInteraction = "MMOITEMS_DISABLE_INTERACTION"
)

// Ability is one entry of the MMOITEMS_ABILITY JSON array.
type Ability struct {
	ID   string `json:"Id"`
	Mode string `json:"CastMode,omitempty"`
}

// Resolver implements engine.ItemMetadata over MMOItems tags.
type Resolver struct {
	// ChargeCounterDisabled suppresses ChargeLabel, for when another add-on
	// already draws consumable charges.
	ChargeCounterDisabled bool
}

// NewResolver creates a Resolver with the charge counter enabled.
func NewResolver() *Resolver {
	return &Resolver{}
}

// Abilities decodes the ability list of stack.
// Returns nil, nil when the stack carries no ability tag.
func (r *Resolver) Abilities(stack ir.ItemStack) ([]Ability, error) {
	raw := stack.Tags.String(TagAbility)
	if raw == "" {
		return nil, nil
	}

	var abilities []Ability
	if err := json.Unmarshal([]byte(raw), &abilities); err != nil {
		return nil, fmt.Errorf("decode %s on %s: %w", TagAbility, stack.ID, err)
	}
	return abilities, nil
}

// HasAbility reports whether stack grants at least one named ability.
func (r *Resolver) HasAbility(stack ir.ItemStack) bool {
	_, ok := r.AbilityID(stack)
	return ok
}

// AbilityID returns the first ability of stack. Malformed tags count as
// no ability.
func (r *Resolver) AbilityID(stack ir.ItemStack) (string, bool) {
	abilities, err := r.Abilities(stack)
	if err != nil || len(abilities) == 0 || abilities[0].ID == "" {
		return "", false
	}
	return abilities[0].ID, true
}

// InteractionAllowed decides whether using stack against a block may go
// ahead. Items tagged MMOITEMS_DISABLE_INTERACTION must never be placed,
// except that clicking a block entity (chest, furnace) without sneaking
// opens it instead of placing.
func InteractionAllowed(stack ir.ItemStack, blockEntityHit, sneaking bool) bool {
	if !stack.Tags.Bool(TagDisableInteraction) {
		return true
	}
	return blockEntityHit && !sneaking
}

// ChargeLabel returns the charge counter text for a consumable stack.
// countLabel, when non-empty, overrides the charge number. ok is false when
// no counter should be drawn: the item has no charges, the stack holds more
// than one item, or the counter is disabled.
func (r *Resolver) ChargeLabel(stack ir.ItemStack, countLabel string) (label string, ok bool) {
	if r.ChargeCounterDisabled {
		return "", false
	}

	charges := stack.Tags.Int(TagMaxConsume)
	if charges == 0 || stack.Count != 1 {
		return "", false
	}

	if countLabel != "" {
		return countLabel, true
	}
	return strconv.FormatInt(charges, 10), true
}
