package ir

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// ItemStack is the engine's opaque snapshot of an item in hand.
//
// Tags mirror the item's NBT compound. The engine never reads them; the
// item metadata service does.
type ItemStack struct {
	ID    string `json:"id" yaml:"id"`
	Count int    `json:"count" yaml:"count"`
	Tags  Tags   `json:"tags,omitempty" yaml:"tags,omitempty"`
}

// Tags is an NBT-like compound of scalar values.
// Values are string, bool, or integer types.
type Tags map[string]any

// String returns the string tag for key, or "" when absent or not a string.
func (t Tags) String(key string) string {
	if s, ok := t[key].(string); ok {
		return s
	}
	return ""
}

// Int returns the integer tag for key, or 0 when absent.
// Integral floats (as produced by JSON and YAML decoders) are accepted.
func (t Tags) Int(key string) int64 {
	switch v := t[key].(type) {
	case int:
		return int64(v)
	case int32:
		return int64(v)
	case int64:
		return v
	case uint8:
		return int64(v)
	case float64:
		if v == math.Trunc(v) {
			return int64(v)
		}
	case json.Number:
		if n, err := v.Int64(); err == nil {
			return n
		}
	}
	return 0
}

// Bool returns the boolean tag for key. NBT stores booleans as bytes, so a
// non-zero integer is true.
func (t Tags) Bool(key string) bool {
	if b, ok := t[key].(bool); ok {
		return b
	}
	return t.Int(key) != 0
}

// Keys returns the tag names in sorted order.
func (t Tags) Keys() []string {
	keys := make([]string, 0, len(t))
	for k := range t {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Canonical converts the stack to a map accepted by MarshalCanonical.
// Fails if a tag holds a non-integral number or an unsupported type.
func (s ItemStack) Canonical() (map[string]any, error) {
	tags := make(map[string]any, len(s.Tags))
	for k, v := range s.Tags {
		switch val := v.(type) {
		case string, bool, int, int64:
			tags[k] = val
		case int32:
			tags[k] = int64(val)
		case uint8:
			tags[k] = int64(val)
		case float64:
			if val != math.Trunc(val) {
				return nil, fmt.Errorf("tag %q: non-integral number %v", k, val)
			}
			tags[k] = int64(val)
		default:
			return nil, fmt.Errorf("tag %q: unsupported type %T", k, v)
		}
	}
	return map[string]any{
		"id":    s.ID,
		"count": s.Count,
		"tags":  tags,
	}, nil
}

// ItemStackFromData rebuilds an ItemStack from decoded journal data.
func ItemStackFromData(data map[string]any) (ItemStack, error) {
	stack := ItemStack{}

	id, ok := data["id"].(string)
	if !ok {
		return stack, fmt.Errorf("item: missing id")
	}
	stack.ID = id

	switch count := data["count"].(type) {
	case int64:
		stack.Count = int(count)
	case int:
		stack.Count = count
	default:
		return stack, fmt.Errorf("item: missing count")
	}

	if raw, ok := data["tags"].(map[string]any); ok && len(raw) > 0 {
		stack.Tags = make(Tags, len(raw))
		for k, v := range raw {
			stack.Tags[k] = v
		}
	}
	return stack, nil
}
