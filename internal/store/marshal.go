package store

import (
	"fmt"

	"github.com/roach88/hotbar/internal/ir"
)

// marshalData converts entry data to canonical JSON TEXT for storage.
// Uses RFC 8785 canonical JSON for deterministic serialization.
func marshalData(data map[string]any) (string, error) {
	if data == nil {
		data = map[string]any{}
	}
	b, err := ir.MarshalCanonical(data)
	if err != nil {
		return "", fmt.Errorf("marshal data: %w", err)
	}
	return string(b), nil
}

// unmarshalData parses canonical JSON TEXT back into entry data.
// Numbers come back as int64 so that IDs recompute identically.
func unmarshalData(text string) (map[string]any, error) {
	if text == "" || text == "{}" {
		return map[string]any{}, nil
	}
	data, err := ir.DecodeData([]byte(text))
	if err != nil {
		return nil, fmt.Errorf("unmarshal data: %w", err)
	}
	return data, nil
}

// sessionConfig extracts the config recorded on a session_start entry.
func sessionConfig(e ir.Entry) (string, error) {
	cfg, _ := e.Data["config"].(map[string]any)
	return marshalData(cfg)
}
