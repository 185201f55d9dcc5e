package store

import (
	"bytes"
	"encoding/json"
	"fmt"

	"github.com/stillpoint/weft/internal/ir"
)

// marshalSnapshot serializes the full snapshot for the content column.
// HTML escaping is disabled so the stored text matches what any external
// reader of the log would hash and compare. Hash verification does not
// depend on this serialization: VerifyHash rebuilds the canonical form from
// the decoded struct.
func marshalSnapshot(snap ir.ThreadStateSnapshot) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(snap); err != nil {
		return "", fmt.Errorf("marshal snapshot: %w", err)
	}
	return string(bytes.TrimRight(buf.Bytes(), "\n")), nil
}

func unmarshalSnapshot(data string) (ir.ThreadStateSnapshot, error) {
	var snap ir.ThreadStateSnapshot
	if err := json.Unmarshal([]byte(data), &snap); err != nil {
		return ir.ThreadStateSnapshot{}, fmt.Errorf("unmarshal snapshot: %w", err)
	}
	return snap, nil
}

func marshalTokens(tokens []string) (string, error) {
	if tokens == nil {
		tokens = []string{}
	}
	data, err := json.Marshal(tokens)
	if err != nil {
		return "", fmt.Errorf("marshal tokens: %w", err)
	}
	return string(data), nil
}

func unmarshalTokens(data string) ([]string, error) {
	if data == "" {
		return nil, nil
	}
	var tokens []string
	if err := json.Unmarshal([]byte(data), &tokens); err != nil {
		return nil, fmt.Errorf("unmarshal tokens: %w", err)
	}
	return tokens, nil
}
