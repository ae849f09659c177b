package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
)

// marshalMetadata encodes activity metadata as JSON TEXT.
// HTML escaping is disabled so stored payloads match their source.
func marshalMetadata(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", fmt.Errorf("marshal metadata: %w", err)
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

// unmarshalMetadata decodes stored metadata. Numbers are kept as
// json.Number to avoid float64 precision loss.
func unmarshalMetadata(data string) (any, error) {
	dec := json.NewDecoder(strings.NewReader(data))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("unmarshal metadata: %w", err)
	}
	return v, nil
}
