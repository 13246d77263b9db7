package canon

import (
	"bytes"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Encode returns the canonical JSON encoding of v.
// It ensures:
// - Lexicographically sorted keys (Go's default)
// - No insignificant whitespace (Go's default for Marshal)
// - No HTML escaping (SetEscapeHTML(false))
func Encode(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)

	if err := enc.Encode(v); err != nil {
		return nil, fmt.Errorf("canonical encoding failed: %w", err)
	}

	// json.Encoder.Encode appends a newline.
	out := buf.Bytes()
	if len(out) > 0 && out[len(out)-1] == '\n' {
		out = out[:len(out)-1]
	}
	return out, nil
}

// Indent is Encode with two-space indentation, for terminal output.
func Indent(v any) ([]byte, error) {
	raw, err := Encode(v)
	if err != nil {
		return nil, err
	}
	var buf bytes.Buffer
	if err := json.Indent(&buf, raw, "", "  "); err != nil {
		return nil, fmt.Errorf("canonical indent failed: %w", err)
	}
	return buf.Bytes(), nil
}

// Digest returns the lowercase hex SHA-256 of data. Receipts are keyed by
// the digest of their raw bytes.
func Digest(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
