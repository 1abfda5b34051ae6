// Package cursor encodes and decodes opaque pagination cursors.
// A cursor is a base64-encoded JSON payload carrying the type it
// paginates and the last-seen record id, so clients cannot silently
// replay a cursor against a different listing.
package cursor

import (
	"encoding/base64"
	"encoding/json"
	"fmt"
)

type payload struct {
	Version  int    `json:"v"`
	TypeName string `json:"t"`
	LastID   int64  `json:"id"`
}

// Encode builds an opaque cursor for the given type and last-seen id.
func Encode(typeName string, lastID int64) string {
	data, err := json.Marshal(payload{Version: 1, TypeName: typeName, LastID: lastID})
	if err != nil {
		return ""
	}
	return base64.StdEncoding.EncodeToString(data)
}

// Decode parses a cursor and validates it against the expected type.
func Decode(expectedType, raw string) (int64, error) {
	data, err := base64.StdEncoding.DecodeString(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid cursor: %w", err)
	}
	var p payload
	if err := json.Unmarshal(data, &p); err != nil {
		return 0, fmt.Errorf("invalid cursor format")
	}
	if p.Version != 1 {
		return 0, fmt.Errorf("invalid cursor format")
	}
	if p.TypeName != expectedType {
		return 0, fmt.Errorf("cursor type mismatch: expected %s, got %s", expectedType, p.TypeName)
	}
	if p.LastID < 0 {
		return 0, fmt.Errorf("invalid cursor: negative id")
	}
	return p.LastID, nil
}
