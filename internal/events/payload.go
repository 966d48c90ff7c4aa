package events

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
)

// Payload is the structured body of a monitoring event. It supports safe
// nested field access: a missing field is an absence, never an error.
// Payload round-trips to a Postgres JSONB column.
type Payload map[string]any

// Lookup resolves a dotted field path (e.g. "browser.name") against the
// payload. It returns the value and true when every segment of the path
// exists, or nil and false otherwise.
func (p Payload) Lookup(path string) (any, bool) {
	if p == nil || path == "" {
		return nil, false
	}
	var current any = map[string]any(p)
	for _, segment := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[segment]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// String resolves a field path to a string value.
// Non-string values are formatted; absent fields return ("", false).
func (p Payload) String(path string) (string, bool) {
	v, ok := p.Lookup(path)
	if !ok || v == nil {
		return "", false
	}
	if s, ok := v.(string); ok {
		return s, true
	}
	return fmt.Sprintf("%v", v), true
}

// Float resolves a field path to a float64 value. JSON numbers decode as
// float64; integer payload values set in Go are handled too. Absent or
// non-numeric fields return (0, false).
func (p Payload) Float(path string) (float64, bool) {
	v, ok := p.Lookup(path)
	if !ok {
		return 0, false
	}
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// Value implements driver.Valuer so a Payload can be bound to a JSONB column.
// A nil payload is stored as an empty object, never NULL.
func (p Payload) Value() (driver.Value, error) {
	if p == nil {
		return []byte("{}"), nil
	}
	data, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal payload: %w", err)
	}
	return data, nil
}

// Scan implements sql.Scanner for reading a JSONB column.
func (p *Payload) Scan(src any) error {
	if src == nil {
		*p = Payload{}
		return nil
	}
	var data []byte
	switch v := src.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into Payload", src)
	}
	if len(data) == 0 {
		*p = Payload{}
		return nil
	}
	var m map[string]any
	if err := json.Unmarshal(data, &m); err != nil {
		return fmt.Errorf("failed to unmarshal payload: %w", err)
	}
	if m == nil {
		m = map[string]any{}
	}
	*p = m
	return nil
}
