package domain

import (
	"encoding/json"
	"strings"
)

// Document is the parsed configuration tree: arbitrarily nested mappings,
// sequences and scalars as decoded by the YAML parser. The top level is
// always a mapping; nested values may be any YAML type.
//
// The dynamic tree is kept as decoded rather than forced into a dedicated
// tagged-union type so it round-trips through yaml.v3 and encoding/json
// without conversion layers.
type Document map[string]any

// Lookup descends the document along a dotted path (e.g. "database.port")
// through nested mappings. It returns the value at the path and true, or
// nil and false if any segment is missing or an intermediate value is not
// a mapping.
func (d Document) Lookup(path string) (any, bool) {
	var current any = map[string]any(d)
	for _, key := range strings.Split(path, ".") {
		m, ok := current.(map[string]any)
		if !ok {
			return nil, false
		}
		current, ok = m[key]
		if !ok {
			return nil, false
		}
	}
	return current, true
}

// Int returns the value at the dotted path as an int, with ok reporting
// whether the path resolved to an integer value. YAML decodes integers as
// int, but large values may arrive as int64 or uint64.
func (d Document) Int(path string) (int, bool) {
	v, ok := d.Lookup(path)
	if !ok {
		return 0, false
	}
	return asInt(v)
}

// asInt normalizes the integer representations the YAML and JSON decoders
// may produce. JSON re-parses after template rendering decode numbers as
// float64; only integral floats qualify.
func asInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case uint64:
		return int(n), true
	case float64:
		if n == float64(int(n)) {
			return int(n), true
		}
		return 0, false
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	default:
		return 0, false
	}
}

// IsInt reports whether the given decoded scalar is an integer value.
func IsInt(v any) bool {
	_, ok := asInt(v)
	return ok
}

// Serialize renders the document to its canonical stored form. Payloads
// are persisted as JSON text so they can be re-read without a YAML round
// trip.
func (d Document) Serialize() ([]byte, error) {
	return json.Marshal(map[string]any(d))
}

// ParseStored parses a persisted payload back into a Document.
func ParseStored(data []byte) (Document, error) {
	m := map[string]any{}
	if err := json.Unmarshal(data, &m); err != nil {
		return nil, err
	}
	return m, nil
}
