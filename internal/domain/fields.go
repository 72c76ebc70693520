package domain

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// Fields is one raw upstream record: a decoded JSON object, or the child
// elements of an XML record keyed by element name.
type Fields map[string]any

// Accessor looks up one candidate spelling of a logical field.
type Accessor func(Fields) (any, bool)

// Key returns an accessor for a top-level key.
func Key(name string) Accessor {
	return func(f Fields) (any, bool) {
		v, ok := f[name]
		if !ok || v == nil {
			return nil, false
		}
		return v, true
	}
}

// Path returns an accessor that walks nested objects, e.g.
// Path("ValidExposition", "MinElevation").
func Path(names ...string) Accessor {
	return func(f Fields) (any, bool) {
		var cur any = map[string]any(f)
		for _, name := range names {
			m, ok := asMap(cur)
			if !ok {
				return nil, false
			}
			cur, ok = m[name]
			if !ok || cur == nil {
				return nil, false
			}
		}
		return cur, true
	}
}

// Keys builds top-level accessors in priority order.
func Keys(names ...string) []Accessor {
	out := make([]Accessor, len(names))
	for i, n := range names {
		out[i] = Key(n)
	}
	return out
}

// ResolveString returns the first accessor value that is a non-blank string,
// trimmed.
func ResolveString(f Fields, policy []Accessor) (string, bool) {
	for _, acc := range policy {
		v, ok := acc(f)
		if !ok {
			continue
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) != "" {
			return strings.TrimSpace(s), true
		}
	}
	return "", false
}

// ResolveInt returns the first accessor value that is an integral number.
// Numeric strings are accepted so that XML element text resolves the same
// way as JSON numbers.
func ResolveInt(f Fields, policy []Accessor) (int, bool) {
	for _, acc := range policy {
		v, ok := acc(f)
		if !ok {
			continue
		}
		if n, ok := toInt(v); ok {
			return n, true
		}
	}
	return 0, false
}

// Object returns the nested object stored under key, if any.
func (f Fields) Object(key string) (Fields, bool) {
	m, ok := asMap(f[key])
	if !ok {
		return nil, false
	}
	return Fields(m), true
}

// List returns the nested objects stored under key, skipping non-objects.
func (f Fields) List(key string) []Fields {
	raw, ok := f[key].([]any)
	if !ok {
		return nil
	}
	out := make([]Fields, 0, len(raw))
	for _, item := range raw {
		if m, ok := asMap(item); ok {
			out = append(out, Fields(m))
		}
	}
	return out
}

func asMap(v any) (map[string]any, bool) {
	switch m := v.(type) {
	case map[string]any:
		return m, true
	case Fields:
		return m, true
	default:
		return nil, false
	}
}

func toInt(v any) (int, bool) {
	switch n := v.(type) {
	case int:
		return n, true
	case int64:
		return int(n), true
	case float64:
		if n != math.Trunc(n) || math.IsInf(n, 0) || math.IsNaN(n) {
			return 0, false
		}
		return int(n), true
	case json.Number:
		i, err := n.Int64()
		if err != nil {
			return 0, false
		}
		return int(i), true
	case string:
		i, err := strconv.Atoi(strings.TrimSpace(n))
		if err != nil {
			return 0, false
		}
		return i, true
	default:
		return 0, false
	}
}
