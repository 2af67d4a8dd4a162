// Package node provides the value type for content entry data.
//
// A Value is a closed variant: null, bool, number, string, list or map.
// Values are immutable from outside this package. Every operation that
// "changes" a container returns a new Value and leaves the receiver as it
// was, so callers may keep references to older versions freely.
package node

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
)

// Kind identifies the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindBool
	KindNumber
	KindString
	KindList
	KindMap
)

// String returns the kind name.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "null"
	case KindBool:
		return "bool"
	case KindNumber:
		return "number"
	case KindString:
		return "string"
	case KindList:
		return "list"
	case KindMap:
		return "map"
	default:
		return "unknown"
	}
}

// Value is a content data node. The zero Value is null.
type Value struct {
	kind  Kind
	b     bool
	n     float64
	s     string
	items []Value
	m     *mapping
}

// mapping keeps keys in insertion order.
type mapping struct {
	keys  []string
	vals  []Value
	index map[string]int
}

// Entry is one key/value pair of a map Value.
type Entry struct {
	Key   string
	Value Value
}

// Null returns the null value.
func Null() Value { return Value{} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, n: n} }

// String returns a string value.
func String(s string) Value { return Value{kind: KindString, s: s} }

// List returns a list holding the given items.
func List(items ...Value) Value {
	cp := make([]Value, len(items))
	copy(cp, items)
	return Value{kind: KindList, items: cp}
}

// Map returns a map holding the given entries in order.
// A repeated key keeps its first position and takes the last value.
func Map(entries ...Entry) Value {
	m := &mapping{
		keys:  make([]string, 0, len(entries)),
		vals:  make([]Value, 0, len(entries)),
		index: make(map[string]int, len(entries)),
	}
	for _, e := range entries {
		if i, ok := m.index[e.Key]; ok {
			m.vals[i] = e.Value
			continue
		}
		m.index[e.Key] = len(m.keys)
		m.keys = append(m.keys, e.Key)
		m.vals = append(m.vals, e.Value)
	}
	return Value{kind: KindMap, m: m}
}

// FromAny converts a plain Go value into a Value.
// Go maps have no order, so map[string]any keys are sorted.
func FromAny(v any) (Value, error) {
	switch t := v.(type) {
	case nil:
		return Null(), nil
	case Value:
		return t, nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case float64:
		return Number(t), nil
	case float32:
		return Number(float64(t)), nil
	case int:
		return Number(float64(t)), nil
	case int8:
		return Number(float64(t)), nil
	case int16:
		return Number(float64(t)), nil
	case int32:
		return Number(float64(t)), nil
	case int64:
		return Number(float64(t)), nil
	case uint:
		return Number(float64(t)), nil
	case uint8:
		return Number(float64(t)), nil
	case uint16:
		return Number(float64(t)), nil
	case uint32:
		return Number(float64(t)), nil
	case uint64:
		return Number(float64(t)), nil
	case json.Number:
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("number %q: %w", t.String(), err)
		}
		return Number(f), nil
	case []any:
		items := make([]Value, len(t))
		for i, item := range t {
			iv, err := FromAny(item)
			if err != nil {
				return Value{}, fmt.Errorf("[%d]: %w", i, err)
			}
			items[i] = iv
		}
		return Value{kind: KindList, items: items}, nil
	case []Entry:
		return Map(t...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		entries := make([]Entry, len(keys))
		for i, k := range keys {
			kv, err := FromAny(t[k])
			if err != nil {
				return Value{}, fmt.Errorf("%s: %w", k, err)
			}
			entries[i] = Entry{Key: k, Value: kv}
		}
		return Map(entries...), nil
	default:
		return Value{}, fmt.Errorf("unsupported type %T", v)
	}
}

// MustFromAny is FromAny for literals known to be valid. It panics on error.
func MustFromAny(v any) Value {
	out, err := FromAny(v)
	if err != nil {
		panic(err)
	}
	return out
}

// Kind returns the variant held by v.
func (v Value) Kind() Kind { return v.kind }

// IsNull reports whether v is null.
func (v Value) IsNull() bool { return v.kind == KindNull }

// IsBranch reports whether v has children: a map or a list.
func (v Value) IsBranch() bool { return v.kind == KindMap || v.kind == KindList }

// Len returns the number of children of a branch, or 0 for scalars.
func (v Value) Len() int {
	switch v.kind {
	case KindList:
		return len(v.items)
	case KindMap:
		return len(v.m.keys)
	default:
		return 0
	}
}

// Index returns the list element at i.
func (v Value) Index(i int) (Value, bool) {
	if v.kind != KindList || i < 0 || i >= len(v.items) {
		return Value{}, false
	}
	return v.items[i], true
}

// Items returns a copy of the list elements.
func (v Value) Items() []Value {
	if v.kind != KindList {
		return nil
	}
	cp := make([]Value, len(v.items))
	copy(cp, v.items)
	return cp
}

// Keys returns a copy of the map keys in insertion order.
func (v Value) Keys() []string {
	if v.kind != KindMap {
		return nil
	}
	cp := make([]string, len(v.m.keys))
	copy(cp, v.m.keys)
	return cp
}

// Entries returns a copy of the map entries in insertion order.
func (v Value) Entries() []Entry {
	if v.kind != KindMap {
		return nil
	}
	out := make([]Entry, len(v.m.keys))
	for i, k := range v.m.keys {
		out[i] = Entry{Key: k, Value: v.m.vals[i]}
	}
	return out
}

// Lookup returns the map value stored under key.
func (v Value) Lookup(key string) (Value, bool) {
	if v.kind != KindMap {
		return Value{}, false
	}
	i, ok := v.m.index[key]
	if !ok {
		return Value{}, false
	}
	return v.m.vals[i], true
}

// Has reports whether a map holds key.
func (v Value) Has(key string) bool {
	_, ok := v.Lookup(key)
	return ok
}

// AsBool returns the boolean held by v.
func (v Value) AsBool() (bool, bool) { return v.b, v.kind == KindBool }

// AsNumber returns the number held by v.
func (v Value) AsNumber() (float64, bool) { return v.n, v.kind == KindNumber }

// AsString returns the string held by v.
func (v Value) AsString() (string, bool) { return v.s, v.kind == KindString }

// Interface converts v into plain Go values (map[string]any, []any, ...).
// Map order is lost.
func (v Value) Interface() any {
	switch v.kind {
	case KindBool:
		return v.b
	case KindNumber:
		return v.n
	case KindString:
		return v.s
	case KindList:
		out := make([]any, len(v.items))
		for i, item := range v.items {
			out[i] = item.Interface()
		}
		return out
	case KindMap:
		out := make(map[string]any, len(v.m.keys))
		for i, k := range v.m.keys {
			out[k] = v.m.vals[i].Interface()
		}
		return out
	default:
		return nil
	}
}

// WithKey returns a copy of the map with key set to val. An existing key
// keeps its position; a new key is appended. ok is false when v is not a map.
func (v Value) WithKey(key string, val Value) (Value, bool) {
	if v.kind != KindMap {
		return v, false
	}
	m := v.m.clone(1)
	if i, exists := m.index[key]; exists {
		m.vals[i] = val
	} else {
		m.index[key] = len(m.keys)
		m.keys = append(m.keys, key)
		m.vals = append(m.vals, val)
	}
	return Value{kind: KindMap, m: m}, true
}

// WithoutKey returns a copy of the map without key.
// ok is false when v is not a map or key is absent.
func (v Value) WithoutKey(key string) (Value, bool) {
	if v.kind != KindMap {
		return v, false
	}
	pos, exists := v.m.index[key]
	if !exists {
		return v, false
	}
	entries := v.Entries()
	entries = append(entries[:pos], entries[pos+1:]...)
	return Map(entries...), true
}

// WithIndex returns a copy of the list with element i replaced.
// ok is false when v is not a list or i is out of range.
func (v Value) WithIndex(i int, val Value) (Value, bool) {
	if v.kind != KindList || i < 0 || i >= len(v.items) {
		return v, false
	}
	items := v.Items()
	items[i] = val
	return Value{kind: KindList, items: items}, true
}

// WithAppended returns a copy of the list with val added at the end.
func (v Value) WithAppended(val Value) (Value, bool) {
	if v.kind != KindList {
		return v, false
	}
	items := make([]Value, len(v.items), len(v.items)+1)
	copy(items, v.items)
	items = append(items, val)
	return Value{kind: KindList, items: items}, true
}

// WithoutIndex returns a copy of the list with element i removed.
func (v Value) WithoutIndex(i int) (Value, bool) {
	if v.kind != KindList || i < 0 || i >= len(v.items) {
		return v, false
	}
	items := make([]Value, 0, len(v.items)-1)
	items = append(items, v.items[:i]...)
	items = append(items, v.items[i+1:]...)
	return Value{kind: KindList, items: items}, true
}

func (m *mapping) clone(extra int) *mapping {
	cp := &mapping{
		keys:  make([]string, len(m.keys), len(m.keys)+extra),
		vals:  make([]Value, len(m.vals), len(m.vals)+extra),
		index: make(map[string]int, len(m.index)+extra),
	}
	copy(cp.keys, m.keys)
	copy(cp.vals, m.vals)
	for k, i := range m.index {
		cp.index[k] = i
	}
	return cp
}

// String returns the compact JSON encoding of v.
func (v Value) String() string {
	data, err := v.MarshalJSON()
	if err != nil {
		return fmt.Sprintf("<%s: %v>", v.kind, err)
	}
	return string(data)
}

func formatNumber(n float64) string {
	if n == math.Trunc(n) && math.Abs(n) < 1e21 {
		return fmt.Sprintf("%.0f", n)
	}
	return fmt.Sprintf("%v", n)
}
