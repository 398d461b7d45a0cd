// Package tok implements the ordered JSON value model that design token
// documents are built from. Every document, group, and token is represented
// as an *OrderedMap so sibling order survives a load/merge/resolve/write
// round trip, which keeps diffs on generated output stable.
package tok

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// OrderedMap is a JSON object that remembers the order its keys were set or
// decoded in. It is the backbone of every Document, Group, and Token.
type OrderedMap struct {
	keys []string
	vals map[string]any
}

// NewOrderedMap returns an empty, ready to use OrderedMap.
func NewOrderedMap() *OrderedMap {
	return &OrderedMap{vals: make(map[string]any)}
}

// Get returns the value stored under key and whether it was present.
func (m *OrderedMap) Get(key string) (any, bool) {
	if m == nil {
		return nil, false
	}
	v, ok := m.vals[key]
	return v, ok
}

// Set stores value under key, appending key to the iteration order the
// first time it is seen.
func (m *OrderedMap) Set(key string, value any) {
	if _, exists := m.vals[key]; !exists {
		m.keys = append(m.keys, key)
	}
	m.vals[key] = value
}

// Delete removes key, if present, preserving the order of the rest.
func (m *OrderedMap) Delete(key string) {
	if _, ok := m.vals[key]; !ok {
		return
	}
	delete(m.vals, key)
	for i, k := range m.keys {
		if k == key {
			m.keys = append(m.keys[:i], m.keys[i+1:]...)
			break
		}
	}
}

// Keys returns the keys in insertion/decode order. Callers must not mutate
// the returned slice.
func (m *OrderedMap) Keys() []string {
	if m == nil {
		return nil
	}
	return m.keys
}

// Len returns the number of keys.
func (m *OrderedMap) Len() int {
	if m == nil {
		return 0
	}
	return len(m.keys)
}

// Clone returns a deep copy of m.
func (m *OrderedMap) Clone() *OrderedMap {
	if m == nil {
		return nil
	}
	out := NewOrderedMap()
	for _, k := range m.keys {
		out.Set(k, CloneValue(m.vals[k]))
	}
	return out
}

// MarshalJSON emits the object with keys in their stored order.
func (m *OrderedMap) MarshalJSON() ([]byte, error) {
	if m == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, k := range m.keys {
		if i > 0 {
			buf.WriteByte(',')
		}
		kb, err := json.Marshal(k)
		if err != nil {
			return nil, err
		}
		buf.Write(kb)
		buf.WriteByte(':')
		vb, err := json.Marshal(m.vals[k])
		if err != nil {
			return nil, err
		}
		buf.Write(vb)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON decodes data into m, preserving key order. It requires data
// to be a JSON object.
func (m *OrderedMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	delim, ok := tok.(json.Delim)
	if !ok || delim != '{' {
		return fmt.Errorf("tok: expected object, got %v", tok)
	}
	om, err := decodeObject(dec)
	if err != nil {
		return err
	}
	m.keys = om.keys
	m.vals = om.vals
	return nil
}

// Unmarshal decodes data (a JSON document) into an order-preserving generic
// value: *OrderedMap for objects, []any for arrays, and the usual scalars
// otherwise (numbers are decoded as json.Number).
func Unmarshal(data []byte) (any, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	v, err := decodeValue(dec)
	if err != nil {
		return nil, err
	}
	if dec.More() {
		return nil, fmt.Errorf("tok: trailing data after top-level value")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (any, error) {
	t, err := dec.Token()
	if err != nil {
		return nil, err
	}
	switch v := t.(type) {
	case json.Delim:
		switch v {
		case '{':
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return nil, fmt.Errorf("tok: unexpected delimiter %v", v)
		}
	default:
		return t, nil
	}
}

func decodeObject(dec *json.Decoder) (*OrderedMap, error) {
	m := NewOrderedMap()
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return nil, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return nil, fmt.Errorf("tok: object key is not a string: %v", keyTok)
		}
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		m.Set(key, val)
	}
	// consume closing '}'
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return m, nil
}

func decodeArray(dec *json.Decoder) ([]any, error) {
	var out []any
	for dec.More() {
		val, err := decodeValue(dec)
		if err != nil {
			return nil, err
		}
		out = append(out, val)
	}
	if _, err := dec.Token(); err != nil {
		return nil, err
	}
	return out, nil
}

// CloneValue deep copies any value produced by Unmarshal or built up by the
// merge/resolve pipeline.
func CloneValue(v any) any {
	switch t := v.(type) {
	case *OrderedMap:
		return t.Clone()
	case []any:
		out := make([]any, len(t))
		for i, e := range t {
			out[i] = CloneValue(e)
		}
		return out
	default:
		return t
	}
}

// Equal reports whether two decoded values are structurally identical,
// including object key order.
func Equal(a, b any) bool {
	switch av := a.(type) {
	case *OrderedMap:
		bv, ok := b.(*OrderedMap)
		if !ok || av.Len() != bv.Len() {
			return false
		}
		for i, k := range av.keys {
			if bv.keys[i] != k {
				return false
			}
			if !Equal(av.vals[k], bv.vals[k]) {
				return false
			}
		}
		return true
	case []any:
		bv, ok := b.([]any)
		if !ok || len(av) != len(bv) {
			return false
		}
		for i := range av {
			if !Equal(av[i], bv[i]) {
				return false
			}
		}
		return true
	default:
		return fmt.Sprint(a) == fmt.Sprint(b) && fmt.Sprintf("%T", a) == fmt.Sprintf("%T", b)
	}
}
