package catalog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
)

// ValueKind discriminates the closed set of metadata value variants.
type ValueKind int

const (
	KindString ValueKind = iota
	KindInt
	KindFloat
	KindBool
	KindMap
)

// Value is one metadata entry: a scalar or a nested map. Metadata is
// schema-less at the catalog level; individual keys are validated only at the
// call sites that read them.
type Value struct {
	kind ValueKind
	s    string
	i    int64
	f    float64
	b    bool
	m    Metadata
}

// Metadata is a free-form key/value document attached to sources and content
// items.
type Metadata map[string]Value

func StringValue(s string) Value { return Value{kind: KindString, s: s} }
func IntValue(i int64) Value { return Value{kind: KindInt, i: i} }
func FloatValue(f float64) Value { return Value{kind: KindFloat, f: f} }
func BoolValue(b bool) Value { return Value{kind: KindBool, b: b} }
func MapValue(m Metadata) Value { return Value{kind: KindMap, m: m} }

// Kind returns the variant tag.
func (v Value) Kind() ValueKind { return v.kind }

// String returns the string payload and whether the value holds one.
func (v Value) String() (string, bool) { return v.s, v.kind == KindString }

// Int returns the integer payload and whether the value holds one.
func (v Value) Int() (int64, bool) { return v.i, v.kind == KindInt }

// Float returns the float payload and whether the value holds one.
func (v Value) Float() (float64, bool) { return v.f, v.kind == KindFloat }

// Bool returns the boolean payload and whether the value holds one.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Map returns the nested map payload and whether the value holds one.
func (v Value) Map() (Metadata, bool) { return v.m, v.kind == KindMap }

// MarshalJSON renders the underlying variant directly, so metadata documents
// serialize as plain JSON objects.
func (v Value) MarshalJSON() ([]byte, error) {
	switch v.kind {
	case KindString:
		return json.Marshal(v.s)
	case KindInt:
		return json.Marshal(v.i)
	case KindFloat:
		return json.Marshal(v.f)
	case KindBool:
		return json.Marshal(v.b)
	case KindMap:
		return json.Marshal(v.m)
	default:
		return nil, fmt.Errorf("metadata value has unknown kind %d", v.kind)
	}
}

// UnmarshalJSON accepts strings, numbers, booleans, and nested objects.
// Whole numbers decode as integers; arrays and null are rejected since no
// catalog consumer reads them.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw any
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	if err := dec.Decode(&raw); err != nil {
		return err
	}
	decoded, err := valueFromAny(raw)
	if err != nil {
		return err
	}
	*v = decoded
	return nil
}

func valueFromAny(raw any) (Value, error) {
	switch t := raw.(type) {
	case string:
		return StringValue(t), nil
	case bool:
		return BoolValue(t), nil
	case json.Number:
		if i, err := t.Int64(); err == nil {
			return IntValue(i), nil
		}
		f, err := t.Float64()
		if err != nil {
			return Value{}, fmt.Errorf("metadata number %q: %w", t.String(), err)
		}
		return FloatValue(f), nil
	case float64:
		if t == math.Trunc(t) && !math.IsInf(t, 0) {
			return IntValue(int64(t)), nil
		}
		return FloatValue(t), nil
	case map[string]any:
		m := make(Metadata, len(t))
		for k, val := range t {
			nested, err := valueFromAny(val)
			if err != nil {
				return Value{}, err
			}
			m[k] = nested
		}
		return MapValue(m), nil
	default:
		return Value{}, fmt.Errorf("metadata value of type %T is not supported", raw)
	}
}

// MetadataFromAny converts a decoded JSON document into Metadata. Used at the
// ingestion boundary where raw documents arrive as map[string]any.
func MetadataFromAny(raw map[string]any) (Metadata, error) {
	m := make(Metadata, len(raw))
	for k, val := range raw {
		v, err := valueFromAny(val)
		if err != nil {
			return nil, fmt.Errorf("metadata key %q: %w", k, err)
		}
		m[k] = v
	}
	return m, nil
}
