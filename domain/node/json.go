package node

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math"
)

// MarshalJSON encodes v with map keys in insertion order.
func (v Value) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	if err := v.encodeJSON(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func (v Value) encodeJSON(buf *bytes.Buffer) error {
	switch v.kind {
	case KindNull:
		buf.WriteString("null")
	case KindBool:
		if v.b {
			buf.WriteString("true")
		} else {
			buf.WriteString("false")
		}
	case KindNumber:
		if math.IsNaN(v.n) || math.IsInf(v.n, 0) {
			return fmt.Errorf("unsupported number %v", v.n)
		}
		buf.WriteString(formatNumber(v.n))
	case KindString:
		data, err := json.Marshal(v.s)
		if err != nil {
			return err
		}
		buf.Write(data)
	case KindList:
		buf.WriteByte('[')
		for i, item := range v.items {
			if i > 0 {
				buf.WriteByte(',')
			}
			if err := item.encodeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte(']')
	case KindMap:
		buf.WriteByte('{')
		for i, k := range v.m.keys {
			if i > 0 {
				buf.WriteByte(',')
			}
			key, err := json.Marshal(k)
			if err != nil {
				return err
			}
			buf.Write(key)
			buf.WriteByte(':')
			if err := v.m.vals[i].encodeJSON(buf); err != nil {
				return err
			}
		}
		buf.WriteByte('}')
	}
	return nil
}

// UnmarshalJSON decodes data into v, keeping object keys in document order.
func (v *Value) UnmarshalJSON(data []byte) error {
	out, err := Parse(data)
	if err != nil {
		return err
	}
	*v = out
	return nil
}

// Parse decodes a single JSON document.
func Parse(data []byte) (Value, error) {
	return Decode(bytes.NewReader(data))
}

// Decode reads a single JSON document from r.
func Decode(r io.Reader) (Value, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()

	v, err := decodeValue(dec)
	if err != nil {
		return Value{}, fmt.Errorf("decode json: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return Value{}, fmt.Errorf("decode json: unexpected data after document")
	}
	return v, nil
}

func decodeValue(dec *json.Decoder) (Value, error) {
	tok, err := dec.Token()
	if err != nil {
		return Value{}, err
	}

	switch t := tok.(type) {
	case json.Delim:
		switch t {
		case '{':
			var entries []Entry
			for dec.More() {
				kt, err := dec.Token()
				if err != nil {
					return Value{}, err
				}
				key, ok := kt.(string)
				if !ok {
					return Value{}, fmt.Errorf("object key is %T", kt)
				}
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, fmt.Errorf("%s: %w", key, err)
				}
				entries = append(entries, Entry{Key: key, Value: val})
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Map(entries...), nil
		case '[':
			items := []Value{}
			for dec.More() {
				val, err := decodeValue(dec)
				if err != nil {
					return Value{}, fmt.Errorf("[%d]: %w", len(items), err)
				}
				items = append(items, val)
			}
			if _, err := dec.Token(); err != nil {
				return Value{}, err
			}
			return Value{kind: KindList, items: items}, nil
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", t)
		}
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case json.Number:
		return FromAny(t)
	default:
		return Value{}, fmt.Errorf("unexpected token %T", tok)
	}
}
