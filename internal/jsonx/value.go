package jsonx

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Kind identifies the JSON type a Value holds.
type Kind int

const (
	Null Kind = iota
	Bool
	Number
	String
	Array
	Object
)

// Member is a single object entry. Members retain document order.
type Member struct {
	Key   string
	Value Value
}

// Value is a decoded JSON value.
type Value struct {
	Kind Kind
	Bool bool
	Num  json.Number
	Str  string
	Arr  []Value
	Obj  []Member
}

// Decode parses data into a Value.
func Decode(data []byte) (Value, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	value, err := decodeValue(dec)
	if err != nil {
		return Value{}, fmt.Errorf("%w: %v", ErrNotJSON, err)
	}
	if tok, err := dec.Token(); err != io.EOF {
		return Value{}, fmt.Errorf("%w: trailing data %v", ErrNotJSON, tok)
	}
	return value, nil
}

// DecodeString parses s into a Value.
func DecodeString(s string) (Value, error) {
	return Decode([]byte(s))
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
			return decodeObject(dec)
		case '[':
			return decodeArray(dec)
		default:
			return Value{}, fmt.Errorf("unexpected delimiter %q", t)
		}
	case string:
		return Value{Kind: String, Str: t}, nil
	case json.Number:
		return Value{Kind: Number, Num: t}, nil
	case bool:
		return Value{Kind: Bool, Bool: t}, nil
	case nil:
		return Value{Kind: Null}, nil
	default:
		return Value{}, fmt.Errorf("unexpected token %v", tok)
	}
}

func decodeObject(dec *json.Decoder) (Value, error) {
	obj := Value{Kind: Object}
	for dec.More() {
		keyTok, err := dec.Token()
		if err != nil {
			return Value{}, err
		}
		key, ok := keyTok.(string)
		if !ok {
			return Value{}, fmt.Errorf("object key is %T, not string", keyTok)
		}
		value, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		obj.Obj = append(obj.Obj, Member{Key: key, Value: value})
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return obj, nil
}

func decodeArray(dec *json.Decoder) (Value, error) {
	arr := Value{Kind: Array}
	for dec.More() {
		value, err := decodeValue(dec)
		if err != nil {
			return Value{}, err
		}
		arr.Arr = append(arr.Arr, value)
	}
	if _, err := dec.Token(); err != nil {
		return Value{}, err
	}
	return arr, nil
}

// StringValue builds a string Value.
func StringValue(s string) Value {
	return Value{Kind: String, Str: s}
}

// IsObject reports whether the value is a JSON object.
func (v Value) IsObject() bool { return v.Kind == Object }

// IsArray reports whether the value is a JSON array.
func (v Value) IsArray() bool { return v.Kind == Array }

// Get returns the member value for key. The first matching member wins.
func (v Value) Get(key string) (Value, bool) {
	if v.Kind != Object {
		return Value{}, false
	}
	for _, member := range v.Obj {
		if member.Key == key {
			return member.Value, true
		}
	}
	return Value{}, false
}

// StringAt returns the trimmed string member for key, if present and
// non-blank.
func (v Value) StringAt(key string) (string, bool) {
	member, ok := v.Get(key)
	if !ok || member.Kind != String {
		return "", false
	}
	trimmed := strings.TrimSpace(member.Str)
	if trimmed == "" {
		return "", false
	}
	return trimmed, true
}

// Scalar renders a leaf value the way it should appear in a CSV cell:
// empty string for null, the literal for strings, integer form for whole
// numbers, and compact JSON for nested containers.
func (v Value) Scalar() string {
	switch v.Kind {
	case Null:
		return ""
	case String:
		return v.Str
	case Bool:
		return strconv.FormatBool(v.Bool)
	case Number:
		return NumberString(v.Num)
	default:
		return v.JSON()
	}
}

// NumberString renders a json.Number, collapsing whole floats to their
// integer form ("3.0" -> "3").
func NumberString(num json.Number) string {
	if i, err := num.Int64(); err == nil {
		return strconv.FormatInt(i, 10)
	}
	if f, err := num.Float64(); err == nil && f == float64(int64(f)) {
		return strconv.FormatInt(int64(f), 10)
	}
	return num.String()
}

// JSON re-encodes the value as compact JSON, preserving member order.
func (v Value) JSON() string {
	var buf bytes.Buffer
	v.appendJSON(&buf)
	return buf.String()
}

func (v Value) appendJSON(buf *bytes.Buffer) {
	switch v.Kind {
	case Null:
		buf.WriteString("null")
	case Bool:
		buf.WriteString(strconv.FormatBool(v.Bool))
	case Number:
		if v.Num == "" {
			buf.WriteByte('0')
			return
		}
		buf.WriteString(v.Num.String())
	case String:
		encoded, err := json.Marshal(v.Str)
		if err != nil {
			buf.WriteString(`""`)
			return
		}
		buf.Write(encoded)
	case Array:
		buf.WriteByte('[')
		for i, item := range v.Arr {
			if i > 0 {
				buf.WriteByte(',')
			}
			item.appendJSON(buf)
		}
		buf.WriteByte(']')
	case Object:
		buf.WriteByte('{')
		for i, member := range v.Obj {
			if i > 0 {
				buf.WriteByte(',')
			}
			encoded, err := json.Marshal(member.Key)
			if err != nil {
				encoded = []byte(`""`)
			}
			buf.Write(encoded)
			buf.WriteByte(':')
			member.Value.appendJSON(buf)
		}
		buf.WriteByte('}')
	}
}

// ErrNotJSON marks payloads that fail to parse at all.
var ErrNotJSON = errors.New("payload is not valid JSON")
