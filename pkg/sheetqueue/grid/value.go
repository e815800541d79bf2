package grid

import (
	"fmt"
	"strconv"
	"strings"
)

// Kind is the type of a cell value.
type Kind int

const (
	KindEmpty Kind = iota
	KindString
	KindNumber
	KindBool
)

func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindNumber:
		return "number"
	case KindBool:
		return "bool"
	default:
		return "empty"
	}
}

// Value is the scalar held by a single cell.
type Value struct {
	kind Kind
	str  string
	num  float64
	b    bool
}

// Empty returns the value of an unset cell.
func Empty() Value { return Value{} }

// String returns a text value. The empty string is Empty.
func String(s string) Value {
	if s == "" {
		return Value{}
	}
	return Value{kind: KindString, str: s}
}

// Number returns a numeric value.
func Number(n float64) Value { return Value{kind: KindNumber, num: n} }

// Bool returns a boolean value.
func Bool(b bool) Value { return Value{kind: KindBool, b: b} }

// Kind returns the type of the value.
func (v Value) Kind() Kind { return v.kind }

// IsEmpty reports whether the cell holds nothing.
func (v Value) IsEmpty() bool { return v.kind == KindEmpty }

// Number returns the numeric content and whether the value is a number.
func (v Value) Number() (float64, bool) { return v.num, v.kind == KindNumber }

// Bool returns the boolean content and whether the value is a boolean.
func (v Value) Bool() (bool, bool) { return v.b, v.kind == KindBool }

// Text renders the value the way a user would read it in the cell.
// Integral numbers have no fractional part ("550", not "550.0").
func (v Value) Text() string {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return strconv.FormatFloat(v.num, 'f', -1, 64)
	case KindBool:
		return strconv.FormatBool(v.b)
	default:
		return ""
	}
}

// Interface returns nil, string, float64 or bool.
func (v Value) Interface() any {
	switch v.kind {
	case KindString:
		return v.str
	case KindNumber:
		return v.num
	case KindBool:
		return v.b
	default:
		return nil
	}
}

func (v Value) String() string {
	if v.kind == KindString {
		return strconv.Quote(v.str)
	}
	if v.kind == KindEmpty {
		return "<empty>"
	}
	return v.Text()
}

// FromInterface converts a decoded JSON or driver value into a Value.
func FromInterface(x any) Value {
	switch t := x.(type) {
	case nil:
		return Empty()
	case string:
		return String(t)
	case float64:
		return Number(t)
	case float32:
		return Number(float64(t))
	case int:
		return Number(float64(t))
	case int64:
		return Number(float64(t))
	case bool:
		return Bool(t)
	default:
		return String(fmt.Sprint(t))
	}
}

// ParseValue attempts to parse a raw cell string as a number.
// Returns a number value for numeric text, or the original string.
func ParseValue(s string) Value {
	if s == "" {
		return Empty()
	}
	if i, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Number(float64(i))
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil {
		return Number(f)
	}
	return String(s)
}

// encodeStored flattens a value into the (kind, text) pair used by the SQL backends.
func encodeStored(v Value) (Kind, string) {
	return v.kind, v.Text()
}

// decodeStored rebuilds a value from its stored (kind, text) pair.
func decodeStored(kind Kind, text string) (Value, error) {
	switch kind {
	case KindEmpty:
		return Empty(), nil
	case KindString:
		return String(text), nil
	case KindNumber:
		f, err := strconv.ParseFloat(text, 64)
		if err != nil {
			return Value{}, fmt.Errorf("stored number %q: %w", text, err)
		}
		return Number(f), nil
	case KindBool:
		b, err := strconv.ParseBool(strings.TrimSpace(text))
		if err != nil {
			return Value{}, fmt.Errorf("stored bool %q: %w", text, err)
		}
		return Bool(b), nil
	default:
		return Value{}, fmt.Errorf("unknown stored kind %d", kind)
	}
}
