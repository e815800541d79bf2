// Package codec maps struct fields to worksheet columns.
//
// Fields take part in a row when they carry a cell tag:
//
//	Title string `cell:"Title,nonempty"`
//
// The tag value is the header label; the "nonempty" option rejects empty
// strings on encode and empty cells on decode. Supported field types are
// string, signed integers, float64, bool, time.Time and any type whose
// pointer implements encoding.TextUnmarshaler (with a value-receiver
// encoding.TextMarshaler).
package codec

import (
	"encoding"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"time"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/header"
)

// ErrUnsupportedType indicates a struct that cannot be mapped to a row.
var ErrUnsupportedType = errors.New("unsupported type")

// Kind is the coercion applied to a field.
type Kind int

const (
	KindString Kind = iota
	KindInt
	KindFloat
	KindBool
	KindTime
	KindText
)

var (
	timeType            = reflect.TypeOf(time.Time{})
	textMarshalerType   = reflect.TypeOf((*encoding.TextMarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// Field is one tagged struct field.
type Field struct {
	// Name is the Go field name; it doubles as the header key name.
	Name string
	// Label is the header text the field is stored under.
	Label string
	Kind  Kind
	// Required fields must hold a value. Time and text fields are always required.
	Required bool

	index int
}

// Schema describes how a struct type maps to a row.
type Schema struct {
	typ    reflect.Type
	fields []Field
}

// SchemaOf reflects the row layout of T.
func SchemaOf[T any]() (*Schema, error) {
	return NewSchema(reflect.TypeOf((*T)(nil)).Elem())
}

// MustSchema is like SchemaOf but panics on error.
func MustSchema[T any]() *Schema {
	s, err := SchemaOf[T]()
	if err != nil {
		panic(err)
	}
	return s
}

// NewSchema reflects the row layout of a struct type.
func NewSchema(t reflect.Type) (*Schema, error) {
	if t.Kind() != reflect.Struct {
		return nil, fmt.Errorf("%w: %s is not a struct", ErrUnsupportedType, t)
	}

	s := &Schema{typ: t}
	seen := make(map[string]bool)
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		tag, ok := sf.Tag.Lookup("cell")
		if !ok || tag == "-" || !sf.IsExported() {
			continue
		}

		label, opts, _ := strings.Cut(tag, ",")
		label = strings.TrimSpace(label)
		if label == "" {
			return nil, fmt.Errorf("%w: field %s has an empty cell label", ErrUnsupportedType, sf.Name)
		}
		if seen[strings.ToLower(label)] {
			return nil, fmt.Errorf("%w: duplicate cell label %q", ErrUnsupportedType, label)
		}
		seen[strings.ToLower(label)] = true

		kind, err := kindOf(sf.Type)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", sf.Name, err)
		}

		f := Field{
			Name:     sf.Name,
			Label:    label,
			Kind:     kind,
			Required: opts == "nonempty" || kind == KindTime || kind == KindText,
			index:    i,
		}
		s.fields = append(s.fields, f)
	}

	if len(s.fields) == 0 {
		return nil, fmt.Errorf("%w: %s has no cell fields", ErrUnsupportedType, t)
	}
	return s, nil
}

func kindOf(t reflect.Type) (Kind, error) {
	switch {
	case t == timeType:
		return KindTime, nil
	case t.Implements(textMarshalerType) && reflect.PointerTo(t).Implements(textUnmarshalerType):
		return KindText, nil
	}

	switch t.Kind() {
	case reflect.String:
		return KindString, nil
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return KindInt, nil
	case reflect.Float32, reflect.Float64:
		return KindFloat, nil
	case reflect.Bool:
		return KindBool, nil
	}
	return 0, fmt.Errorf("%w: %s", ErrUnsupportedType, t)
}

// Type returns the struct type the schema describes.
func (s *Schema) Type() reflect.Type {
	return s.typ
}

// Fields returns the tagged fields in declaration order.
func (s *Schema) Fields() []Field {
	return s.fields
}

// Keys returns the header keys for the schema in declaration order.
func (s *Schema) Keys() []header.Key {
	keys := make([]header.Key, len(s.fields))
	for i, f := range s.fields {
		keys[i] = header.Key{Name: f.Name, Label: f.Label}
	}
	return keys
}

// Field returns the field with the given Go name.
func (s *Schema) Field(name string) (Field, bool) {
	for _, f := range s.fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

// structValue returns the addressable struct behind entity, which may be a
// value or a pointer of the schema's type.
func (s *Schema) structValue(entity any) (reflect.Value, error) {
	v := reflect.ValueOf(entity)
	if v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return reflect.Value{}, fmt.Errorf("%w: nil %s", ErrUnsupportedType, v.Type())
		}
		v = v.Elem()
	}
	if v.Type() != s.typ {
		return reflect.Value{}, fmt.Errorf("%w: got %s, schema is for %s", ErrUnsupportedType, v.Type(), s.typ)
	}
	return v, nil
}
