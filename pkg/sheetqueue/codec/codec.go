package codec

import (
	"context"
	"encoding"
	"fmt"
	"math"
	"net/http"
	"reflect"
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/grid"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/header"
)

// TimeFormat is the layout timestamps are written with.
const TimeFormat = http.TimeFormat

// timeLayouts are accepted when reading timestamps, most specific first.
var timeLayouts = []string{
	TimeFormat,
	time.RFC1123Z,
	time.RFC1123,
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// DecodeRow reads one row through the header map and decodes it into dst,
// which must be a non-nil pointer to the schema's struct type. dst is only
// assigned when the outcome is StateEntity. Backend failures are returned as
// errors and never folded into the outcome.
func (s *Schema) DecodeRow(ctx context.Context, port grid.Port, ws *grid.Worksheet, hm header.Map, row int, dst any) (Outcome, error) {
	values := make([]grid.Value, len(s.fields))
	missing := ""
	for i, f := range s.fields {
		col, ok := hm.Column(f.Name)
		if !ok {
			if missing == "" {
				missing = f.Label
			}
			continue
		}
		v, err := port.ReadCell(ctx, ws, col, row)
		if err != nil {
			return Outcome{}, fmt.Errorf("read %s row %d: %w", f.Label, row, err)
		}
		values[i] = v
	}

	if missing != "" {
		if allEmpty(values) {
			return End(row), nil
		}
		return Malformed(row, missing, "missing header"), nil
	}
	return s.DecodeValues(row, values, dst)
}

// DecodeValues decodes the cell values of one row, given in schema field
// order, into dst.
func (s *Schema) DecodeValues(row int, values []grid.Value, dst any) (Outcome, error) {
	rv := reflect.ValueOf(dst)
	if rv.Kind() != reflect.Pointer {
		return Outcome{}, fmt.Errorf("%w: decode target must be a pointer, got %T", ErrUnsupportedType, dst)
	}
	target, err := s.structValue(dst)
	if err != nil {
		return Outcome{}, err
	}
	if len(values) != len(s.fields) {
		return Outcome{}, fmt.Errorf("decode row %d: got %d values for %d fields", row, len(values), len(s.fields))
	}

	if allEmpty(values) {
		return End(row), nil
	}

	tmp := reflect.New(s.typ).Elem()
	for i, f := range s.fields {
		if reason := decodeField(tmp.Field(f.index), f, values[i]); reason != "" {
			return Malformed(row, f.Label, reason), nil
		}
	}
	target.Set(tmp)
	return Outcome{State: StateEntity, Row: row}, nil
}

func decodeField(fv reflect.Value, f Field, v grid.Value) string {
	if v.IsEmpty() {
		if f.Required {
			return "missing value"
		}
		return ""
	}

	switch f.Kind {
	case KindString:
		text := v.Text()
		if f.Required && strings.TrimSpace(text) == "" {
			return "missing value"
		}
		fv.SetString(text)

	case KindInt:
		var n int64
		if num, ok := v.Number(); ok {
			if num != math.Trunc(num) {
				return fmt.Sprintf("%v is not an integer", num)
			}
			if num < math.MinInt64 || num >= -math.MinInt64 {
				return fmt.Sprintf("%v is out of range", num)
			}
			n = int64(num)
		} else {
			parsed, err := strconv.ParseInt(strings.TrimSpace(v.Text()), 10, 64)
			if err != nil {
				return fmt.Sprintf("%q is not an integer", v.Text())
			}
			n = parsed
		}
		if fv.OverflowInt(n) {
			return fmt.Sprintf("%d is out of range", n)
		}
		fv.SetInt(n)

	case KindFloat:
		num, ok := v.Number()
		if !ok {
			parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Text()), 64)
			if err != nil {
				return fmt.Sprintf("%q is not a number", v.Text())
			}
			num = parsed
		}
		fv.SetFloat(num)

	case KindBool:
		b, ok := v.Bool()
		if !ok {
			parsed, err := strconv.ParseBool(strings.TrimSpace(v.Text()))
			if err != nil {
				return fmt.Sprintf("%q is not a boolean", v.Text())
			}
			b = parsed
		}
		fv.SetBool(b)

	case KindTime:
		t, err := parseTime(v)
		if err != nil {
			return err.Error()
		}
		fv.Set(reflect.ValueOf(t))

	case KindText:
		ptr := reflect.New(fv.Type())
		if err := ptr.Interface().(encoding.TextUnmarshaler).UnmarshalText([]byte(v.Text())); err != nil {
			return err.Error()
		}
		fv.Set(ptr.Elem())
	}
	return ""
}

// parseTime reads a timestamp from text or, for workbooks that converted the
// cell, from an Excel serial date.
func parseTime(v grid.Value) (time.Time, error) {
	if num, ok := v.Number(); ok {
		t, err := excelize.ExcelDateToTime(num, false)
		if err != nil {
			return time.Time{}, fmt.Errorf("%v is not a date", num)
		}
		return t.UTC(), nil
	}

	text := strings.TrimSpace(v.Text())
	for _, layout := range timeLayouts {
		if t, err := time.Parse(layout, text); err == nil {
			return t.UTC(), nil
		}
	}
	return time.Time{}, fmt.Errorf("%q is not a date", text)
}

// Validate checks the field invariants of entity without touching storage.
func (s *Schema) Validate(entity any) error {
	v, err := s.structValue(entity)
	if err != nil {
		return err
	}

	for _, f := range s.fields {
		fv := v.Field(f.index)
		switch f.Kind {
		case KindString:
			if f.Required && strings.TrimSpace(fv.String()) == "" {
				return &ValidationError{Field: f.Label, Reason: "must not be empty"}
			}
		case KindTime:
			if fv.Interface().(time.Time).IsZero() {
				return &ValidationError{Field: f.Label, Reason: "must be set"}
			}
		case KindText:
			if fv.IsZero() {
				return &ValidationError{Field: f.Label, Reason: "must not be empty"}
			}
			if validator, ok := fv.Interface().(interface{ Validate() error }); ok {
				if err := validator.Validate(); err != nil {
					return &ValidationError{Field: f.Label, Reason: err.Error()}
				}
			}
		}
	}
	return nil
}

// EncodeValues validates entity and renders its cell values in schema field order.
func (s *Schema) EncodeValues(entity any) ([]grid.Value, error) {
	if err := s.Validate(entity); err != nil {
		return nil, err
	}
	v, err := s.structValue(entity)
	if err != nil {
		return nil, err
	}

	values := make([]grid.Value, len(s.fields))
	for i, f := range s.fields {
		cell, err := encodeField(v.Field(f.index), f)
		if err != nil {
			return nil, &ValidationError{Field: f.Label, Reason: err.Error()}
		}
		values[i] = cell
	}
	return values, nil
}

func encodeField(fv reflect.Value, f Field) (grid.Value, error) {
	switch f.Kind {
	case KindInt:
		return grid.Number(float64(fv.Int())), nil
	case KindFloat:
		return grid.Number(fv.Float()), nil
	case KindBool:
		return grid.Bool(fv.Bool()), nil
	case KindTime:
		return grid.String(fv.Interface().(time.Time).UTC().Format(TimeFormat)), nil
	case KindText:
		text, err := fv.Interface().(encoding.TextMarshaler).MarshalText()
		if err != nil {
			return grid.Value{}, err
		}
		return grid.String(string(text)), nil
	default:
		return grid.String(fv.String()), nil
	}
}

// EncodeRow validates entity and writes it to row, one WriteCell per field in
// schema order. A failure part way through leaves the row partially written.
func (s *Schema) EncodeRow(ctx context.Context, port grid.Port, ws *grid.Worksheet, hm header.Map, row int, entity any) error {
	values, err := s.EncodeValues(entity)
	if err != nil {
		return err
	}
	return s.WriteValues(ctx, port, ws, hm, row, values)
}

// WriteValues writes already encoded values to row.
func (s *Schema) WriteValues(ctx context.Context, port grid.Port, ws *grid.Worksheet, hm header.Map, row int, values []grid.Value) error {
	if len(values) != len(s.fields) {
		return fmt.Errorf("write row %d: got %d values for %d fields", row, len(values), len(s.fields))
	}

	cols := make([]string, len(s.fields))
	for i, f := range s.fields {
		col, ok := hm.Column(f.Name)
		if !ok {
			return fmt.Errorf("%w: no column for %q", ErrIncompleteHeaders, f.Label)
		}
		cols[i] = col
	}

	for i, f := range s.fields {
		if err := port.WriteCell(ctx, ws, cols[i], row, values[i]); err != nil {
			return fmt.Errorf("write %s row %d: %w", f.Label, row, err)
		}
	}
	return nil
}

func allEmpty(values []grid.Value) bool {
	for _, v := range values {
		if !v.IsEmpty() {
			return false
		}
	}
	return true
}
