package grid

import (
	"errors"
	"testing"
)

func TestParseValue(t *testing.T) {
	tests := []struct {
		input    string
		expected Value
	}{
		{"123", Number(123)},
		{"123.45", Number(123.45)},
		{"-100", Number(-100)},
		{"hello", String("hello")},
		{"", Empty()},
	}

	for _, tt := range tests {
		result := ParseValue(tt.input)
		if result != tt.expected {
			t.Errorf("ParseValue(%q) = %v (kind: %v), expected %v (kind: %v)",
				tt.input, result, result.Kind(), tt.expected, tt.expected.Kind())
		}
	}
}

func TestValueText(t *testing.T) {
	tests := []struct {
		value    Value
		expected string
	}{
		{String("Fight Club"), "Fight Club"},
		{Number(550), "550"},
		{Number(2.5), "2.5"},
		{Bool(true), "true"},
		{Empty(), ""},
		{String(""), ""},
	}

	for _, tt := range tests {
		if result := tt.value.Text(); result != tt.expected {
			t.Errorf("%v.Text() = %q, expected %q", tt.value, result, tt.expected)
		}
	}
}

func TestEmptyStringIsEmpty(t *testing.T) {
	if !String("").IsEmpty() {
		t.Error("Expected String(\"\") to be empty")
	}
}

func TestFromInterface(t *testing.T) {
	tests := []struct {
		input    any
		expected Value
	}{
		{nil, Empty()},
		{"550", String("550")},
		{float64(1999), Number(1999)},
		{3, Number(3)},
		{int64(7), Number(7)},
		{false, Bool(false)},
	}

	for _, tt := range tests {
		if result := FromInterface(tt.input); result != tt.expected {
			t.Errorf("FromInterface(%v) = %v, expected %v", tt.input, result, tt.expected)
		}
	}
}

func TestStoredRoundTrip(t *testing.T) {
	values := []Value{String("u1"), Number(42), Number(-0.5), Bool(true), Bool(false)}

	for _, v := range values {
		kind, text := encodeStored(v)
		back, err := decodeStored(kind, text)
		if err != nil {
			t.Fatalf("decodeStored(%v, %q) failed: %v", kind, text, err)
		}
		if back != v {
			t.Errorf("round trip of %v produced %v", v, back)
		}
	}

	if _, err := decodeStored(KindNumber, "abc"); err == nil {
		t.Error("Expected error for non-numeric stored number")
	}
}

func TestCellName(t *testing.T) {
	tests := []struct {
		col      string
		row      int
		expected string
		wantErr  bool
	}{
		{"A", 1, "A1", false},
		{"f", 12, "F12", false},
		{"AA", 3, "AA3", false},
		{"A", 0, "", true},
		{"", 1, "", true},
	}

	for _, tt := range tests {
		result, err := CellName(tt.col, tt.row)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidCell) {
				t.Errorf("CellName(%q, %d) error = %v, expected ErrInvalidCell", tt.col, tt.row, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("CellName(%q, %d) failed: %v", tt.col, tt.row, err)
			continue
		}
		if result != tt.expected {
			t.Errorf("CellName(%q, %d) = %q, expected %q", tt.col, tt.row, result, tt.expected)
		}
	}
}

func TestIOErrorMessage(t *testing.T) {
	cause := errors.New("rate limited")
	err := NewIOError("write", "suggestions", "C4", cause)

	if got := err.Error(); got != "grid write suggestions!C4: rate limited" {
		t.Errorf("unexpected message %q", got)
	}
	if !errors.Is(err, cause) {
		t.Error("Expected IOError to unwrap to its cause")
	}
}

func TestParseSpreadsheetURL(t *testing.T) {
	tests := []struct {
		input    string
		expected string
		wantErr  bool
	}{
		{"https://docs.google.com/spreadsheets/d/1AbC-xyz_09/edit#gid=0", "1AbC-xyz_09", false},
		{"https://docs.google.com/spreadsheets/d/abc", "abc", false},
		{"https://example.com/spreadsheets/d/abc", "", true},
		{"http://docs.google.com/spreadsheets/d/abc", "", true},
		{"https://docs.google.com/document/d/abc", "", true},
		{"https://docs.google.com/spreadsheets/d/", "", true},
		{"::not a url", "", true},
	}

	for _, tt := range tests {
		result, err := ParseSpreadsheetURL(tt.input)
		if tt.wantErr {
			if !errors.Is(err, ErrInvalidSheetsURL) {
				t.Errorf("ParseSpreadsheetURL(%q) error = %v, expected ErrInvalidSheetsURL", tt.input, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseSpreadsheetURL(%q) failed: %v", tt.input, err)
			continue
		}
		if result != tt.expected {
			t.Errorf("ParseSpreadsheetURL(%q) = %q, expected %q", tt.input, result, tt.expected)
		}
	}
}

func TestQuoteTitle(t *testing.T) {
	if got := a1Range("It's", "A1"); got != "'It''s'!A1" {
		t.Errorf("a1Range = %q", got)
	}
}
