// Package column provides arithmetic on spreadsheet column labels (A, B, ..., Z, AA, ...).
package column

import (
	"strings"

	"github.com/xuri/excelize/v2"
)

const alphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

// Normalize uppercases a label and strips every character that is not a letter A-Z.
func Normalize(label string) string {
	upper := strings.ToUpper(label)
	var b strings.Builder
	b.Grow(len(upper))
	for i := 0; i < len(upper); i++ {
		if c := upper[i]; c >= 'A' && c <= 'Z' {
			b.WriteByte(c)
		}
	}
	return b.String()
}

// Increment returns the column label that follows label.
// The input is normalized first, so "a1" increments to "B".
//
//	Increment("A")  // "B"
//	Increment("Z")  // "AA"
//	Increment("AZ") // "BA"
//	Increment("ZZ") // "AAA"
func Increment(label string) string {
	norm := Normalize(label)

	if len(norm) <= 1 {
		return incrementLetter(norm)
	}

	prefix, last := norm[:len(norm)-1], norm[len(norm)-1:]

	// Carry into the prefix
	if last == "Z" {
		return Increment(prefix) + "A"
	}

	return prefix + incrementLetter(last)
}

// incrementLetter increments a single letter. "Z" rolls over to "AA" and an
// empty label starts the sequence at "A".
func incrementLetter(letter string) string {
	idx := strings.Index(alphabet, letter)
	if letter == "" || idx < 0 {
		return "A"
	}
	if idx+1 >= len(alphabet) {
		return "AA"
	}
	return alphabet[idx+1 : idx+2]
}

// ToNumber maps a label to its 1-based column number ("A" is 1, "AA" is 27).
func ToNumber(label string) (int, error) {
	return excelize.ColumnNameToNumber(Normalize(label))
}

// FromNumber maps a 1-based column number back to its label.
func FromNumber(n int) (string, error) {
	return excelize.ColumnNumberToName(n)
}
