package codec

import "fmt"

// State classifies the result of decoding a row.
type State int

const (
	// StateEntity means the row decoded into an entity.
	StateEntity State = iota
	// StateEnd means the row holds no data: enumeration ran past the last row.
	StateEnd
	// StateMalformed means the row holds data that does not fit the schema.
	StateMalformed
)

func (s State) String() string {
	switch s {
	case StateEntity:
		return "entity"
	case StateEnd:
		return "end"
	default:
		return "malformed"
	}
}

// Outcome is the result of decoding one row.
// Field and Reason are set only for StateMalformed.
type Outcome struct {
	State  State
	Row    int
	Field  string
	Reason string
}

// End returns the outcome for an empty row.
func End(row int) Outcome {
	return Outcome{State: StateEnd, Row: row}
}

// Malformed returns the outcome for a row that does not fit the schema.
func Malformed(row int, field, reason string) Outcome {
	return Outcome{State: StateMalformed, Row: row, Field: field, Reason: reason}
}

// IsEntity reports whether the row decoded.
func (o Outcome) IsEntity() bool { return o.State == StateEntity }

// IsMalformed reports whether the row held data that could not be decoded.
func (o Outcome) IsMalformed() bool { return o.State == StateMalformed }

func (o Outcome) String() string {
	if o.State == StateMalformed {
		return fmt.Sprintf("row %d malformed: %s: %s", o.Row, o.Field, o.Reason)
	}
	return fmt.Sprintf("row %d %s", o.Row, o.State)
}
