package grid

import (
	"errors"
	"fmt"
)

// ErrInvalidCell indicates a malformed column label or row number.
var ErrInvalidCell = errors.New("invalid cell reference")

// ErrClosed indicates the backend was used after Close.
var ErrClosed = errors.New("grid backend closed")

var errWorksheetGone = errors.New("worksheet no longer exists")

// IOError reports a failed backend operation (timeout, rate limit, denied access, ...).
// The transport error is kept as-is and available through Unwrap.
type IOError struct {
	Op        string // "resolve", "read", "write", "clear", "open"
	Worksheet string
	Cell      string
	Err       error
}

func (e *IOError) Error() string {
	switch {
	case e.Cell != "":
		return fmt.Sprintf("grid %s %s!%s: %v", e.Op, e.Worksheet, e.Cell, e.Err)
	case e.Worksheet != "":
		return fmt.Sprintf("grid %s %q: %v", e.Op, e.Worksheet, e.Err)
	default:
		return fmt.Sprintf("grid %s: %v", e.Op, e.Err)
	}
}

func (e *IOError) Unwrap() error {
	return e.Err
}

// NewIOError creates a new IOError.
func NewIOError(op, worksheet, cell string, err error) *IOError {
	return &IOError{
		Op:        op,
		Worksheet: worksheet,
		Cell:      cell,
		Err:       err,
	}
}

// IsIOError reports whether err is or wraps an *IOError.
func IsIOError(err error) bool {
	var ioErr *IOError
	return errors.As(err, &ioErr)
}
