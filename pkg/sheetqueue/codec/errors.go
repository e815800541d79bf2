package codec

import (
	"errors"
	"fmt"
)

// ErrIncompleteHeaders indicates a write against a header map that does not
// cover every field.
var ErrIncompleteHeaders = errors.New("incomplete header row")

// ValidationError reports an entity that breaks a field invariant.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// IsValidationError reports whether err is or wraps a *ValidationError.
func IsValidationError(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
