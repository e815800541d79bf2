package sheetqueue

import (
	"errors"
	"fmt"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/table"
)

// ErrBlacklisted indicates a submitter on the blacklist.
var ErrBlacklisted = errors.New("user is blacklisted")

// ErrMalformedRow indicates a new suggestion would overwrite a stored row that
// does not decode. Repair the row (see Dump) and retry.
var ErrMalformedRow = table.ErrMalformedRow

// ErrQuotaExceeded indicates a submitter who used up their allotment.
var ErrQuotaExceeded = errors.New("submission limit reached")

// QuotaExceededError reports how many suggestions a submitter already has
// against the configured limit.
type QuotaExceededError struct {
	Limit int
	Count int
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("submission limit reached: %d of %d used", e.Count, e.Limit)
}

func (e *QuotaExceededError) Unwrap() error {
	return ErrQuotaExceeded
}

// OperationError represents a failed repository operation.
type OperationError struct {
	Op        string // "get_config", "save_config", "push_entry", "list_entries"
	Worksheet string
	Err       error
}

func (e *OperationError) Error() string {
	return fmt.Sprintf("%s on worksheet %q: %v", e.Op, e.Worksheet, e.Err)
}

func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewOperationError creates a new OperationError.
func NewOperationError(op, worksheet string, err error) *OperationError {
	return &OperationError{
		Op:        op,
		Worksheet: worksheet,
		Err:       err,
	}
}
