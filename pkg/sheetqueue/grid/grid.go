package grid

import (
	"context"
	"fmt"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/column"
	"github.com/xuri/excelize/v2"
)

// Port is a handle on a document made of named worksheets.
// Implementations must honor ctx cancellation and report every transport
// failure as an *IOError.
type Port interface {
	// ResolveWorksheet returns the worksheet with the given title. When no such
	// worksheet exists it is created if create is set, otherwise (nil, nil) is returned.
	ResolveWorksheet(ctx context.Context, title string, create bool) (*Worksheet, error)

	// ReadCell returns the value stored at col/row. Unset cells read as Empty.
	ReadCell(ctx context.Context, ws *Worksheet, col string, row int) (Value, error)

	// WriteCell stores v at col/row. Writing Empty clears the cell.
	WriteCell(ctx context.Context, ws *Worksheet, col string, row int, v Value) error

	// ClearWorksheet removes every value on the worksheet.
	ClearWorksheet(ctx context.Context, ws *Worksheet) error

	// Close releases the backend connection.
	Close() error
}

// Worksheet identifies a resolved worksheet.
type Worksheet struct {
	// Title is the worksheet name as stored by the backend.
	Title string
	// sheetID is a backend specific identifier (Google Sheets sheetId).
	sheetID int64
}

// CellName builds an A1 style reference such as "B7" from a column label and a 1-based row.
func CellName(col string, row int) (string, error) {
	n, err := column.ToNumber(col)
	if err != nil {
		return "", fmt.Errorf("%w: column %q: %v", ErrInvalidCell, col, err)
	}
	name, err := excelize.CoordinatesToCellName(n, row)
	if err != nil {
		return "", fmt.Errorf("%w: %s%d: %v", ErrInvalidCell, col, row, err)
	}
	return name, nil
}

// splitCellName returns the 1-based column and row numbers of an A1 reference.
func splitCellName(ref string) (col, row int, err error) {
	return excelize.CellNameToCoordinates(ref)
}
