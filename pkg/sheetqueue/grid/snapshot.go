package grid

import (
	"context"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/column"
)

// CellRow is a single non-empty worksheet row.
type CellRow struct {
	// R is the row number (1-based).
	R int `json:"r" yaml:"r"`
	// C maps column label to cell value (string, float64 or bool).
	C map[string]any `json:"c" yaml:"c"`

	cols []string
}

// Columns returns the populated column labels in left-to-right order.
func (r CellRow) Columns() []string {
	return r.cols
}

// SnapshotOptions bounds the area read by Snapshot.
type SnapshotOptions struct {
	// Width is the number of columns read from A. If zero, 26 is used.
	Width int
	// MaxBlankRows is the number of consecutive empty rows that ends the scan.
	// If zero, 10 is used.
	MaxBlankRows int
	// MaxRows caps the number of rows read. If zero, 1000 is used.
	MaxRows int
}

func (o SnapshotOptions) width() int {
	if o.Width > 0 {
		return o.Width
	}
	return 26
}

func (o SnapshotOptions) maxBlankRows() int {
	if o.MaxBlankRows > 0 {
		return o.MaxBlankRows
	}
	return 10
}

func (o SnapshotOptions) maxRows() int {
	if o.MaxRows > 0 {
		return o.MaxRows
	}
	return 1000
}

// Snapshot reads the raw populated cells of ws, row by row from row 1,
// regardless of headers. Empty rows are skipped; the scan ends after
// MaxBlankRows consecutive empty rows. A nil worksheet yields no rows.
func Snapshot(ctx context.Context, port Port, ws *Worksheet, opts SnapshotOptions) ([]CellRow, error) {
	if ws == nil {
		return nil, nil
	}

	var result []CellRow
	blank := 0
	for row := 1; row <= opts.maxRows() && blank < opts.maxBlankRows(); row++ {
		cells := make(map[string]any)
		var cols []string

		col := "A"
		for i := 0; i < opts.width(); i++ {
			v, err := port.ReadCell(ctx, ws, col, row)
			if err != nil {
				return nil, err
			}
			if !v.IsEmpty() {
				cells[col] = v.Interface()
				cols = append(cols, col)
			}
			col = column.Increment(col)
		}

		if len(cols) == 0 {
			blank++
			continue
		}
		blank = 0
		result = append(result, CellRow{R: row, C: cells, cols: cols})
	}

	return result, nil
}
