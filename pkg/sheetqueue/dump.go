package sheetqueue

import (
	"context"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/grid"
)

// Worksheets returns the titles of the config and suggestions worksheets.
func (r *Repository) Worksheets() []string {
	return []string{r.ConfigWorksheet(), r.SuggestionsWorksheet()}
}

// Dump returns the raw populated cells of a worksheet, including rows that no
// longer decode and rows past a gap that ends listings. A missing worksheet
// yields no rows.
func (r *Repository) Dump(ctx context.Context, title string, opts grid.SnapshotOptions) ([]grid.CellRow, error) {
	defer r.lock(title)()
	logger := r.begin("dump", title)

	ws, err := r.port.ResolveWorksheet(ctx, title, false)
	if err != nil {
		return nil, NewOperationError("dump", title, err)
	}
	if opts.Width == 0 {
		opts.Width = r.headers.ScanWidth
	}
	rows, err := grid.Snapshot(ctx, r.port, ws, opts)
	if err != nil {
		return nil, NewOperationError("dump", title, err)
	}
	logger.Debug("worksheet dumped", "rows", len(rows))
	return rows, nil
}
