package grid

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/xuri/excelize/v2"
)

// WorkbookOptions configures a Workbook backend.
type WorkbookOptions struct {
	// AutoSave writes the workbook to disk after every mutation.
	// If nil, defaults to true.
	AutoSave *bool
}

// ShouldAutoSave returns whether each mutation is flushed to disk.
func (o WorkbookOptions) ShouldAutoSave() bool {
	if o.AutoSave != nil {
		return *o.AutoSave
	}
	return true
}

// Workbook implements Port on top of an .xlsx file.
type Workbook struct {
	mu       sync.Mutex
	f        *excelize.File
	path     string
	autoSave bool
	dirty    bool
	closed   bool
}

// OpenWorkbook opens the workbook at path, creating a new one when the file
// does not exist yet. An empty path keeps the workbook in memory only.
func OpenWorkbook(path string, opts WorkbookOptions) (*Workbook, error) {
	var f *excelize.File
	if path != "" {
		if _, err := os.Stat(path); err == nil {
			f, err = excelize.OpenFile(path)
			if err != nil {
				return nil, NewIOError("open", "", "", err)
			}
		} else if !os.IsNotExist(err) {
			return nil, NewIOError("open", "", "", err)
		}
	}
	if f == nil {
		f = excelize.NewFile()
	}

	return &Workbook{
		f:        f,
		path:     path,
		autoSave: opts.ShouldAutoSave(),
	}, nil
}

// ResolveWorksheet implements Port.
func (w *Workbook) ResolveWorksheet(ctx context.Context, title string, create bool) (*Worksheet, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.check(ctx, "resolve", title, ""); err != nil {
		return nil, err
	}

	idx, err := w.f.GetSheetIndex(title)
	if err != nil {
		return nil, NewIOError("resolve", title, "", err)
	}
	if idx >= 0 {
		return &Worksheet{Title: title, sheetID: int64(idx)}, nil
	}
	if !create {
		return nil, nil
	}

	idx, err = w.f.NewSheet(title)
	if err != nil {
		return nil, NewIOError("resolve", title, "", err)
	}
	if err := w.mutated("resolve", title); err != nil {
		return nil, err
	}
	return &Worksheet{Title: title, sheetID: int64(idx)}, nil
}

// ReadCell implements Port.
func (w *Workbook) ReadCell(ctx context.Context, ws *Worksheet, col string, row int) (Value, error) {
	cell, err := CellName(col, row)
	if err != nil {
		return Value{}, err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.check(ctx, "read", ws.Title, cell); err != nil {
		return Value{}, err
	}

	raw, err := w.f.GetCellValue(ws.Title, cell, excelize.Options{RawCellValue: true})
	if err != nil {
		return Value{}, NewIOError("read", ws.Title, cell, err)
	}
	if raw == "" {
		return Empty(), nil
	}

	typ, err := w.f.GetCellType(ws.Title, cell)
	if err != nil {
		return Value{}, NewIOError("read", ws.Title, cell, err)
	}

	switch typ {
	case excelize.CellTypeBool:
		b, err := strconv.ParseBool(raw)
		if err != nil {
			return String(raw), nil
		}
		return Bool(b), nil
	case excelize.CellTypeNumber, excelize.CellTypeUnset:
		return ParseValue(raw), nil
	default:
		return String(raw), nil
	}
}

// WriteCell implements Port.
func (w *Workbook) WriteCell(ctx context.Context, ws *Worksheet, col string, row int, v Value) error {
	cell, err := CellName(col, row)
	if err != nil {
		return err
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.check(ctx, "write", ws.Title, cell); err != nil {
		return err
	}

	switch v.Kind() {
	case KindString:
		err = w.f.SetCellStr(ws.Title, cell, v.Text())
	case KindNumber:
		n, _ := v.Number()
		err = w.f.SetCellFloat(ws.Title, cell, n, -1, 64)
	case KindBool:
		b, _ := v.Bool()
		err = w.f.SetCellBool(ws.Title, cell, b)
	default:
		err = w.f.SetCellValue(ws.Title, cell, nil)
	}
	if err != nil {
		return NewIOError("write", ws.Title, cell, err)
	}

	return w.mutated("write", ws.Title)
}

// ClearWorksheet implements Port.
func (w *Workbook) ClearWorksheet(ctx context.Context, ws *Worksheet) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.check(ctx, "clear", ws.Title, ""); err != nil {
		return err
	}

	rows, err := w.f.GetRows(ws.Title)
	if err != nil {
		return NewIOError("clear", ws.Title, "", err)
	}

	// Remove from the bottom so row numbers stay valid
	for r := len(rows); r >= 1; r-- {
		if err := w.f.RemoveRow(ws.Title, r); err != nil {
			return NewIOError("clear", ws.Title, "", err)
		}
	}

	return w.mutated("clear", ws.Title)
}

// Save writes the workbook to its path.
func (w *Workbook) Save() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.save()
}

// Close flushes pending changes and releases the workbook.
func (w *Workbook) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.closed {
		return nil
	}
	w.closed = true

	saveErr := w.save()
	closeErr := w.f.Close()
	return errors.Join(saveErr, closeErr)
}

// File exposes the underlying excelize file.
// Use with caution - changes made through it bypass AutoSave, and the
// returned file is replaced on every save.
func (w *Workbook) File() *excelize.File {
	return w.f
}

func (w *Workbook) check(ctx context.Context, op, title, cell string) error {
	if err := ctx.Err(); err != nil {
		return NewIOError(op, title, cell, err)
	}
	if w.closed {
		return NewIOError(op, title, cell, ErrClosed)
	}
	return nil
}

func (w *Workbook) mutated(op, title string) error {
	w.dirty = true
	if !w.autoSave {
		return nil
	}
	if err := w.save(); err != nil {
		return NewIOError(op, title, "", err)
	}
	return nil
}

func (w *Workbook) save() error {
	if !w.dirty || w.path == "" {
		return nil
	}
	if err := w.f.SaveAs(w.path); err != nil {
		return fmt.Errorf("save workbook %s: %w", w.path, err)
	}
	w.dirty = false

	// SaveAs trims the in-memory rows it serialized, and later writes into a
	// trimmed row can land in the wrong cell. Continue from a fresh copy.
	f, err := excelize.OpenFile(w.path)
	if err != nil {
		return fmt.Errorf("reopen workbook %s: %w", w.path, err)
	}
	old := w.f
	w.f = f
	if err := old.Close(); err != nil {
		return fmt.Errorf("release workbook %s: %w", w.path, err)
	}
	return nil
}
