package grid

import (
	"context"
	"sort"
	"strings"
	"sync"
)

// Memory implements Port with in-process maps.
// Uses sync.RWMutex for thread-safe concurrent access.
type Memory struct {
	mu     sync.RWMutex
	sheets map[string]map[string]Value // title -> A1 ref -> value
	closed bool
}

// NewMemory creates an empty in-memory document.
func NewMemory() *Memory {
	return &Memory{
		sheets: make(map[string]map[string]Value),
	}
}

// ResolveWorksheet implements Port.
func (m *Memory) ResolveWorksheet(ctx context.Context, title string, create bool) (*Worksheet, error) {
	if err := m.check(ctx, "resolve", title, ""); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sheets[title]; !ok {
		if !create {
			return nil, nil
		}
		m.sheets[title] = make(map[string]Value)
	}
	return &Worksheet{Title: title}, nil
}

// ReadCell implements Port.
func (m *Memory) ReadCell(ctx context.Context, ws *Worksheet, col string, row int) (Value, error) {
	cell, err := CellName(col, row)
	if err != nil {
		return Value{}, err
	}
	if err := m.check(ctx, "read", ws.Title, cell); err != nil {
		return Value{}, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	return m.sheets[ws.Title][cell], nil
}

// WriteCell implements Port.
func (m *Memory) WriteCell(ctx context.Context, ws *Worksheet, col string, row int, v Value) error {
	cell, err := CellName(col, row)
	if err != nil {
		return err
	}
	if err := m.check(ctx, "write", ws.Title, cell); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	sheet, ok := m.sheets[ws.Title]
	if !ok {
		return NewIOError("write", ws.Title, cell, errWorksheetGone)
	}
	if v.IsEmpty() {
		delete(sheet, cell)
		return nil
	}
	sheet[cell] = v
	return nil
}

// ClearWorksheet implements Port.
func (m *Memory) ClearWorksheet(ctx context.Context, ws *Worksheet) error {
	if err := m.check(ctx, "clear", ws.Title, ""); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sheets[ws.Title]; !ok {
		return NewIOError("clear", ws.Title, "", errWorksheetGone)
	}
	m.sheets[ws.Title] = make(map[string]Value)
	return nil
}

// Close implements Port.
func (m *Memory) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.closed = true
	return nil
}

// Titles returns the worksheet titles in sorted order.
func (m *Memory) Titles() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	titles := make([]string, 0, len(m.sheets))
	for title := range m.sheets {
		titles = append(titles, title)
	}
	sort.Strings(titles)
	return titles
}

// Dump renders every populated cell of a worksheet as "A1 = value" lines,
// ordered by row then column.
func (m *Memory) Dump(title string) string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	type entry struct {
		col, row int
		line     string
	}
	var entries []entry
	for ref, v := range m.sheets[title] {
		col, row, err := splitCellName(ref)
		if err != nil {
			continue
		}
		entries = append(entries, entry{col: col, row: row, line: ref + " = " + v.String()})
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].row != entries[j].row {
			return entries[i].row < entries[j].row
		}
		return entries[i].col < entries[j].col
	})

	var b strings.Builder
	for _, e := range entries {
		b.WriteString(e.line)
		b.WriteByte('\n')
	}
	return b.String()
}

func (m *Memory) check(ctx context.Context, op, title, cell string) error {
	if err := ctx.Err(); err != nil {
		return NewIOError(op, title, cell, err)
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return NewIOError(op, title, cell, ErrClosed)
	}
	return nil
}
