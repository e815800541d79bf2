// Package gridtest provides helpers for testing code that talks to a grid.Port.
package gridtest

import (
	"context"
	"errors"
	"sync"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/grid"
)

// ErrInjected is the transport error returned by a Faulty port when it trips.
var ErrInjected = errors.New("injected transport failure")

// Faulty wraps a Port and fails selected operations.
//
// Thread-safety: all methods are safe for concurrent use via internal mutex.
type Faulty struct {
	grid.Port

	mu         sync.Mutex
	failWrites int // fail once this many writes succeeded; <0 disables
	failReads  int // fail once this many reads succeeded; <0 disables
	failClear  bool
	writes     int
	reads      int
}

// NewFaulty wraps port with every fault disabled.
func NewFaulty(port grid.Port) *Faulty {
	return &Faulty{Port: port, failWrites: -1, failReads: -1}
}

// FailWritesAfter makes every write after the first n successful ones fail.
func (f *Faulty) FailWritesAfter(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failWrites = n
	f.writes = 0
}

// FailReadsAfter makes every read after the first n successful ones fail.
func (f *Faulty) FailReadsAfter(n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failReads = n
	f.reads = 0
}

// FailClear makes ClearWorksheet fail.
func (f *Faulty) FailClear(fail bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.failClear = fail
}

// Writes returns the number of writes that reached the wrapped port.
func (f *Faulty) Writes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes
}

// Reads returns the number of reads that reached the wrapped port.
func (f *Faulty) Reads() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.reads
}

// ReadCell implements grid.Port.
func (f *Faulty) ReadCell(ctx context.Context, ws *grid.Worksheet, col string, row int) (grid.Value, error) {
	f.mu.Lock()
	if f.failReads >= 0 && f.reads >= f.failReads {
		f.mu.Unlock()
		cell, _ := grid.CellName(col, row)
		return grid.Value{}, grid.NewIOError("read", ws.Title, cell, ErrInjected)
	}
	f.reads++
	f.mu.Unlock()

	return f.Port.ReadCell(ctx, ws, col, row)
}

// WriteCell implements grid.Port.
func (f *Faulty) WriteCell(ctx context.Context, ws *grid.Worksheet, col string, row int, v grid.Value) error {
	f.mu.Lock()
	if f.failWrites >= 0 && f.writes >= f.failWrites {
		f.mu.Unlock()
		cell, _ := grid.CellName(col, row)
		return grid.NewIOError("write", ws.Title, cell, ErrInjected)
	}
	f.writes++
	f.mu.Unlock()

	return f.Port.WriteCell(ctx, ws, col, row, v)
}

// ClearWorksheet implements grid.Port.
func (f *Faulty) ClearWorksheet(ctx context.Context, ws *grid.Worksheet) error {
	f.mu.Lock()
	fail := f.failClear
	f.mu.Unlock()

	if fail {
		return grid.NewIOError("clear", ws.Title, "", ErrInjected)
	}
	return f.Port.ClearWorksheet(ctx, ws)
}
