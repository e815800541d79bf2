// Package header locates and maintains the header row (row 1) of a worksheet.
//
// Header maps are built fresh on every call: another writer may have changed
// row 1 since the last read, so nothing here is cached.
package header

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/column"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/grid"
)

// Row is the row that holds headers.
const Row = 1

// DefaultScanWidth is the number of leading row-1 cells inspected when
// looking for headers (A through Z).
const DefaultScanWidth = 26

// ErrHeaderRowFull indicates there is no empty cell left in the scanned
// header window to append a missing header into.
var ErrHeaderRowFull = errors.New("no free header cell")

// Key is a logical field and the label identifying its column.
type Key struct {
	// Name is the logical field name (e.g. "theMovieDbId").
	Name string
	// Label is the header text written to row 1 (e.g. "TMDB ID").
	// Matching is case-insensitive.
	Label string
}

// Policy decides what a writer does when expected headers are missing.
type Policy int

const (
	// PolicyAppend writes missing headers into free row-1 cells and keeps
	// existing columns and data.
	PolicyAppend Policy = iota
	// PolicyRecreate clears the whole worksheet and writes a fresh header row.
	// Every stored row is lost.
	PolicyRecreate
)

func (p Policy) String() string {
	if p == PolicyRecreate {
		return "recreate"
	}
	return "append"
}

// ParsePolicy parses "append" or "recreate".
func ParsePolicy(s string) (Policy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "append":
		return PolicyAppend, nil
	case "recreate":
		return PolicyRecreate, nil
	default:
		return PolicyAppend, fmt.Errorf("invalid header policy %q (must be append or recreate)", s)
	}
}

// Map is a per-call view of row 1: logical field name to header column, or none.
type Map struct {
	keys []Key
	cols map[string]string
}

// Column returns the column label under which the named field is stored.
func (m Map) Column(name string) (string, bool) {
	col, ok := m.cols[name]
	return col, ok
}

// Keys returns the keys the map was built for, in declared order.
func (m Map) Keys() []Key {
	return m.keys
}

// Complete reports whether every key resolved to a header cell.
func (m Map) Complete() bool {
	return len(m.Missing()) == 0
}

// Missing returns the keys that have no header cell.
func (m Map) Missing() []Key {
	var missing []Key
	for _, k := range m.keys {
		if _, ok := m.cols[k.Name]; !ok {
			missing = append(missing, k)
		}
	}
	return missing
}

// Registry reads and writes header rows through a grid.Port.
type Registry struct {
	Port grid.Port
	// ScanWidth is the number of leading row-1 cells inspected.
	// The effective window is never narrower than the number of keys.
	// If zero, DefaultScanWidth is used.
	ScanWidth int
	// Logger receives warnings about destructive rebuilds. Defaults to slog.Default().
	Logger *slog.Logger
}

// NewRegistry creates a Registry with default settings.
func NewRegistry(port grid.Port) *Registry {
	return &Registry{Port: port}
}

// Get locates the header cell of each key. Unmatched keys resolve to none
// rather than failing; only backend errors are returned.
func (r *Registry) Get(ctx context.Context, ws *grid.Worksheet, keys []Key) (Map, error) {
	m, _, err := r.scan(ctx, ws, keys)
	return m, err
}

// Create clears the entire worksheet and writes fresh headers to row 1 in
// the declared key order, left to right from column A.
func (r *Registry) Create(ctx context.Context, ws *grid.Worksheet, keys []Key) (Map, error) {
	if err := r.Port.ClearWorksheet(ctx, ws); err != nil {
		return Map{}, fmt.Errorf("clear %q: %w", ws.Title, err)
	}

	m := Map{keys: keys, cols: make(map[string]string, len(keys))}
	col := "A"
	for _, k := range keys {
		if err := r.Port.WriteCell(ctx, ws, col, Row, grid.String(k.Label)); err != nil {
			return Map{}, fmt.Errorf("write header %q: %w", k.Label, err)
		}
		m.cols[k.Name] = col
		col = column.Increment(col)
	}
	return m, nil
}

// Ensure returns a complete header map for keys, repairing row 1 according to policy.
func (r *Registry) Ensure(ctx context.Context, ws *grid.Worksheet, keys []Key, policy Policy) (Map, error) {
	m, free, err := r.scan(ctx, ws, keys)
	if err != nil {
		return Map{}, err
	}
	missing := m.Missing()
	if len(missing) == 0 {
		return m, nil
	}

	if policy == PolicyRecreate {
		r.logger().Warn("header mismatch; recreating worksheet and discarding its rows",
			"worksheet", ws.Title,
			"missing", labels(missing),
		)
		return r.Create(ctx, ws, keys)
	}

	if len(free) < len(missing) {
		return Map{}, fmt.Errorf("%w: worksheet %q needs %d, has %d", ErrHeaderRowFull, ws.Title, len(missing), len(free))
	}
	for i, k := range missing {
		col := free[i]
		if err := r.Port.WriteCell(ctx, ws, col, Row, grid.String(k.Label)); err != nil {
			return Map{}, fmt.Errorf("write header %q: %w", k.Label, err)
		}
		m.cols[k.Name] = col
	}
	r.logger().Info("appended missing headers",
		"worksheet", ws.Title,
		"headers", labels(missing),
	)
	return m, nil
}

// scan reads the header window once, returning the key map and the free
// (empty) columns in left-to-right order.
func (r *Registry) scan(ctx context.Context, ws *grid.Worksheet, keys []Key) (Map, []string, error) {
	m := Map{keys: keys, cols: make(map[string]string, len(keys))}

	width := r.ScanWidth
	if width <= 0 {
		width = DefaultScanWidth
	}
	if width < len(keys) {
		width = len(keys)
	}

	var free []string
	col := "A"
	for i := 0; i < width; i++ {
		v, err := r.Port.ReadCell(ctx, ws, col, Row)
		if err != nil {
			return Map{}, nil, fmt.Errorf("read header %s%d: %w", col, Row, err)
		}

		if v.IsEmpty() {
			free = append(free, col)
		} else if v.Kind() == grid.KindString {
			text := strings.TrimSpace(v.Text())
			for _, k := range keys {
				if _, taken := m.cols[k.Name]; taken {
					continue
				}
				if strings.EqualFold(text, k.Label) {
					m.cols[k.Name] = col
					break
				}
			}
		}

		col = column.Increment(col)
	}

	return m, free, nil
}

func (r *Registry) logger() *slog.Logger {
	if r.Logger != nil {
		return r.Logger
	}
	return slog.Default()
}

func labels(keys []Key) []string {
	out := make([]string, len(keys))
	for i, k := range keys {
		out[i] = k.Label
	}
	return out
}
