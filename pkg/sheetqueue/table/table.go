// Package table treats a worksheet as a list of entities: one header row
// followed by one entity per row, ending at the first row that does not decode.
package table

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/codec"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/grid"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/header"
)

// FirstRow is the first data row, directly beneath the headers.
const FirstRow = header.Row + 1

// ErrMalformedRow indicates that a new entity would be written over a row
// that holds data but does not decode.
var ErrMalformedRow = errors.New("malformed row in the way")

// Table reads and writes entities of type T on worksheets of a Port.
// It holds no row state; every call re-reads the header row.
type Table[T any] struct {
	Port    grid.Port
	Schema  *codec.Schema
	Headers *header.Registry
	// Key returns the unique key used to match rows on upsert.
	Key func(T) string
	// KeyField names the schema field Key reads. When set, a malformed row
	// holding the same key is overwritten, which repairs an interrupted write.
	KeyField string
	// Logger receives malformed-row warnings. Defaults to slog.Default().
	Logger *slog.Logger
}

// New creates a Table for T, deriving the schema from T's cell tags.
func New[T any](port grid.Port, key func(T) string) (*Table[T], error) {
	schema, err := codec.SchemaOf[T]()
	if err != nil {
		return nil, err
	}
	return &Table[T]{
		Port:    port,
		Schema:  schema,
		Headers: header.NewRegistry(port),
		Key:     key,
	}, nil
}

// Result is the outcome of one enumeration.
type Result[T any] struct {
	// Items are the decoded entities in row order.
	Items []T
	// Rows holds the sheet row of each item.
	Rows []int
	// Stop is the outcome of the row that ended enumeration.
	Stop codec.Outcome
}

// Len returns the number of decoded entities.
func (r Result[T]) Len() int {
	return len(r.Items)
}

// Enumerate decodes rows from FirstRow down until the first row that is not an
// entity. A malformed row truncates the result and is logged at warn level.
// A nil worksheet yields an empty result.
func (t *Table[T]) Enumerate(ctx context.Context, ws *grid.Worksheet) (Result[T], error) {
	if ws == nil {
		return Result[T]{Stop: codec.End(FirstRow)}, nil
	}

	hm, err := t.Headers.Get(ctx, ws, t.Schema.Keys())
	if err != nil {
		return Result[T]{}, err
	}
	if len(hm.Missing()) == len(hm.Keys()) {
		return Result[T]{Stop: codec.End(FirstRow)}, nil
	}
	return t.enumerate(ctx, ws, hm)
}

func (t *Table[T]) enumerate(ctx context.Context, ws *grid.Worksheet, hm header.Map) (Result[T], error) {
	var res Result[T]
	for row := FirstRow; ; row++ {
		var item T
		out, err := t.Schema.DecodeRow(ctx, t.Port, ws, hm, row, &item)
		if err != nil {
			return Result[T]{}, fmt.Errorf("enumerate %q: %w", ws.Title, err)
		}
		if !out.IsEntity() {
			if out.IsMalformed() {
				t.logger().Warn("row decode failed; truncating enumeration",
					"worksheet", ws.Title,
					"row", out.Row,
					"field", out.Field,
					"reason", out.Reason,
				)
			}
			res.Stop = out
			return res, nil
		}
		res.Items = append(res.Items, item)
		res.Rows = append(res.Rows, row)
	}
}

// Upsert stores entity on ws. The row whose key equals the entity's key is
// overwritten in place; otherwise the entity is written directly beneath the
// last enumerated row. Missing headers are repaired according to policy.
//
// When enumeration stopped at a malformed row, that row is only overwritten if
// its key cell holds the entity's key. Otherwise Upsert fails with
// ErrMalformedRow and leaves the sheet's data untouched.
//
// The returned value is the entity as it reads back from the sheet.
// Upsert is not atomic: a concurrent writer may append to the same row, and
// a failure part way through leaves the row partially written.
func (t *Table[T]) Upsert(ctx context.Context, ws *grid.Worksheet, policy header.Policy, entity T) (T, error) {
	var stored T

	values, err := t.Schema.EncodeValues(entity)
	if err != nil {
		return stored, err
	}
	out, err := t.Schema.DecodeValues(0, values, &stored)
	if err != nil {
		return stored, err
	}
	if !out.IsEntity() {
		return stored, fmt.Errorf("encoded entity does not read back: %s", out)
	}

	hm, err := t.Headers.Ensure(ctx, ws, t.Schema.Keys(), policy)
	if err != nil {
		return stored, err
	}
	res, err := t.enumerate(ctx, ws, hm)
	if err != nil {
		return stored, err
	}

	row := 0
	key := t.Key(stored)
	for i, item := range res.Items {
		if t.Key(item) == key {
			row = res.Rows[i]
			break
		}
	}
	if row == 0 {
		row = FirstRow + res.Len()
		if res.Stop.IsMalformed() {
			same, err := t.holdsKey(ctx, ws, hm, res.Stop.Row, key)
			if err != nil {
				return stored, err
			}
			if !same {
				return stored, fmt.Errorf("%w: %q %s", ErrMalformedRow, ws.Title, res.Stop)
			}
		}
	}

	if err := t.Schema.WriteValues(ctx, t.Port, ws, hm, row, values); err != nil {
		return stored, fmt.Errorf("upsert %q row %d: %w", ws.Title, row, err)
	}
	return stored, nil
}

// holdsKey reports whether the key cell of row reads as key.
func (t *Table[T]) holdsKey(ctx context.Context, ws *grid.Worksheet, hm header.Map, row int, key string) (bool, error) {
	if t.KeyField == "" {
		return false, nil
	}
	col, ok := hm.Column(t.KeyField)
	if !ok {
		return false, nil
	}
	v, err := t.Port.ReadCell(ctx, ws, col, row)
	if err != nil {
		return false, fmt.Errorf("upsert %q row %d: %w", ws.Title, row, err)
	}
	return strings.TrimSpace(v.Text()) == key, nil
}

func (t *Table[T]) logger() *slog.Logger {
	if t.Logger != nil {
		return t.Logger
	}
	return slog.Default()
}
