package grid

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/column"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS sheet_worksheets (
    title      TEXT PRIMARY KEY,
    created_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS sheet_cells (
    worksheet TEXT     NOT NULL REFERENCES sheet_worksheets(title) ON DELETE CASCADE,
    col       TEXT     NOT NULL,
    row       INTEGER  NOT NULL CHECK (row >= 1),
    kind      SMALLINT NOT NULL,
    value     TEXT     NOT NULL,
    PRIMARY KEY (worksheet, col, row)
);
`

// Postgres implements Port on a PostgreSQL database through a pgx pool.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects to databaseURL, verifies the connection and applies the schema.
func OpenPostgres(ctx context.Context, databaseURL string) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(databaseURL)
	if err != nil {
		return nil, NewIOError("open", "", "", fmt.Errorf("failed to parse database URL: %w", err))
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, NewIOError("open", "", "", fmt.Errorf("failed to connect to database: %w", err))
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, NewIOError("open", "", "", fmt.Errorf("failed to ping database: %w", err))
	}

	if _, err := pool.Exec(ctx, postgresSchema); err != nil {
		pool.Close()
		return nil, NewIOError("open", "", "", fmt.Errorf("failed to apply schema: %w", err))
	}

	return &Postgres{pool: pool}, nil
}

// NewPostgres wraps an existing pool. The schema must already exist.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

// ResolveWorksheet implements Port.
func (p *Postgres) ResolveWorksheet(ctx context.Context, title string, create bool) (*Worksheet, error) {
	if create {
		_, err := p.pool.Exec(ctx,
			`INSERT INTO sheet_worksheets (title) VALUES ($1) ON CONFLICT (title) DO NOTHING`, title)
		if err != nil {
			return nil, NewIOError("resolve", title, "", err)
		}
		return &Worksheet{Title: title}, nil
	}

	var found string
	err := p.pool.QueryRow(ctx, `SELECT title FROM sheet_worksheets WHERE title = $1`, title).Scan(&found)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, NewIOError("resolve", title, "", err)
	}
	return &Worksheet{Title: found}, nil
}

// ReadCell implements Port.
func (p *Postgres) ReadCell(ctx context.Context, ws *Worksheet, col string, row int) (Value, error) {
	cell, err := CellName(col, row)
	if err != nil {
		return Value{}, err
	}

	var (
		kind int16
		text string
	)
	err = p.pool.QueryRow(ctx,
		`SELECT kind, value FROM sheet_cells WHERE worksheet = $1 AND col = $2 AND row = $3`,
		ws.Title, column.Normalize(col), row,
	).Scan(&kind, &text)
	if errors.Is(err, pgx.ErrNoRows) {
		return Empty(), nil
	}
	if err != nil {
		return Value{}, NewIOError("read", ws.Title, cell, err)
	}

	v, err := decodeStored(Kind(kind), text)
	if err != nil {
		return Value{}, NewIOError("read", ws.Title, cell, err)
	}
	return v, nil
}

// WriteCell implements Port.
func (p *Postgres) WriteCell(ctx context.Context, ws *Worksheet, col string, row int, v Value) error {
	cell, err := CellName(col, row)
	if err != nil {
		return err
	}
	col = column.Normalize(col)

	if v.IsEmpty() {
		_, err = p.pool.Exec(ctx,
			`DELETE FROM sheet_cells WHERE worksheet = $1 AND col = $2 AND row = $3`,
			ws.Title, col, row,
		)
	} else {
		kind, text := encodeStored(v)
		_, err = p.pool.Exec(ctx, `
			INSERT INTO sheet_cells (worksheet, col, row, kind, value) VALUES ($1, $2, $3, $4, $5)
			ON CONFLICT (worksheet, col, row) DO UPDATE SET kind = EXCLUDED.kind, value = EXCLUDED.value`,
			ws.Title, col, row, int16(kind), text,
		)
	}
	if err != nil {
		return NewIOError("write", ws.Title, cell, err)
	}
	return nil
}

// ClearWorksheet implements Port.
func (p *Postgres) ClearWorksheet(ctx context.Context, ws *Worksheet) error {
	if _, err := p.pool.Exec(ctx, `DELETE FROM sheet_cells WHERE worksheet = $1`, ws.Title); err != nil {
		return NewIOError("clear", ws.Title, "", err)
	}
	return nil
}

// Close closes the pool.
func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
