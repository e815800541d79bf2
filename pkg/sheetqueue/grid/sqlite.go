package grid

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"

	_ "github.com/mattn/go-sqlite3"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/column"
)

//go:embed schema.sql
var sqliteSchema string

// SQLite implements Port on a SQLite database, one row per populated cell.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite creates or opens a SQLite database at the given path.
// Applies required pragmas and the schema automatically.
//
// The database is configured with:
//   - WAL mode for concurrent reads during writes
//   - 5-second busy timeout for lock contention
//   - Foreign key enforcement
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, NewIOError("open", "", "", fmt.Errorf("failed to open database: %w", err))
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, NewIOError("open", "", "", fmt.Errorf("failed to connect to database: %w", err))
	}

	// SQLite only supports one writer at a time
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}
	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, NewIOError("open", "", "", fmt.Errorf("failed to execute %q: %w", pragma, err))
		}
	}

	if _, err := db.Exec(sqliteSchema); err != nil {
		db.Close()
		return nil, NewIOError("open", "", "", fmt.Errorf("failed to apply schema: %w", err))
	}

	return &SQLite{db: db}, nil
}

// ResolveWorksheet implements Port.
func (s *SQLite) ResolveWorksheet(ctx context.Context, title string, create bool) (*Worksheet, error) {
	if create {
		_, err := s.db.ExecContext(ctx, `INSERT OR IGNORE INTO worksheets (title) VALUES (?)`, title)
		if err != nil {
			return nil, NewIOError("resolve", title, "", err)
		}
		return &Worksheet{Title: title}, nil
	}

	var found string
	err := s.db.QueryRowContext(ctx, `SELECT title FROM worksheets WHERE title = ?`, title).Scan(&found)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, NewIOError("resolve", title, "", err)
	}
	return &Worksheet{Title: found}, nil
}

// ReadCell implements Port.
func (s *SQLite) ReadCell(ctx context.Context, ws *Worksheet, col string, row int) (Value, error) {
	cell, err := CellName(col, row)
	if err != nil {
		return Value{}, err
	}

	var (
		kind Kind
		text string
	)
	err = s.db.QueryRowContext(ctx,
		`SELECT kind, value FROM cells WHERE worksheet = ? AND col = ? AND row = ?`,
		ws.Title, column.Normalize(col), row,
	).Scan(&kind, &text)
	if errors.Is(err, sql.ErrNoRows) {
		return Empty(), nil
	}
	if err != nil {
		return Value{}, NewIOError("read", ws.Title, cell, err)
	}

	v, err := decodeStored(kind, text)
	if err != nil {
		return Value{}, NewIOError("read", ws.Title, cell, err)
	}
	return v, nil
}

// WriteCell implements Port.
func (s *SQLite) WriteCell(ctx context.Context, ws *Worksheet, col string, row int, v Value) error {
	cell, err := CellName(col, row)
	if err != nil {
		return err
	}
	col = column.Normalize(col)

	if v.IsEmpty() {
		_, err = s.db.ExecContext(ctx,
			`DELETE FROM cells WHERE worksheet = ? AND col = ? AND row = ?`,
			ws.Title, col, row,
		)
	} else {
		kind, text := encodeStored(v)
		_, err = s.db.ExecContext(ctx, `
			INSERT INTO cells (worksheet, col, row, kind, value) VALUES (?, ?, ?, ?, ?)
			ON CONFLICT (worksheet, col, row) DO UPDATE SET kind = excluded.kind, value = excluded.value`,
			ws.Title, col, row, kind, text,
		)
	}
	if err != nil {
		return NewIOError("write", ws.Title, cell, err)
	}
	return nil
}

// ClearWorksheet implements Port.
func (s *SQLite) ClearWorksheet(ctx context.Context, ws *Worksheet) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM cells WHERE worksheet = ?`, ws.Title); err != nil {
		return NewIOError("clear", ws.Title, "", err)
	}
	return nil
}

// Close closes the database connection.
func (s *SQLite) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}
