package sheetqueue

import (
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/grid"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/header"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/models"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/table"
)

// Repository is the queue's storage facade.
//
// Thread-safety: all methods are safe for concurrent use. Unless
// Options.Serialize is false, operations touching the same worksheet run one
// at a time. Nothing stops another process from writing the same document.
type Repository struct {
	port    grid.Port
	opts    Options
	headers *header.Registry
	entries *table.Table[models.MovieSuggestion]

	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

// New creates a Repository over port. The caller keeps ownership of port and
// closes it after the repository is no longer used.
func New(port grid.Port, opts Options) *Repository {
	logger := opts.logger()
	headers := &header.Registry{Port: port, ScanWidth: opts.ScanWidth, Logger: logger}

	entries, err := table.New(port, func(m models.MovieSuggestion) string { return m.TheMovieDbID })
	if err != nil {
		// MovieSuggestion's tags are fixed at compile time.
		panic(err)
	}
	entries.KeyField = "TheMovieDbID"
	entries.Headers = headers
	entries.Logger = logger

	return &Repository{
		port:    port,
		opts:    opts,
		headers: headers,
		entries: entries,
		locks:   make(map[string]*sync.Mutex),
	}
}

// Port returns the backend the repository was created with.
func (r *Repository) Port() grid.Port {
	return r.port
}

// ConfigWorksheet returns the title of the config worksheet.
func (r *Repository) ConfigWorksheet() string {
	return r.opts.configTitle()
}

// SuggestionsWorksheet returns the title of the suggestions worksheet.
func (r *Repository) SuggestionsWorksheet() string {
	return r.opts.suggestionsTitle()
}

// lock serializes operations on one worksheet and returns the unlock func.
func (r *Repository) lock(title string) func() {
	if !r.opts.ShouldSerialize() {
		return func() {}
	}

	r.mu.Lock()
	l, ok := r.locks[title]
	if !ok {
		l = &sync.Mutex{}
		r.locks[title] = l
	}
	r.mu.Unlock()

	l.Lock()
	return l.Unlock
}

// begin tags an operation with a fresh op id.
func (r *Repository) begin(op, worksheet string) *slog.Logger {
	logger := r.opts.logger().With(
		"op", op,
		"op_id", uuid.NewString(),
		"worksheet", worksheet,
	)
	logger.Debug("operation started")
	return logger
}
