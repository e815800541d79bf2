// Package sheetqueue stores a movie suggestion queue in worksheets.
//
// Repository is the only type callers need: it hides the worksheet layout,
// the header handling and the backend behind a handful of operations, so the
// grid.Port underneath can be swapped for a real database without touching
// callers.
package sheetqueue

import (
	"log/slog"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/header"
)

const (
	// ConfigWorksheet holds the queue config.
	ConfigWorksheet = "config"
	// SuggestionsWorksheet holds one suggestion per row.
	SuggestionsWorksheet = "suggestions"
)

// Options configures a Repository.
type Options struct {
	// HeaderPolicy decides how a suggestions header row with missing columns is
	// repaired. The zero value appends missing headers and keeps data.
	HeaderPolicy header.Policy
	// Serialize runs operations on the same worksheet one at a time.
	// If nil, defaults to true.
	Serialize *bool
	// ScanWidth overrides header.DefaultScanWidth.
	ScanWidth int
	// ConfigWorksheet overrides the config worksheet title.
	ConfigWorksheet string
	// SuggestionsWorksheet overrides the suggestions worksheet title.
	SuggestionsWorksheet string
	// Logger defaults to slog.Default().
	Logger *slog.Logger
}

// DefaultOptions returns the default repository options.
func DefaultOptions() Options {
	return Options{
		HeaderPolicy: header.PolicyAppend,
	}
}

// ShouldSerialize returns whether operations on a worksheet are serialized.
func (o Options) ShouldSerialize() bool {
	if o.Serialize != nil {
		return *o.Serialize
	}
	return true
}

func (o Options) configTitle() string {
	if o.ConfigWorksheet != "" {
		return o.ConfigWorksheet
	}
	return ConfigWorksheet
}

func (o Options) suggestionsTitle() string {
	if o.SuggestionsWorksheet != "" {
		return o.SuggestionsWorksheet
	}
	return SuggestionsWorksheet
}

func (o Options) logger() *slog.Logger {
	if o.Logger != nil {
		return o.Logger
	}
	return slog.Default()
}
