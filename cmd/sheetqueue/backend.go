package main

import (
	"context"
	"fmt"

	"google.golang.org/api/option"

	"github.com/ukaji3/sheetqueue-go/internal/config"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/grid"
)

// openPort opens the document backend selected by cfg.
func openPort(ctx context.Context, cfg config.StoreConfig) (grid.Port, error) {
	switch cfg.Backend {
	case config.BackendWorkbook:
		return grid.OpenWorkbook(cfg.WorkbookPath, grid.WorkbookOptions{})
	case config.BackendSQLite:
		return grid.OpenSQLite(cfg.SQLitePath)
	case config.BackendPostgres:
		return grid.OpenPostgres(ctx, cfg.DatabaseURL)
	case config.BackendGoogleSheets:
		var opts []option.ClientOption
		if cfg.CredentialsFile != "" {
			opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
		}
		return grid.OpenGoogleSheets(ctx, cfg.SheetURL, opts...)
	case config.BackendMemory:
		return grid.NewMemory(), nil
	default:
		return nil, fmt.Errorf("unknown backend %q", cfg.Backend)
	}
}
