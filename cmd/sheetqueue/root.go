package main

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ukaji3/sheetqueue-go/internal/config"
	"github.com/ukaji3/sheetqueue-go/internal/logging"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/header"
)

// RootOptions holds global flags for all commands.
type RootOptions struct {
	Verbose  bool
	Format   string // "text" | "json" | "yaml"
	Backend  string
	Workbook string
	SQLite   string

	cfg *config.Config
}

// ValidFormats defines the allowed output formats.
var ValidFormats = []string{"text", "json", "yaml"}

// NewRootCommand creates the root command for the sheetqueue CLI.
func NewRootCommand() *cobra.Command {
	opts := &RootOptions{}

	cmd := &cobra.Command{
		Use:   "sheetqueue",
		Short: "Movie suggestion queue stored in worksheets",
		Long: `sheetqueue keeps a movie suggestion queue and its settings in a
worksheet document: an .xlsx workbook, a Google Sheets spreadsheet, or a
SQLite or PostgreSQL database laid out as worksheets.`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if !isValidFormat(opts.Format) {
				return NewExitError(ExitCommandError, fmt.Sprintf("invalid format %q: must be one of %v", opts.Format, ValidFormats))
			}
			return opts.loadConfig(cmd)
		},
	}

	cmd.PersistentFlags().BoolVarP(&opts.Verbose, "verbose", "v", false, "verbose output")
	cmd.PersistentFlags().StringVar(&opts.Format, "format", "text", "output format (text|json|yaml)")
	cmd.PersistentFlags().StringVar(&opts.Backend, "backend", "", "document backend (xlsx|sqlite|postgres|gsheets|memory); overrides SHEETQUEUE_BACKEND")
	cmd.PersistentFlags().StringVar(&opts.Workbook, "workbook", "", "workbook path for the xlsx backend; overrides SHEETQUEUE_WORKBOOK")
	cmd.PersistentFlags().StringVar(&opts.SQLite, "sqlite", "", "database path for the sqlite backend; overrides SHEETQUEUE_SQLITE_PATH")

	cmd.AddCommand(NewConfigCommand(opts))
	cmd.AddCommand(NewBlacklistCommand(opts))
	cmd.AddCommand(NewEntriesCommand(opts))
	cmd.AddCommand(NewDumpCommand(opts))
	cmd.AddCommand(NewServeCommand(opts))

	return cmd
}

// loadConfig reads the environment, applies flag overrides and validates.
func (o *RootOptions) loadConfig(cmd *cobra.Command) error {
	cfg, err := config.LoadUnvalidated()
	if err != nil {
		return WrapExitError(ExitCommandError, "configuration", err)
	}

	flags := cmd.Flags()
	if flags.Changed("backend") {
		cfg.Store.Backend = o.Backend
	}
	if flags.Changed("workbook") {
		cfg.Store.WorkbookPath = o.Workbook
	}
	if flags.Changed("sqlite") {
		cfg.Store.SQLitePath = o.SQLite
	}
	if o.Verbose {
		cfg.Logging.Level = "debug"
	}

	if err := cfg.Validate(); err != nil {
		return WrapExitError(ExitCommandError, "configuration", err)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	o.cfg = cfg
	return nil
}

// withRepository opens the configured backend, runs fn and closes the backend.
func (o *RootOptions) withRepository(ctx context.Context, fn func(*sheetqueue.Repository) error) (err error) {
	port, err := openPort(ctx, o.cfg.Store)
	if err != nil {
		return WrapExitError(ExitCommandError, "open backend", err)
	}
	defer func() {
		if cerr := port.Close(); cerr != nil && err == nil {
			err = WrapExitError(ExitCommandError, "close backend", cerr)
		}
	}()

	return fn(sheetqueue.New(port, o.repositoryOptions()))
}

func (o *RootOptions) repositoryOptions() sheetqueue.Options {
	opts := sheetqueue.DefaultOptions()
	// Validated in loadConfig
	opts.HeaderPolicy, _ = header.ParsePolicy(o.cfg.Store.HeaderPolicy)
	opts.ScanWidth = o.cfg.Store.ScanWidth
	return opts
}

// formatter returns the output formatter for cmd.
func (o *RootOptions) formatter(cmd *cobra.Command) *OutputFormatter {
	return &OutputFormatter{
		Format:    o.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   o.Verbose,
	}
}

// isValidFormat checks if the format is one of the allowed values.
func isValidFormat(format string) bool {
	for _, f := range ValidFormats {
		if f == strings.ToLower(format) {
			return true
		}
	}
	return false
}
