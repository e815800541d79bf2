package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/grid"
)

// WorksheetDump is the raw content of one worksheet.
type WorksheetDump struct {
	Title string         `json:"title" yaml:"title"`
	Rows  []grid.CellRow `json:"rows" yaml:"rows"`
}

// NewDumpCommand creates the dump command.
func NewDumpCommand(opts *RootOptions) *cobra.Command {
	var snapshot grid.SnapshotOptions

	cmd := &cobra.Command{
		Use:   "dump [worksheet...]",
		Short: "Print the raw cells of the queue worksheets",
		Long: `Print the raw populated cells of worksheets, row by row, without
decoding them. Rows that do not decode, and rows past a gap that ends
listings, are shown as stored. Defaults to the config and suggestions
worksheets.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRepository(cmd.Context(), func(repo *sheetqueue.Repository) error {
				titles := args
				if len(titles) == 0 {
					titles = repo.Worksheets()
				}

				dumps := make([]WorksheetDump, 0, len(titles))
				for _, title := range titles {
					rows, err := repo.Dump(cmd.Context(), title, snapshot)
					if err != nil {
						return err
					}
					if rows == nil {
						rows = []grid.CellRow{}
					}
					dumps = append(dumps, WorksheetDump{Title: title, Rows: rows})
				}

				return opts.formatter(cmd).Print(dumps, func(w io.Writer) error {
					return writeDumps(w, dumps)
				})
			})
		},
	}

	cmd.Flags().IntVar(&snapshot.Width, "width", 0, "columns read per row (default: header scan width)")
	cmd.Flags().IntVar(&snapshot.MaxBlankRows, "max-blank-rows", 10, "consecutive empty rows that end a worksheet")
	cmd.Flags().IntVar(&snapshot.MaxRows, "max-rows", 1000, "maximum rows read per worksheet")

	return cmd
}

func writeDumps(w io.Writer, dumps []WorksheetDump) error {
	for i, d := range dumps {
		if i > 0 {
			fmt.Fprintln(w)
		}
		fmt.Fprintf(w, "== %s ==\n", d.Title)
		if len(d.Rows) == 0 {
			fmt.Fprintln(w, "(empty)")
			continue
		}
		for _, row := range d.Rows {
			cells := make([]string, 0, len(row.Columns()))
			for _, col := range row.Columns() {
				cells = append(cells, fmt.Sprintf("%s=%v", col, grid.FromInterface(row.C[col])))
			}
			if _, err := fmt.Fprintf(w, "%d: %s\n", row.R, strings.Join(cells, " ")); err != nil {
				return err
			}
		}
	}
	return nil
}
