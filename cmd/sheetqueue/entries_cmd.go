package main

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/codec"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/models"
)

// EntryInput is one suggestion as given on the command line or in an import file.
type EntryInput struct {
	URL          string    `yaml:"url"`
	TheMovieDbID string    `yaml:"theMovieDbId"`
	Title        string    `yaml:"title"`
	Year         string    `yaml:"year"`
	SentAt       time.Time `yaml:"sentAt"`
	SentBy       string    `yaml:"sentBy"`
}

// Suggestion converts the input, stamping now when no time was given.
func (in EntryInput) Suggestion(now time.Time) (models.MovieSuggestion, error) {
	u, err := models.ParseURL(in.URL)
	if err != nil {
		return models.MovieSuggestion{}, &codec.ValidationError{Field: "URL", Reason: err.Error()}
	}
	sentAt := in.SentAt
	if sentAt.IsZero() {
		sentAt = now
	}
	return models.MovieSuggestion{
		URL:          u,
		TheMovieDbID: in.TheMovieDbID,
		Title:        in.Title,
		Year:         in.Year,
		SentAt:       sentAt.UTC(),
		SentBy:       in.SentBy,
	}, nil
}

// EntriesOptions holds flags for the entries commands.
type EntriesOptions struct {
	*RootOptions
	Input EntryInput
	At    string
	By    string
	Check bool
}

// NewEntriesCommand creates the entries command group.
func NewEntriesCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "entries",
		Short: "Store and list suggestions",
	}

	cmd.AddCommand(newPushCommand(&EntriesOptions{RootOptions: rootOpts}))
	cmd.AddCommand(newImportCommand(&EntriesOptions{RootOptions: rootOpts}))
	cmd.AddCommand(newListCommand(&EntriesOptions{RootOptions: rootOpts}))
	cmd.AddCommand(newCountCommand(&EntriesOptions{RootOptions: rootOpts}))

	return cmd
}

func newPushCommand(opts *EntriesOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "push",
		Short: "Store a suggestion, replacing one with the same TMDB id",
		Example: `  sheetqueue entries push --tmdb-id 550 --title "Fight Club" --year 1999 \
    --url https://www.themoviedb.org/movie/550-fight-club --by u1`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if opts.At != "" {
				at, err := time.Parse(time.RFC3339, opts.At)
				if err != nil {
					return WrapExitError(ExitFailure, "invalid --at", err)
				}
				opts.Input.SentAt = at
			}
			entry, err := opts.Input.Suggestion(time.Now())
			if err != nil {
				return err
			}

			return opts.withRepository(cmd.Context(), func(repo *sheetqueue.Repository) error {
				if opts.Check {
					if err := repo.CheckSubmission(cmd.Context(), entry.SentBy); err != nil {
						return err
					}
				}
				stored, err := repo.PushEntry(cmd.Context(), entry)
				if err != nil {
					return err
				}
				return opts.formatter(cmd).Print(stored, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Stored %s %q (submitted by %s)\n", stored.TheMovieDbID, stored.Title, stored.SentBy)
					return err
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.Input.TheMovieDbID, "tmdb-id", "", "TMDB id (required)")
	cmd.Flags().StringVar(&opts.Input.Title, "title", "", "movie title (required)")
	cmd.Flags().StringVar(&opts.Input.Year, "year", "", "release year")
	cmd.Flags().StringVar(&opts.Input.URL, "url", "", "absolute link to the movie (required)")
	cmd.Flags().StringVar(&opts.Input.SentBy, "by", "", "submitter user id (required)")
	cmd.Flags().StringVar(&opts.At, "at", "", "submission time, RFC 3339 (default: now)")
	cmd.Flags().BoolVar(&opts.Check, "check", false, "reject blacklisted users and users over the limit")

	return cmd
}

func newImportCommand(opts *EntriesOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "import <file.yaml>",
		Short: "Store every suggestion listed in a YAML file",
		Long: `Store every suggestion listed in a YAML file, in order.

The file holds a list of entries:

  - url: https://www.themoviedb.org/movie/550-fight-club
    theMovieDbId: "550"
    title: Fight Club
    year: "1999"
    sentAt: 2024-03-09T18:30:00Z
    sentBy: u1

Import stops at the first entry that fails.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			inputs, err := readImportFile(args[0])
			if err != nil {
				return WrapExitError(ExitCommandError, "read import file", err)
			}

			now := time.Now()
			return opts.withRepository(cmd.Context(), func(repo *sheetqueue.Repository) error {
				out := opts.formatter(cmd)
				stored := make([]models.MovieSuggestion, 0, len(inputs))
				for i, in := range inputs {
					entry, err := in.Suggestion(now)
					if err != nil {
						return fmt.Errorf("entry %d: %w", i+1, err)
					}
					if opts.Check {
						if err := repo.CheckSubmission(cmd.Context(), entry.SentBy); err != nil {
							return fmt.Errorf("entry %d: %w", i+1, err)
						}
					}
					saved, err := repo.PushEntry(cmd.Context(), entry)
					if err != nil {
						return fmt.Errorf("entry %d: %w", i+1, err)
					}
					out.VerboseLog("stored %s", saved.TheMovieDbID)
					stored = append(stored, saved)
				}
				return out.Print(stored, func(w io.Writer) error {
					_, err := fmt.Fprintf(w, "Imported %d entries\n", len(stored))
					return err
				})
			})
		},
	}

	cmd.Flags().BoolVar(&opts.Check, "check", false, "reject blacklisted users and users over the limit")

	return cmd
}

func readImportFile(path string) ([]EntryInput, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var inputs []EntryInput
	if err := yaml.Unmarshal(data, &inputs); err != nil {
		return nil, err
	}
	return inputs, nil
}

func newListCommand(opts *EntriesOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "list",
		Short: "List stored suggestions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRepository(cmd.Context(), func(repo *sheetqueue.Repository) error {
				var (
					entries []models.MovieSuggestion
					err     error
				)
				if opts.By != "" {
					entries, err = repo.ListBySender(cmd.Context(), opts.By)
				} else {
					entries, err = repo.ListAll(cmd.Context())
				}
				if err != nil {
					return err
				}
				return opts.formatter(cmd).Print(entries, func(w io.Writer) error {
					return writeEntries(w, entries)
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.By, "by", "", "only suggestions from this user id")

	return cmd
}

func newCountCommand(opts *EntriesOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "count",
		Short: "Count stored suggestions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRepository(cmd.Context(), func(repo *sheetqueue.Repository) error {
				var (
					n   int
					err error
				)
				if opts.By != "" {
					n, err = repo.CountBySender(cmd.Context(), opts.By)
				} else {
					n, err = repo.CountAll(cmd.Context())
				}
				if err != nil {
					return err
				}
				return opts.formatter(cmd).Print(map[string]int{"count": n}, func(w io.Writer) error {
					_, err := fmt.Fprintln(w, n)
					return err
				})
			})
		},
	}

	cmd.Flags().StringVar(&opts.By, "by", "", "only suggestions from this user id")

	return cmd
}

func writeEntries(w io.Writer, entries []models.MovieSuggestion) error {
	if len(entries) == 0 {
		_, err := fmt.Fprintln(w, "No entries")
		return err
	}

	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "TMDB ID\tTITLE\tYEAR\tSUBMITTED BY\tSUBMITTED AT\tURL")
	for _, e := range entries {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n",
			e.TheMovieDbID, e.Title, e.Year, e.SentBy, e.SentAt.Format(time.RFC3339), e.URL.String())
	}
	return tw.Flush()
}
