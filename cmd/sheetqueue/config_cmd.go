package main

import (
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/models"
)

// NewConfigCommand creates the config command group.
func NewConfigCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or change the queue settings",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "get",
		Short: "Print the blacklist and the submission limit",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.withRepository(cmd.Context(), func(repo *sheetqueue.Repository) error {
				cfg, err := repo.GetConfig(cmd.Context())
				if err != nil {
					return err
				}
				return opts.formatter(cmd).Print(cfg, func(w io.Writer) error {
					return writeConfig(w, cfg)
				})
			})
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "set-limit <n|none>",
		Short: "Set the number of suggestions each user may hold",
		Example: `  sheetqueue config set-limit 3
  sheetqueue config set-limit none`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			limit, err := parseLimit(args[0])
			if err != nil {
				return WrapExitError(ExitFailure, "invalid limit", err)
			}
			return opts.withRepository(cmd.Context(), func(repo *sheetqueue.Repository) error {
				cfg, err := repo.GetConfig(cmd.Context())
				if err != nil {
					return err
				}
				cfg.SubmissionMaxQuantity = limit
				if err := repo.SaveConfig(cmd.Context(), cfg); err != nil {
					return err
				}
				return opts.formatter(cmd).Print(cfg, func(w io.Writer) error {
					return writeConfig(w, cfg)
				})
			})
		},
	})

	return cmd
}

// parseLimit parses a positive limit, or "none" for unlimited.
func parseLimit(s string) (*int, error) {
	if strings.EqualFold(s, "none") || strings.EqualFold(s, "unlimited") {
		return nil, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil, fmt.Errorf("%q is not a number", s)
	}
	if n <= 0 {
		return nil, fmt.Errorf("limit must be positive, got %d", n)
	}
	return &n, nil
}

func writeConfig(w io.Writer, cfg models.QueueConfig) error {
	blacklist := "(none)"
	if len(cfg.BlacklistedUsers) > 0 {
		blacklist = strings.Join(cfg.BlacklistedUsers, ", ")
	}
	limit := "unlimited"
	if n, ok := cfg.Limit(); ok {
		limit = strconv.Itoa(n)
	}
	_, err := fmt.Fprintf(w, "Blacklisted users: %s\nSubmission limit: %s\n", blacklist, limit)
	return err
}

// NewBlacklistCommand creates the blacklist command group.
func NewBlacklistCommand(opts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "blacklist",
		Short: "Add or remove blacklisted users",
	}

	update := func(use, short string, apply func(*sheetqueue.Repository, *cobra.Command, string) error) *cobra.Command {
		return &cobra.Command{
			Use:   use + " <user-id>",
			Short: short,
			Args:  cobra.ExactArgs(1),
			RunE: func(cmd *cobra.Command, args []string) error {
				return opts.withRepository(cmd.Context(), func(repo *sheetqueue.Repository) error {
					if err := apply(repo, cmd, args[0]); err != nil {
						return err
					}
					cfg, err := repo.GetConfig(cmd.Context())
					if err != nil {
						return err
					}
					return opts.formatter(cmd).Print(cfg, func(w io.Writer) error {
						return writeConfig(w, cfg)
					})
				})
			},
		}
	}

	cmd.AddCommand(update("add", "Blacklist a user", func(repo *sheetqueue.Repository, cmd *cobra.Command, id string) error {
		return repo.AddToBlacklist(cmd.Context(), id)
	}))
	cmd.AddCommand(update("remove", "Remove a user from the blacklist", func(repo *sheetqueue.Repository, cmd *cobra.Command, id string) error {
		return repo.RemoveFromBlacklist(cmd.Context(), id)
	}))

	return cmd
}
