package sheetqueue

import (
	"context"
	"math"
	"strconv"
	"strings"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/codec"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/grid"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/header"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/models"
)

const (
	blacklistLabel = "Blacklisted Users"
	limitLabel     = "Submission Max Quantity"
)

var configKeys = []header.Key{
	{Name: "blacklistedUsers", Label: blacklistLabel},
	{Name: "submissionMaxQuantity", Label: limitLabel},
}

// GetConfig reads the queue config. A missing worksheet or header yields the
// defaults for the affected setting.
func (r *Repository) GetConfig(ctx context.Context) (models.QueueConfig, error) {
	title := r.opts.configTitle()
	defer r.lock(title)()
	logger := r.begin("get_config", title)

	cfg, err := r.readConfig(ctx, title)
	if err != nil {
		return models.QueueConfig{}, NewOperationError("get_config", title, err)
	}
	logger.Debug("config read", "blacklisted", len(cfg.BlacklistedUsers))
	return cfg, nil
}

// SaveConfig overwrites the stored config wholesale. The config worksheet is
// cleared and rewritten; blacklist ids are stored sorted, one per row.
func (r *Repository) SaveConfig(ctx context.Context, cfg models.QueueConfig) error {
	if err := validateConfig(cfg); err != nil {
		return err
	}

	title := r.opts.configTitle()
	defer r.lock(title)()
	logger := r.begin("save_config", title)

	if err := r.writeConfig(ctx, title, cfg); err != nil {
		return NewOperationError("save_config", title, err)
	}
	logger.Debug("config saved")
	return nil
}

// AddToBlacklist adds userID to the blacklist.
func (r *Repository) AddToBlacklist(ctx context.Context, userID string) error {
	return r.updateBlacklist(ctx, "blacklist_add", userID, func(set map[string]struct{}) {
		set[userID] = struct{}{}
	})
}

// RemoveFromBlacklist removes userID from the blacklist.
// Removing an id that is not listed is not an error.
func (r *Repository) RemoveFromBlacklist(ctx context.Context, userID string) error {
	return r.updateBlacklist(ctx, "blacklist_remove", userID, func(set map[string]struct{}) {
		delete(set, userID)
	})
}

func (r *Repository) updateBlacklist(ctx context.Context, op, userID string, mutate func(map[string]struct{})) error {
	userID = strings.TrimSpace(userID)
	if userID == "" {
		return &codec.ValidationError{Field: blacklistLabel, Reason: "user id must not be empty"}
	}

	title := r.opts.configTitle()
	defer r.lock(title)()
	logger := r.begin(op, title)

	cfg, err := r.readConfig(ctx, title)
	if err != nil {
		return NewOperationError(op, title, err)
	}
	set := cfg.Blacklist()
	mutate(set)
	cfg.SetBlacklist(set)

	if err := r.writeConfig(ctx, title, cfg); err != nil {
		return NewOperationError(op, title, err)
	}
	logger.Debug("blacklist updated", "user_id", userID, "size", len(cfg.BlacklistedUsers))
	return nil
}

func validateConfig(cfg models.QueueConfig) error {
	if limit, ok := cfg.Limit(); ok && limit <= 0 {
		return &codec.ValidationError{Field: limitLabel, Reason: "must be a positive integer"}
	}
	for _, id := range cfg.BlacklistedUsers {
		if strings.TrimSpace(id) == "" {
			return &codec.ValidationError{Field: blacklistLabel, Reason: "user id must not be empty"}
		}
	}
	return nil
}

func (r *Repository) readConfig(ctx context.Context, title string) (models.QueueConfig, error) {
	cfg := models.DefaultQueueConfig()

	ws, err := r.port.ResolveWorksheet(ctx, title, false)
	if err != nil || ws == nil {
		return cfg, err
	}
	hm, err := r.headers.Get(ctx, ws, configKeys)
	if err != nil {
		return cfg, err
	}

	if col, ok := hm.Column("blacklistedUsers"); ok {
		set := make(map[string]struct{})
		for row := header.Row + 1; ; row++ {
			v, err := r.port.ReadCell(ctx, ws, col, row)
			if err != nil {
				return cfg, err
			}
			id := strings.TrimSpace(v.Text())
			if id == "" {
				break
			}
			set[id] = struct{}{}
		}
		cfg.SetBlacklist(set)
	}

	if col, ok := hm.Column("submissionMaxQuantity"); ok {
		v, err := r.port.ReadCell(ctx, ws, col, header.Row+1)
		if err != nil {
			return cfg, err
		}
		if limit, ok := positiveInt(v); ok {
			cfg.SubmissionMaxQuantity = &limit
		}
	}
	return cfg, nil
}

func (r *Repository) writeConfig(ctx context.Context, title string, cfg models.QueueConfig) error {
	ws, err := r.port.ResolveWorksheet(ctx, title, true)
	if err != nil {
		return err
	}
	hm, err := r.headers.Create(ctx, ws, configKeys)
	if err != nil {
		return err
	}

	set := cfg.Blacklist()
	cfg.SetBlacklist(set)
	blacklistCol, _ := hm.Column("blacklistedUsers")
	for i, id := range cfg.BlacklistedUsers {
		if err := r.port.WriteCell(ctx, ws, blacklistCol, header.Row+1+i, grid.String(id)); err != nil {
			return err
		}
	}

	if limit, ok := cfg.Limit(); ok {
		limitCol, _ := hm.Column("submissionMaxQuantity")
		if err := r.port.WriteCell(ctx, ws, limitCol, header.Row+1, grid.Number(float64(limit))); err != nil {
			return err
		}
	}
	return nil
}

// positiveInt reads a positive whole number from a number cell or numeric text.
func positiveInt(v grid.Value) (int, bool) {
	n, ok := v.Number()
	if !ok {
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v.Text()), 64)
		if err != nil {
			return 0, false
		}
		n = parsed
	}
	if n < 1 || n != math.Trunc(n) || n > math.MaxInt32 {
		return 0, false
	}
	return int(n), true
}
