package sheetqueue

import (
	"context"
	"strings"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/codec"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/models"
)

// PushEntry stores a suggestion, replacing the stored one with the same
// TheMovieDbID. Invalid entities are rejected with a *codec.ValidationError
// before anything is written. The returned suggestion is the stored copy.
func (r *Repository) PushEntry(ctx context.Context, e models.MovieSuggestion) (models.MovieSuggestion, error) {
	title := r.opts.suggestionsTitle()
	if err := r.entries.Schema.Validate(e); err != nil {
		return models.MovieSuggestion{}, err
	}

	defer r.lock(title)()
	logger := r.begin("push_entry", title)

	ws, err := r.port.ResolveWorksheet(ctx, title, true)
	if err != nil {
		return models.MovieSuggestion{}, NewOperationError("push_entry", title, err)
	}
	stored, err := r.entries.Upsert(ctx, ws, r.opts.HeaderPolicy, e)
	if err != nil {
		return models.MovieSuggestion{}, NewOperationError("push_entry", title, err)
	}
	logger.Debug("entry stored", "tmdb_id", stored.TheMovieDbID, "sent_by", stored.SentBy)
	return stored, nil
}

// ListAll returns every stored suggestion in row order.
// Listing stops at the first row that does not decode.
func (r *Repository) ListAll(ctx context.Context) ([]models.MovieSuggestion, error) {
	return r.list(ctx, "list_entries", nil)
}

// CountAll returns the number of stored suggestions.
func (r *Repository) CountAll(ctx context.Context) (int, error) {
	all, err := r.ListAll(ctx)
	return len(all), err
}

// ListBySender returns the suggestions submitted by senderID.
func (r *Repository) ListBySender(ctx context.Context, senderID string) ([]models.MovieSuggestion, error) {
	return r.list(ctx, "list_entries_by_sender", func(m models.MovieSuggestion) bool {
		return m.SentBy == senderID
	})
}

// CountBySender returns the number of suggestions submitted by senderID.
func (r *Repository) CountBySender(ctx context.Context, senderID string) (int, error) {
	matched, err := r.ListBySender(ctx, senderID)
	return len(matched), err
}

func (r *Repository) list(ctx context.Context, op string, keep func(models.MovieSuggestion) bool) ([]models.MovieSuggestion, error) {
	title := r.opts.suggestionsTitle()
	defer r.lock(title)()
	logger := r.begin(op, title)

	ws, err := r.port.ResolveWorksheet(ctx, title, false)
	if err != nil {
		return nil, NewOperationError(op, title, err)
	}
	res, err := r.entries.Enumerate(ctx, ws)
	if err != nil {
		return nil, NewOperationError(op, title, err)
	}

	out := make([]models.MovieSuggestion, 0, res.Len())
	for _, item := range res.Items {
		if keep == nil || keep(item) {
			out = append(out, item)
		}
	}
	logger.Debug("entries listed", "rows", res.Len(), "matched", len(out), "stop", res.Stop.String())
	return out, nil
}

// CheckSubmission reports whether senderID may submit another suggestion.
// It returns ErrBlacklisted for blacklisted users and a *QuotaExceededError
// once the user holds as many suggestions as the configured limit.
func (r *Repository) CheckSubmission(ctx context.Context, senderID string) error {
	senderID = strings.TrimSpace(senderID)
	if senderID == "" {
		return &codec.ValidationError{Field: "Submitted By", Reason: "must not be empty"}
	}

	cfg, err := r.GetConfig(ctx)
	if err != nil {
		return err
	}
	if cfg.IsBlacklisted(senderID) {
		r.opts.logger().Info("submission rejected", "user_id", senderID, "reason", "blacklisted")
		return ErrBlacklisted
	}

	limit, ok := cfg.Limit()
	if !ok {
		return nil
	}
	count, err := r.CountBySender(ctx, senderID)
	if err != nil {
		return err
	}
	if count >= limit {
		r.opts.logger().Info("submission rejected", "user_id", senderID, "reason", "quota", "count", count, "limit", limit)
		return &QuotaExceededError{Limit: limit, Count: count}
	}
	return nil
}
