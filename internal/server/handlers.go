package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/codec"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/models"
)

// maxBodyBytes caps request bodies.
const maxBodyBytes = 1 << 20

// EntryRequest is the body of POST /entries.
type EntryRequest struct {
	URL          string     `json:"url"`
	TheMovieDbID string     `json:"theMovieDbId"`
	Title        string     `json:"title"`
	Year         string     `json:"year"`
	SentAt       *time.Time `json:"sentAt,omitempty"`
	SentBy       string     `json:"sentBy"`
}

// Suggestion converts the request into a suggestion, stamping now when no
// submission time was given.
func (req EntryRequest) Suggestion(now time.Time) (models.MovieSuggestion, error) {
	u, err := models.ParseURL(req.URL)
	if err != nil {
		return models.MovieSuggestion{}, &codec.ValidationError{Field: "URL", Reason: err.Error()}
	}
	sentAt := now.UTC()
	if req.SentAt != nil {
		sentAt = req.SentAt.UTC()
	}
	return models.MovieSuggestion{
		URL:          u,
		TheMovieDbID: req.TheMovieDbID,
		Title:        req.Title,
		Year:         req.Year,
		SentAt:       sentAt,
		SentBy:       req.SentBy,
	}, nil
}

// CountResponse is the body of GET /entries/count.
type CountResponse struct {
	Count int `json:"count"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	if _, err := s.repo.Port().ResolveWorksheet(r.Context(), s.repo.ConfigWorksheet(), false); err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.repo.GetConfig(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleSaveConfig(w http.ResponseWriter, r *http.Request) {
	var cfg models.QueueConfig
	if err := decodeBody(w, r, &cfg); err != nil {
		respondError(w, r, err)
		return
	}
	if err := s.repo.SaveConfig(r.Context(), cfg); err != nil {
		respondError(w, r, err)
		return
	}

	saved, err := s.repo.GetConfig(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, saved)
}

func (s *Server) handleBlacklistAdd(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.AddToBlacklist(r.Context(), chi.URLParam(r, "userID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleBlacklistRemove(w http.ResponseWriter, r *http.Request) {
	if err := s.repo.RemoveFromBlacklist(r.Context(), chi.URLParam(r, "userID")); err != nil {
		respondError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListEntries(w http.ResponseWriter, r *http.Request) {
	var (
		entries []models.MovieSuggestion
		err     error
	)
	if by := r.URL.Query().Get("by"); by != "" {
		entries, err = s.repo.ListBySender(r.Context(), by)
	} else {
		entries, err = s.repo.ListAll(r.Context())
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, entries)
}

func (s *Server) handleCountEntries(w http.ResponseWriter, r *http.Request) {
	var (
		n   int
		err error
	)
	if by := r.URL.Query().Get("by"); by != "" {
		n, err = s.repo.CountBySender(r.Context(), by)
	} else {
		n, err = s.repo.CountAll(r.Context())
	}
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, CountResponse{Count: n})
}

func (s *Server) handlePushEntry(w http.ResponseWriter, r *http.Request) {
	var req EntryRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, r, err)
		return
	}
	entry, err := req.Suggestion(s.now())
	if err != nil {
		respondError(w, r, err)
		return
	}

	if check, _ := strconv.ParseBool(r.URL.Query().Get("check")); check {
		if err := s.repo.CheckSubmission(r.Context(), entry.SentBy); err != nil {
			respondError(w, r, err)
			return
		}
	}

	stored, err := s.repo.PushEntry(r.Context(), entry)
	if err != nil {
		respondError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, stored)
}

func decodeBody(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: %v", errBadRequest, err)
	}
	return nil
}
