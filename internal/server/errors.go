package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/ukaji3/sheetqueue-go/internal/logging"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/codec"
	"github.com/ukaji3/sheetqueue-go/pkg/sheetqueue/grid"
)

// ErrorResponse is the JSON body of every error response.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
	Field string `json:"field,omitempty"`
}

// errBadRequest marks malformed request bodies.
var errBadRequest = errors.New("malformed request")

// statusFor maps an error to its HTTP status and machine readable code.
func statusFor(err error) (int, string) {
	var ve *codec.ValidationError
	var quota *sheetqueue.QuotaExceededError
	switch {
	case errors.Is(err, errBadRequest):
		return http.StatusBadRequest, "bad_request"
	case errors.As(err, &ve):
		return http.StatusUnprocessableEntity, "validation_failed"
	case errors.Is(err, sheetqueue.ErrBlacklisted):
		return http.StatusForbidden, "blacklisted"
	case errors.As(err, &quota):
		return http.StatusForbidden, "quota_exceeded"
	case errors.Is(err, sheetqueue.ErrMalformedRow):
		return http.StatusConflict, "malformed_row"
	case grid.IsIOError(err):
		return http.StatusBadGateway, "backend_unavailable"
	default:
		return http.StatusInternalServerError, "internal"
	}
}

// respondError logs err and writes it as a JSON error response.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	status, code := statusFor(err)

	logger := logging.FromContext(r.Context())
	if status >= http.StatusInternalServerError {
		logger.Error("request error", "path", r.URL.Path, "status", status, "code", code, "error", err)
	} else {
		logger.Info("request rejected", "path", r.URL.Path, "status", status, "code", code, "error", err)
	}

	body := ErrorResponse{Error: err.Error(), Code: code}
	var ve *codec.ValidationError
	if errors.As(err, &ve) {
		body.Field = ve.Field
	}
	respondJSON(w, status, body)
}

// respondJSON writes v as a JSON response.
func respondJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		json.NewEncoder(w).Encode(v)
	}
}
