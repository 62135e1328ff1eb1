package rest

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/bibbank/loan-approval/internal/domain/model"
)

// errorResponse is the body of every non-2xx API response.
type errorResponse struct {
	Error   string             `json:"error"`
	Details []model.FieldError `json:"details,omitempty"`
}

// writeDomainError maps an error from the application layer to a status code:
// validation 422, malformed input 400, no usable model output 503, otherwise 500.
func writeDomainError(w http.ResponseWriter, logger *slog.Logger, r *http.Request, err error) {
	var (
		verr *model.ValidationError
		perr *model.ParseError
		terr *model.TypeConversionError
	)
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, errorResponse{Error: "validation failed", Details: verr.Fields})
	case errors.As(err, &perr), errors.As(err, &terr):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, model.ErrDecisionUnavailable):
		logger.ErrorContext(r.Context(), "decision unavailable", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusServiceUnavailable, errorResponse{Error: "decision unavailable"})
	default:
		logger.ErrorContext(r.Context(), "request failed", "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "internal error"})
	}
}

// writeJSON encodes v before committing the status so an unencodable body
// becomes a 500 instead of an empty success.
func writeJSON(w http.ResponseWriter, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		status = http.StatusInternalServerError
		body, _ = json.Marshal(errorResponse{Error: "internal error"}) //nolint:errcheck
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_, _ = w.Write(append(body, '\n')) //nolint:errcheck
}
