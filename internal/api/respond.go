package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/tallyhq/tally/internal/analysis"
	"github.com/tallyhq/tally/internal/ingest"
	"github.com/tallyhq/tally/internal/ledger"
	"github.com/tallyhq/tally/internal/logger"
)

const noData = "no data loaded, upload a bank export first"

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var maxErr *http.MaxBytesError
	switch {
	case errors.Is(err, ingest.ErrTooLarge), errors.As(err, &maxErr):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, ingest.ErrUnsupportedFormat),
		errors.Is(err, ingest.ErrParseFailure),
		errors.Is(err, ingest.ErrUnsupportedEncryption),
		errors.Is(err, ingest.ErrEmptyResult),
		errors.Is(err, analysis.ErrInvalidPeriod):
		return http.StatusBadRequest
	case errors.Is(err, ledger.ErrNotFound), errors.Is(err, analysis.ErrCategoryNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	msg := err.Error()
	switch {
	case errors.Is(err, ledger.ErrNotFound):
		msg = noData
	case status == http.StatusInternalServerError:
		log := logger.FromContext(r.Context())
		log.Error().Err(err).Msg("request failed")
		msg = "internal error"
	}
	writeError(w, status, msg)
}
