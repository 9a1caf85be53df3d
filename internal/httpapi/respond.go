package httpapi

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"

	"github.com/mmynk/splitledger/internal/apperr"
	"github.com/mmynk/splitledger/internal/contracts"
	"github.com/mmynk/splitledger/internal/middleware"
)

const maxBodyBytes = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Warn("Response encode failed", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, contracts.ErrorResponse{Message: msg})
}

// decode reads a JSON body into v. It writes a 400 and returns false when
// the body is malformed.
func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, http.StatusBadRequest, "Invalid request body")
		return false
	}
	return true
}

// fail maps a service error to a response. Validation errors are 400,
// not-found errors use notFoundStatus, anything else is a logged 500.
func fail(w http.ResponseWriter, r *http.Request, err error, notFoundStatus int) {
	switch {
	case apperr.IsValidation(err):
		writeError(w, http.StatusBadRequest, apperr.Message(err))
	case apperr.IsNotFound(err):
		writeError(w, notFoundStatus, apperr.Message(err))
	default:
		slog.ErrorContext(r.Context(), "Request failed",
			"method", r.Method,
			"path", r.URL.Path,
			"request_id", middleware.RequestIDFrom(r.Context()),
			"error", err,
		)
		writeError(w, http.StatusInternalServerError, "Internal server error")
	}
}
