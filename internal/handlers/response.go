// internal/handlers/response.go
package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/ammerola/kasir-be/internal/core/domain"
)

// responder writes JSON bodies and maps service errors to status codes
type responder struct {
	logger *slog.Logger
}

func (h responder) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.logger.Error("failed to encode JSON response",
			slog.String("error", err.Error()))
	}
}

func (h responder) respondError(w http.ResponseWriter, status int, message string) {
	h.respondJSON(w, status, map[string]string{"error": message})
}

// respondServiceError translates a report or job error into a response.
// Invalid input keeps its message; store failures get a fixed one.
func (h responder) respondServiceError(ctx context.Context, w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, domain.ErrInvalidDateRange), errors.Is(err, domain.ErrInvalidRecord):
		h.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		h.respondError(w, http.StatusNotFound, "not found")
	case errors.Is(err, domain.ErrDataSourceUnavailable):
		h.logger.ErrorContext(ctx, op+" failed",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "failed to fetch report data")
	default:
		h.logger.ErrorContext(ctx, op+" failed",
			slog.String("error", err.Error()))
		h.respondError(w, http.StatusInternalServerError, "internal server error")
	}
}
