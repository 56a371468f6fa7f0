// Package shared holds response helpers and context accessors used by all
// API handlers.
package shared

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/lumenlabs/lumen-api/internal/platform/logger"
)

// ErrorResponse is the standard error envelope returned by the API.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RespondWithJSON writes a JSON response with the given status code.
func RespondWithJSON(ctx context.Context, w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.FromContext(ctx).Error("failed to encode response", "error", err)
	}
}

// RespondWithError writes a JSON error envelope with the given status code.
func RespondWithError(ctx context.Context, w http.ResponseWriter, status int, message string) {
	RespondWithJSON(ctx, w, status, ErrorResponse{Error: message})
}
