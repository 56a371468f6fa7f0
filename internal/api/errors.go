// Package api exposes the HTTP surface: task submission and lifecycle
// endpoints, API token management, and the router that binds them.
package api

import (
	"context"
	"errors"
	"net/http"

	"github.com/lumenlabs/lumen-api/internal/api/shared"
	"github.com/lumenlabs/lumen-api/internal/platform/logger"
	"github.com/lumenlabs/lumen-api/internal/service"
)

// respondServiceError maps service-layer errors onto HTTP status codes.
// Unknown errors become opaque 500s so internals never leak to clients.
func respondServiceError(ctx context.Context, w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, service.ErrTaskNotFound):
		shared.RespondWithError(ctx, w, http.StatusNotFound, "task not found")
	case errors.Is(err, service.ErrTokenNotFound):
		shared.RespondWithError(ctx, w, http.StatusNotFound, "token not found")
	case errors.Is(err, service.ErrTokenExists):
		shared.RespondWithError(ctx, w, http.StatusConflict, "token for this provider already exists")
	case errors.Is(err, service.ErrUnsupportedFormat),
		errors.Is(err, service.ErrEmptyFile),
		errors.Is(err, service.ErrInvalidURL),
		errors.Is(err, service.ErrInvalidProvider):
		shared.RespondWithError(ctx, w, http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrBusy):
		shared.RespondWithError(ctx, w, http.StatusServiceUnavailable, "service is busy, try again later")
	default:
		logger.FromContext(ctx).Error("unhandled service error", "error", err)
		shared.RespondWithError(ctx, w, http.StatusInternalServerError, "internal server error")
	}
}
