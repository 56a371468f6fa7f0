package api

import (
	"context"
	"net/http"

	"github.com/lumenlabs/lumen-api/internal/api/shared"
)

// ServiceProber reports whether an upstream service answers its health
// endpoint.
type ServiceProber interface {
	Healthy(ctx context.Context) bool
}

// HealthHandler reports the reachability of the external services the link
// pipeline depends on, so clients can tell a down backend from a slow task.
type HealthHandler struct {
	video       ServiceProber
	transcriber ServiceProber
}

// NewHealthHandler creates a HealthHandler probing the given services.
func NewHealthHandler(video, transcriber ServiceProber) *HealthHandler {
	return &HealthHandler{video: video, transcriber: transcriber}
}

// LinkServices handles GET /api/links/health.
func (h *HealthHandler) LinkServices(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	shared.RespondWithJSON(ctx, w, http.StatusOK, map[string]bool{
		"video_service":         h.video.Healthy(ctx),
		"transcription_service": h.transcriber.Healthy(ctx),
	})
}
