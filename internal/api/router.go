package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"

	"github.com/lumenlabs/lumen-api/internal/api/middleware"
	"github.com/lumenlabs/lumen-api/internal/api/shared"
)

// NewRouter builds the chi router with middleware, the health endpoint,
// and the authenticated API routes.
func NewRouter(
	log *slog.Logger,
	validator middleware.TokenValidator,
	tasks *TaskHandler,
	tokens *TokenHandler,
	health *HealthHandler,
) http.Handler {
	r := chi.NewRouter()

	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.RequestLogger(log))
	r.Use(chimiddleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, req *http.Request) {
		shared.RespondWithJSON(req.Context(), w, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(middleware.Authenticate(validator))

		r.Post("/documents", tasks.SubmitDocument)
		r.Post("/links", tasks.SubmitLink)
		r.Get("/links/health", health.LinkServices)

		r.Route("/tasks", func(r chi.Router) {
			r.Get("/", tasks.List)
			r.Get("/{id}", tasks.Get)
			r.Get("/{id}/result", tasks.GetResult)
			r.Delete("/{id}", tasks.Delete)
		})

		r.Route("/tokens", func(r chi.Router) {
			r.Post("/", tokens.Store)
			r.Get("/", tokens.List)
			r.Delete("/{id}", tokens.Delete)
		})
	})

	return r
}
