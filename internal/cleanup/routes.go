package cleanup

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers cleanup endpoints with the Chi router
func RegisterRoutes(r chi.Router, handler *Handler) {
	r.Route("/cleanup", func(r chi.Router) {
		// POST /api/v1/cleanup/run - trigger a retention sweep
		r.Post("/run", handler.Run)

		// GET /api/v1/cleanup/stats - dry-run counts
		r.Get("/stats", handler.Stats)
	})
}
