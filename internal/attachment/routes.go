package attachment

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers attachment endpoints with the Chi router
func RegisterRoutes(r chi.Router, handler *Handler) {
	r.Route("/attachment", func(r chi.Router) {
		// GET /api/v1/attachment/{id}/download - presigned download URL
		r.Get("/{id}/download", handler.Download)
	})
}
