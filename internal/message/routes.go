package message

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers message endpoints with the Chi router
func RegisterRoutes(r chi.Router, handler *Handler) {
	r.Route("/message", func(r chi.Router) {
		// GET /api/v1/message/{id} - full message with body
		r.Get("/{id}", handler.Get)
	})
}
