package inbox

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers inbox endpoints with the Chi router
func RegisterRoutes(r chi.Router, handler *Handler) {
	r.Route("/inbox", func(r chi.Router) {
		// GET /api/v1/inbox/{username} - list messages, newest first
		r.Get("/{username}", handler.Get)

		// DELETE /api/v1/inbox/{username} - clear an inbox
		r.Delete("/{username}", handler.Delete)
	})
}
