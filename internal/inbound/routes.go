package inbound

import (
	"github.com/go-chi/chi/v5"
)

// RegisterRoutes registers the ingestion endpoints with the Chi router
func RegisterRoutes(r chi.Router, handler *Handler) {
	r.Route("/inbound", func(r chi.Router) {
		// POST /api/v1/inbound/ses - SES S3 event notification
		r.Post("/ses", handler.HandleSESNotification)

		// POST /api/v1/inbound/webhook - bare s3Key webhook
		r.Post("/webhook", handler.HandleWebhook)

		// POST /api/v1/inbound/raw - direct raw email submission
		r.Post("/raw", handler.HandleRawEmail)
	})
}
