// Package health provides the health check endpoint.
package health

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/inboxx/inboxx/internal/api"
)

const defaultTimeout = 5 * time.Second

// Pinger is the database connectivity check.
type Pinger interface {
	PingContext(ctx context.Context) error
}

// Handler handles health check requests
type Handler struct {
	db        Pinger
	responder *api.Responder
	timeout   time.Duration
	logger    *slog.Logger
}

// NewHandler creates a new health check handler
func NewHandler(db *sqlx.DB, responder *api.Responder, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		db:        db,
		responder: responder,
		timeout:   defaultTimeout,
		logger:    logger,
	}
}

// Health handles GET /health. A failing database ping yields 503 so load
// balancers pull the instance out of rotation.
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), h.timeout)
	defer cancel()

	if err := h.db.PingContext(ctx); err != nil {
		h.logger.Error("Health check failed", "error", err)
		h.responder.Error(w, http.StatusServiceUnavailable, api.CodeDBUnhealthy, "Database connection failed")
		return
	}

	h.responder.Success(w, http.StatusOK, map[string]any{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	})
}
