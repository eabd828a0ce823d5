package cleanup

import (
	"log/slog"
	"net/http"

	"github.com/inboxx/inboxx/internal/api"
)

// Handler handles HTTP requests for cleanup endpoints
type Handler struct {
	service   *Service
	responder *api.Responder
	logger    *slog.Logger
}

// NewHandler creates a new Handler instance
func NewHandler(service *Service, responder *api.Responder, logger *slog.Logger) *Handler {
	if logger == nil {
		logger = slog.Default()
	}
	return &Handler{
		service:   service,
		responder: responder,
		logger:    logger,
	}
}

// Run handles POST /api/v1/cleanup/run
func (h *Handler) Run(w http.ResponseWriter, r *http.Request) {
	result, err := h.service.Run(r.Context())
	if err != nil {
		h.logger.Error("Cleanup run failed", "error", err)
		h.responder.Error(w, http.StatusInternalServerError, api.CodeInternalError, err.Error())
		return
	}

	h.responder.Success(w, http.StatusOK, result)
}

// Stats handles GET /api/v1/cleanup/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.service.GetStats(r.Context())
	if err != nil {
		h.logger.Error("Failed to collect cleanup stats", "error", err)
		h.responder.Error(w, http.StatusInternalServerError, api.CodeInternalError, err.Error())
		return
	}

	h.responder.Success(w, http.StatusOK, stats)
}
