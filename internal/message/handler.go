package message

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inboxx/inboxx/internal/api"
	"github.com/inboxx/inboxx/internal/repository"
)

// Handler handles HTTP requests for message endpoints
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

// Get handles GET /api/v1/message/{id}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.responder.Error(w, http.StatusNotFound, api.CodeMessageNotFound, "Message not found")
		return
	}

	detail, err := h.service.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, repository.ErrMessageNotFound) {
			h.responder.Error(w, http.StatusNotFound, api.CodeMessageNotFound, "Message not found")
			return
		}
		h.logger.Error("Failed to load message", "error", err, "message_id", id)
		h.responder.Error(w, http.StatusInternalServerError, api.CodeInternalError, err.Error())
		return
	}

	h.responder.Success(w, http.StatusOK, detail)
}
