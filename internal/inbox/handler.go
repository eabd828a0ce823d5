package inbox

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/inboxx/inboxx/internal/api"
	"github.com/inboxx/inboxx/internal/repository"
)

const (
	defaultPageLimit = 50
	maxPageLimit     = 100
)

// Handler handles HTTP requests for inbox endpoints
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

// Get handles GET /api/v1/inbox/{username}
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	username := NormalizeUsername(chi.URLParam(r, "username"))

	if !IsValidUsername(username) {
		h.responder.Error(w, http.StatusBadRequest, api.CodeInvalidUsername, "Invalid username format")
		return
	}

	if IsReservedUsername(username) {
		h.responder.Error(w, http.StatusForbidden, api.CodeReservedUsername, "This username is reserved and cannot be used")
		return
	}

	limit := defaultPageLimit
	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		parsed, err := strconv.Atoi(limitStr)
		if err != nil || parsed < 1 || parsed > maxPageLimit {
			h.responder.Error(w, http.StatusBadRequest, api.CodeValidationError, "limit must be between 1 and 100")
			return
		}
		limit = parsed
	}

	var cursor *uuid.UUID
	if cursorStr := r.URL.Query().Get("cursor"); cursorStr != "" {
		parsed, err := uuid.Parse(cursorStr)
		if err != nil {
			h.responder.Error(w, http.StatusBadRequest, api.CodeValidationError, "cursor must be a message ID")
			return
		}
		cursor = &parsed
	}

	result, err := h.service.ListMessages(r.Context(), username, limit, cursor)
	if err != nil {
		h.logger.Error("Failed to list inbox messages", "error", err, "username", username)
		h.responder.Error(w, http.StatusInternalServerError, api.CodeInternalError, err.Error())
		return
	}

	h.responder.Success(w, http.StatusOK, result)
}

// Delete handles DELETE /api/v1/inbox/{username}
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	username := NormalizeUsername(chi.URLParam(r, "username"))

	if !IsValidUsername(username) {
		h.responder.Error(w, http.StatusBadRequest, api.CodeInvalidUsername, "Invalid username format")
		return
	}

	if err := h.service.DeleteInbox(r.Context(), username); err != nil {
		if errors.Is(err, repository.ErrInboxNotFound) {
			h.responder.Error(w, http.StatusNotFound, api.CodeInboxNotFound, "Inbox not found")
			return
		}
		h.logger.Error("Failed to delete inbox", "error", err, "username", username)
		h.responder.Error(w, http.StatusInternalServerError, api.CodeInternalError, err.Error())
		return
	}

	h.responder.Success(w, http.StatusOK, map[string]any{"deleted": true})
}
