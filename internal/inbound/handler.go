package inbound

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/url"

	"github.com/go-playground/validator/v10"

	"github.com/inboxx/inboxx/internal/api"
	"github.com/inboxx/inboxx/internal/parser"
)

// sesNotification mirrors the S3 event envelope delivered by SES
type sesNotification struct {
	Records []sesRecord `json:"Records"`
}

type sesRecord struct {
	S3 struct {
		Bucket struct {
			Name string `json:"name"`
		} `json:"bucket"`
		Object struct {
			Key string `json:"key"`
		} `json:"object"`
	} `json:"s3"`
}

type rawEmailRequest struct {
	RawEmail string `json:"rawEmail" validate:"required"`
}

type webhookRequest struct {
	S3Key string `json:"s3Key" validate:"required"`
}

// recordResult is the per-record outcome reported for SES notifications
type recordResult struct {
	S3Key     string `json:"s3Key"`
	Success   bool   `json:"success"`
	MessageID string `json:"messageId,omitempty"`
	InboxID   string `json:"inboxId,omitempty"`
	Username  string `json:"username,omitempty"`
	Error     string `json:"error,omitempty"`
}

// Handler handles HTTP requests for the ingestion endpoints
type Handler struct {
	service   *Service
	responder *api.Responder
	validate  *validator.Validate
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
		validate:  validator.New(),
		logger:    logger,
	}
}

// HandleSESNotification handles POST /api/v1/inbound/ses. Each record is
// processed independently; one bad email never blocks the rest of the batch.
func (h *Handler) HandleSESNotification(w http.ResponseWriter, r *http.Request) {
	var notification sesNotification
	if err := json.NewDecoder(r.Body).Decode(&notification); err != nil || notification.Records == nil {
		h.responder.Error(w, http.StatusBadRequest, api.CodeInvalidNotification, "Invalid SES notification format")
		return
	}

	results := make([]recordResult, 0, len(notification.Records))
	for _, record := range notification.Records {
		key := decodeS3Key(record.S3.Object.Key)

		result, err := h.service.ProcessKey(r.Context(), key)
		if err != nil {
			h.logger.Warn("Failed to process inbound record", "error", err, "s3_key", key)
			results = append(results, recordResult{S3Key: key, Error: err.Error()})
			continue
		}

		results = append(results, recordResult{
			S3Key:     key,
			Success:   true,
			MessageID: result.MessageID.String(),
			InboxID:   result.InboxID.String(),
			Username:  result.Username,
		})
	}

	h.responder.Success(w, http.StatusOK, map[string]any{"processed": results})
}

// HandleWebhook handles POST /api/v1/inbound/webhook with a bare s3Key
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var req webhookRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.Error(w, http.StatusBadRequest, api.CodeInvalidBody, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.responder.Error(w, http.StatusBadRequest, api.CodeInvalidBody, "Invalid request body")
		return
	}

	result, err := h.service.ProcessKey(r.Context(), req.S3Key)
	if err != nil {
		h.handlePipelineError(w, err)
		return
	}

	h.responder.Success(w, http.StatusOK, result)
}

// HandleRawEmail handles POST /api/v1/inbound/raw for direct submission
func (h *Handler) HandleRawEmail(w http.ResponseWriter, r *http.Request) {
	var req rawEmailRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.Error(w, http.StatusBadRequest, api.CodeInvalidBody, "Invalid request body")
		return
	}
	if err := h.validate.Struct(req); err != nil {
		h.responder.Error(w, http.StatusBadRequest, api.CodeInvalidBody, "Invalid request body")
		return
	}

	result, err := h.service.ProcessRaw(r.Context(), []byte(req.RawEmail))
	if err != nil {
		h.handlePipelineError(w, err)
		return
	}

	h.responder.Success(w, http.StatusOK, result)
}

// handlePipelineError maps pipeline errors to HTTP responses
func (h *Handler) handlePipelineError(w http.ResponseWriter, err error) {
	var parseErr *parser.ParseError
	switch {
	case errors.Is(err, ErrRawNotFound):
		h.responder.Error(w, http.StatusNotFound, api.CodeRawNotFound, "Raw email not found")
	case errors.Is(err, ErrReservedRecipient):
		h.responder.Error(w, http.StatusForbidden, api.CodeReservedRecipient, "Recipient username is reserved")
	case errors.Is(err, ErrInvalidRecipient):
		h.responder.Error(w, http.StatusBadRequest, api.CodeInvalidRecipient, "No valid recipient for this domain")
	case errors.As(err, &parseErr):
		h.responder.Error(w, http.StatusUnprocessableEntity, api.CodeParseError, "Failed to parse email")
	default:
		h.logger.Error("Inbound processing failed", "error", err)
		h.responder.Error(w, http.StatusInternalServerError, api.CodeInternalError, err.Error())
	}
}

// decodeS3Key reverses the URL encoding S3 applies to object keys in event
// notifications, where spaces arrive as plus signs.
func decodeS3Key(key string) string {
	decoded, err := url.QueryUnescape(key)
	if err != nil {
		return key
	}
	return decoded
}
