// Package api provides the standard response envelope shared by all HTTP handlers.
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"
)

// Error codes returned in the response envelope
const (
	CodeValidationError     = "VALIDATION_ERROR"
	CodeInvalidBody         = "INVALID_BODY"
	CodeInvalidNotification = "INVALID_NOTIFICATION"
	CodeInvalidUsername     = "INVALID_USERNAME"
	CodeReservedUsername    = "RESERVED_USERNAME"
	CodeInboxNotFound       = "INBOX_NOT_FOUND"
	CodeMessageNotFound     = "MESSAGE_NOT_FOUND"
	CodeAttachmentNotFound  = "ATTACHMENT_NOT_FOUND"
	CodeRawNotFound         = "RAW_NOT_FOUND"
	CodeParseError          = "PARSE_ERROR"
	CodeInvalidRecipient    = "INVALID_RECIPIENT"
	CodeReservedRecipient   = "RESERVED_RECIPIENT"
	CodeRateLimitExceeded   = "RATE_LIMIT_EXCEEDED"
	CodeInternalError       = "INTERNAL_ERROR"
	CodeDBUnhealthy         = "DB_UNHEALTHY"
)

// SuccessResponse is the envelope for successful responses
type SuccessResponse struct {
	Success bool `json:"success"`
	Data    any  `json:"data"`
}

// ErrorResponse is the envelope for failed responses
type ErrorResponse struct {
	Success bool      `json:"success"`
	Error   *APIError `json:"error"`
}

// APIError carries the machine-readable code alongside the message
type APIError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
}

// Responder writes envelope responses. In production mode the messages of
// 5xx errors are masked while the code is preserved.
type Responder struct {
	logger     *slog.Logger
	production bool
}

// NewResponder creates a Responder
func NewResponder(logger *slog.Logger, production bool) *Responder {
	if logger == nil {
		logger = slog.Default()
	}
	return &Responder{logger: logger, production: production}
}

// Success writes a success envelope with the given status code
func (rs *Responder) Success(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(SuccessResponse{Success: true, Data: data}); err != nil {
		rs.logger.Error("failed to encode response", "error", err)
	}
}

// Error writes an error envelope with the given status code
func (rs *Responder) Error(w http.ResponseWriter, status int, code, message string) {
	if status >= http.StatusInternalServerError && rs.production {
		message = "Internal server error"
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	resp := ErrorResponse{Success: false, Error: &APIError{Message: message, Code: code}}
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		rs.logger.Error("failed to encode error response", "error", err)
	}
}
