// Package inbound implements the email ingestion pipeline: fetch raw mail
// from object storage, parse it, route it to a disposable inbox, and persist
// the message, its bodies, and its attachments.
package inbound

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/inboxx/inboxx/internal/inbox"
	"github.com/inboxx/inboxx/internal/metrics"
	"github.com/inboxx/inboxx/internal/parser"
	"github.com/inboxx/inboxx/internal/repository"
	"github.com/inboxx/inboxx/internal/storage"
)

const (
	contentTypeHTML = "text/html"
	contentTypeText = "text/plain"
	contentTypeEML  = "message/rfc822"
)

// fallbackFromAddress is recorded when a message carries no usable From header.
const fallbackFromAddress = "unknown@unknown.com"

// BlobStore is the object storage surface the pipeline needs.
type BlobStore interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
	PutObject(ctx context.Context, key string, data []byte, contentType string) error
}

// InboxStore creates or refreshes inboxes.
type InboxStore interface {
	Upsert(ctx context.Context, username string, expiresAt time.Time) (*repository.Inbox, error)
}

// MessageStore persists message rows.
type MessageStore interface {
	Create(ctx context.Context, message *repository.Message) error
}

// AttachmentStore persists attachment rows.
type AttachmentStore interface {
	Create(ctx context.Context, attachment *repository.Attachment) error
}

// EventStore records the audit trail of inbound processing attempts.
type EventStore interface {
	Create(ctx context.Context, event *repository.InboundEvent) error
}

// Parser turns raw RFC 5322 bytes into a structured email.
type Parser interface {
	Parse(raw []byte) (*parser.ParsedEmail, error)
}

// Result describes a successfully processed inbound email.
type Result struct {
	MessageID uuid.UUID `json:"messageId"`
	InboxID   uuid.UUID `json:"inboxId"`
	Username  string    `json:"username"`
}

// Service runs the inbound pipeline.
type Service struct {
	blobs       BlobStore
	inboxes     InboxStore
	messages    MessageStore
	attachments AttachmentStore
	events      EventStore
	parser      Parser
	domain      string
	retention   time.Duration
	logger      *slog.Logger
}

// NewService creates a pipeline service for the given mail domain and
// retention window.
func NewService(
	blobs BlobStore,
	inboxes InboxStore,
	messages MessageStore,
	attachments AttachmentStore,
	events EventStore,
	p Parser,
	domain string,
	retention time.Duration,
	logger *slog.Logger,
) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		blobs:       blobs,
		inboxes:     inboxes,
		messages:    messages,
		attachments: attachments,
		events:      events,
		parser:      p,
		domain:      domain,
		retention:   retention,
		logger:      logger,
	}
}

// ProcessRaw stores a raw email under a fresh key and runs the pipeline on it.
func (s *Service) ProcessRaw(ctx context.Context, rawEmail []byte) (*Result, error) {
	rawKey := storage.RawKey(uuid.New().String())
	if err := s.blobs.PutObject(ctx, rawKey, rawEmail, contentTypeEML); err != nil {
		return nil, fmt.Errorf("failed to store raw email: %w", err)
	}

	return s.ProcessKey(ctx, rawKey)
}

// ProcessKey runs the full pipeline for the raw email stored at rawKey.
// Every attempt, successful or not, leaves an inbound event behind.
func (s *Service) ProcessKey(ctx context.Context, rawKey string) (*Result, error) {
	start := time.Now()

	result, err := s.process(ctx, rawKey)
	metrics.InboundProcessingDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		return nil, err
	}

	metrics.InboundEmailsTotal.WithLabelValues(repository.EventStatusSuccess).Inc()
	s.logger.Info("Processed inbound email",
		"s3_raw_key", rawKey,
		"message_id", result.MessageID,
		"username", result.Username,
		"duration", time.Since(start),
	)
	return result, nil
}

func (s *Service) process(ctx context.Context, rawKey string) (*Result, error) {
	raw, err := s.blobs.GetObject(ctx, rawKey)
	if err != nil {
		s.recordFailure(ctx, rawKey, repository.EventStatusFailed, "Raw email not found in S3")
		return nil, fmt.Errorf("%w: %s", ErrRawNotFound, rawKey)
	}

	parsed, err := s.parser.Parse(raw)
	if err != nil {
		s.recordFailure(ctx, rawKey, repository.EventStatusFailed, err.Error())
		return nil, fmt.Errorf("failed to parse email: %w", err)
	}

	recipient, username, err := s.resolveRecipient(parsed)
	if err != nil {
		s.recordFailure(ctx, rawKey, repository.EventStatusInvalidRecipient, recipientFailureDetail(recipient, username))
		return nil, err
	}

	expiresAt := time.Now().Add(s.retention)
	box, err := s.inboxes.Upsert(ctx, username, expiresAt)
	if err != nil {
		s.recordFailure(ctx, rawKey, repository.EventStatusFailed, err.Error())
		return nil, fmt.Errorf("failed to upsert inbox: %w", err)
	}

	messageID := uuid.New()

	var htmlKey, textKey *string
	if parsed.BodyHTML != "" {
		k := storage.HTMLKey(messageID.String())
		if err := s.blobs.PutObject(ctx, k, []byte(parsed.BodyHTML), contentTypeHTML); err != nil {
			s.recordFailure(ctx, rawKey, repository.EventStatusFailed, err.Error())
			return nil, fmt.Errorf("failed to store html body: %w", err)
		}
		htmlKey = &k
	}
	if parsed.BodyText != "" {
		k := storage.TextKey(messageID.String())
		if err := s.blobs.PutObject(ctx, k, []byte(parsed.BodyText), contentTypeText); err != nil {
			s.recordFailure(ctx, rawKey, repository.EventStatusFailed, err.Error())
			return nil, fmt.Errorf("failed to store text body: %w", err)
		}
		textKey = &k
	}

	fromAddress := parsed.From
	if fromAddress == "" {
		fromAddress = fallbackFromAddress
	}
	var fromName *string
	if parsed.FromName != "" {
		fromName = &parsed.FromName
	}
	var subject *string
	if parsed.Subject != "" {
		subject = &parsed.Subject
	}

	message := &repository.Message{
		ID:          messageID,
		InboxID:     box.ID,
		FromAddress: fromAddress,
		FromName:    fromName,
		ToAddress:   recipient,
		Subject:     subject,
		S3RawKey:    rawKey,
		S3HTMLKey:   htmlKey,
		S3TextKey:   textKey,
		TextPreview: GeneratePreview(parsed.BodyText),
		ReceivedAt:  time.Now(),
		ExpiresAt:   expiresAt,
	}
	if err := s.messages.Create(ctx, message); err != nil {
		s.recordFailure(ctx, rawKey, repository.EventStatusFailed, err.Error())
		return nil, fmt.Errorf("failed to create message: %w", err)
	}

	if err := s.storeAttachments(ctx, messageID, parsed.Attachments); err != nil {
		s.recordFailure(ctx, rawKey, repository.EventStatusFailed, err.Error())
		return nil, err
	}

	s.recordSuccess(ctx, rawKey, messageID)

	return &Result{
		MessageID: messageID,
		InboxID:   box.ID,
		Username:  username,
	}, nil
}

// resolveRecipient finds the first To address that maps to a usable local
// inbox. The recipient it returns is what gets stored as the message's
// to_address, even when resolution fails later on the reserved check.
func (s *Service) resolveRecipient(parsed *parser.ParsedEmail) (recipient, username string, err error) {
	if len(parsed.Recipients) == 0 {
		return "", "", ErrInvalidRecipient
	}

	recipient = parsed.Recipients[0]
	username, ok := inbox.ExtractUsername(recipient, s.domain)
	if !ok {
		return recipient, "", fmt.Errorf("%w: %s", ErrInvalidRecipient, recipient)
	}

	if inbox.IsReservedUsername(username) {
		return recipient, username, fmt.Errorf("%w: %s", ErrReservedRecipient, username)
	}

	return recipient, username, nil
}

func (s *Service) storeAttachments(ctx context.Context, messageID uuid.UUID, attachments []*parser.Attachment) error {
	for _, att := range attachments {
		filename := att.Filename
		if filename == "" {
			filename = "attachment-" + uuid.New().String()
		}

		key := storage.AttachmentKey(messageID.String(), filename)
		if err := s.blobs.PutObject(ctx, key, att.Data, att.ContentType); err != nil {
			return fmt.Errorf("failed to store attachment %s: %w", filename, err)
		}

		record := &repository.Attachment{
			ID:          uuid.New(),
			MessageID:   messageID,
			Filename:    filename,
			ContentType: att.ContentType,
			Size:        att.SizeBytes,
			S3Key:       key,
		}
		if err := s.attachments.Create(ctx, record); err != nil {
			return fmt.Errorf("failed to create attachment record: %w", err)
		}

		metrics.InboundAttachmentsStored.Inc()
	}

	return nil
}

func (s *Service) recordSuccess(ctx context.Context, rawKey string, messageID uuid.UUID) {
	event := &repository.InboundEvent{
		S3RawKey:  rawKey,
		Status:    repository.EventStatusSuccess,
		MessageID: &messageID,
	}
	if err := s.events.Create(ctx, event); err != nil {
		s.logger.Error("Failed to record inbound event", "error", err, "s3_raw_key", rawKey)
	}
}

func (s *Service) recordFailure(ctx context.Context, rawKey, status, detail string) {
	metrics.InboundEmailsTotal.WithLabelValues(status).Inc()

	event := &repository.InboundEvent{
		S3RawKey: rawKey,
		Status:   status,
		Error:    &detail,
	}
	if err := s.events.Create(ctx, event); err != nil {
		s.logger.Error("Failed to record inbound event", "error", err, "s3_raw_key", rawKey)
	}
}

func recipientFailureDetail(recipient, username string) string {
	switch {
	case username != "":
		return fmt.Sprintf("Reserved username: %s", username)
	case recipient != "":
		return fmt.Sprintf("Invalid recipient: %s", recipient)
	default:
		return "No valid recipient found"
	}
}
