// Package message provides the message detail API. Bodies live in object
// storage and are loaded lazily, preferring the HTML rendition.
package message

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inboxx/inboxx/internal/repository"
	"github.com/inboxx/inboxx/internal/storage"
)

// BodyTypeHTML and BodyTypeText identify which rendition was returned.
const (
	BodyTypeHTML = "html"
	BodyTypeText = "text"
)

// MessageStore looks up message rows.
type MessageStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Message, error)
}

// AttachmentStore loads attachment metadata for a message.
type AttachmentStore interface {
	ListByMessageID(ctx context.Context, messageID uuid.UUID) ([]repository.Attachment, error)
}

// BlobStore fetches stored body renditions.
type BlobStore interface {
	GetObject(ctx context.Context, key string) ([]byte, error)
}

// Sanitizer cleans HTML bodies before they leave the service.
type Sanitizer interface {
	Sanitize(html string) string
}

// AttachmentInfo is attachment metadata in a message detail.
type AttachmentInfo struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
}

// Detail is the full view of a single message.
type Detail struct {
	ID          uuid.UUID        `json:"id"`
	FromAddress string           `json:"fromAddress"`
	FromName    *string          `json:"fromName"`
	ToAddress   string           `json:"toAddress"`
	Subject     *string          `json:"subject"`
	Body        *string          `json:"body"`
	BodyType    *string          `json:"bodyType"`
	ReceivedAt  time.Time        `json:"receivedAt"`
	Attachments []AttachmentInfo `json:"attachments"`
}

// Service assembles message details.
type Service struct {
	messages    MessageStore
	attachments AttachmentStore
	blobs       BlobStore
	sanitizer   Sanitizer
}

// NewService creates a new message Service.
func NewService(messages MessageStore, attachments AttachmentStore, blobs BlobStore, sanitizer Sanitizer) *Service {
	return &Service{
		messages:    messages,
		attachments: attachments,
		blobs:       blobs,
		sanitizer:   sanitizer,
	}
}

// GetByID loads a message with its body and attachment metadata. The HTML
// rendition wins when both exist; a message with neither returns a nil body.
func (s *Service) GetByID(ctx context.Context, id uuid.UUID) (*Detail, error) {
	msg, err := s.messages.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	attachments, err := s.attachments.ListByMessageID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load attachments: %w", err)
	}

	body, bodyType, err := s.loadBody(ctx, msg)
	if err != nil {
		return nil, err
	}

	infos := make([]AttachmentInfo, len(attachments))
	for i, att := range attachments {
		infos[i] = AttachmentInfo{
			ID:          att.ID,
			Filename:    att.Filename,
			ContentType: att.ContentType,
			Size:        att.Size,
		}
	}

	return &Detail{
		ID:          msg.ID,
		FromAddress: msg.FromAddress,
		FromName:    msg.FromName,
		ToAddress:   msg.ToAddress,
		Subject:     msg.Subject,
		Body:        body,
		BodyType:    bodyType,
		ReceivedAt:  msg.ReceivedAt,
		Attachments: infos,
	}, nil
}

func (s *Service) loadBody(ctx context.Context, msg *repository.Message) (*string, *string, error) {
	if msg.S3HTMLKey != nil {
		data, err := s.blobs.GetObject(ctx, *msg.S3HTMLKey)
		if err == nil {
			body := s.sanitizer.Sanitize(string(data))
			bodyType := BodyTypeHTML
			return &body, &bodyType, nil
		}
		if !isNotFound(err) {
			return nil, nil, fmt.Errorf("failed to load html body: %w", err)
		}
	}

	if msg.S3TextKey != nil {
		data, err := s.blobs.GetObject(ctx, *msg.S3TextKey)
		if err == nil {
			body := string(data)
			bodyType := BodyTypeText
			return &body, &bodyType, nil
		}
		if !isNotFound(err) {
			return nil, nil, fmt.Errorf("failed to load text body: %w", err)
		}
	}

	return nil, nil, nil
}

func isNotFound(err error) bool {
	return errors.Is(err, storage.ErrObjectNotFound)
}
