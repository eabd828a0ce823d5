// Package attachment issues short-lived download links for stored
// attachments instead of proxying their bytes.
package attachment

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inboxx/inboxx/internal/repository"
	"github.com/inboxx/inboxx/internal/storage"
)

// AttachmentStore looks up attachment rows.
type AttachmentStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*repository.Attachment, error)
}

// Presigner signs time-limited download URLs.
type Presigner interface {
	PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error)
}

// Download is the signed download descriptor returned to clients.
type Download struct {
	URL         string `json:"url"`
	Filename    string `json:"filename"`
	ContentType string `json:"contentType"`
	Size        int64  `json:"size"`
}

// Service builds attachment downloads.
type Service struct {
	attachments AttachmentStore
	presigner   Presigner
}

// NewService creates a new attachment Service.
func NewService(attachments AttachmentStore, presigner Presigner) *Service {
	return &Service{
		attachments: attachments,
		presigner:   presigner,
	}
}

// GetDownload returns a presigned URL for the attachment, valid for five
// minutes.
func (s *Service) GetDownload(ctx context.Context, id uuid.UUID) (*Download, error) {
	att, err := s.attachments.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	url, err := s.presigner.PresignGet(ctx, att.S3Key, storage.DefaultPresignExpiry)
	if err != nil {
		return nil, fmt.Errorf("failed to presign download: %w", err)
	}

	return &Download{
		URL:         url,
		Filename:    att.Filename,
		ContentType: att.ContentType,
		Size:        att.Size,
	}, nil
}
