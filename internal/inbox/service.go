// Package inbox provides the read API for disposable inboxes: listing
// messages with keyset pagination and clearing whole inboxes.
package inbox

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/inboxx/inboxx/internal/repository"
)

// InboxStore is the inbox lookup surface the service needs.
type InboxStore interface {
	GetByUsername(ctx context.Context, username string) (*repository.Inbox, error)
	DeleteByUsername(ctx context.Context, username string) error
}

// MessageStore pages through an inbox's messages, newest first.
type MessageStore interface {
	ListByInboxID(ctx context.Context, inboxID uuid.UUID, limit int, cursor *uuid.UUID) ([]repository.Message, error)
}

// AttachmentStore loads attachment metadata for listed messages.
type AttachmentStore interface {
	ListByMessageIDs(ctx context.Context, messageIDs []uuid.UUID) (map[uuid.UUID][]repository.Attachment, error)
}

// AttachmentSummary is the attachment metadata embedded in listings.
type AttachmentSummary struct {
	ID          uuid.UUID `json:"id"`
	Filename    string    `json:"filename"`
	ContentType string    `json:"contentType"`
	Size        int64     `json:"size"`
}

// MessageSummary is one row of an inbox listing.
type MessageSummary struct {
	ID          uuid.UUID           `json:"id"`
	FromAddress string              `json:"fromAddress"`
	FromName    *string             `json:"fromName"`
	Subject     *string             `json:"subject"`
	TextPreview *string             `json:"textPreview"`
	ReceivedAt  time.Time           `json:"receivedAt"`
	Attachments []AttachmentSummary `json:"attachments"`
}

// ListResult is a page of inbox messages.
type ListResult struct {
	Username   string           `json:"username"`
	Messages   []MessageSummary `json:"messages"`
	HasMore    bool             `json:"hasMore"`
	NextCursor *string          `json:"nextCursor"`
}

// Service implements inbox listing and deletion.
type Service struct {
	inboxes     InboxStore
	messages    MessageStore
	attachments AttachmentStore
}

// NewService creates a new inbox Service.
func NewService(inboxes InboxStore, messages MessageStore, attachments AttachmentStore) *Service {
	return &Service{
		inboxes:     inboxes,
		messages:    messages,
		attachments: attachments,
	}
}

// ListMessages returns one page of messages for the inbox, newest first.
// An inbox that was never created lists as empty rather than failing, so
// clients can poll an address before any mail arrives.
func (s *Service) ListMessages(ctx context.Context, username string, limit int, cursor *uuid.UUID) (*ListResult, error) {
	box, err := s.inboxes.GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, repository.ErrInboxNotFound) {
			return &ListResult{Username: username, Messages: []MessageSummary{}}, nil
		}
		return nil, fmt.Errorf("failed to load inbox: %w", err)
	}

	// Fetch one past the page to learn whether more rows exist.
	rows, err := s.messages.ListByInboxID(ctx, box.ID, limit+1, cursor)
	if err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}

	ids := make([]uuid.UUID, len(rows))
	for i, row := range rows {
		ids[i] = row.ID
	}

	attachmentsByMessage, err := s.attachments.ListByMessageIDs(ctx, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to load attachments: %w", err)
	}

	messages := make([]MessageSummary, len(rows))
	for i, row := range rows {
		attachments := make([]AttachmentSummary, 0, len(attachmentsByMessage[row.ID]))
		for _, att := range attachmentsByMessage[row.ID] {
			attachments = append(attachments, AttachmentSummary{
				ID:          att.ID,
				Filename:    att.Filename,
				ContentType: att.ContentType,
				Size:        att.Size,
			})
		}

		messages[i] = MessageSummary{
			ID:          row.ID,
			FromAddress: row.FromAddress,
			FromName:    row.FromName,
			Subject:     row.Subject,
			TextPreview: row.TextPreview,
			ReceivedAt:  row.ReceivedAt,
			Attachments: attachments,
		}
	}

	result := &ListResult{
		Username: username,
		Messages: messages,
		HasMore:  hasMore,
	}
	if hasMore && len(messages) > 0 {
		next := messages[len(messages)-1].ID.String()
		result.NextCursor = &next
	}

	return result, nil
}

// DeleteInbox removes the inbox and, via cascade, all of its messages and
// attachment rows. Blob cleanup is left to the retention sweep.
func (s *Service) DeleteInbox(ctx context.Context, username string) error {
	return s.inboxes.DeleteByUsername(ctx, username)
}
