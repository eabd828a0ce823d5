package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrAttachmentNotFound is returned when an attachment does not exist
var ErrAttachmentNotFound = errors.New("attachment not found")

// AttachmentRepository handles attachment database operations
type AttachmentRepository struct {
	db *sqlx.DB
}

// NewAttachmentRepository creates a new AttachmentRepository
func NewAttachmentRepository(db *sqlx.DB) *AttachmentRepository {
	return &AttachmentRepository{db: db}
}

// Create persists a new attachment row
func (r *AttachmentRepository) Create(ctx context.Context, attachment *Attachment) error {
	query := `
		INSERT INTO attachments (id, message_id, filename, content_type, size, s3_key)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.db.ExecContext(ctx, query,
		attachment.ID,
		attachment.MessageID,
		attachment.Filename,
		attachment.ContentType,
		attachment.Size,
		attachment.S3Key,
	)
	if err != nil {
		return fmt.Errorf("failed to create attachment: %w", err)
	}

	return nil
}

// GetByID retrieves an attachment by its ID
func (r *AttachmentRepository) GetByID(ctx context.Context, id uuid.UUID) (*Attachment, error) {
	query := `
		SELECT id, message_id, filename, content_type, size, s3_key
		FROM attachments
		WHERE id = $1
	`

	var attachment Attachment
	if err := r.db.GetContext(ctx, &attachment, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAttachmentNotFound
		}
		return nil, fmt.Errorf("failed to get attachment: %w", err)
	}

	return &attachment, nil
}

// ListByMessageID retrieves all attachments for a message, in insertion order
func (r *AttachmentRepository) ListByMessageID(ctx context.Context, messageID uuid.UUID) ([]Attachment, error) {
	query := `
		SELECT id, message_id, filename, content_type, size, s3_key
		FROM attachments
		WHERE message_id = $1
		ORDER BY id ASC
	`

	var attachments []Attachment
	if err := r.db.SelectContext(ctx, &attachments, query, messageID); err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}

	return attachments, nil
}

// ListByMessageIDs retrieves attachments for a set of messages, grouped by
// message id. Used to decorate a page of message summaries.
func (r *AttachmentRepository) ListByMessageIDs(ctx context.Context, messageIDs []uuid.UUID) (map[uuid.UUID][]Attachment, error) {
	grouped := make(map[uuid.UUID][]Attachment, len(messageIDs))
	if len(messageIDs) == 0 {
		return grouped, nil
	}

	query, args, err := sqlx.In(`
		SELECT id, message_id, filename, content_type, size, s3_key
		FROM attachments
		WHERE message_id IN (?)
		ORDER BY id ASC
	`, messageIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build attachment query: %w", err)
	}

	var attachments []Attachment
	if err := r.db.SelectContext(ctx, &attachments, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to list attachments: %w", err)
	}

	for _, att := range attachments {
		grouped[att.MessageID] = append(grouped[att.MessageID], att)
	}

	return grouped, nil
}
