package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
)

// ErrMessageNotFound is returned when a message does not exist
var ErrMessageNotFound = errors.New("message not found")

// MessageRepository handles message database operations
type MessageRepository struct {
	db *sqlx.DB
}

// NewMessageRepository creates a new MessageRepository
func NewMessageRepository(db *sqlx.DB) *MessageRepository {
	return &MessageRepository{db: db}
}

// Create persists a new message row
func (r *MessageRepository) Create(ctx context.Context, message *Message) error {
	query := `
		INSERT INTO messages (id, inbox_id, from_address, from_name, to_address, subject,
		                      s3_raw_key, s3_html_key, s3_text_key, text_preview, received_at, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)
	`

	_, err := r.db.ExecContext(ctx, query,
		message.ID,
		message.InboxID,
		message.FromAddress,
		message.FromName,
		message.ToAddress,
		message.Subject,
		message.S3RawKey,
		message.S3HTMLKey,
		message.S3TextKey,
		message.TextPreview,
		message.ReceivedAt,
		message.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create message: %w", err)
	}

	return nil
}

// GetByID retrieves a message by its ID
func (r *MessageRepository) GetByID(ctx context.Context, id uuid.UUID) (*Message, error) {
	query := `
		SELECT id, inbox_id, from_address, from_name, to_address, subject,
		       s3_raw_key, s3_html_key, s3_text_key, text_preview, received_at, expires_at
		FROM messages
		WHERE id = $1
	`

	var message Message
	if err := r.db.GetContext(ctx, &message, query, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrMessageNotFound
		}
		return nil, fmt.Errorf("failed to get message: %w", err)
	}

	return &message, nil
}

// ListByInboxID retrieves up to limit messages for an inbox, newest first.
// A non-nil cursor resumes keyset pagination after the cursor message; an
// unknown cursor yields an empty page.
func (r *MessageRepository) ListByInboxID(ctx context.Context, inboxID uuid.UUID, limit int, cursor *uuid.UUID) ([]Message, error) {
	query := `
		SELECT id, inbox_id, from_address, from_name, to_address, subject,
		       s3_raw_key, s3_html_key, s3_text_key, text_preview, received_at, expires_at
		FROM messages
		WHERE inbox_id = $1
	`
	args := []any{inboxID}

	if cursor != nil {
		query += ` AND (received_at, id) < (SELECT received_at, id FROM messages WHERE id = $2)`
		args = append(args, *cursor)
	}

	query += fmt.Sprintf(` ORDER BY received_at DESC, id DESC LIMIT $%d`, len(args)+1)
	args = append(args, limit)

	var messages []Message
	if err := r.db.SelectContext(ctx, &messages, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}

	return messages, nil
}

// FindExpired selects all messages past their expiry, eagerly including
// their attachments.
func (r *MessageRepository) FindExpired(ctx context.Context, now time.Time) ([]*ExpiredMessage, error) {
	query := `
		SELECT id, inbox_id, from_address, from_name, to_address, subject,
		       s3_raw_key, s3_html_key, s3_text_key, text_preview, received_at, expires_at
		FROM messages
		WHERE expires_at <= $1
		ORDER BY expires_at ASC
	`

	var messages []Message
	if err := r.db.SelectContext(ctx, &messages, query, now); err != nil {
		return nil, fmt.Errorf("failed to find expired messages: %w", err)
	}

	expired := make([]*ExpiredMessage, len(messages))
	ids := make([]uuid.UUID, len(messages))
	byID := make(map[uuid.UUID]*ExpiredMessage, len(messages))
	for i, m := range messages {
		expired[i] = &ExpiredMessage{Message: m}
		ids[i] = m.ID
		byID[m.ID] = expired[i]
	}

	if len(ids) == 0 {
		return expired, nil
	}

	attQuery, args, err := sqlx.In(`
		SELECT id, message_id, filename, content_type, size, s3_key
		FROM attachments
		WHERE message_id IN (?)
		ORDER BY id ASC
	`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to build attachment query: %w", err)
	}

	var attachments []Attachment
	if err := r.db.SelectContext(ctx, &attachments, r.db.Rebind(attQuery), args...); err != nil {
		return nil, fmt.Errorf("failed to load attachments for expired messages: %w", err)
	}

	for _, att := range attachments {
		if m, ok := byID[att.MessageID]; ok {
			m.Attachments = append(m.Attachments, att)
		}
	}

	return expired, nil
}

// DeleteExpired bulk-deletes all messages past their expiry; attachment rows
// cascade relationally.
func (r *MessageRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired messages: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// CountExpired counts messages past their expiry without deleting anything
func (r *MessageRepository) CountExpired(ctx context.Context, now time.Time) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM messages WHERE expires_at <= $1`, now); err != nil {
		return 0, fmt.Errorf("failed to count expired messages: %w", err)
	}
	return count, nil
}
