package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// ErrInboxNotFound is returned when an inbox does not exist
var ErrInboxNotFound = errors.New("inbox not found")

// InboxRepository handles inbox database operations
type InboxRepository struct {
	db *sqlx.DB
}

// NewInboxRepository creates a new InboxRepository
func NewInboxRepository(db *sqlx.DB) *InboxRepository {
	return &InboxRepository{db: db}
}

// Upsert creates an inbox for the username or refreshes its expiry. The
// unique constraint on username makes concurrent upserts race-free; this is
// the sole mutation path for expires_at.
func (r *InboxRepository) Upsert(ctx context.Context, username string, expiresAt time.Time) (*Inbox, error) {
	query := `
		INSERT INTO inboxes (username, expires_at)
		VALUES ($1, $2)
		ON CONFLICT (username) DO UPDATE SET expires_at = EXCLUDED.expires_at
		RETURNING id, username, expires_at, created_at
	`

	var inbox Inbox
	if err := r.db.GetContext(ctx, &inbox, query, username, expiresAt); err != nil {
		return nil, fmt.Errorf("failed to upsert inbox: %w", err)
	}

	return &inbox, nil
}

// GetByUsername retrieves an inbox by its username
func (r *InboxRepository) GetByUsername(ctx context.Context, username string) (*Inbox, error) {
	query := `SELECT id, username, expires_at, created_at FROM inboxes WHERE username = $1`

	var inbox Inbox
	if err := r.db.GetContext(ctx, &inbox, query, username); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrInboxNotFound
		}
		return nil, fmt.Errorf("failed to get inbox: %w", err)
	}

	return &inbox, nil
}

// DeleteByUsername deletes an inbox and, via cascade, its messages and
// attachments. Returns ErrInboxNotFound when no row matched.
func (r *InboxRepository) DeleteByUsername(ctx context.Context, username string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM inboxes WHERE username = $1`, username)
	if err != nil {
		return fmt.Errorf("failed to delete inbox: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return ErrInboxNotFound
	}

	return nil
}

// DeleteExpired bulk-deletes all inboxes past their expiry
func (r *InboxRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM inboxes WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("failed to delete expired inboxes: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// CountExpired counts inboxes past their expiry without deleting anything
func (r *InboxRepository) CountExpired(ctx context.Context, now time.Time) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM inboxes WHERE expires_at <= $1`, now); err != nil {
		return 0, fmt.Errorf("failed to count expired inboxes: %w", err)
	}
	return count, nil
}
