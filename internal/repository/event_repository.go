package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
)

// EventRepository handles the append-only inbound audit log
type EventRepository struct {
	db *sqlx.DB
}

// NewEventRepository creates a new EventRepository
func NewEventRepository(db *sqlx.DB) *EventRepository {
	return &EventRepository{db: db}
}

// Create appends an inbound event. Events are never mutated.
func (r *EventRepository) Create(ctx context.Context, event *InboundEvent) error {
	query := `
		INSERT INTO inbound_events (s3_raw_key, status, message_id, error)
		VALUES ($1, $2, $3, $4)
	`

	_, err := r.db.ExecContext(ctx, query,
		event.S3RawKey,
		event.Status,
		event.MessageID,
		event.Error,
	)
	if err != nil {
		return fmt.Errorf("failed to create inbound event: %w", err)
	}

	return nil
}

// DeleteProcessedBefore bulk-deletes events processed at or before the cutoff
func (r *EventRepository) DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	result, err := r.db.ExecContext(ctx, `DELETE FROM inbound_events WHERE processed_at <= $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to delete inbound events: %w", err)
	}

	deleted, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return deleted, nil
}

// CountProcessedBefore counts events processed at or before the cutoff
func (r *EventRepository) CountProcessedBefore(ctx context.Context, cutoff time.Time) (int, error) {
	var count int
	if err := r.db.GetContext(ctx, &count, `SELECT COUNT(*) FROM inbound_events WHERE processed_at <= $1`, cutoff); err != nil {
		return 0, fmt.Errorf("failed to count inbound events: %w", err)
	}
	return count, nil
}
