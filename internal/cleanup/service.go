// Package cleanup implements the retention sweep: expired messages lose
// their blobs and rows, expired inboxes are removed, and old audit events
// are pruned.
package cleanup

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/inboxx/inboxx/internal/metrics"
	"github.com/inboxx/inboxx/internal/repository"
)

// eventRetention bounds how long inbound audit events are kept.
const eventRetention = 7 * 24 * time.Hour

// BlobStore deletes stored objects.
type BlobStore interface {
	DeleteObject(ctx context.Context, key string) error
}

// MessageStore finds and deletes expired messages.
type MessageStore interface {
	FindExpired(ctx context.Context, now time.Time) ([]*repository.ExpiredMessage, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	CountExpired(ctx context.Context, now time.Time) (int, error)
}

// InboxStore deletes expired inboxes.
type InboxStore interface {
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
	CountExpired(ctx context.Context, now time.Time) (int, error)
}

// EventStore prunes old audit events.
type EventStore interface {
	DeleteProcessedBefore(ctx context.Context, cutoff time.Time) (int64, error)
	CountProcessedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

// Result reports what a single sweep removed. Blob deletion failures are
// collected rather than aborting the run, so the relational deletes still
// happen and the next sweep can retry nothing (DB rows are gone); stray
// blobs are the accepted cost of a partial S3 outage.
type Result struct {
	DeletedInboxes       int64    `json:"deletedInboxes"`
	DeletedMessages      int64    `json:"deletedMessages"`
	DeletedAttachments   int64    `json:"deletedAttachments"`
	DeletedS3Objects     int64    `json:"deletedS3Objects"`
	DeletedInboundEvents int64    `json:"deletedInboundEvents"`
	Errors               []string `json:"errors"`
}

// Stats is the dry-run view of what a sweep would remove.
type Stats struct {
	ExpiredInboxes   int `json:"expiredInboxes"`
	ExpiredMessages  int `json:"expiredMessages"`
	OldInboundEvents int `json:"oldInboundEvents"`
}

// Service performs retention sweeps.
type Service struct {
	blobs    BlobStore
	messages MessageStore
	inboxes  InboxStore
	events   EventStore
	logger   *slog.Logger
}

// NewService creates a cleanup Service.
func NewService(blobs BlobStore, messages MessageStore, inboxes InboxStore, events EventStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		blobs:    blobs,
		messages: messages,
		inboxes:  inboxes,
		events:   events,
		logger:   logger,
	}
}

// Run executes one retention sweep and reports what was removed.
func (s *Service) Run(ctx context.Context) (*Result, error) {
	now := time.Now()
	result := &Result{Errors: []string{}}

	expired, err := s.messages.FindExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to find expired messages: %w", err)
	}

	for _, msg := range expired {
		keys := []string{msg.S3RawKey}
		if msg.S3HTMLKey != nil {
			keys = append(keys, *msg.S3HTMLKey)
		}
		if msg.S3TextKey != nil {
			keys = append(keys, *msg.S3TextKey)
		}
		for _, att := range msg.Attachments {
			keys = append(keys, att.S3Key)
			result.DeletedAttachments++
		}

		for _, key := range keys {
			if err := s.blobs.DeleteObject(ctx, key); err != nil {
				result.Errors = append(result.Errors, fmt.Sprintf("Failed to delete S3 object %s: %v", key, err))
				continue
			}
			result.DeletedS3Objects++
		}
	}

	if len(expired) > 0 {
		// Attachment rows cascade with their messages.
		deleted, err := s.messages.DeleteExpired(ctx, now)
		if err != nil {
			return nil, fmt.Errorf("failed to delete expired messages: %w", err)
		}
		result.DeletedMessages = deleted
	}

	deletedInboxes, err := s.inboxes.DeleteExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to delete expired inboxes: %w", err)
	}
	result.DeletedInboxes = deletedInboxes

	deletedEvents, err := s.events.DeleteProcessedBefore(ctx, now.Add(-eventRetention))
	if err != nil {
		return nil, fmt.Errorf("failed to delete old inbound events: %w", err)
	}
	result.DeletedInboundEvents = deletedEvents

	metrics.CleanupDeletedTotal.WithLabelValues("inboxes").Add(float64(result.DeletedInboxes))
	metrics.CleanupDeletedTotal.WithLabelValues("messages").Add(float64(result.DeletedMessages))
	metrics.CleanupDeletedTotal.WithLabelValues("attachments").Add(float64(result.DeletedAttachments))
	metrics.CleanupDeletedTotal.WithLabelValues("s3_objects").Add(float64(result.DeletedS3Objects))
	metrics.CleanupDeletedTotal.WithLabelValues("inbound_events").Add(float64(result.DeletedInboundEvents))

	s.logger.Info("Cleanup run completed",
		"deleted_inboxes", result.DeletedInboxes,
		"deleted_messages", result.DeletedMessages,
		"deleted_attachments", result.DeletedAttachments,
		"deleted_s3_objects", result.DeletedS3Objects,
		"deleted_inbound_events", result.DeletedInboundEvents,
		"errors", len(result.Errors),
		"duration", time.Since(now),
	)

	return result, nil
}

// GetStats reports what the next sweep would remove without deleting.
func (s *Service) GetStats(ctx context.Context) (*Stats, error) {
	now := time.Now()

	expiredInboxes, err := s.inboxes.CountExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to count expired inboxes: %w", err)
	}

	expiredMessages, err := s.messages.CountExpired(ctx, now)
	if err != nil {
		return nil, fmt.Errorf("failed to count expired messages: %w", err)
	}

	oldEvents, err := s.events.CountProcessedBefore(ctx, now.Add(-eventRetention))
	if err != nil {
		return nil, fmt.Errorf("failed to count old inbound events: %w", err)
	}

	return &Stats{
		ExpiredInboxes:   expiredInboxes,
		ExpiredMessages:  expiredMessages,
		OldInboundEvents: oldEvents,
	}, nil
}
