package repository

import (
	"time"

	"github.com/google/uuid"
)

// Inbox represents a disposable mailbox in the database
type Inbox struct {
	ID        uuid.UUID `db:"id"`
	Username  string    `db:"username"`
	ExpiresAt time.Time `db:"expires_at"`
	CreatedAt time.Time `db:"created_at"`
}

// Message represents a received email in the database. Messages are created
// once by ingestion and never mutated.
type Message struct {
	ID          uuid.UUID  `db:"id"`
	InboxID     uuid.UUID  `db:"inbox_id"`
	FromAddress string     `db:"from_address"`
	FromName    *string    `db:"from_name"`
	ToAddress   string     `db:"to_address"`
	Subject     *string    `db:"subject"`
	S3RawKey    string     `db:"s3_raw_key"`
	S3HTMLKey   *string    `db:"s3_html_key"`
	S3TextKey   *string    `db:"s3_text_key"`
	TextPreview *string    `db:"text_preview"`
	ReceivedAt  time.Time  `db:"received_at"`
	ExpiresAt   time.Time  `db:"expires_at"`
}

// Attachment represents an email attachment in the database
type Attachment struct {
	ID          uuid.UUID `db:"id"`
	MessageID   uuid.UUID `db:"message_id"`
	Filename    string    `db:"filename"`
	ContentType string    `db:"content_type"`
	Size        int64     `db:"size"`
	S3Key       string    `db:"s3_key"`
}

// Inbound event statuses
const (
	EventStatusSuccess          = "success"
	EventStatusFailed           = "failed"
	EventStatusInvalidRecipient = "invalid_recipient"
)

// InboundEvent is an append-only audit record of one ingestion attempt
type InboundEvent struct {
	ID          uuid.UUID  `db:"id"`
	S3RawKey    string     `db:"s3_raw_key"`
	Status      string     `db:"status"`
	MessageID   *uuid.UUID `db:"message_id"`
	Error       *string    `db:"error"`
	ProcessedAt time.Time  `db:"processed_at"`
}

// ExpiredMessage bundles an expired message with its attachments for cleanup
type ExpiredMessage struct {
	Message
	Attachments []Attachment
}
