package inbound

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/inboxx/inboxx/internal/parser"
	"github.com/inboxx/inboxx/internal/repository"
)

type fakeBlobStore struct {
	objects map[string][]byte
	types   map[string]string
	getErr  error
	putErr  error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{
		objects: make(map[string][]byte),
		types:   make(map[string]string),
	}
}

func (f *fakeBlobStore) GetObject(_ context.Context, key string) ([]byte, error) {
	if f.getErr != nil {
		return nil, f.getErr
	}
	data, ok := f.objects[key]
	if !ok {
		return nil, errors.New("no such key")
	}
	return data, nil
}

func (f *fakeBlobStore) PutObject(_ context.Context, key string, data []byte, contentType string) error {
	if f.putErr != nil {
		return f.putErr
	}
	f.objects[key] = data
	f.types[key] = contentType
	return nil
}

type fakeInboxStore struct {
	inboxes map[string]*repository.Inbox
	upserts []time.Time
}

func newFakeInboxStore() *fakeInboxStore {
	return &fakeInboxStore{inboxes: make(map[string]*repository.Inbox)}
}

func (f *fakeInboxStore) Upsert(_ context.Context, username string, expiresAt time.Time) (*repository.Inbox, error) {
	f.upserts = append(f.upserts, expiresAt)
	if box, ok := f.inboxes[username]; ok {
		box.ExpiresAt = expiresAt
		return box, nil
	}
	box := &repository.Inbox{
		ID:        uuid.New(),
		Username:  username,
		ExpiresAt: expiresAt,
		CreatedAt: time.Now(),
	}
	f.inboxes[username] = box
	return box, nil
}

type fakeMessageStore struct {
	messages []*repository.Message
	err      error
}

func (f *fakeMessageStore) Create(_ context.Context, message *repository.Message) error {
	if f.err != nil {
		return f.err
	}
	f.messages = append(f.messages, message)
	return nil
}

type fakeAttachmentStore struct {
	attachments []*repository.Attachment
}

func (f *fakeAttachmentStore) Create(_ context.Context, attachment *repository.Attachment) error {
	f.attachments = append(f.attachments, attachment)
	return nil
}

type fakeEventStore struct {
	events []*repository.InboundEvent
}

func (f *fakeEventStore) Create(_ context.Context, event *repository.InboundEvent) error {
	f.events = append(f.events, event)
	return nil
}

type testEnv struct {
	blobs       *fakeBlobStore
	inboxes     *fakeInboxStore
	messages    *fakeMessageStore
	attachments *fakeAttachmentStore
	events      *fakeEventStore
	service     *Service
}

func newTestEnv() *testEnv {
	env := &testEnv{
		blobs:       newFakeBlobStore(),
		inboxes:     newFakeInboxStore(),
		messages:    &fakeMessageStore{},
		attachments: &fakeAttachmentStore{},
		events:      &fakeEventStore{},
	}
	env.service = NewService(
		env.blobs,
		env.inboxes,
		env.messages,
		env.attachments,
		env.events,
		parser.NewEmailParser(),
		"example.com",
		24*time.Hour,
		nil,
	)
	return env
}

const simpleEmail = "From: Sender <sender@remote.test>\r\n" +
	"To: alice@example.com\r\n" +
	"Subject: Hello\r\n" +
	"Content-Type: text/plain\r\n" +
	"\r\n" +
	"Hello alice, this is a test.\r\n"

func TestProcessKeySuccess(t *testing.T) {
	env := newTestEnv()
	env.blobs.objects["raw/test.eml"] = []byte(simpleEmail)

	result, err := env.service.ProcessKey(context.Background(), "raw/test.eml")
	if err != nil {
		t.Fatalf("ProcessKey failed: %v", err)
	}

	if result.Username != "alice" {
		t.Errorf("username = %q, want %q", result.Username, "alice")
	}

	if len(env.messages.messages) != 1 {
		t.Fatalf("got %d messages, want 1", len(env.messages.messages))
	}
	msg := env.messages.messages[0]
	if msg.FromAddress != "sender@remote.test" {
		t.Errorf("from = %q, want sender@remote.test", msg.FromAddress)
	}
	if msg.FromName == nil || *msg.FromName != "Sender" {
		t.Errorf("fromName = %v, want Sender", msg.FromName)
	}
	if msg.ToAddress != "alice@example.com" {
		t.Errorf("to = %q, want alice@example.com", msg.ToAddress)
	}
	if msg.Subject == nil || *msg.Subject != "Hello" {
		t.Errorf("subject = %v, want Hello", msg.Subject)
	}
	if msg.S3RawKey != "raw/test.eml" {
		t.Errorf("raw key = %q", msg.S3RawKey)
	}
	if msg.S3HTMLKey != nil {
		t.Error("html key set for text-only email")
	}
	if msg.S3TextKey == nil {
		t.Fatal("text key not set")
	} else if want := "text/" + msg.ID.String() + ".txt"; *msg.S3TextKey != want {
		t.Errorf("text key = %q, want %q", *msg.S3TextKey, want)
	}
	if msg.TextPreview == nil || !strings.HasPrefix(*msg.TextPreview, "Hello alice") {
		t.Errorf("preview = %v", msg.TextPreview)
	}

	// Text body stored
	if _, ok := env.blobs.objects[*msg.S3TextKey]; !ok {
		t.Error("text body not stored")
	}

	// Success event recorded with the message id
	if len(env.events.events) != 1 {
		t.Fatalf("got %d events, want 1", len(env.events.events))
	}
	event := env.events.events[0]
	if event.Status != repository.EventStatusSuccess {
		t.Errorf("event status = %q, want success", event.Status)
	}
	if event.MessageID == nil || *event.MessageID != msg.ID {
		t.Errorf("event message id = %v, want %v", event.MessageID, msg.ID)
	}
}

func TestProcessKeyRawMissing(t *testing.T) {
	env := newTestEnv()

	_, err := env.service.ProcessKey(context.Background(), "raw/missing.eml")
	if !errors.Is(err, ErrRawNotFound) {
		t.Fatalf("err = %v, want ErrRawNotFound", err)
	}

	if len(env.events.events) != 1 {
		t.Fatalf("got %d events, want 1", len(env.events.events))
	}
	event := env.events.events[0]
	if event.Status != repository.EventStatusFailed {
		t.Errorf("event status = %q, want failed", event.Status)
	}
	if event.Error == nil || *event.Error != "Raw email not found in S3" {
		t.Errorf("event error = %v", event.Error)
	}
}

func TestProcessKeyParseFailure(t *testing.T) {
	env := newTestEnv()
	env.blobs.objects["raw/garbage.eml"] = []byte("")

	_, err := env.service.ProcessKey(context.Background(), "raw/garbage.eml")
	if err == nil {
		t.Fatal("expected error for unparseable email")
	}

	var parseErr *parser.ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("err = %v, want ParseError", err)
	}

	if len(env.events.events) != 1 || env.events.events[0].Status != repository.EventStatusFailed {
		t.Fatalf("events = %+v, want one failed event", env.events.events)
	}
	if len(env.messages.messages) != 0 {
		t.Error("message created despite parse failure")
	}
}

func TestProcessKeyForeignRecipient(t *testing.T) {
	env := newTestEnv()
	email := strings.Replace(simpleEmail, "alice@example.com", "alice@other.org", 1)
	env.blobs.objects["raw/foreign.eml"] = []byte(email)

	_, err := env.service.ProcessKey(context.Background(), "raw/foreign.eml")
	if !errors.Is(err, ErrInvalidRecipient) {
		t.Fatalf("err = %v, want ErrInvalidRecipient", err)
	}

	if len(env.events.events) != 1 {
		t.Fatalf("got %d events, want 1", len(env.events.events))
	}
	event := env.events.events[0]
	if event.Status != repository.EventStatusInvalidRecipient {
		t.Errorf("event status = %q, want invalid_recipient", event.Status)
	}
	if event.Error == nil || !strings.Contains(*event.Error, "alice@other.org") {
		t.Errorf("event error = %v, want recipient address in detail", event.Error)
	}
}

func TestProcessKeyReservedRecipient(t *testing.T) {
	env := newTestEnv()
	email := strings.Replace(simpleEmail, "alice@example.com", "admin@example.com", 1)
	env.blobs.objects["raw/reserved.eml"] = []byte(email)

	_, err := env.service.ProcessKey(context.Background(), "raw/reserved.eml")
	if !errors.Is(err, ErrReservedRecipient) {
		t.Fatalf("err = %v, want ErrReservedRecipient", err)
	}

	event := env.events.events[0]
	if event.Status != repository.EventStatusInvalidRecipient {
		t.Errorf("event status = %q, want invalid_recipient", event.Status)
	}
	if event.Error == nil || !strings.Contains(*event.Error, "Reserved username: admin") {
		t.Errorf("event error = %v", event.Error)
	}
	if len(env.inboxes.inboxes) != 0 {
		t.Error("inbox created for reserved recipient")
	}
}

func TestProcessKeyMissingFromFallsBack(t *testing.T) {
	env := newTestEnv()
	email := "To: alice@example.com\r\n" +
		"Subject: No sender\r\n" +
		"\r\n" +
		"body\r\n"
	env.blobs.objects["raw/nofrom.eml"] = []byte(email)

	_, err := env.service.ProcessKey(context.Background(), "raw/nofrom.eml")
	if err != nil {
		t.Fatalf("ProcessKey failed: %v", err)
	}

	msg := env.messages.messages[0]
	if msg.FromAddress != "unknown@unknown.com" {
		t.Errorf("from = %q, want unknown@unknown.com", msg.FromAddress)
	}
	if msg.FromName != nil {
		t.Errorf("fromName = %v, want nil", msg.FromName)
	}
}

func TestProcessKeyRefreshesInboxExpiry(t *testing.T) {
	env := newTestEnv()
	env.blobs.objects["raw/first.eml"] = []byte(simpleEmail)
	env.blobs.objects["raw/second.eml"] = []byte(simpleEmail)

	first, err := env.service.ProcessKey(context.Background(), "raw/first.eml")
	if err != nil {
		t.Fatalf("first ProcessKey failed: %v", err)
	}
	second, err := env.service.ProcessKey(context.Background(), "raw/second.eml")
	if err != nil {
		t.Fatalf("second ProcessKey failed: %v", err)
	}

	if first.InboxID != second.InboxID {
		t.Error("same recipient produced two inboxes")
	}
	if first.MessageID == second.MessageID {
		t.Error("two deliveries produced one message")
	}
	if len(env.inboxes.upserts) != 2 {
		t.Fatalf("got %d upserts, want 2", len(env.inboxes.upserts))
	}
	if env.inboxes.upserts[1].Before(env.inboxes.upserts[0]) {
		t.Error("second delivery moved expiry backwards")
	}

	// Both messages share the inbox's latest expiry semantics: each message
	// carries the expiry computed at its own delivery.
	msgs := env.messages.messages
	if len(msgs) != 2 {
		t.Fatalf("got %d messages, want 2", len(msgs))
	}
	if msgs[1].ExpiresAt.Before(msgs[0].ExpiresAt) {
		t.Error("later message expires before earlier one")
	}
}

func TestProcessKeyWithAttachments(t *testing.T) {
	env := newTestEnv()
	email := "From: sender@remote.test\r\n" +
		"To: alice@example.com\r\n" +
		"Subject: Files\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=\"XYZ\"\r\n" +
		"\r\n" +
		"--XYZ\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"see attached\r\n" +
		"--XYZ\r\n" +
		"Content-Type: application/pdf; name=\"report.pdf\"\r\n" +
		"Content-Disposition: attachment; filename=\"report.pdf\"\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"JVBERi0xLjQ=\r\n" +
		"--XYZ--\r\n"
	env.blobs.objects["raw/attach.eml"] = []byte(email)

	result, err := env.service.ProcessKey(context.Background(), "raw/attach.eml")
	if err != nil {
		t.Fatalf("ProcessKey failed: %v", err)
	}

	if len(env.attachments.attachments) != 1 {
		t.Fatalf("got %d attachments, want 1", len(env.attachments.attachments))
	}
	att := env.attachments.attachments[0]
	if att.Filename != "report.pdf" {
		t.Errorf("filename = %q, want report.pdf", att.Filename)
	}
	if att.ContentType != "application/pdf" {
		t.Errorf("content type = %q, want application/pdf", att.ContentType)
	}
	wantKey := "attachments/" + result.MessageID.String() + "/report.pdf"
	if att.S3Key != wantKey {
		t.Errorf("s3 key = %q, want %q", att.S3Key, wantKey)
	}

	data, ok := env.blobs.objects[wantKey]
	if !ok {
		t.Fatal("attachment blob not stored")
	}
	if string(data) != "%PDF-1.4" {
		t.Errorf("attachment data = %q, want decoded base64", data)
	}
	if att.Size != int64(len(data)) {
		t.Errorf("size = %d, want %d", att.Size, len(data))
	}
}

func TestProcessRawStoresAndProcesses(t *testing.T) {
	env := newTestEnv()

	result, err := env.service.ProcessRaw(context.Background(), []byte(simpleEmail))
	if err != nil {
		t.Fatalf("ProcessRaw failed: %v", err)
	}

	msg := env.messages.messages[0]
	if !strings.HasPrefix(msg.S3RawKey, "raw/") || !strings.HasSuffix(msg.S3RawKey, ".eml") {
		t.Errorf("raw key = %q, want raw/<uuid>.eml", msg.S3RawKey)
	}
	if env.blobs.types[msg.S3RawKey] != "message/rfc822" {
		t.Errorf("raw content type = %q", env.blobs.types[msg.S3RawKey])
	}
	if string(env.blobs.objects[msg.S3RawKey]) != simpleEmail {
		t.Error("stored raw bytes differ from submitted email")
	}
	if result.Username != "alice" {
		t.Errorf("username = %q", result.Username)
	}
}
