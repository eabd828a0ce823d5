package attachment

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/inboxx/inboxx/internal/repository"
	"github.com/inboxx/inboxx/internal/storage"
)

type fakeAttachmentStore struct {
	att *repository.Attachment
}

func (f *fakeAttachmentStore) GetByID(_ context.Context, id uuid.UUID) (*repository.Attachment, error) {
	if f.att == nil || f.att.ID != id {
		return nil, repository.ErrAttachmentNotFound
	}
	return f.att, nil
}

type fakePresigner struct {
	lastKey    string
	lastExpiry time.Duration
	err        error
}

func (f *fakePresigner) PresignGet(_ context.Context, key string, expiry time.Duration) (string, error) {
	f.lastKey = key
	f.lastExpiry = expiry
	if f.err != nil {
		return "", f.err
	}
	return "https://signed.example.com/" + key, nil
}

func TestGetDownload(t *testing.T) {
	att := &repository.Attachment{
		ID:          uuid.New(),
		MessageID:   uuid.New(),
		Filename:    "invoice.pdf",
		ContentType: "application/pdf",
		Size:        2048,
		S3Key:       "attachments/msg/invoice.pdf",
	}
	presigner := &fakePresigner{}
	service := NewService(&fakeAttachmentStore{att: att}, presigner)

	download, err := service.GetDownload(context.Background(), att.ID)
	if err != nil {
		t.Fatalf("GetDownload failed: %v", err)
	}

	if download.URL != "https://signed.example.com/attachments/msg/invoice.pdf" {
		t.Errorf("URL = %q", download.URL)
	}
	if download.Filename != "invoice.pdf" || download.ContentType != "application/pdf" || download.Size != 2048 {
		t.Errorf("download = %+v", download)
	}
	if presigner.lastKey != att.S3Key {
		t.Errorf("presigned key = %q, want %q", presigner.lastKey, att.S3Key)
	}
	if presigner.lastExpiry != storage.DefaultPresignExpiry {
		t.Errorf("expiry = %v, want %v", presigner.lastExpiry, storage.DefaultPresignExpiry)
	}
}

func TestGetDownloadNotFound(t *testing.T) {
	service := NewService(&fakeAttachmentStore{}, &fakePresigner{})

	_, err := service.GetDownload(context.Background(), uuid.New())
	if !errors.Is(err, repository.ErrAttachmentNotFound) {
		t.Errorf("err = %v, want ErrAttachmentNotFound", err)
	}
}

func TestGetDownloadPresignFailure(t *testing.T) {
	att := &repository.Attachment{ID: uuid.New(), S3Key: "attachments/x"}
	service := NewService(&fakeAttachmentStore{att: att}, &fakePresigner{err: errors.New("s3 unavailable")})

	_, err := service.GetDownload(context.Background(), att.ID)
	if err == nil {
		t.Fatal("expected error when presigning fails")
	}
}
