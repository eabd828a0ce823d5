package storage

import "fmt"

// Blob keys are deterministic and namespaced by message id so every blob is
// referenced by exactly one relational row.

// RawKey returns the key for a raw inbound email
func RawKey(id string) string {
	return fmt.Sprintf("raw/%s.eml", id)
}

// HTMLKey returns the key for a parsed HTML body
func HTMLKey(messageID string) string {
	return fmt.Sprintf("html/%s.html", messageID)
}

// TextKey returns the key for a parsed plain-text body
func TextKey(messageID string) string {
	return fmt.Sprintf("text/%s.txt", messageID)
}

// AttachmentKey returns the key for an attachment payload
func AttachmentKey(messageID, filename string) string {
	return fmt.Sprintf("attachments/%s/%s", messageID, filename)
}
