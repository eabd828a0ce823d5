package parser

import (
	"errors"
	"strings"
	"testing"
)

func TestParsePlainText(t *testing.T) {
	raw := []byte("From: Alice Smith <alice@remote.test>\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: Lunch\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"Are you free at noon?\r\n")

	parsed, err := NewEmailParser().Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if parsed.From != "alice@remote.test" {
		t.Errorf("From = %q", parsed.From)
	}
	if parsed.FromName != "Alice Smith" {
		t.Errorf("FromName = %q", parsed.FromName)
	}
	if len(parsed.Recipients) != 1 || parsed.Recipients[0] != "bob@example.com" {
		t.Errorf("Recipients = %v", parsed.Recipients)
	}
	if parsed.Subject != "Lunch" {
		t.Errorf("Subject = %q", parsed.Subject)
	}
	if !strings.Contains(parsed.BodyText, "Are you free at noon?") {
		t.Errorf("BodyText = %q", parsed.BodyText)
	}
	if parsed.BodyHTML != "" {
		t.Errorf("BodyHTML = %q, want empty", parsed.BodyHTML)
	}
	if parsed.SizeBytes != int64(len(raw)) {
		t.Errorf("SizeBytes = %d, want %d", parsed.SizeBytes, len(raw))
	}
}

func TestParseMultipartAlternative(t *testing.T) {
	raw := []byte("From: alice@remote.test\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: Both bodies\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/alternative; boundary=\"sep\"\r\n" +
		"\r\n" +
		"--sep\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"\r\n" +
		"plain version\r\n" +
		"--sep\r\n" +
		"Content-Type: text/html; charset=utf-8\r\n" +
		"\r\n" +
		"<p>html version</p>\r\n" +
		"--sep--\r\n")

	parsed, err := NewEmailParser().Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !strings.Contains(parsed.BodyText, "plain version") {
		t.Errorf("BodyText = %q", parsed.BodyText)
	}
	if !strings.Contains(parsed.BodyHTML, "<p>html version</p>") {
		t.Errorf("BodyHTML = %q", parsed.BodyHTML)
	}
	if len(parsed.Attachments) != 0 {
		t.Errorf("Attachments = %d, want 0", len(parsed.Attachments))
	}
}

func TestParseNestedMultipartWithAttachment(t *testing.T) {
	raw := []byte("From: alice@remote.test\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: Report\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=\"outer\"\r\n" +
		"\r\n" +
		"--outer\r\n" +
		"Content-Type: multipart/alternative; boundary=\"inner\"\r\n" +
		"\r\n" +
		"--inner\r\n" +
		"Content-Type: text/plain\r\n" +
		"\r\n" +
		"see attachment\r\n" +
		"--inner\r\n" +
		"Content-Type: text/html\r\n" +
		"\r\n" +
		"<b>see attachment</b>\r\n" +
		"--inner--\r\n" +
		"--outer\r\n" +
		"Content-Type: image/png; name=\"chart.png\"\r\n" +
		"Content-Disposition: attachment; filename=\"chart.png\"\r\n" +
		"Content-Transfer-Encoding: base64\r\n" +
		"\r\n" +
		"iVBORw0KGgo=\r\n" +
		"--outer--\r\n")

	parsed, err := NewEmailParser().Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}

	if !strings.Contains(parsed.BodyText, "see attachment") {
		t.Errorf("BodyText = %q", parsed.BodyText)
	}
	if !strings.Contains(parsed.BodyHTML, "<b>see attachment</b>") {
		t.Errorf("BodyHTML = %q", parsed.BodyHTML)
	}

	if len(parsed.Attachments) != 1 {
		t.Fatalf("got %d attachments, want 1", len(parsed.Attachments))
	}
	att := parsed.Attachments[0]
	if att.Filename != "chart.png" {
		t.Errorf("Filename = %q", att.Filename)
	}
	if att.ContentType != "image/png" {
		t.Errorf("ContentType = %q", att.ContentType)
	}
	if string(att.Data) != "\x89PNG\r\n\x1a\n" {
		t.Errorf("Data = %q, want decoded PNG magic", att.Data)
	}
	if att.SizeBytes != int64(len(att.Data)) {
		t.Errorf("SizeBytes = %d, want %d", att.SizeBytes, len(att.Data))
	}
}

func TestParseInlineWithFilenameIsAttachment(t *testing.T) {
	raw := []byte("From: alice@remote.test\r\n" +
		"To: bob@example.com\r\n" +
		"MIME-Version: 1.0\r\n" +
		"Content-Type: multipart/mixed; boundary=\"b\"\r\n" +
		"\r\n" +
		"--b\r\n" +
		"Content-Type: image/jpeg\r\n" +
		"Content-Disposition: inline; filename=\"photo.jpg\"\r\n" +
		"\r\n" +
		"fakejpegdata\r\n" +
		"--b--\r\n")

	parsed, err := NewEmailParser().Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if len(parsed.Attachments) != 1 || parsed.Attachments[0].Filename != "photo.jpg" {
		t.Fatalf("Attachments = %+v, want inline photo.jpg", parsed.Attachments)
	}
}

func TestParseQuotedPrintableBody(t *testing.T) {
	raw := []byte("From: alice@remote.test\r\n" +
		"To: bob@example.com\r\n" +
		"Content-Type: text/plain; charset=utf-8\r\n" +
		"Content-Transfer-Encoding: quoted-printable\r\n" +
		"\r\n" +
		"Caf=C3=A9 au lait=\r\n" +
		" continues\r\n")

	parsed, err := NewEmailParser().Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if !strings.Contains(parsed.BodyText, "Café au lait continues") {
		t.Errorf("BodyText = %q", parsed.BodyText)
	}
}

func TestParseEncodedHeaders(t *testing.T) {
	raw := []byte("From: =?UTF-8?B?Sm9zw6k=?= <jose@remote.test>\r\n" +
		"To: bob@example.com\r\n" +
		"Subject: =?UTF-8?Q?Caf=C3=A9_menu?=\r\n" +
		"\r\n" +
		"body\r\n")

	parsed, err := NewEmailParser().Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if parsed.FromName != "José" {
		t.Errorf("FromName = %q, want José", parsed.FromName)
	}
	if parsed.Subject != "Café menu" {
		t.Errorf("Subject = %q, want Café menu", parsed.Subject)
	}
}

func TestParseMultipleRecipients(t *testing.T) {
	raw := []byte("From: alice@remote.test\r\n" +
		"To: first@example.com, Second <second@example.com>\r\n" +
		"\r\n" +
		"body\r\n")

	parsed, err := NewEmailParser().Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	want := []string{"first@example.com", "second@example.com"}
	if len(parsed.Recipients) != len(want) {
		t.Fatalf("Recipients = %v", parsed.Recipients)
	}
	for i, addr := range want {
		if parsed.Recipients[i] != addr {
			t.Errorf("Recipients[%d] = %q, want %q", i, parsed.Recipients[i], addr)
		}
	}
}

func TestParseMissingHeaders(t *testing.T) {
	raw := []byte("Date: Mon, 01 Jan 2024 00:00:00 +0000\r\n" +
		"\r\n" +
		"just a body\r\n")

	parsed, err := NewEmailParser().Parse(raw)
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if parsed.From != "" || parsed.FromName != "" {
		t.Errorf("From = %q/%q, want empty", parsed.From, parsed.FromName)
	}
	if len(parsed.Recipients) != 0 {
		t.Errorf("Recipients = %v, want none", parsed.Recipients)
	}
	if parsed.Subject != "" {
		t.Errorf("Subject = %q, want empty", parsed.Subject)
	}
	if !strings.Contains(parsed.BodyText, "just a body") {
		t.Errorf("BodyText = %q", parsed.BodyText)
	}
}

func TestParseEmptyInput(t *testing.T) {
	_, err := NewEmailParser().Parse(nil)
	if err == nil {
		t.Fatal("expected error for empty input")
	}

	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("err = %T, want *ParseError", err)
	}
	if parseErr.Stage != "parse" {
		t.Errorf("Stage = %q, want parse", parseErr.Stage)
	}
}

func TestParseMissingBoundary(t *testing.T) {
	raw := []byte("From: alice@remote.test\r\n" +
		"To: bob@example.com\r\n" +
		"Content-Type: multipart/mixed\r\n" +
		"\r\n" +
		"body\r\n")

	_, err := NewEmailParser().Parse(raw)
	var parseErr *ParseError
	if !errors.As(err, &parseErr) {
		t.Fatalf("err = %v, want *ParseError", err)
	}
	if parseErr.Stage != "body" {
		t.Errorf("Stage = %q, want body", parseErr.Stage)
	}
}
