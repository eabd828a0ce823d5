// Package parser decodes raw RFC 5322 byte streams into structured mail:
// sender, recipients, subject, HTML/text bodies, and attachments.
package parser

import (
	"bytes"
	"encoding/base64"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"mime/quotedprintable"
	"net/mail"
	"strings"
)

// EmailParser implements email parsing
type EmailParser struct{}

// NewEmailParser creates a new EmailParser instance
func NewEmailParser() *EmailParser {
	return &EmailParser{}
}

// Parse parses a raw email into a ParsedEmail structure
func (p *EmailParser) Parse(raw []byte) (*ParsedEmail, error) {
	if len(raw) == 0 {
		return nil, &ParseError{Stage: "parse", Message: "empty email data"}
	}

	msg, err := mail.ReadMessage(bytes.NewReader(raw))
	if err != nil {
		return nil, &ParseError{
			Stage:   "parse",
			Message: fmt.Sprintf("failed to parse email: %v", err),
		}
	}

	fromAddress, fromName := p.extractFromHeader(msg.Header.Get(HeaderFrom))
	recipients := p.extractRecipients(msg.Header.Get(HeaderTo))
	subject := p.decodeHeader(msg.Header.Get(HeaderSubject))

	parsed := &ParsedEmail{
		From:       fromAddress,
		FromName:   fromName,
		Recipients: recipients,
		Subject:    subject,
		SizeBytes:  int64(len(raw)),
	}

	if err := p.extractContent(msg, parsed); err != nil {
		return nil, &ParseError{
			Stage:   "body",
			Message: fmt.Sprintf("failed to extract body: %v", err),
		}
	}

	return parsed, nil
}

// extractFromHeader extracts email address and display name from the From header
func (p *EmailParser) extractFromHeader(from string) (address, name string) {
	if from == "" {
		return "", ""
	}

	addr, err := mail.ParseAddress(p.decodeHeader(from))
	if err != nil {
		return "", ""
	}

	return addr.Address, addr.Name
}

// extractRecipients extracts all addresses from the To header, in order
func (p *EmailParser) extractRecipients(to string) []string {
	if to == "" {
		return nil
	}

	addrs, err := mail.ParseAddressList(p.decodeHeader(to))
	if err != nil {
		// Fall back to the single-address form
		if addr, err := mail.ParseAddress(to); err == nil {
			return []string{addr.Address}
		}
		return nil
	}

	recipients := make([]string, 0, len(addrs))
	for _, addr := range addrs {
		if addr.Address != "" {
			recipients = append(recipients, addr.Address)
		}
	}
	return recipients
}

// decodeHeader decodes MIME encoded words in a header value
func (p *EmailParser) decodeHeader(value string) string {
	if value == "" {
		return ""
	}

	decoder := new(mime.WordDecoder)
	decoded, err := decoder.DecodeHeader(value)
	if err != nil {
		return value
	}

	return decoded
}

// extractContent walks the message body, filling in the parsed bodies and
// the attachment list.
func (p *EmailParser) extractContent(msg *mail.Message, parsed *ParsedEmail) error {
	contentType := msg.Header.Get(HeaderContentType)
	if contentType == "" {
		contentType = ContentTypePlain
	}

	mediaType, params, err := mime.ParseMediaType(contentType)
	if err != nil {
		// Unparseable content type, treat the whole body as plain text
		body, readErr := io.ReadAll(msg.Body)
		if readErr != nil {
			return readErr
		}
		parsed.BodyText = string(body)
		return nil
	}

	encoding := msg.Header.Get(HeaderEncoding)

	switch {
	case strings.HasPrefix(mediaType, "multipart/"):
		if params["boundary"] == "" {
			return fmt.Errorf("missing boundary for %s", mediaType)
		}
		return p.walkMultipart(msg.Body, params["boundary"], parsed)

	case mediaType == ContentTypeHTML:
		body, err := readPart(msg.Body, encoding)
		if err != nil {
			return err
		}
		parsed.BodyHTML = string(body)

	default:
		body, err := readPart(msg.Body, encoding)
		if err != nil {
			return err
		}
		parsed.BodyText = string(body)
	}

	return nil
}

// walkMultipart recursively visits multipart parts. Body parts fill the
// first seen HTML/text bodies; attachment parts are collected in order.
func (p *EmailParser) walkMultipart(body io.Reader, boundary string, parsed *ParsedEmail) error {
	reader := multipart.NewReader(body, boundary)

	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("error reading multipart: %w", err)
		}

		contentType := part.Header.Get(HeaderContentType)
		mediaType, params, _ := mime.ParseMediaType(contentType)

		if strings.HasPrefix(mediaType, "multipart/") {
			if params["boundary"] != "" {
				if err := p.walkMultipart(part, params["boundary"], parsed); err != nil {
					return err
				}
			}
			continue
		}

		if filename, ok := attachmentFilename(part.Header.Get(HeaderDisposition), contentType); ok {
			attachment, err := p.readAttachment(part, filename, mediaType)
			if err != nil {
				continue
			}
			parsed.Attachments = append(parsed.Attachments, attachment)
			continue
		}

		encoding := part.Header.Get(HeaderEncoding)

		switch mediaType {
		case ContentTypeHTML:
			if parsed.BodyHTML == "" {
				data, err := readPart(part, encoding)
				if err != nil {
					continue
				}
				parsed.BodyHTML = string(data)
			}
		case ContentTypePlain, "":
			if parsed.BodyText == "" {
				data, err := readPart(part, encoding)
				if err != nil {
					continue
				}
				parsed.BodyText = string(data)
			}
		}
	}

	return nil
}

// attachmentFilename decides whether a part is an attachment and returns its
// declared filename. Inline parts count only when they carry a filename; a
// name parameter on the content type also marks an attachment. The filename
// may be empty even for attachment parts.
func attachmentFilename(disposition, contentType string) (string, bool) {
	if strings.HasPrefix(disposition, "attachment") {
		_, params, _ := mime.ParseMediaType(disposition)
		return decodeFilename(params["filename"]), true
	}

	if strings.HasPrefix(disposition, "inline") {
		_, params, _ := mime.ParseMediaType(disposition)
		if params["filename"] != "" {
			return decodeFilename(params["filename"]), true
		}
	}

	if contentType != "" {
		mediaType, params, _ := mime.ParseMediaType(contentType)
		if params["name"] != "" && !strings.HasPrefix(mediaType, "text/") {
			return decodeFilename(params["name"]), true
		}
	}

	return "", false
}

// decodeFilename decodes a MIME encoded filename
func decodeFilename(filename string) string {
	if filename == "" {
		return ""
	}
	decoder := new(mime.WordDecoder)
	if decoded, err := decoder.DecodeHeader(filename); err == nil {
		return decoded
	}
	return filename
}

// readAttachment reads and decodes an attachment part
func (p *EmailParser) readAttachment(part *multipart.Part, filename, mediaType string) (*Attachment, error) {
	data, err := readPart(part, part.Header.Get(HeaderEncoding))
	if err != nil {
		return nil, err
	}

	if mediaType == "" {
		mediaType = ContentTypeOctetStream
	}

	return &Attachment{
		Filename:    filename,
		ContentType: mediaType,
		Data:        data,
		SizeBytes:   int64(len(data)),
	}, nil
}

// readPart reads a body or part, decoding its Content-Transfer-Encoding
func readPart(r io.Reader, encoding string) ([]byte, error) {
	switch strings.ToLower(strings.TrimSpace(encoding)) {
	case "quoted-printable":
		return io.ReadAll(quotedprintable.NewReader(r))
	case "base64":
		raw, err := io.ReadAll(r)
		if err != nil {
			return nil, err
		}
		// Base64 content usually carries line breaks
		cleaned := bytes.Map(func(c rune) rune {
			if c == ' ' || c == '\t' || c == '\r' || c == '\n' {
				return -1
			}
			return c
		}, raw)
		decoded := make([]byte, base64.StdEncoding.DecodedLen(len(cleaned)))
		n, err := base64.StdEncoding.Decode(decoded, cleaned)
		if err != nil {
			return nil, fmt.Errorf("base64 decode error: %w", err)
		}
		return decoded[:n], nil
	default:
		return io.ReadAll(r)
	}
}
