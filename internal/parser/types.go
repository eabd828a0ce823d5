package parser

// ParsedEmail represents a fully parsed email message
type ParsedEmail struct {
	From        string
	FromName    string
	Recipients  []string
	Subject     string
	BodyHTML    string
	BodyText    string
	Attachments []*Attachment
	SizeBytes   int64
}

// Attachment represents an email attachment before storage
type Attachment struct {
	Filename    string
	ContentType string
	Data        []byte
	SizeBytes   int64
}

// ParseError represents an error during email parsing
type ParseError struct {
	Stage   string // Which parsing stage failed
	Message string // Error description
}

// Error implements the error interface
func (e *ParseError) Error() string {
	return e.Message
}

// Content type constants
const (
	ContentTypePlain       = "text/plain"
	ContentTypeHTML        = "text/html"
	ContentTypeOctetStream = "application/octet-stream"
)

// Header constants
const (
	HeaderFrom        = "From"
	HeaderTo          = "To"
	HeaderSubject     = "Subject"
	HeaderContentType = "Content-Type"
	HeaderEncoding    = "Content-Transfer-Encoding"
	HeaderDisposition = "Content-Disposition"
)
