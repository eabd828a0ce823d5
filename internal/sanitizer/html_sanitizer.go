// Package sanitizer cleans email HTML before it is returned to clients,
// stripping scripts and event handlers while keeping typical email markup.
package sanitizer

import (
	"github.com/microcosm-cc/bluemonday"
)

// HTMLSanitizer sanitizes untrusted email HTML bodies.
type HTMLSanitizer struct {
	policy *bluemonday.Policy
}

// NewHTMLSanitizer builds a sanitizer tuned for email content. Emails lean
// on legacy table layout and inline styling, so the policy is wider than
// bluemonday's UGC defaults but still drops anything executable.
func NewHTMLSanitizer() *HTMLSanitizer {
	policy := bluemonday.UGCPolicy()

	policy.AllowElements(
		"html", "head", "body", "title",
		"table", "thead", "tbody", "tfoot", "tr", "th", "td",
		"font", "center",
	)

	policy.AllowAttrs("style", "class", "id").Globally()
	policy.AllowAttrs("align", "valign", "bgcolor", "color", "size", "face").Globally()
	policy.AllowAttrs("colspan", "rowspan", "border", "cellpadding", "cellspacing").OnElements("table", "td", "th")
	policy.AllowAttrs("width", "height").OnElements("img", "table", "td", "th")

	// Inline images travel as data URIs; external ones keep their src and
	// are left to the client to block.
	policy.AllowDataURIImages()

	return &HTMLSanitizer{policy: policy}
}

// Sanitize returns a cleaned copy of the HTML body.
func (s *HTMLSanitizer) Sanitize(html string) string {
	if html == "" {
		return ""
	}
	return s.policy.Sanitize(html)
}
