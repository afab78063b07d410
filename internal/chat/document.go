package chat

import (
	"regexp"
	"strings"
)

// Document is a project document passed into a chat call. Content is either
// plain text or a data:<mime>;base64,<payload> URI. Documents are inputs only
// and are never mutated by the chat core.
type Document struct {
	ID            string `json:"id"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	ExtractedText string `json:"extracted_text,omitempty"`
	MIMEType      string `json:"type"`
}

var dataURIRe = regexp.MustCompile(`^data:([^;]+);base64,(.*)$`)

// ParseDataURI splits a base64 data URI into its MIME type and payload.
// ok is false for anything that is not a well-formed base64 data URI,
// including a data URI missing the ";base64," marker.
func ParseDataURI(s string) (mimeType, payload string, ok bool) {
	m := dataURIRe.FindStringSubmatch(s)
	if m == nil {
		return "", "", false
	}
	return m[1], m[2], true
}

// IsDataURI reports whether the document content is a data URI rather than text.
func (d Document) IsDataURI() bool {
	return strings.HasPrefix(d.Content, "data:")
}
