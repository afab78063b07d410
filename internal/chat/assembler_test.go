package chat

import (
	"strings"
	"testing"
)

func TestBuildSystemPromptNoDocuments(t *testing.T) {
	got := BuildSystemPrompt(nil)
	if got != SystemInstruction {
		t.Fatalf("expected bare instruction without documents")
	}
	got = BuildSystemPrompt([]Document{})
	if got != SystemInstruction {
		t.Fatalf("expected bare instruction for empty slice")
	}
}

func TestBuildSystemPromptBlocksInOrder(t *testing.T) {
	docs := []Document{
		{ID: "d1", Title: "Alpha", Content: "first doc"},
		{ID: "d2", Title: "Beta", Content: "second doc"},
	}
	got := BuildSystemPrompt(docs)

	first := strings.Index(got, "--- Document: Alpha (ID: d1) ---")
	second := strings.Index(got, "--- Document: Beta (ID: d2) ---")
	if first < 0 || second < 0 {
		t.Fatalf("missing document header: %q", got)
	}
	if first > second {
		t.Fatalf("document blocks out of order")
	}
	if !strings.Contains(got, "first doc") || !strings.Contains(got, "second doc") {
		t.Fatalf("missing document content")
	}
	if !strings.Contains(got, "- [Document Title](#doc-{document_id})") {
		t.Fatalf("missing citation instruction")
	}
}

func TestBuildSystemPromptPrefersExtractedText(t *testing.T) {
	doc := Document{ID: "d1", Title: "Spec", Content: "raw", ExtractedText: "extracted"}
	got := BuildSystemPrompt([]Document{doc})
	if !strings.Contains(got, "extracted") {
		t.Fatalf("expected extracted text in prompt")
	}
	if strings.Contains(got, "raw") {
		t.Fatalf("content must be ignored when extracted text exists")
	}
}

func TestBuildSystemPromptTruncation(t *testing.T) {
	longExtracted := strings.Repeat("a", 6000)
	longContent := strings.Repeat("b", 3000)
	docs := []Document{
		{ID: "d1", Title: "Big", ExtractedText: longExtracted},
		{ID: "d2", Title: "Plain", Content: longContent},
	}
	got := BuildSystemPrompt(docs)

	if strings.Contains(got, strings.Repeat("a", 5001)) {
		t.Fatalf("extracted text not truncated at 5000")
	}
	if !strings.Contains(got, strings.Repeat("a", 5000)) {
		t.Fatalf("extracted text truncated too aggressively")
	}
	if strings.Contains(got, strings.Repeat("b", 2001)) {
		t.Fatalf("plain content not truncated at 2000")
	}
	if !strings.Contains(got, strings.Repeat("b", 2000)) {
		t.Fatalf("plain content truncated too aggressively")
	}
}

func TestBuildSystemPromptAttachmentPlaceholder(t *testing.T) {
	doc := Document{ID: "d1", Title: "Shot", Content: "data:image/png;base64,AAAA", MIMEType: "image/png"}
	got := BuildSystemPrompt([]Document{doc})
	if !strings.Contains(got, "[File content provided as attachment]") {
		t.Fatalf("expected attachment placeholder for supported data URI")
	}
}

func TestBuildSystemPromptUnreadableBinary(t *testing.T) {
	doc := Document{ID: "d1", Title: "Archive", Content: "data:application/zip;base64,AAAA", MIMEType: "application/zip"}
	got := BuildSystemPrompt([]Document{doc})
	if !strings.Contains(got, "[Binary file: application/zip. Content not directly readable by AI.]") {
		t.Fatalf("expected unreadable binary note, got %q", got)
	}
}

func TestBuildSystemPromptMalformedDataURI(t *testing.T) {
	// "data:" prefix but no base64 marker: treated as binary, not as text.
	doc := Document{ID: "d1", Title: "Broken", Content: "data:image/png,notbase64", MIMEType: "image/png"}
	got := BuildSystemPrompt([]Document{doc})
	if !strings.Contains(got, "Content not directly readable by AI.") {
		t.Fatalf("malformed data URI must fall back to binary note")
	}
	if strings.Contains(got, "notbase64") {
		t.Fatalf("malformed data URI payload must not leak into prompt")
	}
}

func TestBuildSystemPromptDeterministic(t *testing.T) {
	docs := []Document{
		{ID: "d1", Title: "Alpha", Content: "text"},
		{ID: "d2", Title: "Beta", Content: "data:image/png;base64,AAAA"},
	}
	a := BuildSystemPrompt(docs)
	b := BuildSystemPrompt(docs)
	if a != b {
		t.Fatalf("prompt must be byte-identical across calls")
	}
}

func TestAttachmentParts(t *testing.T) {
	docs := []Document{
		{ID: "d1", Title: "Text", Content: "plain text"},
		{ID: "d2", Title: "Image", Content: "data:image/png;base64,AAAA"},
		{ID: "d3", Title: "Zip", Content: "data:application/zip;base64,BBBB"},
		{ID: "d4", Title: "Broken", Content: "data:image/png,nope"},
	}
	allowAll := func(d Document, mimeType string) bool { return SupportedInlineMIME(mimeType) }

	parts := AttachmentParts(docs, allowAll)
	if len(parts) != 1 {
		t.Fatalf("expected 1 attachment, got %d", len(parts))
	}
	if parts[0].MIMEType != "image/png" || parts[0].Data != "AAAA" {
		t.Fatalf("unexpected attachment: %+v", parts[0])
	}
	if parts[0].URI != "data:image/png;base64,AAAA" {
		t.Fatalf("attachment must keep the original URI")
	}
}

func TestAttachmentPartsAdapterWhitelist(t *testing.T) {
	docs := []Document{
		{ID: "d1", Content: "data:image/png;base64,AAAA"},
		{ID: "d2", Content: "data:application/pdf;base64,BBBB"},
	}
	imagesOnly := func(d Document, mimeType string) bool {
		return strings.HasPrefix(mimeType, "image/")
	}
	parts := AttachmentParts(docs, imagesOnly)
	if len(parts) != 1 || parts[0].MIMEType != "image/png" {
		t.Fatalf("whitelist not applied: %+v", parts)
	}
}
