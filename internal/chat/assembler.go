package chat

import (
	"fmt"
	"strings"
)

// SystemInstruction is the base system prompt for the development assistant.
const SystemInstruction = `You are a professional AI Development Assistant specialized in project lifecycle management.
Your goal is to help developers follow a strict 7-step development standard:

1. Requirement Confirmation (Meeting minutes, screen recordings).
2. AW Task Items (Task breakdown).
3. Overall Flowchart (Mermaid diagrams, detail-lists).
4. Development Plan & Schedule.
5. Prototype Development.
6. Progress Documentation (Goals, Non-Bucket List, Details list).
7. Output Documentation (API docs, deployment plans, process docs, code structure).

When asked to draw a flowchart or diagram, use Mermaid syntax wrapped in ` + "```mermaid" + ` blocks.
IMPORTANT MERMAID RULES:
- Use "graph TD" or "graph LR" for flowcharts.
- Use "sequenceDiagram" for sequence diagrams.
- Use "gantt" for project schedules.
- AVOID using special characters like parentheses (), brackets [], or braces {} inside node labels unless they are wrapped in double quotes. Example: A["Task (Detail)"]
- Keep labels concise.
- Ensure all nodes are connected.
- For complex diagrams, use subgraphs to organize.

Be concise, professional, and structured. Help the user organize their thoughts and assets.
You can also help with "Daily Review" (LL: continuous review).

Always maintain context of the current project.`

// MIME types any provider can take as an inline attachment. Documents whose
// data URI carries one of these get the "provided as attachment" placeholder
// in the prompt; everything else binary is noted as unreadable.
var supportedInlineMIMEs = map[string]bool{
	"image/png": true, "image/jpeg": true, "image/webp": true,
	"audio/wav": true, "audio/mp3": true, "audio/aiff": true,
	"audio/aac": true, "audio/ogg": true, "audio/flac": true,
	"video/mp4": true, "video/mpeg": true, "video/mov": true,
	"video/avi": true, "video/x-flv": true, "video/mpg": true,
	"video/webm": true, "video/wmv": true, "video/3gpp": true,
	"application/pdf": true,
}

// SupportedInlineMIME reports whether a MIME type is inlineable as a provider
// attachment at all, independent of any adapter-specific whitelist.
func SupportedInlineMIME(mimeType string) bool {
	return supportedInlineMIMEs[mimeType]
}

const (
	extractedTextLimit = 5000
	plainContentLimit  = 2000
)

// BuildSystemPrompt appends one labeled context block per document to the
// base system instruction, in input order, followed by a citation
// instruction. With no documents the instruction is returned unchanged.
// Output depends only on the input, so repeated calls are byte-identical.
func BuildSystemPrompt(docs []Document) string {
	if len(docs) == 0 {
		return SystemInstruction
	}

	var b strings.Builder
	b.WriteString(SystemInstruction)
	b.WriteString("\n\nHere is the project documentation context to help you answer questions:\n\n")
	for _, doc := range docs {
		fmt.Fprintf(&b, "--- Document: %s (ID: %s) ---\n", doc.Title, doc.ID)
		switch {
		case doc.ExtractedText != "":
			b.WriteString(truncate(doc.ExtractedText, extractedTextLimit))
		case !doc.IsDataURI():
			b.WriteString(truncate(doc.Content, plainContentLimit))
		default:
			mimeType, _, ok := ParseDataURI(doc.Content)
			if ok && SupportedInlineMIME(mimeType) {
				b.WriteString("[File content provided as attachment]")
			} else {
				fmt.Fprintf(&b, "[Binary file: %s. Content not directly readable by AI.]", doc.MIMEType)
			}
		}
		b.WriteString("\n\n")
	}
	b.WriteString("\n\nWhen you use information from these documents, please cite them at the end of your response like this:\n\nReferences:\n- [Document Title](#doc-{document_id})\n")
	return b.String()
}

// truncate hard-cuts s at n bytes. The cut is not sentence- or rune-aware.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}

// Attachment is one provider-native inline attachment part.
type Attachment struct {
	MIMEType string
	Data     string // base64 payload
	URI      string // the original data URI
}

// AttachmentParts extracts inline attachments from documents whose content is
// a well-formed base64 data URI. allowed is the adapter-owned whitelist;
// documents failing it are skipped silently, which is graceful degradation
// rather than an error.
func AttachmentParts(docs []Document, allowed func(d Document, mimeType string) bool) []Attachment {
	var parts []Attachment
	for _, doc := range docs {
		if !doc.IsDataURI() {
			continue
		}
		mimeType, payload, ok := ParseDataURI(doc.Content)
		if !ok || !allowed(doc, mimeType) {
			continue
		}
		parts = append(parts, Attachment{MIMEType: mimeType, Data: payload, URI: doc.Content})
	}
	return parts
}
