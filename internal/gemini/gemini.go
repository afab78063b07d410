package gemini

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devflow-ai/devflow/internal/chat"
)

// DefaultEndpoint is the native generative language API host. The configured
// base URL is not used here: configs routed to this adapter often carry the
// OpenAI-compatibility path, which the native protocol does not serve.
const DefaultEndpoint = "https://generativelanguage.googleapis.com"

// Image MIME types the native API accepts, a wider set than the
// chat-completions adapter supports. The two whitelists stay separate.
var supportedImages = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
	"image/heic": true,
	"image/heif": true,
}

// Client speaks the native generateContent protocol.
type Client struct {
	apiKey     string
	endpoint   string
	model      string
	httpClient *http.Client
	logger     logrus.FieldLogger
}

// NewClient creates a native-protocol client. endpoint is normally
// DefaultEndpoint; tests point it at a local server.
func NewClient(cfg chat.ModelConfig, endpoint string, timeout time.Duration, logger logrus.FieldLogger) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		endpoint:   strings.TrimRight(endpoint, "/"),
		model:      cfg.ModelName,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type part struct {
	Text       string      `json:"text,omitempty"`
	InlineData *inlineData `json:"inlineData,omitempty"`
}

type inlineData struct {
	MIMEType string `json:"mimeType"`
	Data     string `json:"data"`
}

type content struct {
	Role  string `json:"role,omitempty"`
	Parts []part `json:"parts"`
}

type generateRequest struct {
	Contents          []content `json:"contents"`
	SystemInstruction *content  `json:"systemInstruction,omitempty"`
}

type usageMetadata struct {
	PromptTokenCount     int `json:"promptTokenCount"`
	CandidatesTokenCount int `json:"candidatesTokenCount"`
}

type generateResponse struct {
	Candidates []struct {
		Content struct {
			Parts []part `json:"parts"`
		} `json:"content"`
	} `json:"candidates"`
	UsageMetadata *usageMetadata `json:"usageMetadata"`
}

func allowedAttachment(d chat.Document, mimeType string) bool {
	if strings.HasPrefix(d.MIMEType, "image/") && supportedImages[mimeType] {
		return true
	}
	return chat.SupportedInlineMIME(mimeType)
}

// buildRequest maps the neutral request onto native turns: assistant becomes
// "model", everything else "user", one text part per message. Attachments go
// onto the last user turn as inlineData parts; with no user turn they are
// dropped.
func (c *Client) buildRequest(req chat.Request) generateRequest {
	contents := make([]content, 0, len(req.Messages))
	for _, m := range req.Messages {
		role := "user"
		if m.Role == chat.RoleAssistant {
			role = "model"
		}
		contents = append(contents, content{Role: role, Parts: []part{{Text: m.Content}}})
	}

	parts := chat.AttachmentParts(req.Documents, allowedAttachment)
	if dropped := binaryDocs(req.Documents) - len(parts); dropped > 0 {
		c.logger.WithField("dropped", dropped).Debug("attachments not supported by native backend, skipped")
	}
	if len(parts) > 0 {
		if i := lastUserIndex(contents); i >= 0 {
			for _, p := range parts {
				contents[i].Parts = append(contents[i].Parts, part{
					InlineData: &inlineData{MIMEType: p.MIMEType, Data: p.Data},
				})
			}
		}
	}

	return generateRequest{
		Contents:          contents,
		SystemInstruction: &content{Parts: []part{{Text: req.SystemPrompt}}},
	}
}

func lastUserIndex(contents []content) int {
	for i := len(contents) - 1; i >= 0; i-- {
		if contents[i].Role == "user" {
			return i
		}
	}
	return -1
}

func binaryDocs(docs []chat.Document) int {
	n := 0
	for _, d := range docs {
		if d.IsDataURI() {
			n++
		}
	}
	return n
}

func (c *Client) post(ctx context.Context, method string, body generateRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}
	url := fmt.Sprintf("%s/v1beta/models/%s:%s", c.endpoint, c.model, method)
	if strings.Contains(method, "?") {
		url += "&key=" + c.apiKey
	} else {
		url += "?key=" + c.apiKey
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create generate request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generate request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("generate non-success status=%d body=%s", resp.StatusCode, truncate(string(raw), 400))
	}
	return resp, nil
}

// Complete sends one non-streaming generateContent call.
func (c *Client) Complete(ctx context.Context, req chat.Request) (chat.Result, error) {
	resp, err := c.post(ctx, "generateContent", c.buildRequest(req))
	if err != nil {
		return chat.Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return chat.Result{}, fmt.Errorf("read generate response: %w", err)
	}

	var parsed generateResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return chat.Result{}, fmt.Errorf("parse generate response: %s", truncate(string(body), 400))
	}
	if len(parsed.Candidates) == 0 {
		return chat.Result{}, fmt.Errorf("generate response has no candidates: %s", truncate(string(body), 400))
	}

	result := chat.Result{Text: joinParts(parsed.Candidates[0].Content.Parts)}
	if parsed.UsageMetadata != nil {
		result.Usage = chat.Usage{
			PromptTokens:     parsed.UsageMetadata.PromptTokenCount,
			CompletionTokens: parsed.UsageMetadata.CandidatesTokenCount,
		}
	}
	return result, nil
}

// Stream sends a streamGenerateContent call over SSE, forwarding each text
// delta on chunks as it arrives. Usage metadata may appear on any chunk and
// is forwarded as seen; the last report wins downstream. The channel is
// closed when the stream ends, error or not.
func (c *Client) Stream(ctx context.Context, req chat.Request, chunks chan<- chat.Chunk) error {
	defer close(chunks)

	resp, err := c.post(ctx, "streamGenerateContent?alt=sse", c.buildRequest(req))
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	reader := bufio.NewReader(resp.Body)
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if err == io.EOF {
				return nil
			}
			return fmt.Errorf("read stream: %w", err)
		}
		line = strings.TrimSpace(line)
		if line == "" || !strings.HasPrefix(line, "data: ") {
			continue
		}
		data := strings.TrimPrefix(line, "data: ")

		var parsed generateResponse
		if err := json.Unmarshal([]byte(data), &parsed); err != nil {
			continue
		}

		var ck chat.Chunk
		if len(parsed.Candidates) > 0 {
			ck.Text = joinParts(parsed.Candidates[0].Content.Parts)
		}
		if parsed.UsageMetadata != nil {
			ck.Usage = &chat.Usage{
				PromptTokens:     parsed.UsageMetadata.PromptTokenCount,
				CompletionTokens: parsed.UsageMetadata.CandidatesTokenCount,
			}
		}
		if ck.Text == "" && ck.Usage == nil {
			continue
		}
		select {
		case chunks <- ck:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}

func joinParts(parts []part) string {
	var b strings.Builder
	for _, p := range parts {
		b.WriteString(p.Text)
	}
	return b.String()
}

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
