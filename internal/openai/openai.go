package openai

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

// Image MIME types the chat-completions vision input accepts. This whitelist
// is narrower than the native provider's and the two are kept separate.
var supportedImages = map[string]bool{
	"image/png":  true,
	"image/jpeg": true,
	"image/webp": true,
}

// Client speaks the chat-completions protocol against any OpenAI-compatible
// backend.
type Client struct {
	apiKey     string
	url        string
	model      string
	httpClient *http.Client
	logger     logrus.FieldLogger
}

// NewClient creates a client for the backend addressed by cfg.BaseURL.
func NewClient(cfg chat.ModelConfig, timeout time.Duration, logger logrus.FieldLogger) *Client {
	return &Client{
		apiKey:     cfg.APIKey,
		url:        strings.TrimRight(cfg.BaseURL, "/") + "/chat/completions",
		model:      cfg.ModelName,
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content any    `json:"content"` // string, or []contentPart for multimodal turns
}

type contentPart struct {
	Type     string    `json:"type"`
	Text     string    `json:"text,omitempty"`
	ImageURL *imageURL `json:"image_url,omitempty"`
}

type imageURL struct {
	URL string `json:"url"`
}

type streamOptions struct {
	IncludeUsage bool `json:"include_usage"`
}

type chatRequest struct {
	Model         string         `json:"model"`
	Messages      []chatMessage  `json:"messages"`
	Stream        bool           `json:"stream,omitempty"`
	StreamOptions *streamOptions `json:"stream_options,omitempty"`
}

type usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

type chatResponse struct {
	Choices []struct {
		Message struct {
			Content string `json:"content"`
		} `json:"message"`
	} `json:"choices"`
	Usage *usage `json:"usage"`
}

type streamChunk struct {
	Choices []struct {
		Delta struct {
			Content string `json:"content"`
		} `json:"delta"`
	} `json:"choices"`
	Usage *usage `json:"usage"`
}

func allowedAttachment(d chat.Document, mimeType string) bool {
	return strings.HasPrefix(d.MIMEType, "image/") && supportedImages[mimeType]
}

// buildRequest maps the neutral request onto the chat-completions shape: a
// synthetic system message first, then the history. Image attachments turn
// the last user message into a content-part array; with no user message they
// are dropped.
func (c *Client) buildRequest(req chat.Request, stream bool) chatRequest {
	messages := make([]chatMessage, 0, len(req.Messages)+1)
	messages = append(messages, chatMessage{Role: chat.RoleSystem, Content: req.SystemPrompt})
	for _, m := range req.Messages {
		messages = append(messages, chatMessage{Role: m.Role, Content: m.Content})
	}

	parts := chat.AttachmentParts(req.Documents, allowedAttachment)
	if dropped := binaryDocs(req.Documents) - len(parts); dropped > 0 {
		c.logger.WithField("dropped", dropped).Debug("attachments not supported by chat-completions backend, skipped")
	}
	if len(parts) > 0 {
		if i := lastUserIndex(messages); i >= 0 {
			content := []contentPart{{Type: "text", Text: messages[i].Content.(string)}}
			for _, p := range parts {
				content = append(content, contentPart{Type: "image_url", ImageURL: &imageURL{URL: p.URI}})
			}
			messages[i].Content = content
		}
	}

	out := chatRequest{Model: c.model, Messages: messages, Stream: stream}
	if stream {
		out.StreamOptions = &streamOptions{IncludeUsage: true}
	}
	return out
}

func lastUserIndex(messages []chatMessage) int {
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == chat.RoleUser {
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

func (c *Client) post(ctx context.Context, body chatRequest) (*http.Response, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal chat request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("create chat request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("chat request failed: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		raw, _ := io.ReadAll(resp.Body)
		resp.Body.Close()
		return nil, fmt.Errorf("chat completions non-success status=%d body=%s", resp.StatusCode, truncate(string(raw), 400))
	}
	return resp, nil
}

// Complete sends one non-streaming chat completion.
func (c *Client) Complete(ctx context.Context, req chat.Request) (chat.Result, error) {
	resp, err := c.post(ctx, c.buildRequest(req, false))
	if err != nil {
		return chat.Result{}, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return chat.Result{}, fmt.Errorf("read chat response: %w", err)
	}

	var parsed chatResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return chat.Result{}, fmt.Errorf("parse chat response: %s", truncate(string(body), 400))
	}
	if len(parsed.Choices) == 0 {
		return chat.Result{}, fmt.Errorf("chat response has no choices: %s", truncate(string(body), 400))
	}

	result := chat.Result{Text: parsed.Choices[0].Message.Content}
	if parsed.Usage != nil {
		result.Usage = chat.Usage{
			PromptTokens:     parsed.Usage.PromptTokens,
			CompletionTokens: parsed.Usage.CompletionTokens,
		}
	}
	return result, nil
}

// Stream sends a streaming chat completion, forwarding each delta on chunks
// as it arrives. Usage rides the terminal chunk when the backend reports it.
// The channel is closed when the stream ends, error or not.
func (c *Client) Stream(ctx context.Context, req chat.Request, chunks chan<- chat.Chunk) error {
	defer close(chunks)

	resp, err := c.post(ctx, c.buildRequest(req, true))
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
		if data == "[DONE]" {
			return nil
		}

		var parsed streamChunk
		if err := json.Unmarshal([]byte(data), &parsed); err != nil {
			continue
		}

		var ck chat.Chunk
		if len(parsed.Choices) > 0 {
			ck.Text = parsed.Choices[0].Delta.Content
		}
		if parsed.Usage != nil {
			ck.Usage = &chat.Usage{
				PromptTokens:     parsed.Usage.PromptTokens,
				CompletionTokens: parsed.Usage.CompletionTokens,
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

func truncate(s string, maxChars int) string {
	runes := []rune(s)
	if len(runes) <= maxChars {
		return s
	}
	return string(runes[:maxChars])
}
