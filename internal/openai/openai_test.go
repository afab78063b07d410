package openai

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devflow-ai/devflow/internal/chat"
)

func testLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func newTestClient(url string) *Client {
	cfg := chat.ModelConfig{ModelName: "gpt-4o", APIKey: "test-key", BaseURL: url}
	return NewClient(cfg, 5*time.Second, testLogger())
}

func TestComplete(t *testing.T) {
	var gotAuth string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		if r.URL.Path != "/chat/completions" {
			t.Errorf("path = %q", r.URL.Path)
		}
		body, _ := io.ReadAll(r.Body)
		json.Unmarshal(body, &gotBody)
		fmt.Fprint(w, `{"choices":[{"message":{"content":"hello"}}],"usage":{"prompt_tokens":11,"completion_tokens":4}}`)
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Complete(context.Background(), chat.Request{
		SystemPrompt: "be helpful",
		Messages:     []chat.Message{{Role: chat.RoleUser, Content: "hi"}},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Text != "hello" {
		t.Fatalf("text = %q", res.Text)
	}
	if res.Usage.PromptTokens != 11 || res.Usage.CompletionTokens != 4 {
		t.Fatalf("usage = %+v", res.Usage)
	}
	if gotAuth != "Bearer test-key" {
		t.Fatalf("auth header = %q", gotAuth)
	}
	messages := gotBody["messages"].([]any)
	if len(messages) != 2 {
		t.Fatalf("expected system+user messages, got %d", len(messages))
	}
	first := messages[0].(map[string]any)
	if first["role"] != "system" || first["content"] != "be helpful" {
		t.Fatalf("first message = %v", first)
	}
	if _, ok := gotBody["stream"]; ok {
		t.Fatalf("non-streaming request must not set stream")
	}
}

func TestCompleteWithoutUsage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[{"message":{"content":"ok"}}]}`)
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Complete(context.Background(), chat.Request{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Usage != (chat.Usage{}) {
		t.Fatalf("usage must stay zero when unreported: %+v", res.Usage)
	}
}

func TestCompleteEmptyChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"choices":[]}`)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Complete(context.Background(), chat.Request{}); err == nil {
		t.Fatalf("expected error for empty choices")
	}
}

func TestCompleteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		fmt.Fprint(w, `{"error":{"message":"bad key"}}`)
	}))
	defer srv.Close()

	_, err := newTestClient(srv.URL).Complete(context.Background(), chat.Request{})
	if err == nil {
		t.Fatalf("expected error for non-2xx status")
	}
}

func TestStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]any
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &body)
		if body["stream"] != true {
			t.Errorf("stream flag not set")
		}
		opts, ok := body["stream_options"].(map[string]any)
		if !ok || opts["include_usage"] != true {
			t.Errorf("stream_options.include_usage not set")
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"He\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"llo\"}}]}\n\n")
		fmt.Fprint(w, "data: {\"choices\":[],\"usage\":{\"prompt_tokens\":3,\"completion_tokens\":2}}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	chunks := make(chan chat.Chunk)
	errCh := make(chan error, 1)
	go func() {
		errCh <- newTestClient(srv.URL).Stream(context.Background(), chat.Request{
			Messages: []chat.Message{{Role: chat.RoleUser, Content: "hi"}},
		}, chunks)
	}()

	var text string
	var usage *chat.Usage
	for ck := range chunks {
		text += ck.Text
		if ck.Usage != nil {
			usage = ck.Usage
		}
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if text != "Hello" {
		t.Fatalf("streamed text = %q", text)
	}
	if usage == nil || usage.PromptTokens != 3 || usage.CompletionTokens != 2 {
		t.Fatalf("streamed usage = %+v", usage)
	}
}

func TestStreamSkipsUnparseableLines(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "data: not json\n\n")
		fmt.Fprint(w, ": comment line\n\n")
		fmt.Fprint(w, "data: {\"choices\":[{\"delta\":{\"content\":\"ok\"}}]}\n\n")
		fmt.Fprint(w, "data: [DONE]\n\n")
	}))
	defer srv.Close()

	chunks := make(chan chat.Chunk)
	errCh := make(chan error, 1)
	go func() {
		errCh <- newTestClient(srv.URL).Stream(context.Background(), chat.Request{}, chunks)
	}()

	var text string
	for ck := range chunks {
		text += ck.Text
	}
	if err := <-errCh; err != nil {
		t.Fatalf("Stream: %v", err)
	}
	if text != "ok" {
		t.Fatalf("streamed text = %q", text)
	}
}

func TestBuildRequestImageAttachments(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		fmt.Fprint(w, `{"choices":[{"message":{"content":"seen"}}]}`)
	}))
	defer srv.Close()

	req := chat.Request{
		SystemPrompt: "sys",
		Messages: []chat.Message{
			{Role: chat.RoleUser, Content: "first"},
			{Role: chat.RoleAssistant, Content: "reply"},
			{Role: chat.RoleUser, Content: "look at this"},
		},
		Documents: []chat.Document{
			{ID: "d1", Content: "data:image/png;base64,AAAA", MIMEType: "image/png"},
			{ID: "d2", Content: "data:application/pdf;base64,BBBB", MIMEType: "application/pdf"},
		},
	}
	if _, err := newTestClient(srv.URL).Complete(context.Background(), req); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	messages := gotBody["messages"].([]any)
	last := messages[len(messages)-1].(map[string]any)
	parts, ok := last["content"].([]any)
	if !ok {
		t.Fatalf("last user message should be a content-part array, got %T", last["content"])
	}
	if len(parts) != 2 {
		t.Fatalf("expected text part plus one image (pdf dropped), got %d parts", len(parts))
	}
	textPart := parts[0].(map[string]any)
	if textPart["type"] != "text" || textPart["text"] != "look at this" {
		t.Fatalf("text part = %v", textPart)
	}
	imagePart := parts[1].(map[string]any)
	if imagePart["type"] != "image_url" {
		t.Fatalf("image part = %v", imagePart)
	}
	url := imagePart["image_url"].(map[string]any)["url"]
	if url != "data:image/png;base64,AAAA" {
		t.Fatalf("image url = %v", url)
	}
	// earlier user turn stays plain
	first := messages[1].(map[string]any)
	if _, isString := first["content"].(string); !isString {
		t.Fatalf("earlier user turn must remain a plain string")
	}
}
