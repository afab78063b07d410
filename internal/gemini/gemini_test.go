package gemini

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
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

func newTestClient(endpoint string) *Client {
	cfg := chat.ModelConfig{ModelName: "gemini-3.1-pro-preview", APIKey: "test-key"}
	return NewClient(cfg, endpoint, 5*time.Second, testLogger())
}

func TestComplete(t *testing.T) {
	var gotPath, gotKey string
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotKey = r.URL.Query().Get("key")
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"hel"},{"text":"lo"}]}}],"usageMetadata":{"promptTokenCount":9,"candidatesTokenCount":5}}`)
	}))
	defer srv.Close()

	res, err := newTestClient(srv.URL).Complete(context.Background(), chat.Request{
		SystemPrompt: "sys prompt",
		Messages: []chat.Message{
			{Role: chat.RoleUser, Content: "q1"},
			{Role: chat.RoleAssistant, Content: "a1"},
			{Role: chat.RoleUser, Content: "q2"},
		},
	})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if res.Text != "hello" {
		t.Fatalf("text = %q", res.Text)
	}
	if res.Usage.PromptTokens != 9 || res.Usage.CompletionTokens != 5 {
		t.Fatalf("usage = %+v", res.Usage)
	}
	if gotPath != "/v1beta/models/gemini-3.1-pro-preview:generateContent" {
		t.Fatalf("path = %q", gotPath)
	}
	if gotKey != "test-key" {
		t.Fatalf("key query param = %q", gotKey)
	}

	contents := gotBody["contents"].([]any)
	if len(contents) != 3 {
		t.Fatalf("expected 3 turns, got %d", len(contents))
	}
	roles := []string{"user", "model", "user"}
	for i, want := range roles {
		turn := contents[i].(map[string]any)
		if turn["role"] != want {
			t.Fatalf("turn %d role = %v, want %q", i, turn["role"], want)
		}
	}
	sys := gotBody["systemInstruction"].(map[string]any)
	sysParts := sys["parts"].([]any)
	if sysParts[0].(map[string]any)["text"] != "sys prompt" {
		t.Fatalf("systemInstruction = %v", sys)
	}
}

func TestCompleteNoCandidates(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"candidates":[]}`)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Complete(context.Background(), chat.Request{}); err == nil {
		t.Fatalf("expected error for empty candidates")
	}
}

func TestCompleteHTTPError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"message":"invalid"}}`)
	}))
	defer srv.Close()

	if _, err := newTestClient(srv.URL).Complete(context.Background(), chat.Request{}); err == nil {
		t.Fatalf("expected error for non-2xx status")
	}
}

func TestAttachmentsOnLastUserTurn(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	}))
	defer srv.Close()

	req := chat.Request{
		Messages: []chat.Message{
			{Role: chat.RoleUser, Content: "first"},
			{Role: chat.RoleAssistant, Content: "reply"},
			{Role: chat.RoleUser, Content: "see attachment"},
		},
		Documents: []chat.Document{
			{ID: "d1", Content: "data:image/png;base64,AAAA", MIMEType: "image/png"},
			{ID: "d2", Content: "data:application/pdf;base64,BBBB", MIMEType: "application/pdf"},
			{ID: "d3", Content: "data:application/zip;base64,CCCC", MIMEType: "application/zip"},
		},
	}
	if _, err := newTestClient(srv.URL).Complete(context.Background(), req); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	contents := gotBody["contents"].([]any)
	last := contents[2].(map[string]any)
	parts := last["parts"].([]any)
	// text + image + pdf; zip is not inlineable
	if len(parts) != 3 {
		t.Fatalf("expected 3 parts on last user turn, got %d", len(parts))
	}
	inline := parts[1].(map[string]any)["inlineData"].(map[string]any)
	if inline["mimeType"] != "image/png" || inline["data"] != "AAAA" {
		t.Fatalf("inline data = %v", inline)
	}
	first := contents[0].(map[string]any)
	if len(first["parts"].([]any)) != 1 {
		t.Fatalf("attachments must go only to the last user turn")
	}
}

func TestAttachmentsDroppedWithoutUserTurn(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, _ := io.ReadAll(r.Body)
		json.Unmarshal(raw, &gotBody)
		fmt.Fprint(w, `{"candidates":[{"content":{"parts":[{"text":"ok"}]}}]}`)
	}))
	defer srv.Close()

	req := chat.Request{
		Messages:  []chat.Message{{Role: chat.RoleAssistant, Content: "only assistant"}},
		Documents: []chat.Document{{ID: "d1", Content: "data:image/png;base64,AAAA", MIMEType: "image/png"}},
	}
	if _, err := newTestClient(srv.URL).Complete(context.Background(), req); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	contents := gotBody["contents"].([]any)
	for _, c := range contents {
		for _, p := range c.(map[string]any)["parts"].([]any) {
			if _, hasInline := p.(map[string]any)["inlineData"]; hasInline {
				t.Fatalf("attachment must be dropped when no user turn exists")
			}
		}
	}
}

func TestStream(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":streamGenerateContent") {
			t.Errorf("path = %q", r.URL.Path)
		}
		if r.URL.Query().Get("alt") != "sse" {
			t.Errorf("alt query param = %q", r.URL.Query().Get("alt"))
		}
		if r.URL.Query().Get("key") != "test-key" {
			t.Errorf("key query param = %q", r.URL.Query().Get("key"))
		}
		w.Header().Set("Content-Type", "text/event-stream")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"He\"}]}}]}\n\n")
		fmt.Fprint(w, "data: {\"candidates\":[{\"content\":{\"parts\":[{\"text\":\"llo\"}]}}],\"usageMetadata\":{\"promptTokenCount\":3,\"candidatesTokenCount\":2}}\n\n")
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
