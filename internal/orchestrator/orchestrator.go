package orchestrator

import (
	"context"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devflow-ai/devflow/internal/chat"
	"github.com/devflow-ai/devflow/internal/gemini"
	"github.com/devflow-ai/devflow/internal/openai"
)

// Orchestrator turns a conversation history plus attached documents into one
// outbound provider call. It holds no per-conversation state; callers are
// expected to serialize calls per conversation.
type Orchestrator struct {
	Timeout time.Duration
	// NativeEndpoint is where the native adapter sends its requests.
	// Overridable for tests; defaults to gemini.DefaultEndpoint.
	NativeEndpoint string
	Logger         *logrus.Logger
}

// New creates an orchestrator with the default native endpoint.
func New(timeout time.Duration, logger *logrus.Logger) *Orchestrator {
	return &Orchestrator{
		Timeout:        timeout,
		NativeEndpoint: gemini.DefaultEndpoint,
		Logger:         logger,
	}
}

// Params describes one chat invocation. History and Documents are inputs
// only; the orchestrator never mutates them.
type Params struct {
	ProjectID string
	History   []chat.Message
	Config    chat.ModelConfig
	Documents []chat.Document
}

func (o *Orchestrator) provider(cfg chat.ModelConfig) chat.Provider {
	entry := o.Logger.WithFields(logrus.Fields{
		"model":   cfg.ModelName,
		"api_key": cfg.MaskedKey(),
	})
	switch chat.DetectProvider(cfg) {
	case chat.KindGemini:
		return gemini.NewClient(cfg, o.NativeEndpoint, o.Timeout, entry)
	default:
		return openai.NewClient(cfg, o.Timeout, entry)
	}
}

func (o *Orchestrator) request(p Params) chat.Request {
	return chat.Request{
		SystemPrompt: chat.BuildSystemPrompt(p.Documents),
		Messages:     p.History,
		Documents:    p.Documents,
	}
}

func (o *Orchestrator) logCall(p Params, streaming bool) {
	o.Logger.WithFields(logrus.Fields{
		"project_id": p.ProjectID,
		"model":      p.Config.ModelName,
		"messages":   len(p.History),
		"documents":  len(p.Documents),
		"streaming":  streaming,
	}).Info("chat call")
}

// Chat performs one non-streaming call and returns its usage-tagged result.
// Usage stays zero when the provider never reports it. No retries are made.
func (o *Orchestrator) Chat(ctx context.Context, p Params) (chat.Result, error) {
	o.logCall(p, false)
	return o.provider(p.Config).Complete(ctx, o.request(p))
}

// Stream is a finite, non-restartable sequence of text fragments from one
// streaming chat call. Receive from Chunks until it closes, then call Wait
// for the final result. Fragments already received are not rolled back when
// the stream fails.
type Stream struct {
	chunks chan chat.Chunk
	done   chan struct{}
	result chat.Result
	err    error
}

// Chunks returns the fragment channel. Each fragment is sent as soon as it
// arrives from the network; the consumer paces delivery.
func (s *Stream) Chunks() <-chan chat.Chunk {
	return s.chunks
}

// Wait blocks until the stream is exhausted and returns the final result.
// Exactly one of result and error is meaningful.
func (s *Stream) Wait() (chat.Result, error) {
	<-s.done
	return s.result, s.err
}

// ChatStream performs one streaming call. The returned stream yields every
// non-empty text delta in arrival order; usage is resolved after the last
// fragment, defaulting to zero if never reported.
func (o *Orchestrator) ChatStream(ctx context.Context, p Params) *Stream {
	o.logCall(p, true)

	s := &Stream{chunks: make(chan chat.Chunk), done: make(chan struct{})}
	inner := make(chan chat.Chunk)
	errCh := make(chan error, 1)

	prov := o.provider(p.Config)
	req := o.request(p)
	go func() {
		errCh <- prov.Stream(ctx, req, inner)
	}()

	go func() {
		defer close(s.done)
		defer close(s.chunks)

		var full strings.Builder
		var usage chat.Usage
		aborted := false
		for ck := range inner {
			if ck.Usage != nil {
				usage = *ck.Usage
			}
			if ck.Text == "" || aborted {
				continue
			}
			full.WriteString(ck.Text)
			select {
			case s.chunks <- ck:
			case <-ctx.Done():
				aborted = true
			}
		}
		if err := <-errCh; err != nil {
			s.err = err
			return
		}
		s.result = chat.Result{Text: full.String(), Usage: usage}
	}()
	return s
}
