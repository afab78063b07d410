package chat

import "context"

// Request is the provider-neutral outbound request assembled by the
// orchestrator. Each adapter maps it onto its own wire format and applies its
// own attachment whitelist to Documents.
type Request struct {
	SystemPrompt string
	Messages     []Message
	Documents    []Document
}

// Provider is the model backend abstraction. Complete performs one
// non-streaming call. Stream sends fragments on chunks in strict arrival
// order and closes the channel when the stream ends; usage, when reported at
// all, arrives on the terminal chunk (last writer wins). The sequence is
// finite and non-restartable, and a transport error aborts it without rolling
// back fragments already delivered.
type Provider interface {
	Complete(ctx context.Context, req Request) (Result, error)
	Stream(ctx context.Context, req Request, chunks chan<- Chunk) error
}
