package chat

import "strings"

// ModelConfig selects and authenticates one model backend for a single call.
// It is immutable per call; credentials are passed through, never stored.
type ModelConfig struct {
	ModelName string
	APIKey    string
	BaseURL   string
}

// ProviderKind identifies which wire protocol a model config speaks.
type ProviderKind int

const (
	// KindOpenAICompatible is any backend implementing the chat-completions shape.
	KindOpenAICompatible ProviderKind = iota
	// KindGemini is the native Google generative language API.
	KindGemini
)

const (
	geminiHostMarker  = "generativelanguage.googleapis.com"
	geminiModelMarker = "gemini"
)

// DetectProvider resolves the provider kind for a model config. Dispatch is
// static and deterministic: a recognized native marker in the base URL or
// model name (case-insensitive) selects the native adapter, everything else
// is treated as OpenAI-compatible.
func DetectProvider(cfg ModelConfig) ProviderKind {
	if strings.Contains(strings.ToLower(cfg.BaseURL), geminiHostMarker) ||
		strings.Contains(strings.ToLower(cfg.ModelName), geminiModelMarker) {
		return KindGemini
	}
	return KindOpenAICompatible
}

// MaskedKey returns the API key reduced to its last four characters, for logs.
func (c ModelConfig) MaskedKey() string {
	if len(c.APIKey) <= 4 {
		return "****"
	}
	return "****" + c.APIKey[len(c.APIKey)-4:]
}
