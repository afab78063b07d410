package chat

import "time"

// Role values for conversation messages.
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

// Message is one turn of a project conversation.
type Message struct {
	ID               string    `json:"id"`
	ProjectID        string    `json:"project_id"`
	Role             string    `json:"role"`
	Content          string    `json:"content"`
	PromptTokens     int       `json:"prompt_tokens"`
	CompletionTokens int       `json:"completion_tokens"`
	CreatedAt        time.Time `json:"created_at"`
}

// Usage tracks token consumption for one provider call.
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
}

// Result is the outcome of one chat call. Usage is always present and stays
// zero-valued when the provider never reported token counts.
type Result struct {
	Text  string `json:"text"`
	Usage Usage  `json:"usage"`
}

// Chunk is one incremental fragment of a streaming response. Usage is nil on
// every fragment except, at most, the terminal one.
type Chunk struct {
	Text  string
	Usage *Usage
}
