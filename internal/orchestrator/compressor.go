package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/devflow-ai/devflow/internal/chat"
)

// SummaryInstruction is the synthetic user turn appended before summarizing.
const SummaryInstruction = "请总结上述所有对话内容。捕捉主要目标、已做出的决定以及项目的当前状态。要求简洁但全面。"

// CompressedMarker prefixes the single summary message left after compression.
const CompressedMarker = "**[上下文已压缩]**"

// ErrNoMessages is returned when there is no history to compress.
var ErrNoMessages = errors.New("no messages to compress")

// MessageStore is the slice of persistence the compressor needs. The swap in
// ReplaceAllMessages must be atomic: old messages may never disappear without
// the summary appearing.
type MessageStore interface {
	ListMessages(projectID string) ([]chat.Message, error)
	ReplaceAllMessages(projectID string, summary chat.Message) error
}

// Compressor collapses a project's conversation into one summary message to
// bound context-window growth.
type Compressor struct {
	Orchestrator *Orchestrator
	Store        MessageStore
	Logger       *logrus.Logger
}

// Compress summarizes the full history through a non-streaming call, then
// swaps it for a single marker-prefixed assistant message carrying the
// summarization usage. The swap runs only after the call succeeds, so a
// failed summarization leaves the conversation exactly as it was.
func (c *Compressor) Compress(ctx context.Context, projectID string, cfg chat.ModelConfig) (chat.Message, error) {
	msgs, err := c.Store.ListMessages(projectID)
	if err != nil {
		return chat.Message{}, fmt.Errorf("list messages: %w", err)
	}
	if len(msgs) == 0 {
		return chat.Message{}, ErrNoMessages
	}

	history := make([]chat.Message, 0, len(msgs)+1)
	history = append(history, msgs...)
	history = append(history, chat.Message{Role: chat.RoleUser, Content: SummaryInstruction})

	// Documents are deliberately excluded to bound the summarization call.
	res, err := c.Orchestrator.Chat(ctx, Params{
		ProjectID: projectID,
		History:   history,
		Config:    cfg,
	})
	if err != nil {
		return chat.Message{}, fmt.Errorf("summarization call: %w", err)
	}

	summary := chat.Message{
		ID:               uuid.NewString(),
		ProjectID:        projectID,
		Role:             chat.RoleAssistant,
		Content:          CompressedMarker + "\n\n" + res.Text,
		PromptTokens:     res.Usage.PromptTokens,
		CompletionTokens: res.Usage.CompletionTokens,
		CreatedAt:        time.Now().UTC(),
	}
	if err := c.Store.ReplaceAllMessages(projectID, summary); err != nil {
		return chat.Message{}, fmt.Errorf("swap compressed history: %w", err)
	}

	c.Logger.WithFields(logrus.Fields{
		"project_id": projectID,
		"replaced":   len(msgs),
	}).Info("context compressed")
	return summary, nil
}
