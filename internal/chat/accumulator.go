package chat

import (
	"time"

	"github.com/google/uuid"
)

// Accumulator applies the streaming merge rule to a message list: the first
// fragment of a turn creates exactly one assistant message, every later
// fragment appends to it in arrival order. Usage is written onto that same
// message when the turn finishes.
type Accumulator struct {
	projectID string
	messages  []Message
	current   int // index of the in-flight assistant message, -1 before the first fragment
}

// NewAccumulator wraps an existing message list for one streaming turn.
func NewAccumulator(projectID string, messages []Message) *Accumulator {
	return &Accumulator{projectID: projectID, messages: messages, current: -1}
}

// Push merges one fragment into the message list.
func (a *Accumulator) Push(text string) {
	if a.current >= 0 {
		a.messages[a.current].Content += text
		return
	}
	a.messages = append(a.messages, Message{
		ID:        uuid.NewString(),
		ProjectID: a.projectID,
		Role:      RoleAssistant,
		Content:   text,
		CreatedAt: time.Now().UTC(),
	})
	a.current = len(a.messages) - 1
}

// Finish writes the terminal usage onto the in-flight assistant message and
// returns it. ok is false when no fragment ever arrived.
func (a *Accumulator) Finish(u Usage) (Message, bool) {
	if a.current < 0 {
		return Message{}, false
	}
	a.messages[a.current].PromptTokens = u.PromptTokens
	a.messages[a.current].CompletionTokens = u.CompletionTokens
	return a.messages[a.current], true
}

// Messages returns the merged list.
func (a *Accumulator) Messages() []Message {
	return a.messages
}
