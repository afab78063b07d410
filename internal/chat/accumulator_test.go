package chat

import "testing"

func TestAccumulatorCreatesOneMessage(t *testing.T) {
	history := []Message{
		{ID: "m1", Role: RoleUser, Content: "hi"},
	}
	acc := NewAccumulator("p1", history)
	acc.Push("He")
	acc.Push("llo")
	acc.Push(" world")

	msgs := acc.Messages()
	if len(msgs) != 2 {
		t.Fatalf("expected 2 messages, got %d", len(msgs))
	}
	last := msgs[len(msgs)-1]
	if last.Role != RoleAssistant {
		t.Fatalf("merged message role = %q", last.Role)
	}
	if last.Content != "Hello world" {
		t.Fatalf("merged content = %q", last.Content)
	}
	if last.ID == "" {
		t.Fatalf("merged message needs an id")
	}
	if last.ProjectID != "p1" {
		t.Fatalf("merged message project = %q", last.ProjectID)
	}
}

func TestAccumulatorFinishWritesUsage(t *testing.T) {
	acc := NewAccumulator("p1", nil)
	acc.Push("answer")
	msg, ok := acc.Finish(Usage{PromptTokens: 7, CompletionTokens: 3})
	if !ok {
		t.Fatalf("expected a finished message")
	}
	if msg.PromptTokens != 7 || msg.CompletionTokens != 3 {
		t.Fatalf("usage not written: %+v", msg)
	}
	if msg.Content != "answer" {
		t.Fatalf("content = %q", msg.Content)
	}
}

func TestAccumulatorFinishWithoutFragments(t *testing.T) {
	acc := NewAccumulator("p1", []Message{{ID: "m1", Role: RoleUser, Content: "hi"}})
	if _, ok := acc.Finish(Usage{}); ok {
		t.Fatalf("finish must report false when nothing streamed")
	}
	if len(acc.Messages()) != 1 {
		t.Fatalf("no message may be created without fragments")
	}
}

func TestAccumulatorDoesNotTouchPriorAssistantMessage(t *testing.T) {
	history := []Message{
		{ID: "m1", Role: RoleUser, Content: "q1"},
		{ID: "m2", Role: RoleAssistant, Content: "a1"},
		{ID: "m3", Role: RoleUser, Content: "q2"},
	}
	acc := NewAccumulator("p1", history)
	acc.Push("a2")

	msgs := acc.Messages()
	if len(msgs) != 4 {
		t.Fatalf("expected a new message, got %d", len(msgs))
	}
	if msgs[1].Content != "a1" {
		t.Fatalf("earlier assistant message was modified: %q", msgs[1].Content)
	}
	if msgs[3].Content != "a2" {
		t.Fatalf("new turn content = %q", msgs[3].Content)
	}
}
