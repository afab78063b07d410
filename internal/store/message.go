package store

import (
	"fmt"

	"github.com/devflow-ai/devflow/internal/chat"
)

// ListMessages returns a project's conversation in chronological order.
func (s *Store) ListMessages(projectID string) ([]chat.Message, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, role, content, prompt_tokens, completion_tokens, created_at
		 FROM messages WHERE project_id = ? ORDER BY created_at ASC, rowid ASC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list messages: %w", err)
	}
	defer rows.Close()

	var results []chat.Message
	for rows.Next() {
		var m chat.Message
		var createdAt string
		if err := rows.Scan(&m.ID, &m.ProjectID, &m.Role, &m.Content, &m.PromptTokens, &m.CompletionTokens, &createdAt); err != nil {
			return nil, fmt.Errorf("scan message: %w", err)
		}
		m.CreatedAt = parseTime(createdAt)
		results = append(results, m)
	}
	return results, rows.Err()
}

// InsertMessage appends one message to a project's conversation.
func (s *Store) InsertMessage(m chat.Message) error {
	_, err := s.db.Exec(
		`INSERT INTO messages (id, project_id, role, content, prompt_tokens, completion_tokens, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		m.ID, m.ProjectID, m.Role, m.Content, m.PromptTokens, m.CompletionTokens, timestamp(m.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert message: %w", err)
	}
	return nil
}

// DeleteAllMessages clears a project's conversation.
func (s *Store) DeleteAllMessages(projectID string) error {
	_, err := s.db.Exec(`DELETE FROM messages WHERE project_id = ?`, projectID)
	if err != nil {
		return fmt.Errorf("delete messages: %w", err)
	}
	return nil
}

// ReplaceAllMessages swaps a project's entire conversation for the single
// summary message inside one transaction, so the old history can never be
// observed gone without the summary present.
func (s *Store) ReplaceAllMessages(projectID string, summary chat.Message) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin replace: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`DELETE FROM messages WHERE project_id = ?`, projectID); err != nil {
		return fmt.Errorf("delete old messages: %w", err)
	}
	if _, err := tx.Exec(
		`INSERT INTO messages (id, project_id, role, content, prompt_tokens, completion_tokens, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		summary.ID, projectID, summary.Role, summary.Content, summary.PromptTokens, summary.CompletionTokens, timestamp(summary.CreatedAt),
	); err != nil {
		return fmt.Errorf("insert summary: %w", err)
	}
	return tx.Commit()
}
