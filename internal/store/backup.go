package store

import (
	"fmt"

	"github.com/devflow-ai/devflow/internal/chat"
)

// Backup is a full dump of every table, used for export and import.
type Backup struct {
	Projects  []Project      `json:"projects"`
	Messages  []chat.Message `json:"messages"`
	Tasks     []Task         `json:"tasks"`
	Documents []Document     `json:"documents"`
	Reviews   []Review       `json:"reviews"`
	Folders   []Folder       `json:"folders"`
	Models    []Model        `json:"models"`
}

// Export dumps every table.
func (s *Store) Export() (Backup, error) {
	var b Backup
	projects, err := s.ListProjects()
	if err != nil {
		return Backup{}, err
	}
	b.Projects = projects

	for _, p := range projects {
		msgs, err := s.ListMessages(p.ID)
		if err != nil {
			return Backup{}, err
		}
		b.Messages = append(b.Messages, msgs...)

		tasks, err := s.ListTasks(p.ID)
		if err != nil {
			return Backup{}, err
		}
		b.Tasks = append(b.Tasks, tasks...)

		docs, err := s.ListDocuments(p.ID)
		if err != nil {
			return Backup{}, err
		}
		b.Documents = append(b.Documents, docs...)

		reviews, err := s.ListReviews(p.ID)
		if err != nil {
			return Backup{}, err
		}
		b.Reviews = append(b.Reviews, reviews...)

		folders, err := s.ListFolders(p.ID)
		if err != nil {
			return Backup{}, err
		}
		b.Folders = append(b.Folders, folders...)
	}

	models, err := s.ListModels()
	if err != nil {
		return Backup{}, err
	}
	b.Models = models
	return b, nil
}

// Import merges a backup into the database inside one transaction; rows with
// matching ids are overwritten.
func (s *Store) Import(b Backup) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin import: %w", err)
	}
	defer tx.Rollback()

	for _, p := range b.Projects {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO projects (id, name, description, created_at) VALUES (?, ?, ?, ?)`,
			p.ID, p.Name, p.Description, timestamp(p.CreatedAt),
		); err != nil {
			return fmt.Errorf("import project: %w", err)
		}
	}
	for _, m := range b.Messages {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO messages (id, project_id, role, content, prompt_tokens, completion_tokens, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.ProjectID, m.Role, m.Content, m.PromptTokens, m.CompletionTokens, timestamp(m.CreatedAt),
		); err != nil {
			return fmt.Errorf("import message: %w", err)
		}
	}
	for _, t := range b.Tasks {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO tasks (id, project_id, title, status, step_number, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			t.ID, t.ProjectID, t.Title, t.Status, nullableInt(t.StepNumber), timestamp(t.CreatedAt),
		); err != nil {
			return fmt.Errorf("import task: %w", err)
		}
	}
	for _, d := range b.Documents {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO documents (id, project_id, title, content, extracted_text, type, step_number, folder_id, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			d.ID, d.ProjectID, d.Title, d.Content, nullable(d.ExtractedText), d.MIMEType,
			nullableInt(d.StepNumber), nullable(d.FolderID), timestamp(d.CreatedAt),
		); err != nil {
			return fmt.Errorf("import document: %w", err)
		}
	}
	for _, r := range b.Reviews {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO reviews (id, project_id, content, status, remark, created_at)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			r.ID, r.ProjectID, r.Content, r.Status, nullable(r.Remark), timestamp(r.CreatedAt),
		); err != nil {
			return fmt.Errorf("import review: %w", err)
		}
	}
	for _, f := range b.Folders {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO folders (id, project_id, name, created_at) VALUES (?, ?, ?, ?)`,
			f.ID, f.ProjectID, f.Name, timestamp(f.CreatedAt),
		); err != nil {
			return fmt.Errorf("import folder: %w", err)
		}
	}
	for _, m := range b.Models {
		if _, err := tx.Exec(
			`INSERT OR REPLACE INTO models (id, display_name, model_name, base_url, api_key, is_active, created_at)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			m.ID, m.DisplayName, m.ModelName, m.BaseURL, m.APIKey, m.IsActive, timestamp(m.CreatedAt),
		); err != nil {
			return fmt.Errorf("import model: %w", err)
		}
	}
	return tx.Commit()
}
