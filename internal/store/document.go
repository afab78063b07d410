package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/devflow-ai/devflow/internal/chat"
)

// Document is a stored project document. Content is plain text or a base64
// data URI; ExtractedText carries text pulled out of binary uploads.
type Document struct {
	ID            string    `json:"id"`
	ProjectID     string    `json:"project_id"`
	Title         string    `json:"title"`
	Content       string    `json:"content"`
	ExtractedText string    `json:"extracted_text,omitempty"`
	MIMEType      string    `json:"type"`
	StepNumber    int       `json:"step_number,omitempty"`
	FolderID      string    `json:"folder_id,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToChat converts a stored document into the chat core's input shape.
func (d Document) ToChat() chat.Document {
	return chat.Document{
		ID:            d.ID,
		Title:         d.Title,
		Content:       d.Content,
		ExtractedText: d.ExtractedText,
		MIMEType:      d.MIMEType,
	}
}

// Folder groups documents within a project.
type Folder struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}

// Lifecycle step names used to auto-file documents uploaded for a step.
var stepFolderNames = map[int]string{
	1: "需求确认",
	2: "AW 任务项",
	3: "整体流程图",
	4: "开发方案",
	5: "原型开发",
	6: "过程进度",
	7: "文档输出",
}

// ListDocuments returns a project's documents, newest first.
func (s *Store) ListDocuments(projectID string) ([]Document, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, title, COALESCE(content, ''), COALESCE(extracted_text, ''),
		        COALESCE(type, ''), COALESCE(step_number, 0), COALESCE(folder_id, ''), created_at
		 FROM documents WHERE project_id = ? ORDER BY created_at DESC, rowid DESC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	defer rows.Close()

	var results []Document
	for rows.Next() {
		var d Document
		var createdAt string
		if err := rows.Scan(&d.ID, &d.ProjectID, &d.Title, &d.Content, &d.ExtractedText,
			&d.MIMEType, &d.StepNumber, &d.FolderID, &createdAt); err != nil {
			return nil, fmt.Errorf("scan document: %w", err)
		}
		d.CreatedAt = parseTime(createdAt)
		results = append(results, d)
	}
	return results, rows.Err()
}

// InsertDocument stores a document. A document tagged with a lifecycle step
// but no folder is filed into that step's folder, creating it on first use.
func (s *Store) InsertDocument(d Document) error {
	if d.StepNumber > 0 && d.FolderID == "" {
		name, ok := stepFolderNames[d.StepNumber]
		if !ok {
			name = fmt.Sprintf("Step %d", d.StepNumber)
		}
		folderID, err := s.ensureFolder(d.ProjectID, name)
		if err != nil {
			return err
		}
		d.FolderID = folderID
	}

	_, err := s.db.Exec(
		`INSERT INTO documents (id, project_id, title, content, extracted_text, type, step_number, folder_id, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.ID, d.ProjectID, d.Title, d.Content, nullable(d.ExtractedText), d.MIMEType,
		nullableInt(d.StepNumber), nullable(d.FolderID), timestamp(d.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("insert document: %w", err)
	}
	return nil
}

// DeleteDocument removes one document from a project.
func (s *Store) DeleteDocument(projectID, docID string) error {
	_, err := s.db.Exec(`DELETE FROM documents WHERE id = ? AND project_id = ?`, docID, projectID)
	if err != nil {
		return fmt.Errorf("delete document: %w", err)
	}
	return nil
}

func (s *Store) ensureFolder(projectID, name string) (string, error) {
	var id string
	err := s.db.QueryRow(`SELECT id FROM folders WHERE project_id = ? AND name = ?`, projectID, name).Scan(&id)
	if err == nil {
		return id, nil
	}
	if err != sql.ErrNoRows {
		return "", fmt.Errorf("lookup folder: %w", err)
	}

	id = uuid.NewString()
	if err := s.CreateFolder(Folder{ID: id, ProjectID: projectID, Name: name}); err != nil {
		return "", err
	}
	return id, nil
}

// ListFolders returns a project's folders, oldest first.
func (s *Store) ListFolders(projectID string) ([]Folder, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, name, created_at FROM folders WHERE project_id = ? ORDER BY created_at ASC, rowid ASC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list folders: %w", err)
	}
	defer rows.Close()

	var results []Folder
	for rows.Next() {
		var f Folder
		var createdAt string
		if err := rows.Scan(&f.ID, &f.ProjectID, &f.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scan folder: %w", err)
		}
		f.CreatedAt = parseTime(createdAt)
		results = append(results, f)
	}
	return results, rows.Err()
}

// CreateFolder inserts a folder.
func (s *Store) CreateFolder(f Folder) error {
	_, err := s.db.Exec(
		`INSERT INTO folders (id, project_id, name, created_at) VALUES (?, ?, ?, ?)`,
		f.ID, f.ProjectID, f.Name, timestamp(f.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create folder: %w", err)
	}
	return nil
}

// DeleteFolder removes a folder, unassigning its documents rather than
// deleting them.
func (s *Store) DeleteFolder(projectID, folderID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin delete folder: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE documents SET folder_id = NULL WHERE folder_id = ? AND project_id = ?`, folderID, projectID); err != nil {
		return fmt.Errorf("unassign folder documents: %w", err)
	}
	if _, err := tx.Exec(`DELETE FROM folders WHERE id = ? AND project_id = ?`, folderID, projectID); err != nil {
		return fmt.Errorf("delete folder: %w", err)
	}
	return tx.Commit()
}

func nullable(s string) any {
	if s == "" {
		return nil
	}
	return s
}

func nullableInt(n int) any {
	if n == 0 {
		return nil
	}
	return n
}
