package store

import (
	"fmt"
	"time"
)

// Task is one work item within a project's lifecycle.
type Task struct {
	ID         string    `json:"id"`
	ProjectID  string    `json:"project_id"`
	Title      string    `json:"title"`
	Status     string    `json:"status"`
	StepNumber int       `json:"step_number,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Review is one daily-review entry.
type Review struct {
	ID        string    `json:"id"`
	ProjectID string    `json:"project_id"`
	Content   string    `json:"content"`
	Status    string    `json:"status"`
	Remark    string    `json:"remark,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ListTasks returns a project's tasks ordered by lifecycle step.
func (s *Store) ListTasks(projectID string) ([]Task, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, title, status, COALESCE(step_number, 0), created_at
		 FROM tasks WHERE project_id = ? ORDER BY step_number ASC, rowid ASC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	defer rows.Close()

	var results []Task
	for rows.Next() {
		var t Task
		var createdAt string
		if err := rows.Scan(&t.ID, &t.ProjectID, &t.Title, &t.Status, &t.StepNumber, &createdAt); err != nil {
			return nil, fmt.Errorf("scan task: %w", err)
		}
		t.CreatedAt = parseTime(createdAt)
		results = append(results, t)
	}
	return results, rows.Err()
}

// CreateTask inserts a task, defaulting status to "todo".
func (s *Store) CreateTask(t Task) error {
	if t.Status == "" {
		t.Status = "todo"
	}
	_, err := s.db.Exec(
		`INSERT INTO tasks (id, project_id, title, status, step_number, created_at) VALUES (?, ?, ?, ?, ?, ?)`,
		t.ID, t.ProjectID, t.Title, t.Status, nullableInt(t.StepNumber), timestamp(t.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create task: %w", err)
	}
	return nil
}

// UpdateTaskStatus moves a task to a new status.
func (s *Store) UpdateTaskStatus(projectID, taskID, status string) error {
	_, err := s.db.Exec(`UPDATE tasks SET status = ? WHERE id = ? AND project_id = ?`, status, taskID, projectID)
	if err != nil {
		return fmt.Errorf("update task status: %w", err)
	}
	return nil
}

// ListReviews returns a project's reviews, newest first.
func (s *Store) ListReviews(projectID string) ([]Review, error) {
	rows, err := s.db.Query(
		`SELECT id, project_id, content, status, COALESCE(remark, ''), created_at
		 FROM reviews WHERE project_id = ? ORDER BY created_at DESC, rowid DESC`,
		projectID,
	)
	if err != nil {
		return nil, fmt.Errorf("list reviews: %w", err)
	}
	defer rows.Close()

	var results []Review
	for rows.Next() {
		var r Review
		var createdAt string
		if err := rows.Scan(&r.ID, &r.ProjectID, &r.Content, &r.Status, &r.Remark, &createdAt); err != nil {
			return nil, fmt.Errorf("scan review: %w", err)
		}
		r.CreatedAt = parseTime(createdAt)
		results = append(results, r)
	}
	return results, rows.Err()
}

// CreateReview inserts a review with status "todo".
func (s *Store) CreateReview(r Review) error {
	_, err := s.db.Exec(
		`INSERT INTO reviews (id, project_id, content, status, created_at) VALUES (?, ?, ?, 'todo', ?)`,
		r.ID, r.ProjectID, r.Content, timestamp(r.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create review: %w", err)
	}
	return nil
}

// UpdateReview updates status and/or remark; nil means leave unchanged.
func (s *Store) UpdateReview(projectID, reviewID string, status, remark *string) error {
	switch {
	case status != nil && remark != nil:
		_, err := s.db.Exec(`UPDATE reviews SET status = ?, remark = ? WHERE id = ? AND project_id = ?`, *status, *remark, reviewID, projectID)
		if err != nil {
			return fmt.Errorf("update review: %w", err)
		}
	case status != nil:
		_, err := s.db.Exec(`UPDATE reviews SET status = ? WHERE id = ? AND project_id = ?`, *status, reviewID, projectID)
		if err != nil {
			return fmt.Errorf("update review status: %w", err)
		}
	case remark != nil:
		_, err := s.db.Exec(`UPDATE reviews SET remark = ? WHERE id = ? AND project_id = ?`, *remark, reviewID, projectID)
		if err != nil {
			return fmt.Errorf("update review remark: %w", err)
		}
	}
	return nil
}
