package store

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/devflow-ai/devflow/internal/chat"
)

// DefaultModelID is the seeded model row that cannot be deleted.
const DefaultModelID = "default-gemini"

// ErrNoActiveModel is returned when no model row is marked active.
var ErrNoActiveModel = errors.New("no active model configured")

// ErrDefaultModel is returned on attempts to delete the seeded default model.
var ErrDefaultModel = errors.New("cannot delete default model")

// Model is one configured language-model backend.
type Model struct {
	ID          string    `json:"id"`
	DisplayName string    `json:"display_name"`
	ModelName   string    `json:"model_name"`
	BaseURL     string    `json:"base_url"`
	APIKey      string    `json:"api_key"`
	IsActive    bool      `json:"is_active"`
	CreatedAt   time.Time `json:"created_at"`
}

// SeedDefaultModel inserts the default Gemini model row once, active, with
// the given API key.
func (s *Store) SeedDefaultModel(apiKey string) error {
	var count int
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM models WHERE id = ?`, DefaultModelID).Scan(&count); err != nil {
		return fmt.Errorf("check default model: %w", err)
	}
	if count > 0 {
		return nil
	}
	_, err := s.db.Exec(
		`INSERT INTO models (id, display_name, model_name, base_url, api_key, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, 1, ?)`,
		DefaultModelID, "Gemini 3.1 Pro", "gemini-3.1-pro-preview",
		"https://generativelanguage.googleapis.com/v1beta/openai/", apiKey, now(),
	)
	if err != nil {
		return fmt.Errorf("seed default model: %w", err)
	}
	return nil
}

// ListModels returns all configured models, oldest first.
func (s *Store) ListModels() ([]Model, error) {
	rows, err := s.db.Query(
		`SELECT id, display_name, model_name, base_url, api_key, is_active, created_at
		 FROM models ORDER BY created_at ASC, rowid ASC`,
	)
	if err != nil {
		return nil, fmt.Errorf("list models: %w", err)
	}
	defer rows.Close()

	var results []Model
	for rows.Next() {
		var m Model
		var createdAt string
		if err := rows.Scan(&m.ID, &m.DisplayName, &m.ModelName, &m.BaseURL, &m.APIKey, &m.IsActive, &createdAt); err != nil {
			return nil, fmt.Errorf("scan model: %w", err)
		}
		m.CreatedAt = parseTime(createdAt)
		results = append(results, m)
	}
	return results, rows.Err()
}

// CreateModel inserts a model configuration, inactive.
func (s *Store) CreateModel(m Model) error {
	_, err := s.db.Exec(
		`INSERT INTO models (id, display_name, model_name, base_url, api_key, is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, 0, ?)`,
		m.ID, m.DisplayName, m.ModelName, m.BaseURL, m.APIKey, timestamp(m.CreatedAt),
	)
	if err != nil {
		return fmt.Errorf("create model: %w", err)
	}
	return nil
}

// UpdateModel rewrites a model's configuration fields.
func (s *Store) UpdateModel(m Model) error {
	_, err := s.db.Exec(
		`UPDATE models SET display_name = ?, model_name = ?, base_url = ?, api_key = ? WHERE id = ?`,
		m.DisplayName, m.ModelName, m.BaseURL, m.APIKey, m.ID,
	)
	if err != nil {
		return fmt.Errorf("update model: %w", err)
	}
	return nil
}

// ActivateModel makes the given model the single active one.
func (s *Store) ActivateModel(modelID string) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin activate model: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.Exec(`UPDATE models SET is_active = 0`); err != nil {
		return fmt.Errorf("deactivate models: %w", err)
	}
	if _, err := tx.Exec(`UPDATE models SET is_active = 1 WHERE id = ?`, modelID); err != nil {
		return fmt.Errorf("activate model: %w", err)
	}
	return tx.Commit()
}

// DeleteModel removes a model configuration; the seeded default is protected.
func (s *Store) DeleteModel(modelID string) error {
	if modelID == DefaultModelID {
		return ErrDefaultModel
	}
	_, err := s.db.Exec(`DELETE FROM models WHERE id = ?`, modelID)
	if err != nil {
		return fmt.Errorf("delete model: %w", err)
	}
	return nil
}

// ActiveModel returns the active model as a per-call chat config.
func (s *Store) ActiveModel() (chat.ModelConfig, error) {
	var cfg chat.ModelConfig
	err := s.db.QueryRow(
		`SELECT model_name, api_key, base_url FROM models WHERE is_active = 1 LIMIT 1`,
	).Scan(&cfg.ModelName, &cfg.APIKey, &cfg.BaseURL)
	if err == sql.ErrNoRows {
		return chat.ModelConfig{}, ErrNoActiveModel
	}
	if err != nil {
		return chat.ModelConfig{}, fmt.Errorf("active model: %w", err)
	}
	return cfg, nil
}
