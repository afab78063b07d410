package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devflow-ai/devflow/internal/store"
)

type modelRequest struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name" binding:"required"`
	ModelName   string `json:"model_name" binding:"required"`
	BaseURL     string `json:"base_url" binding:"required"`
	APIKey      string `json:"api_key"`
}

// modelView is a model row with the API key withheld from responses.
type modelView struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	ModelName   string `json:"model_name"`
	BaseURL     string `json:"base_url"`
	APIKeySet   bool   `json:"api_key_set"`
	IsActive    bool   `json:"is_active"`
}

func (s *Server) listModels(c *gin.Context) {
	models, err := s.store.ListModels()
	if err != nil {
		s.internalError(c, "list_models", err)
		return
	}
	views := make([]modelView, 0, len(models))
	for _, m := range models {
		views = append(views, modelView{
			ID:          m.ID,
			DisplayName: m.DisplayName,
			ModelName:   m.ModelName,
			BaseURL:     m.BaseURL,
			APIKeySet:   m.APIKey != "",
			IsActive:    m.IsActive,
		})
	}
	c.JSON(http.StatusOK, views)
}

func (s *Server) createModel(c *gin.Context) {
	var req modelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	m := store.Model{
		ID:          req.ID,
		DisplayName: req.DisplayName,
		ModelName:   req.ModelName,
		BaseURL:     req.BaseURL,
		APIKey:      req.APIKey,
	}
	if err := s.store.CreateModel(m); err != nil {
		s.internalError(c, "create_model", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": m.ID})
}

func (s *Server) updateModel(c *gin.Context) {
	var req modelRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	m := store.Model{
		ID:          c.Param("id"),
		DisplayName: req.DisplayName,
		ModelName:   req.ModelName,
		BaseURL:     req.BaseURL,
		APIKey:      req.APIKey,
	}
	if err := s.store.UpdateModel(m); err != nil {
		s.internalError(c, "update_model", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) activateModel(c *gin.Context) {
	if err := s.store.ActivateModel(c.Param("id")); err != nil {
		s.internalError(c, "activate_model", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) deleteModel(c *gin.Context) {
	if err := s.store.DeleteModel(c.Param("id")); err != nil {
		if errors.Is(err, store.ErrDefaultModel) {
			c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
			return
		}
		s.internalError(c, "delete_model", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
