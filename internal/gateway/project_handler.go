package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devflow-ai/devflow/internal/store"
)

type createProjectRequest struct {
	ID          string `json:"id" binding:"required"`
	Name        string `json:"name" binding:"required"`
	Description string `json:"description"`
}

func (s *Server) listProjects(c *gin.Context) {
	projects, err := s.store.ListProjects()
	if err != nil {
		s.internalError(c, "list_projects", err)
		return
	}
	c.JSON(http.StatusOK, projects)
}

func (s *Server) createProject(c *gin.Context) {
	var req createProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.CreateProject(store.Project{ID: req.ID, Name: req.Name, Description: req.Description}); err != nil {
		s.internalError(c, "create_project", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) deleteProject(c *gin.Context) {
	if err := s.store.DeleteProject(c.Param("id")); err != nil {
		s.internalError(c, "delete_project", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
