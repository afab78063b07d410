package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devflow-ai/devflow/internal/store"
)

type createTaskRequest struct {
	ID         string `json:"id"`
	Title      string `json:"title" binding:"required"`
	Status     string `json:"status"`
	StepNumber int    `json:"step_number"`
}

type updateTaskRequest struct {
	Status string `json:"status" binding:"required"`
}

type createReviewRequest struct {
	ID      string `json:"id"`
	Content string `json:"content" binding:"required"`
}

type updateReviewRequest struct {
	Status *string `json:"status"`
	Remark *string `json:"remark"`
}

func (s *Server) listTasks(c *gin.Context) {
	tasks, err := s.store.ListTasks(c.Param("id"))
	if err != nil {
		s.internalError(c, "list_tasks", err)
		return
	}
	if tasks == nil {
		tasks = []store.Task{}
	}
	c.JSON(http.StatusOK, tasks)
}

func (s *Server) createTask(c *gin.Context) {
	var req createTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	task := store.Task{
		ID:         req.ID,
		ProjectID:  c.Param("id"),
		Title:      req.Title,
		Status:     req.Status,
		StepNumber: req.StepNumber,
	}
	if err := s.store.CreateTask(task); err != nil {
		s.internalError(c, "create_task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": task.ID})
}

func (s *Server) updateTask(c *gin.Context) {
	var req updateTaskRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.UpdateTaskStatus(c.Param("id"), c.Param("taskId"), req.Status); err != nil {
		s.internalError(c, "update_task", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) listReviews(c *gin.Context) {
	reviews, err := s.store.ListReviews(c.Param("id"))
	if err != nil {
		s.internalError(c, "list_reviews", err)
		return
	}
	if reviews == nil {
		reviews = []store.Review{}
	}
	c.JSON(http.StatusOK, reviews)
}

func (s *Server) createReview(c *gin.Context) {
	var req createReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if err := s.store.CreateReview(store.Review{ID: req.ID, ProjectID: c.Param("id"), Content: req.Content}); err != nil {
		s.internalError(c, "create_review", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": req.ID})
}

func (s *Server) updateReview(c *gin.Context) {
	var req updateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Status == nil && req.Remark == nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "status or remark required"})
		return
	}
	if err := s.store.UpdateReview(c.Param("id"), c.Param("reviewId"), req.Status, req.Remark); err != nil {
		s.internalError(c, "update_review", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
