package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devflow-ai/devflow/internal/chat"
)

type createMessageRequest struct {
	ID               string `json:"id"`
	Role             string `json:"role" binding:"required"`
	Content          string `json:"content" binding:"required"`
	PromptTokens     int    `json:"prompt_tokens"`
	CompletionTokens int    `json:"completion_tokens"`
}

func (s *Server) listMessages(c *gin.Context) {
	messages, err := s.store.ListMessages(c.Param("id"))
	if err != nil {
		s.internalError(c, "list_messages", err)
		return
	}
	if messages == nil {
		messages = []chat.Message{}
	}
	c.JSON(http.StatusOK, messages)
}

func (s *Server) createMessage(c *gin.Context) {
	var req createMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	msg := chat.Message{
		ID:               req.ID,
		ProjectID:        c.Param("id"),
		Role:             req.Role,
		Content:          req.Content,
		PromptTokens:     req.PromptTokens,
		CompletionTokens: req.CompletionTokens,
	}
	if err := s.store.InsertMessage(msg); err != nil {
		s.internalError(c, "create_message", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) deleteMessages(c *gin.Context) {
	if err := s.store.DeleteAllMessages(c.Param("id")); err != nil {
		s.internalError(c, "delete_messages", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
