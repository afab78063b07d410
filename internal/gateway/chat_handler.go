package gateway

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devflow-ai/devflow/internal/chat"
	"github.com/devflow-ai/devflow/internal/orchestrator"
	"github.com/devflow-ai/devflow/internal/store"
)

type chatRequest struct {
	Content string `json:"content" binding:"required"`
	Stream  bool   `json:"stream"`
}

// chat runs one orchestrated model call for a project. The user message is
// persisted before the call, so a provider failure still leaves it in the
// conversation for a retry.
func (s *Server) chat(c *gin.Context) {
	projectID := c.Param("id")

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	cfg, err := s.store.ActiveModel()
	if err != nil {
		if errors.Is(err, store.ErrNoActiveModel) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		s.internalError(c, "active_model", err)
		return
	}

	history, err := s.store.ListMessages(projectID)
	if err != nil {
		s.internalError(c, "list_messages", err)
		return
	}
	storeDocs, err := s.store.ListDocuments(projectID)
	if err != nil {
		s.internalError(c, "list_documents", err)
		return
	}
	docs := make([]chat.Document, 0, len(storeDocs))
	for _, d := range storeDocs {
		docs = append(docs, d.ToChat())
	}

	userMsg := chat.Message{
		ID:        uuid.NewString(),
		ProjectID: projectID,
		Role:      chat.RoleUser,
		Content:   req.Content,
	}
	if err := s.store.InsertMessage(userMsg); err != nil {
		s.internalError(c, "insert_user_message", err)
		return
	}
	history = append(history, userMsg)

	params := orchestrator.Params{
		ProjectID: projectID,
		History:   history,
		Config:    cfg,
		Documents: docs,
	}

	if !req.Stream {
		s.chatOnce(c, params)
		return
	}
	s.chatStream(c, params, history)
}

func (s *Server) chatOnce(c *gin.Context, params orchestrator.Params) {
	res, err := s.orch.Chat(c.Request.Context(), params)
	if err != nil {
		s.logger.WithFields(map[string]any{"event": "chat_failed", "error": err.Error()}).Error("provider call failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}

	aiMsg := chat.Message{
		ID:               uuid.NewString(),
		ProjectID:        params.ProjectID,
		Role:             chat.RoleAssistant,
		Content:          res.Text,
		PromptTokens:     res.Usage.PromptTokens,
		CompletionTokens: res.Usage.CompletionTokens,
	}
	if err := s.store.InsertMessage(aiMsg); err != nil {
		s.internalError(c, "insert_assistant_message", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": aiMsg, "usage": res.Usage})
}

// chatStream relays fragments to the client over SSE as they arrive, then
// persists the accumulated assistant message once the stream terminates.
func (s *Server) chatStream(c *gin.Context, params orchestrator.Params, history []chat.Message) {
	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")
	c.Writer.WriteHeader(http.StatusOK)
	c.Writer.Flush()

	stream := s.orch.ChatStream(c.Request.Context(), params)
	acc := chat.NewAccumulator(params.ProjectID, history)
	for ck := range stream.Chunks() {
		acc.Push(ck.Text)
		writeSSE(c.Writer, "chunk", gin.H{"text": ck.Text})
		c.Writer.Flush()
	}

	res, err := stream.Wait()
	if err != nil {
		// Fragments already sent stay with the client; nothing is persisted.
		s.logger.WithFields(map[string]any{"event": "chat_stream_failed", "error": err.Error()}).Error("provider stream failed")
		writeSSE(c.Writer, "error", gin.H{"error": err.Error()})
		c.Writer.Flush()
		return
	}

	aiMsg, ok := acc.Finish(res.Usage)
	if ok {
		if err := s.store.InsertMessage(aiMsg); err != nil {
			s.logger.WithFields(map[string]any{"event": "persist_stream_message", "error": err.Error()}).Error("failed to persist assistant message")
		}
	}
	writeSSE(c.Writer, "done", gin.H{"message": aiMsg, "usage": res.Usage})
	c.Writer.Flush()
}

// compress collapses a project's conversation into one summary message.
func (s *Server) compress(c *gin.Context) {
	cfg, err := s.store.ActiveModel()
	if err != nil {
		if errors.Is(err, store.ErrNoActiveModel) {
			c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
			return
		}
		s.internalError(c, "active_model", err)
		return
	}

	summary, err := s.comp.Compress(c.Request.Context(), c.Param("id"), cfg)
	if err != nil {
		if errors.Is(err, orchestrator.ErrNoMessages) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		s.logger.WithFields(map[string]any{"event": "compress_failed", "error": err.Error()}).Error("context compression failed")
		c.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": summary})
}
