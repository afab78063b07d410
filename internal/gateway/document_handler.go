package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/devflow-ai/devflow/internal/store"
)

type createDocumentRequest struct {
	ID            string `json:"id"`
	Title         string `json:"title" binding:"required"`
	Content       string `json:"content"`
	ExtractedText string `json:"extracted_text"`
	MIMEType      string `json:"type"`
	StepNumber    int    `json:"step_number"`
	FolderID      string `json:"folder_id"`
}

type createFolderRequest struct {
	ID   string `json:"id"`
	Name string `json:"name" binding:"required"`
}

func (s *Server) listDocuments(c *gin.Context) {
	docs, err := s.store.ListDocuments(c.Param("id"))
	if err != nil {
		s.internalError(c, "list_documents", err)
		return
	}
	if docs == nil {
		docs = []store.Document{}
	}
	c.JSON(http.StatusOK, docs)
}

func (s *Server) createDocument(c *gin.Context) {
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	doc := store.Document{
		ID:            req.ID,
		ProjectID:     c.Param("id"),
		Title:         req.Title,
		Content:       req.Content,
		ExtractedText: req.ExtractedText,
		MIMEType:      req.MIMEType,
		StepNumber:    req.StepNumber,
		FolderID:      req.FolderID,
	}
	if err := s.store.InsertDocument(doc); err != nil {
		s.internalError(c, "create_document", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": doc.ID})
}

func (s *Server) deleteDocument(c *gin.Context) {
	if err := s.store.DeleteDocument(c.Param("id"), c.Param("docId")); err != nil {
		s.internalError(c, "delete_document", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (s *Server) listFolders(c *gin.Context) {
	folders, err := s.store.ListFolders(c.Param("id"))
	if err != nil {
		s.internalError(c, "list_folders", err)
		return
	}
	if folders == nil {
		folders = []store.Folder{}
	}
	c.JSON(http.StatusOK, folders)
}

func (s *Server) createFolder(c *gin.Context) {
	var req createFolderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.ID == "" {
		req.ID = uuid.NewString()
	}
	if err := s.store.CreateFolder(store.Folder{ID: req.ID, ProjectID: c.Param("id"), Name: req.Name}); err != nil {
		s.internalError(c, "create_folder", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true, "id": req.ID})
}

func (s *Server) deleteFolder(c *gin.Context) {
	if err := s.store.DeleteFolder(c.Param("id"), c.Param("folderId")); err != nil {
		s.internalError(c, "delete_folder", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
