package gateway

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/devflow-ai/devflow/internal/orchestrator"
	"github.com/devflow-ai/devflow/internal/store"
)

// Server carries the collaborators the HTTP handlers need.
type Server struct {
	store  *store.Store
	orch   *orchestrator.Orchestrator
	comp   *orchestrator.Compressor
	logger *logrus.Logger
}

// New creates the HTTP server layer.
func New(st *store.Store, orch *orchestrator.Orchestrator, comp *orchestrator.Compressor, logger *logrus.Logger) *Server {
	return &Server{store: st, orch: orch, comp: comp, logger: logger}
}

// Router builds the gin engine with all API routes.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), s.requestLogger())

	api := r.Group("/api")
	api.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api.GET("/projects", s.listProjects)
	api.POST("/projects", s.createProject)
	api.DELETE("/projects/:id", s.deleteProject)

	api.GET("/projects/:id/messages", s.listMessages)
	api.POST("/projects/:id/messages", s.createMessage)
	api.DELETE("/projects/:id/messages", s.deleteMessages)

	api.POST("/projects/:id/chat", s.chat)
	api.POST("/projects/:id/compress", s.compress)

	api.GET("/projects/:id/tasks", s.listTasks)
	api.POST("/projects/:id/tasks", s.createTask)
	api.PATCH("/projects/:id/tasks/:taskId", s.updateTask)

	api.GET("/projects/:id/documents", s.listDocuments)
	api.POST("/projects/:id/documents", s.createDocument)
	api.DELETE("/projects/:id/documents/:docId", s.deleteDocument)

	api.GET("/projects/:id/folders", s.listFolders)
	api.POST("/projects/:id/folders", s.createFolder)
	api.DELETE("/projects/:id/folders/:folderId", s.deleteFolder)

	api.GET("/projects/:id/reviews", s.listReviews)
	api.POST("/projects/:id/reviews", s.createReview)
	api.PATCH("/projects/:id/reviews/:reviewId", s.updateReview)

	api.GET("/models", s.listModels)
	api.POST("/models", s.createModel)
	api.PATCH("/models/:id", s.updateModel)
	api.PATCH("/models/:id/activate", s.activateModel)
	api.DELETE("/models/:id", s.deleteModel)

	api.GET("/backup/export", s.exportBackup)
	api.POST("/backup/import", s.importBackup)

	return r
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		s.logger.WithFields(logrus.Fields{
			"method":      c.Request.Method,
			"path":        c.Request.URL.Path,
			"status":      c.Writer.Status(),
			"duration_ms": time.Since(start).Milliseconds(),
		}).Info("request")
	}
}

func (s *Server) internalError(c *gin.Context, event string, err error) {
	s.logger.WithFields(logrus.Fields{
		"event": event,
		"error": err.Error(),
	}).Error("request failed")
	c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal Server Error"})
}
