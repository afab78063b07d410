package gateway

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/devflow-ai/devflow/internal/store"
)

func (s *Server) exportBackup(c *gin.Context) {
	b, err := s.store.Export()
	if err != nil {
		s.internalError(c, "export_backup", err)
		return
	}
	c.Header("Content-Disposition", `attachment; filename="devflow-backup.json"`)
	c.JSON(http.StatusOK, b)
}

func (s *Server) importBackup(c *gin.Context) {
	var b store.Backup
	if err := c.ShouldBindJSON(&b); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err := s.store.Import(b); err != nil {
		s.internalError(c, "import_backup", err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
