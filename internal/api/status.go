package api

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Version 程序版本
const Version = "1.2.0"

// GetStatus 系统状态
// GET /api/status
func (h *Handler) GetStatus(c *gin.Context) {
	count, err := h.store.CountReports()
	if err != nil {
		log.Printf("count reports failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to read status"})
		return
	}

	h.mu.RLock()
	dataDir := h.cfg.Data.DataDir
	analysisEnabled := h.cfg.Analysis.Enabled && h.cfg.Analysis.APIKey != ""
	h.mu.RUnlock()

	c.JSON(http.StatusOK, gin.H{
		"version":         Version,
		"reportCount":     count,
		"dataDir":         dataDir,
		"analysisEnabled": analysisEnabled,
	})
}
