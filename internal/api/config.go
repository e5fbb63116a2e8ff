package api

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/L1quidL1ght/pulse-foundry/internal/config"
)

// ConfigResponse 对外暴露的配置子集
// API Key 等敏感项不出站
type ConfigResponse struct {
	AnalysisEnabled bool   `json:"analysisEnabled"`
	AnalysisModel   string `json:"analysisModel"`
	MaxFileSizeMB   int    `json:"maxFileSizeMB"`
	MaxFiles        int    `json:"maxFiles"`
}

// GetConfig 读取配置
// GET /api/config
func (h *Handler) GetConfig(c *gin.Context) {
	h.mu.RLock()
	resp := ConfigResponse{
		AnalysisEnabled: h.cfg.Analysis.Enabled,
		AnalysisModel:   h.cfg.Analysis.Model,
		MaxFileSizeMB:   h.cfg.Upload.MaxFileSizeMB,
		MaxFiles:        h.cfg.Upload.MaxFiles,
	}
	h.mu.RUnlock()
	c.JSON(http.StatusOK, resp)
}

// UpdateConfigRequest 配置更新请求
type UpdateConfigRequest struct {
	AnalysisEnabled *bool   `json:"analysisEnabled"`
	AnalysisModel   *string `json:"analysisModel"`
}

// UpdateConfig 更新配置并落盘
// PATCH /api/config
func (h *Handler) UpdateConfig(c *gin.Context) {
	var req UpdateConfigRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	h.mu.Lock()
	if req.AnalysisEnabled != nil {
		h.cfg.Analysis.Enabled = *req.AnalysisEnabled
	}
	if req.AnalysisModel != nil && *req.AnalysisModel != "" {
		h.cfg.Analysis.Model = *req.AnalysisModel
	}
	// 落盘用快照，避免持锁做磁盘 IO
	snapshot := *h.cfg
	h.mu.Unlock()

	if err := config.SaveConfig(&snapshot); err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to save config"})
		return
	}

	h.GetConfig(c)
}
