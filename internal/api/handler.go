// Package api HTTP 接口层
package api

import (
	"sync"

	"github.com/gin-gonic/gin"

	"github.com/L1quidL1ght/pulse-foundry/internal/config"
	"github.com/L1quidL1ght/pulse-foundry/internal/importer"
	"github.com/L1quidL1ght/pulse-foundry/internal/store"
)

// Handler API 处理器
// cfg 会被 PATCH /api/config 原地修改，读写都要经过 mu
type Handler struct {
	store       *store.Store
	coordinator *importer.Coordinator
	cfg         *config.AppConfig
	mu          sync.RWMutex
}

// NewHandler 创建 API 处理器
func NewHandler(s *store.Store, coordinator *importer.Coordinator, cfg *config.AppConfig) *Handler {
	return &Handler{
		store:       s,
		coordinator: coordinator,
		cfg:         cfg,
	}
}

// RegisterRoutes 注册 API 路由
func (h *Handler) RegisterRoutes(router *gin.RouterGroup) {
	// 系统状态
	router.GET("/status", h.GetStatus)

	// 配置管理
	router.GET("/config", h.GetConfig)
	router.PATCH("/config", h.UpdateConfig)

	// 报告
	router.POST("/reports", h.CreateReport)
	router.GET("/reports", h.ListReports)
	router.GET("/reports/:id", h.GetReport)
}

// ownerID 从请求头取调用方身份
// 认证鉴权由外部网关完成，这里只透传标识
func ownerID(c *gin.Context) string {
	return c.GetHeader("X-User-ID")
}
