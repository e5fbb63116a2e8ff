package server

import (
	"log"
	"path/filepath"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/L1quidL1ght/pulse-foundry/internal/api"
	"github.com/L1quidL1ght/pulse-foundry/internal/config"
	"github.com/L1quidL1ght/pulse-foundry/internal/importer"
	"github.com/L1quidL1ght/pulse-foundry/internal/narrative"
	"github.com/L1quidL1ght/pulse-foundry/internal/storage"
	"github.com/L1quidL1ght/pulse-foundry/internal/store"
)

// Server HTTP服务器
type Server struct {
	router *gin.Engine
	store  *store.Store
	api    *api.Handler
}

// NewServer 创建服务器
func NewServer(cfg *config.AppConfig) *Server {
	if !cfg.Server.DevMode {
		gin.SetMode(gin.ReleaseMode)
	}

	dataDir, err := config.EnsureDataDir(cfg)
	if err != nil {
		dataDir = cfg.Data.DataDir
	}

	sqliteStore, err := store.New(filepath.Join(dataDir, "pulse.db"))
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}

	fileStore, err := storage.NewLocalStore(filepath.Join(dataDir, "uploads"))
	if err != nil {
		log.Fatalf("Failed to initialize file storage: %v", err)
	}

	// 没有 API Key 时叙事分析直接降级，不影响其余流程
	var analyzer narrative.Analyzer
	if cfg.Analysis.Enabled && cfg.Analysis.APIKey != "" {
		analyzer = narrative.NewOpenAIAnalyzer(cfg.Analysis.APIKey, cfg.Analysis.Model)
	} else {
		log.Printf("narrative analysis disabled (no API key configured)")
	}

	coordinator := importer.NewCoordinator(
		sqliteStore,
		fileStore,
		analyzer,
		time.Duration(cfg.Analysis.TimeoutSeconds)*time.Second,
	)

	s := &Server{
		router: gin.Default(),
		store:  sqliteStore,
		api:    api.NewHandler(sqliteStore, coordinator, cfg),
	}

	s.setupRoutes()
	return s
}

// setupRoutes 设置路由
func (s *Server) setupRoutes() {
	// CORS
	s.router.Use(func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, Authorization, X-User-ID")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	apiGroup := s.router.Group("/api")
	{
		s.api.RegisterRoutes(apiGroup)
	}
}

// Run 启动服务器
func (s *Server) Run(addr string) error {
	return s.router.Run(addr)
}

// Close 释放资源
func (s *Server) Close() error {
	return s.store.Close()
}

// GetStore 获取存储（用于测试）
func (s *Server) GetStore() *store.Store {
	return s.store
}
