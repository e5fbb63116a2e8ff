package api

import (
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/L1quidL1ght/pulse-foundry/internal/importer"
	"github.com/L1quidL1ght/pulse-foundry/internal/model"
	"github.com/L1quidL1ght/pulse-foundry/internal/reader"
	"github.com/L1quidL1ght/pulse-foundry/internal/store"
)

// CreateReport 上传报表文件并生成分析报告
// POST /api/reports (multipart)
func (h *Handler) CreateReport(c *gin.Context) {
	form, err := c.MultipartForm()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid multipart form"})
		return
	}

	restaurantName := c.PostForm("restaurantName")
	if restaurantName == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "restaurantName is required"})
		return
	}

	h.mu.RLock()
	maxFiles := h.cfg.Upload.MaxFiles
	maxSizeMB := h.cfg.Upload.MaxFileSizeMB
	h.mu.RUnlock()

	files := form.File["files"]
	if len(files) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "no files uploaded"})
		return
	}
	if len(files) > maxFiles {
		c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("too many files (max %d)", maxFiles)})
		return
	}

	maxBytes := int64(maxSizeMB) << 20

	// 全部校验通过后才开始解析
	var uploads []importer.UploadFile
	for _, fh := range files {
		if !reader.SupportedExt(fh.Filename) {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("unsupported file type: %s (accepted: .csv .xlsx .xls)", fh.Filename),
			})
			return
		}
		if fh.Size > maxBytes {
			c.JSON(http.StatusBadRequest, gin.H{
				"error": fmt.Sprintf("file too large: %s (max %d MB)", fh.Filename, maxSizeMB),
			})
			return
		}

		src, err := fh.Open()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("cannot read file: %s", fh.Filename)})
			return
		}
		data, err := io.ReadAll(src)
		src.Close()
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": fmt.Sprintf("cannot read file: %s", fh.Filename)})
			return
		}

		uploads = append(uploads, importer.UploadFile{Filename: fh.Filename, Data: data})
	}

	report, err := h.coordinator.Process(c.Request.Context(), importer.Options{
		RestaurantName: restaurantName,
		PeriodLabel:    c.PostForm("periodLabel"),
		OwnerID:        ownerID(c),
		Files:          uploads,
	})
	if err != nil {
		if errors.Is(err, importer.ErrNoParsableFiles) {
			c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "none of the uploaded files could be parsed"})
			return
		}
		// 内部细节只进日志，不回给客户端
		log.Printf("process upload failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to process upload"})
		return
	}

	c.JSON(http.StatusCreated, report)
}

// ListReports 列出报告
// GET /api/reports?limit=50
func (h *Handler) ListReports(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	reports, err := h.store.ListReports(ownerID(c), limit)
	if err != nil {
		log.Printf("list reports failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to list reports"})
		return
	}
	if reports == nil {
		// 返回 [] 而不是 null
		reports = []*model.Report{}
	}
	c.JSON(http.StatusOK, gin.H{"reports": reports})
}

// GetReport 获取单个报告
// GET /api/reports/:id
func (h *Handler) GetReport(c *gin.Context) {
	report, err := h.store.GetReport(c.Param("id"))
	if err != nil {
		if errors.Is(err, store.ErrReportNotFound) {
			c.JSON(http.StatusNotFound, gin.H{"error": "report not found"})
			return
		}
		log.Printf("get report failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to load report"})
		return
	}
	c.JSON(http.StatusOK, report)
}
