// Package model 上传报告的持久化记录结构
package model

import (
	"time"

	"github.com/L1quidL1ght/pulse-foundry/internal/metrics"
	"github.com/L1quidL1ght/pulse-foundry/internal/narrative"
	"github.com/L1quidL1ght/pulse-foundry/internal/parser"
)

// FileSource 单个上传文件的来源元信息
type FileSource struct {
	Filename   string             `json:"filename"`
	StorageRef string             `json:"storageRef"`
	Type       parser.DatasetType `json:"datasetType"`
	RowCount   int                `json:"rowCount"`
	Status     string             `json:"status"` // parsed/skipped
	Error      string             `json:"error,omitempty"`
}

// ChartBundle 图表数据与来源文件元信息
type ChartBundle struct {
	metrics.ChartData
	Sources []FileSource `json:"sources"`
}

// Report 一次上传产出的报告记录，插入后不再修改
type Report struct {
	ID             string             `json:"id"`
	OwnerID        string             `json:"ownerId"`
	RestaurantName string             `json:"restaurantName"`
	ReportType     parser.DatasetType `json:"reportType"` // 主导数据集类型
	PeriodLabel    string             `json:"periodLabel"`
	PrimaryFileRef string             `json:"primaryFileRef"`
	KPIs           metrics.KPISet     `json:"kpis"`
	Narrative      narrative.Result   `json:"narrative"`
	Charts         ChartBundle        `json:"charts"`
	CreatedAt      time.Time          `json:"createdAt"`
}
