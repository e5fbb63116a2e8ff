// Package importer 上传处理协调器
// 串起 读行 -> 解析 -> 合并 -> KPI 决议 -> 叙事分析 -> 持久化 的完整流程
package importer

import (
	"context"
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"github.com/L1quidL1ght/pulse-foundry/internal/metrics"
	"github.com/L1quidL1ght/pulse-foundry/internal/model"
	"github.com/L1quidL1ght/pulse-foundry/internal/narrative"
	"github.com/L1quidL1ght/pulse-foundry/internal/parser"
	"github.com/L1quidL1ght/pulse-foundry/internal/reader"
	"github.com/L1quidL1ght/pulse-foundry/internal/storage"
	"github.com/L1quidL1ght/pulse-foundry/internal/store"
)

// ErrNoParsableFiles 批次里没有任何可解析的文件
var ErrNoParsableFiles = errors.New("no parsable files in batch")

// Coordinator 上传协调器
// 单个请求内文件顺序处理；请求之间无共享可变状态
type Coordinator struct {
	store          *store.Store
	files          *storage.LocalStore
	analyzer       narrative.Analyzer
	analyzeTimeout time.Duration
}

// NewCoordinator 创建协调器
// analyzer 为 nil 时叙事分析直接降级为不可用
func NewCoordinator(s *store.Store, files *storage.LocalStore, analyzer narrative.Analyzer, analyzeTimeout time.Duration) *Coordinator {
	if analyzeTimeout <= 0 {
		analyzeTimeout = 60 * time.Second
	}
	return &Coordinator{
		store:          s,
		files:          files,
		analyzer:       analyzer,
		analyzeTimeout: analyzeTimeout,
	}
}

// UploadFile 一个上传文件
type UploadFile struct {
	Filename string
	Data     []byte
}

// Options 一次上传请求的参数
type Options struct {
	RestaurantName string
	PeriodLabel    string
	OwnerID        string
	Files          []UploadFile
}

// Process 处理一次上传，返回已持久化的报告记录
// 单个文件解析失败时跳过并记录，不拖垮整个批次；
// 全部文件都失败才算请求失败
func (c *Coordinator) Process(ctx context.Context, opts Options) (*model.Report, error) {
	var (
		parsed  []*parser.FileResult
		sources []model.FileSource
	)

	for _, f := range opts.Files {
		source := model.FileSource{Filename: f.Filename}

		ref, err := c.files.Save(f.Filename, f.Data)
		if err != nil {
			return nil, err
		}
		source.StorageRef = ref

		result, err := c.parseOne(f)
		if err != nil {
			log.Printf("skip file %s: %v", f.Filename, err)
			source.Status = "skipped"
			source.Error = err.Error()
			source.Type = parser.DatasetUnknown
			sources = append(sources, source)
			continue
		}

		source.Status = "parsed"
		source.Type = result.Type
		source.RowCount = result.RowCount
		sources = append(sources, source)
		parsed = append(parsed, result)
	}

	if len(parsed) == 0 {
		return nil, ErrNoParsableFiles
	}

	groups := metrics.Combine(parsed)
	kpis := metrics.Resolve(groups)
	charts := metrics.BuildCharts(groups)

	period := opts.PeriodLabel
	if period == "" {
		period = inferPeriod(charts.DailySales)
	}

	report := &model.Report{
		ID:             uuid.New().String(),
		OwnerID:        opts.OwnerID,
		RestaurantName: opts.RestaurantName,
		ReportType:     dominantType(groups),
		PeriodLabel:    period,
		PrimaryFileRef: sources[0].StorageRef,
		KPIs:           *kpis,
		Narrative:      c.narrate(ctx, opts.RestaurantName, period, kpis, charts.CategoryMix),
		Charts: model.ChartBundle{
			ChartData: charts,
			Sources:   sources,
		},
		CreatedAt: time.Now(),
	}

	if err := c.store.InsertReport(report); err != nil {
		return nil, err
	}
	return report, nil
}

func (c *Coordinator) parseOne(f UploadFile) (*parser.FileResult, error) {
	rows, err := reader.ReadRows(f.Filename, f.Data)
	if err != nil {
		return nil, err
	}
	return parser.ParseFile(f.Filename, rows)
}

// narrate 调用叙事服务；任何失败都降级为固定的不可用结果
func (c *Coordinator) narrate(ctx context.Context, restaurant, period string, kpis *metrics.KPISet, mix []metrics.CategorySlice) narrative.Result {
	if c.analyzer == nil {
		return narrative.Unavailable()
	}

	prompt := narrative.BuildPrompt(restaurant, period, kpis, mix)

	analyzeCtx, cancel := context.WithTimeout(ctx, c.analyzeTimeout)
	defer cancel()

	text, err := c.analyzer.Analyze(analyzeCtx, narrative.SystemInstruction, prompt)
	if err != nil {
		log.Printf("narrative analysis failed: %v", err)
		return narrative.Unavailable()
	}
	return narrative.ParseCompletion(text)
}

// 报告主导类型的决胜顺序（文件数相同时靠前的类型胜出）
var reportTypePriority = []parser.DatasetType{
	parser.DatasetItemSales,
	parser.DatasetDailySales,
	parser.DatasetCategoryRollup,
	parser.DatasetGeneralSales,
	parser.DatasetLabor,
	parser.DatasetTips,
	parser.DatasetUnknown,
}

// dominantType 推断整份报告的主导数据集类型：文件最多的组
func dominantType(groups map[parser.DatasetType]*metrics.Group) parser.DatasetType {
	best := parser.DatasetUnknown
	bestCount := 0
	for _, typ := range reportTypePriority {
		if g, ok := groups[typ]; ok && g.FileCount > bestCount {
			best = typ
			bestCount = g.FileCount
		}
	}
	return best
}

// inferPeriod 从日序列推断统计周期标签
func inferPeriod(daily []metrics.DailyPoint) string {
	if len(daily) == 0 {
		return ""
	}
	first := daily[0].Date
	last := daily[len(daily)-1].Date
	if first == last {
		return first
	}
	return first + " - " + last
}
