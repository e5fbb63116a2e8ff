// Package metrics 把多文件解析结果合并为按数据集类型分组的指标，
// 并按固定优先级决议出最终 KPI 与图表序列
package metrics

import (
	"github.com/L1quidL1ght/pulse-foundry/internal/parser"
)

// Group 同一数据集类型下所有文件的合并指标
type Group struct {
	Type      parser.DatasetType         `json:"type"`
	FileCount int                        `json:"fileCount"`
	RowCount  int                        `json:"rowCount"`
	Keys      map[parser.CanonicalKey]bool `json:"keys"` // 组内出现过的角色并集
	Metrics   parser.FileMetrics         `json:"metrics"`
	Samples   []parser.NormalizedRow     `json:"samples"`
}

// Combine 按数据集类型分组合并文件指标
// 每组使用全新累加器，不就地修改任何单文件结果
func Combine(files []*parser.FileResult) map[parser.DatasetType]*Group {
	groups := make(map[parser.DatasetType]*Group)

	for _, f := range files {
		g, ok := groups[f.Type]
		if !ok {
			g = &Group{
				Type:    f.Type,
				Keys:    make(map[parser.CanonicalKey]bool),
				Metrics: parser.NewFileMetrics(),
			}
			groups[f.Type] = g
		}

		g.FileCount++
		g.RowCount += f.RowCount

		for key := range f.Keys {
			g.Keys[key] = true
		}

		m := f.Metrics
		g.Metrics.NetSales += m.NetSales
		g.Metrics.Guests += m.Guests
		g.Metrics.Tips += m.Tips
		g.Metrics.LaborCost += m.LaborCost
		g.Metrics.LaborHours += m.LaborHours
		g.Metrics.LaborPctSamples = append(g.Metrics.LaborPctSamples, m.LaborPctSamples...)

		for cat, sales := range m.Category {
			g.Metrics.Category[cat] += sales
		}

		// 同一日历日跨文件累加，而不是产生重复键
		for date, bucket := range m.Daily {
			dst, ok := g.Metrics.Daily[date]
			if !ok {
				dst = &parser.DailyBucket{}
				g.Metrics.Daily[date] = dst
			}
			dst.Sales += bucket.Sales
			dst.Guests += bucket.Guests
			dst.Tips += bucket.Tips
		}

		// 样本按文件出现顺序截断到上限
		if remain := parser.SampleLimit - len(g.Samples); remain > 0 {
			if remain > len(f.Samples) {
				remain = len(f.Samples)
			}
			g.Samples = append(g.Samples, f.Samples[:remain]...)
		}
	}

	return groups
}
