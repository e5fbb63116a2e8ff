package parser

import (
	"errors"
	"fmt"
)

var (
	// ErrEmptyFile 文件没有任何行
	ErrEmptyFile = errors.New("file has no rows")
	// ErrNoHeaderRow 探测不到表头行
	ErrNoHeaderRow = errors.New("no header row found")
)

// datasetRule 数据集类型判定规则
// 按数组顺序求值，先匹配先定型；类型只取决于角色集合，与行数据无关
type datasetRule struct {
	Match func(keys map[CanonicalKey]bool) bool
	Type  DatasetType
}

var datasetRules = []datasetRule{
	// 人工表结构特殊，只要出现人工角色就优先定型，避免被误判为销售表
	{
		Match: func(k map[CanonicalKey]bool) bool {
			return k[KeyLaborCost] || k[KeyLaborHours] || k[KeyLaborPercent]
		},
		Type: DatasetLabor,
	},
	// 销售表按分组粒度从细到粗：单品 > 分类 > 日期 > 无分组
	{
		Match: func(k map[CanonicalKey]bool) bool { return k[KeyNetSales] && k[KeyItem] },
		Type:  DatasetItemSales,
	},
	{
		Match: func(k map[CanonicalKey]bool) bool { return k[KeyNetSales] && k[KeyCategory] },
		Type:  DatasetCategoryRollup,
	},
	{
		Match: func(k map[CanonicalKey]bool) bool { return k[KeyNetSales] && k[KeyDate] },
		Type:  DatasetDailySales,
	},
	{
		Match: func(k map[CanonicalKey]bool) bool { return k[KeyTips] && !k[KeyNetSales] },
		Type:  DatasetTips,
	},
	{
		Match: func(k map[CanonicalKey]bool) bool { return k[KeyNetSales] },
		Type:  DatasetGeneralSales,
	},
	{
		Match: func(k map[CanonicalKey]bool) bool { return k[KeyTips] },
		Type:  DatasetTips,
	},
}

// DetermineDatasetType 根据角色集合判定数据集类型
func DetermineDatasetType(keys map[CanonicalKey]bool) DatasetType {
	for _, rule := range datasetRules {
		if rule.Match(keys) {
			return rule.Type
		}
	}
	return DatasetUnknown
}

// ParseFile 解析单个文件的行数据
// rows 为行读取层归一后的二维表（CSV 与 Excel 口径一致）
func ParseFile(filename string, rows [][]string) (*FileResult, error) {
	if len(rows) == 0 {
		return nil, fmt.Errorf("%s: %w", filename, ErrEmptyFile)
	}

	headerIdx := FindHeaderRow(rows)
	if headerIdx < 0 {
		return nil, fmt.Errorf("%s: %w", filename, ErrNoHeaderRow)
	}

	cols := ClassifyColumns(rows[headerIdx])

	// 角色 -> 列索引
	keyIdx := make(map[CanonicalKey]int)
	keys := make(map[CanonicalKey]bool)
	for _, col := range cols {
		if col.Key != "" {
			keyIdx[col.Key] = col.Index
			keys[col.Key] = true
		}
	}

	result := &FileResult{
		Filename: filename,
		Type:     DetermineDatasetType(keys),
		Columns:  cols,
		Keys:     keys,
		Metrics:  NewFileMetrics(),
	}

	for i := headerIdx + 1; i < len(rows); i++ {
		row := rows[i]
		if !MeaningfulRow(row) {
			continue
		}

		record := extractRow(row, keyIdx)
		if record.Empty() {
			continue
		}

		result.RowCount++
		accumulate(&result.Metrics, record)

		if len(result.Samples) < SampleLimit {
			result.Samples = append(result.Samples, record)
		}
	}

	return result, nil
}

// extractRow 按角色映射提取单行的类型化值
func extractRow(row []string, keyIdx map[CanonicalKey]int) NormalizedRow {
	cell := func(key CanonicalKey) (string, bool) {
		idx, ok := keyIdx[key]
		if !ok || idx >= len(row) {
			return "", false
		}
		return row[idx], true
	}

	numeric := func(key CanonicalKey) *float64 {
		raw, ok := cell(key)
		if !ok {
			return nil
		}
		return ParseNumeric(raw)
	}

	var record NormalizedRow
	if raw, ok := cell(KeyDate); ok {
		record.Date = NormalizeDateCell(raw)
	}
	if raw, ok := cell(KeyCategory); ok {
		record.Category = NormalizeTextCell(raw)
	}
	if raw, ok := cell(KeyItem); ok {
		record.Item = NormalizeTextCell(raw)
	}
	record.NetSales = numeric(KeyNetSales)
	record.Guests = numeric(KeyGuests)
	record.Tips = numeric(KeyTips)
	record.LaborCost = numeric(KeyLaborCost)
	record.LaborHours = numeric(KeyLaborHours)
	record.LaborPercent = numeric(KeyLaborPercent)
	return record
}

// accumulate 把单行并入文件指标
func accumulate(m *FileMetrics, r NormalizedRow) {
	if r.NetSales != nil {
		m.NetSales += *r.NetSales
	}
	if r.Guests != nil {
		m.Guests += *r.Guests
	}
	if r.Tips != nil {
		m.Tips += *r.Tips
	}
	if r.LaborCost != nil {
		m.LaborCost += *r.LaborCost
	}
	if r.LaborHours != nil {
		m.LaborHours += *r.LaborHours
	}
	if r.LaborPercent != nil {
		m.LaborPctSamples = append(m.LaborPctSamples, *r.LaborPercent)
	}

	if r.Category != nil && r.NetSales != nil {
		m.Category[*r.Category] += *r.NetSales
	}

	if r.Date != nil {
		bucket, ok := m.Daily[*r.Date]
		if !ok {
			bucket = &DailyBucket{}
			m.Daily[*r.Date] = bucket
		}
		if r.NetSales != nil {
			bucket.Sales += *r.NetSales
		}
		if r.Guests != nil {
			bucket.Guests += *r.Guests
		}
		if r.Tips != nil {
			bucket.Tips += *r.Tips
		}
	}
}
