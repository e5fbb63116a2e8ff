package parser

import (
	"math"
	"regexp"
	"strconv"
	"strings"
	"time"
)

var headerSpaceRe = regexp.MustCompile(`[\s_]+`)

// NormalizeHeader 规范化表头
// 转小写，把空白/下划线串压缩为单个空格并去除首尾空格
func NormalizeHeader(raw string) string {
	s := strings.ToLower(raw)
	s = headerSpaceRe.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

// ParseNumeric 安全解析数值单元格
// 去除货币符号、千分位、百分号；括号表示负数；解析失败返回 nil
// 所有指标的数值都必须经过这里，保证口径一致
func ParseNumeric(raw string) *float64 {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	s = strings.ReplaceAll(s, "$", "")
	s = strings.ReplaceAll(s, ",", "")
	s = strings.ReplaceAll(s, "％", "%")
	s = strings.ReplaceAll(s, "%", "")
	s = strings.TrimSpace(s)

	negative := false
	if strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")") {
		negative = true
		s = strings.TrimSpace(s[1 : len(s)-1])
	}

	if s == "" {
		return nil
	}

	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return nil
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return nil
	}
	if negative {
		f = -f
	}
	return &f
}

// 常见日期格式，按出现频率排序
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	"01/02/2006",
	"1/2/2006",
	"01-02-2006",
	"1/2/06",
	"01/02/06",
	"Jan 2, 2006",
	"January 2, 2006",
	"2 Jan 2006",
	"02 Jan 2006",
	"2006年1月2日",
}

// NormalizeDateCell 规范化日期单元格为 YYYY-MM-DD
// 只取日历日期，不做时区换算；无法解析的字符串原样返回，
// 作为不透明的分组键（同一拼写仍可正确聚合）
func NormalizeDateCell(raw string) *string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			iso := t.Format("2006-01-02")
			return &iso
		}
	}

	// 无法识别的日期拼写，保留原文作为分组键
	return &s
}

// NormalizeTextCell 规范化文本单元格，空值返回 nil
func NormalizeTextCell(raw string) *string {
	s := strings.TrimSpace(raw)
	if s == "" {
		return nil
	}
	return &s
}

// MeaningfulRow 判断是否为有效数据行（至少一个非空单元格）
func MeaningfulRow(row []string) bool {
	for _, cell := range row {
		if strings.TrimSpace(cell) != "" {
			return true
		}
	}
	return false
}
