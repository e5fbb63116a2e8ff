package parser

import (
	"regexp"
	"strings"
)

// HeaderSearchWindow 表头探测的行数窗口
// 销售系统导出的文件前面经常带标题行/筛选条件行
const HeaderSearchWindow = 25

// 表头探测关键词，命中数最多的行判定为表头
var headerKeywords = []string{
	"sales", "net", "guest", "cover", "tip", "labor",
	"category", "item", "date", "revenue", "hours",
}

// FindHeaderRow 在前 HeaderSearchWindow 行内探测表头行
// 返回行索引；没有任何关键词命中时返回 -1
func FindHeaderRow(rows [][]string) int {
	limit := len(rows)
	if limit > HeaderSearchWindow {
		limit = HeaderSearchWindow
	}

	bestIdx := -1
	bestScore := 0

	for i := 0; i < limit; i++ {
		score := 0
		for _, kw := range headerKeywords {
			for _, cell := range rows[i] {
				if strings.Contains(NormalizeHeader(cell), kw) {
					score++
					break
				}
			}
		}
		// 平分时取行号最小的
		if score > bestScore {
			bestScore = score
			bestIdx = i
		}
	}

	return bestIdx
}

// roleRule 列角色规则
// 规则按数组顺序求值，先匹配先锁定；一个角色至多绑定一列
type roleRule struct {
	Key        CanonicalKey
	Patterns   []*regexp.Regexp
	AllowGross bool // 是否允许绑定到毛销售额列
}

// 角色规则表。net_sales 必须排第一：
// 同时像净销售额和后续角色的列会被优先锁定为 net_sales
var roleRules = []roleRule{
	{
		Key: KeyNetSales,
		Patterns: compile(
			`net\s?sales?`,
			`net\s?revenue`,
			`net\s?amount`,
			`net\s?total`,
		),
	},
	{
		Key: KeyTips,
		Patterns: compile(
			`\btips?\b`,
			`gratuit`,
			`tip\s?amount`,
		),
	},
	{
		Key: KeyGuests,
		Patterns: compile(
			`guests?`,
			`covers?\b`,
			`guest\s?count`,
			`\bpax\b`,
			`customers?\b`,
		),
	},
	{
		Key: KeyLaborCost,
		Patterns: compile(
			`labou?r\s?cost`,
			`labou?r\s?\$`,
			`payroll`,
			`wages?\b`,
		),
	},
	{
		Key: KeyLaborHours,
		Patterns: compile(
			`labou?r\s?hours?`,
			`hours\s?worked`,
			`^hours$`,
		),
	},
	{
		Key: KeyLaborPercent,
		Patterns: compile(
			`labou?r\s?%`,
			`labou?r\s?percent`,
			`labou?r\s?pct`,
		),
	},
	{
		Key: KeyDate,
		Patterns: compile(
			`\bdate\b`,
			`^day$`,
			`business\s?day`,
		),
	},
	{
		Key: KeyCategory,
		Patterns: compile(
			`category`,
			`\bdept\b`,
			`department`,
			`sales\s?group`,
		),
	},
	{
		Key: KeyItem,
		Patterns: compile(
			`\bitems?\b`,
			`menu\s?item`,
			`product`,
			`\bdish\b`,
			`\bsku\b`,
			`\bplu\b`,
		),
	},
}

// 兜底排除词：包含这些词的 sales 列不视为净销售额
var netSalesExcludeRe = regexp.MustCompile(`tax|discount|void|refund|credit`)

func compile(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, 0, len(patterns))
	for _, p := range patterns {
		out = append(out, regexp.MustCompile(p))
	}
	return out
}

// ClassifyColumns 为表头的每一列分配语义角色
func ClassifyColumns(headers []string) []ColumnMeta {
	cols := make([]ColumnMeta, len(headers))
	for i, raw := range headers {
		norm := NormalizeHeader(raw)
		cols[i] = ColumnMeta{
			Raw:        raw,
			Normalized: norm,
			Index:      i,
			IsGross:    strings.Contains(norm, "gross"),
		}
	}

	assigned := make(map[CanonicalKey]bool)

	// 按规则优先级逐列扫描，首个未分配的命中列获得角色
	for _, rule := range roleRules {
		if assigned[rule.Key] {
			continue
		}
		for i := range cols {
			if cols[i].Key != "" {
				continue
			}
			if cols[i].IsGross && !rule.AllowGross {
				continue
			}
			if matchAny(cols[i].Normalized, rule.Patterns) {
				cols[i].Key = rule.Key
				assigned[rule.Key] = true
				break
			}
		}
	}

	// 兜底：很多文件把净销售额列只标成 "Sales"
	if !assigned[KeyNetSales] {
		for i := range cols {
			if cols[i].Key != "" || cols[i].IsGross {
				continue
			}
			if strings.Contains(cols[i].Normalized, "sales") &&
				!netSalesExcludeRe.MatchString(cols[i].Normalized) {
				cols[i].Key = KeyNetSales
				break
			}
		}
	}

	return cols
}

func matchAny(s string, patterns []*regexp.Regexp) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}
