// Package narrative 把决议后的 KPI 组装成提示词，调用文本补全服务，
// 并把纯文本回复拆成 摘要/洞察/建议
package narrative

import (
	"context"
	"fmt"
	"strings"

	"github.com/L1quidL1ght/pulse-foundry/internal/metrics"
)

// SystemInstruction 固定的系统指令
const SystemInstruction = "You are a restaurant operations analyst. " +
	"Given a KPI summary, reply in plain text only: first a short 2-3 line summary, " +
	"then bullet lines starting with \"-\": the first three bullets are insights, " +
	"the next three are recommended actions. No markdown headings, no numbering."

// Analyzer 文本补全服务
// 只约定纯文本进出，不依赖任何结构化输出
type Analyzer interface {
	Analyze(ctx context.Context, system, user string) (string, error)
}

// Result 叙事分析结果
type Result struct {
	Summary   []string `json:"summary"`
	Insights  []string `json:"insights"`
	Actions   []string `json:"actions"`
	Available bool     `json:"available"`
}

// Unavailable 叙事服务不可用时的固定降级结果
func Unavailable() Result {
	return Result{
		Summary:   []string{"Automated analysis is unavailable for this report."},
		Insights:  []string{},
		Actions:   []string{},
		Available: false,
	}
}

// BuildPrompt 组装提示词
// 只列出可用的 KPI，缺失的指标直接省略，绝不以 0 冒充
func BuildPrompt(restaurant, period string, kpis *metrics.KPISet, mix []metrics.CategorySlice) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Restaurant: %s\n", restaurant)
	if period != "" {
		fmt.Fprintf(&b, "Period: %s\n", period)
	}
	b.WriteString("KPI summary:\n")

	if kpis.Availability.NetSales {
		fmt.Fprintf(&b, "- Net sales: $%.2f\n", *kpis.NetSales)
	}
	if kpis.Availability.Guests {
		fmt.Fprintf(&b, "- Guest count: %.0f\n", *kpis.Guests)
	}
	if kpis.Availability.PPA {
		fmt.Fprintf(&b, "- Per-person average: $%.2f\n", *kpis.PPA)
	}
	if kpis.Availability.TipPercent {
		fmt.Fprintf(&b, "- Tip percentage: %.2f%%\n", *kpis.TipPercent)
	}
	if kpis.Availability.LaborPercent {
		fmt.Fprintf(&b, "- Labor percentage: %.2f%%\n", *kpis.LaborPercent)
	}

	if len(mix) > 0 {
		b.WriteString("Category mix (net sales):\n")
		for _, slice := range mix {
			fmt.Fprintf(&b, "- %s: $%.2f\n", slice.Category, slice.Sales)
		}
	}

	b.WriteString("Analyze the performance of this restaurant for the period.")
	return b.String()
}

// ParseCompletion 拆分纯文本回复
// 前 3 个非空且非列表行为摘要；列表行（- 或 •）前 3 条为洞察，随后 3 条为建议
func ParseCompletion(text string) Result {
	result := Result{
		Summary:  []string{},
		Insights: []string{},
		Actions:  []string{},
	}

	var bullets []string
	for _, line := range strings.Split(text, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		if strings.HasPrefix(line, "-") || strings.HasPrefix(line, "•") {
			bullet := strings.TrimSpace(strings.TrimLeft(line, "-•"))
			if bullet != "" {
				bullets = append(bullets, bullet)
			}
			continue
		}
		if len(result.Summary) < 3 {
			result.Summary = append(result.Summary, line)
		}
	}

	for i, bullet := range bullets {
		switch {
		case i < 3:
			result.Insights = append(result.Insights, bullet)
		case i < 6:
			result.Actions = append(result.Actions, bullet)
		}
	}

	// 空回复或完全没拆出内容时降级，不让整个上传失败
	if len(result.Summary) == 0 && len(bullets) == 0 {
		return Unavailable()
	}

	result.Available = true
	return result
}
