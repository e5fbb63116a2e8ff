package metrics

import (
	"math"
	"sort"

	"github.com/L1quidL1ght/pulse-foundry/internal/parser"
)

// KPI 决议优先级：越靠前的数据集类型越权威
// 一个指标只取第一个同时存在且具备对应角色的组
var (
	netSalesPriority = []parser.DatasetType{
		parser.DatasetItemSales,
		parser.DatasetDailySales,
		parser.DatasetCategoryRollup,
		parser.DatasetGeneralSales,
	}
	guestsPriority = []parser.DatasetType{
		parser.DatasetItemSales,
		parser.DatasetDailySales,
		parser.DatasetCategoryRollup,
		parser.DatasetGeneralSales,
	}
	tipsPriority = []parser.DatasetType{
		parser.DatasetTips,
		parser.DatasetItemSales,
		parser.DatasetDailySales,
		parser.DatasetCategoryRollup,
		parser.DatasetGeneralSales,
	}
	laborPriority = []parser.DatasetType{
		parser.DatasetLabor,
	}
	// 图表取数顺序：净销售额优先级之外补上 category_rollup 的日期数据
	chartDailyPriority = []parser.DatasetType{
		parser.DatasetItemSales,
		parser.DatasetDailySales,
		parser.DatasetCategoryRollup,
		parser.DatasetGeneralSales,
	}
	chartCategoryPriority = []parser.DatasetType{
		parser.DatasetCategoryRollup,
		parser.DatasetItemSales,
		parser.DatasetDailySales,
		parser.DatasetGeneralSales,
	}
)

// Availability KPI 可用标记
// "没有数据" 与 "数值为 0" 必须可区分
type Availability struct {
	NetSales     bool `json:"netSales"`
	Guests       bool `json:"guests"`
	PPA          bool `json:"ppa"`
	TipPercent   bool `json:"tipPercent"`
	LaborPercent bool `json:"laborPercent"`
}

// KPISet 决议后的顶层 KPI
// 不可用的指标为 nil，同时在 Availability 中标记
type KPISet struct {
	NetSales     *float64     `json:"netSales"`
	Guests       *float64     `json:"guests"`
	PPA          *float64     `json:"ppa"`
	TipPercent   *float64     `json:"tipPercent"`
	LaborPercent *float64     `json:"laborPercent"`
	Tips         *float64     `json:"tips"`      // 原始小费总额
	LaborCost    *float64     `json:"laborCost"` // 原始人工成本总额
	Availability Availability `json:"availability"`
}

// DailyPoint 日销售序列点
type DailyPoint struct {
	Date   string  `json:"date"`
	Sales  float64 `json:"sales"`
	Guests float64 `json:"guests"`
	Tips   float64 `json:"tips"`
}

// PPAPoint 人均消费趋势点
type PPAPoint struct {
	Date string  `json:"date"`
	PPA  float64 `json:"ppa"`
}

// CategorySlice 分类构成切片
type CategorySlice struct {
	Category string  `json:"category"`
	Sales    float64 `json:"sales"`
}

// ChartData 图表数据
type ChartData struct {
	DailySales  []DailyPoint    `json:"dailySales"`
	PPATrend    []PPAPoint      `json:"ppaTrend"`
	CategoryMix []CategorySlice `json:"categoryMix"`
}

// Resolve 从合并后的各组中决议顶层 KPI
func Resolve(groups map[parser.DatasetType]*Group) *KPISet {
	kpis := &KPISet{}

	// 净销售额
	netGroup := pick(groups, netSalesPriority, parser.KeyNetSales)
	if netGroup != nil {
		kpis.NetSales = round2p(netGroup.Metrics.NetSales)
		kpis.Availability.NetSales = true
	}

	// 客数
	guestGroup := pick(groups, guestsPriority, parser.KeyGuests)
	if guestGroup != nil {
		kpis.Guests = roundIntP(guestGroup.Metrics.Guests)
		kpis.Availability.Guests = true
	}

	// 人均消费：只允许用净销售额来源组自身的客数，
	// 避免把不同数据集的人群混进同一个比值
	if netGroup != nil && netGroup.Keys[parser.KeyGuests] && netGroup.Metrics.Guests > 0 {
		kpis.PPA = round2p(netGroup.Metrics.NetSales / netGroup.Metrics.Guests)
		kpis.Availability.PPA = true
	}

	// 小费及占比
	tipGroup := pick(groups, tipsPriority, parser.KeyTips)
	if tipGroup != nil {
		kpis.Tips = round2p(tipGroup.Metrics.Tips)
		if netGroup != nil && netGroup.Metrics.NetSales != 0 {
			kpis.TipPercent = round2p(tipGroup.Metrics.Tips / netGroup.Metrics.NetSales * 100)
			kpis.Availability.TipPercent = true
		}
	}

	// 人工占比：优先用逐行样本均值（现成比值比两套总和的比值可信），
	// 没有样本时退化为 人工成本/净销售额
	laborGroup := pickAny(groups, laborPriority)
	if laborGroup != nil {
		if laborGroup.Keys[parser.KeyLaborCost] {
			kpis.LaborCost = round2p(laborGroup.Metrics.LaborCost)
		}
		if samples := laborGroup.Metrics.LaborPctSamples; len(samples) > 0 {
			kpis.LaborPercent = round2p(average(samples))
			kpis.Availability.LaborPercent = true
		} else if laborGroup.Keys[parser.KeyLaborCost] &&
			netGroup != nil && netGroup.Metrics.NetSales != 0 {
			kpis.LaborPercent = round2p(laborGroup.Metrics.LaborCost / netGroup.Metrics.NetSales * 100)
			kpis.Availability.LaborPercent = true
		}
	}

	return kpis
}

// BuildCharts 生成图表序列
func BuildCharts(groups map[parser.DatasetType]*Group) ChartData {
	charts := ChartData{}

	var daily map[string]*parser.DailyBucket
	for _, typ := range chartDailyPriority {
		if g, ok := groups[typ]; ok && len(g.Metrics.Daily) > 0 {
			daily = g.Metrics.Daily
			break
		}
	}

	if daily != nil {
		dates := make([]string, 0, len(daily))
		for d := range daily {
			dates = append(dates, d)
		}
		// ISO 日期串按字典序升序即为时间升序
		sort.Strings(dates)

		for _, d := range dates {
			b := daily[d]
			charts.DailySales = append(charts.DailySales, DailyPoint{
				Date:   d,
				Sales:  round2(b.Sales),
				Guests: b.Guests,
				Tips:   round2(b.Tips),
			})
			// 除零保护：只有有客数的日期才计算人均
			if b.Guests > 0 {
				charts.PPATrend = append(charts.PPATrend, PPAPoint{
					Date: d,
					PPA:  round2(b.Sales / b.Guests),
				})
			}
		}
	}

	var category map[string]float64
	for _, typ := range chartCategoryPriority {
		if g, ok := groups[typ]; ok && len(g.Metrics.Category) > 0 {
			category = g.Metrics.Category
			break
		}
	}

	for cat, sales := range category {
		charts.CategoryMix = append(charts.CategoryMix, CategorySlice{
			Category: cat,
			Sales:    round2(sales),
		})
	}
	// 按销售额降序，同额按名称保证确定性
	sort.Slice(charts.CategoryMix, func(i, j int) bool {
		a, b := charts.CategoryMix[i], charts.CategoryMix[j]
		if a.Sales != b.Sales {
			return a.Sales > b.Sales
		}
		return a.Category < b.Category
	})

	return charts
}

// pick 按优先级取第一个存在且具备指定角色的组
func pick(groups map[parser.DatasetType]*Group, priority []parser.DatasetType, key parser.CanonicalKey) *Group {
	for _, typ := range priority {
		if g, ok := groups[typ]; ok && g.Keys[key] {
			return g
		}
	}
	return nil
}

// pickAny 按优先级取第一个存在的组
func pickAny(groups map[parser.DatasetType]*Group, priority []parser.DatasetType) *Group {
	for _, typ := range priority {
		if g, ok := groups[typ]; ok {
			return g
		}
	}
	return nil
}

func average(values []float64) float64 {
	sum := 0.0
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

func round2p(v float64) *float64 {
	r := round2(v)
	return &r
}

func roundIntP(v float64) *float64 {
	r := math.Round(v)
	return &r
}
