package parser

// CanonicalKey 列的语义角色
type CanonicalKey string

const (
	KeyNetSales     CanonicalKey = "net_sales"
	KeyGuests       CanonicalKey = "guests"
	KeyTips         CanonicalKey = "tips"
	KeyLaborCost    CanonicalKey = "labor_cost"
	KeyLaborHours   CanonicalKey = "labor_hours"
	KeyLaborPercent CanonicalKey = "labor_percent"
	KeyDate         CanonicalKey = "date"
	KeyCategory     CanonicalKey = "category"
	KeyItem         CanonicalKey = "item"
)

// DatasetType 文件数据集类型
type DatasetType string

const (
	DatasetItemSales      DatasetType = "item_sales"
	DatasetCategoryRollup DatasetType = "category_rollup"
	DatasetDailySales     DatasetType = "daily_sales"
	DatasetLabor          DatasetType = "labor"
	DatasetTips           DatasetType = "tips"
	DatasetGeneralSales   DatasetType = "general_sales"
	DatasetUnknown        DatasetType = "unknown"
)

// ColumnMeta 单列的识别结果
type ColumnMeta struct {
	Raw        string       `json:"raw"`        // 原始表头文本
	Normalized string       `json:"normalized"` // 规范化后的表头
	Index      int          `json:"index"`      // 列索引
	IsGross    bool         `json:"isGross"`    // 是否为毛销售额列
	Key        CanonicalKey `json:"key"`        // 语义角色，空表示未识别
}

// NormalizedRow 规范化后的单行业务记录
// 缺列或空值时字段为 nil，绝不以 0 代替
type NormalizedRow struct {
	Date         *string  `json:"date"`
	Category     *string  `json:"category"`
	Item         *string  `json:"item"`
	NetSales     *float64 `json:"netSales"`
	Guests       *float64 `json:"guests"`
	Tips         *float64 `json:"tips"`
	LaborCost    *float64 `json:"laborCost"`
	LaborHours   *float64 `json:"laborHours"`
	LaborPercent *float64 `json:"laborPercent"`
}

// Empty 判断整行是否为空记录
func (r NormalizedRow) Empty() bool {
	return r.Date == nil && r.Category == nil && r.Item == nil &&
		r.NetSales == nil && r.Guests == nil && r.Tips == nil &&
		r.LaborCost == nil && r.LaborHours == nil && r.LaborPercent == nil
}

// DailyBucket 单个日期的累计值
type DailyBucket struct {
	Sales  float64 `json:"sales"`
	Guests float64 `json:"guests"`
	Tips   float64 `json:"tips"`
}

// FileMetrics 单文件的累计指标
type FileMetrics struct {
	NetSales        float64                 `json:"netSales"`
	Guests          float64                 `json:"guests"`
	Tips            float64                 `json:"tips"`
	LaborCost       float64                 `json:"laborCost"`
	LaborHours      float64                 `json:"laborHours"`
	LaborPctSamples []float64               `json:"laborPctSamples"` // 逐行人工成本占比样本，取平均用
	Category        map[string]float64      `json:"category"`        // 分类 -> 净销售额
	Daily           map[string]*DailyBucket `json:"daily"`           // 日期 -> 当日累计
}

// NewFileMetrics 创建空指标集
func NewFileMetrics() FileMetrics {
	return FileMetrics{
		Category: make(map[string]float64),
		Daily:    make(map[string]*DailyBucket),
	}
}

// FileResult 单文件解析结果
type FileResult struct {
	Filename string                `json:"filename"`
	Type     DatasetType           `json:"type"`
	Columns  []ColumnMeta          `json:"columns"`
	Keys     map[CanonicalKey]bool `json:"keys"` // 本文件具备的语义角色
	Metrics  FileMetrics           `json:"metrics"`
	Samples  []NormalizedRow       `json:"samples"` // 最多保留 SampleLimit 行用于排查
	RowCount int                   `json:"rowCount"`
}

// SampleLimit 保留的样本行上限
const SampleLimit = 50
