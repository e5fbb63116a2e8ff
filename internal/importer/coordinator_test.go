package importer

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/L1quidL1ght/pulse-foundry/internal/parser"
	"github.com/L1quidL1ght/pulse-foundry/internal/storage"
	"github.com/L1quidL1ght/pulse-foundry/internal/store"
)

// stubAnalyzer 固定回复的叙事服务替身
type stubAnalyzer struct {
	reply string
	err   error
	calls int
}

func (s *stubAnalyzer) Analyze(ctx context.Context, system, user string) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.reply, nil
}

func newTestCoordinator(t *testing.T, analyzer *stubAnalyzer) *Coordinator {
	t.Helper()

	dir := t.TempDir()
	s, err := store.New(filepath.Join(dir, "pulse.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	files, err := storage.NewLocalStore(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}

	if analyzer == nil {
		return NewCoordinator(s, files, nil, 0)
	}
	return NewCoordinator(s, files, analyzer, 0)
}

const salesCSV = "Date,Category,Net Sales,Guests\n2024-11-01,Food,500,20\n2024-11-02,Beverage,300,15\n"
const laborCSV = "Labor Hours,Labor Cost\n8,120\n6.5,97.50\n"

func TestProcess_SingleSalesFile(t *testing.T) {
	t.Parallel()

	analyzer := &stubAnalyzer{reply: "Solid week.\n- Food leads\n- Guests grew\n- Tips stable\n- Promote drinks\n- Check staffing\n- Add happy hour"}
	c := newTestCoordinator(t, analyzer)

	report, err := c.Process(context.Background(), Options{
		RestaurantName: "Joe's Diner",
		OwnerID:        "u1",
		Files:          []UploadFile{{Filename: "sales.csv", Data: []byte(salesCSV)}},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if report.ReportType != parser.DatasetCategoryRollup {
		t.Fatalf("reportType = %s", report.ReportType)
	}
	if !report.KPIs.Availability.NetSales || *report.KPIs.NetSales != 800 {
		t.Fatalf("netSales = %v", report.KPIs.NetSales)
	}
	if *report.KPIs.PPA != 22.86 {
		t.Fatalf("ppa = %v", *report.KPIs.PPA)
	}
	// 周期标签从日序列推断
	if report.PeriodLabel != "2024-11-01 - 2024-11-02" {
		t.Fatalf("periodLabel = %q", report.PeriodLabel)
	}
	if !report.Narrative.Available || len(report.Narrative.Insights) != 3 {
		t.Fatalf("narrative = %+v", report.Narrative)
	}
	if analyzer.calls != 1 {
		t.Fatalf("analyzer calls = %d", analyzer.calls)
	}
}

func TestProcess_BadFileSkippedNotFatal(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t, nil)
	report, err := c.Process(context.Background(), Options{
		RestaurantName: "Joe's Diner",
		Files: []UploadFile{
			{Filename: "junk.xlsx", Data: []byte("not a workbook")},
			{Filename: "sales.csv", Data: []byte(salesCSV)},
		},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	if len(report.Charts.Sources) != 2 {
		t.Fatalf("sources = %+v", report.Charts.Sources)
	}
	if report.Charts.Sources[0].Status != "skipped" || report.Charts.Sources[0].Error == "" {
		t.Fatalf("bad file not reported: %+v", report.Charts.Sources[0])
	}
	if report.Charts.Sources[1].Status != "parsed" {
		t.Fatalf("good file not parsed: %+v", report.Charts.Sources[1])
	}
	if *report.KPIs.NetSales != 800 {
		t.Fatalf("netSales = %v", report.KPIs.NetSales)
	}
}

func TestProcess_AllFilesBadFails(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t, nil)
	_, err := c.Process(context.Background(), Options{
		RestaurantName: "Joe's Diner",
		Files:          []UploadFile{{Filename: "junk.csv", Data: []byte("a,b\n1,2\n")}},
	})
	if !errors.Is(err, ErrNoParsableFiles) {
		t.Fatalf("want ErrNoParsableFiles, got %v", err)
	}
}

func TestProcess_LaborPlusSalesBatch(t *testing.T) {
	t.Parallel()

	c := newTestCoordinator(t, nil)
	report, err := c.Process(context.Background(), Options{
		RestaurantName: "Joe's Diner",
		Files: []UploadFile{
			{Filename: "labor.csv", Data: []byte(laborCSV)},
			{Filename: "sales.csv", Data: []byte(salesCSV)},
		},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	// 人工占比 = 217.5 / 800 * 100
	if report.KPIs.LaborPercent == nil || *report.KPIs.LaborPercent != 27.19 {
		t.Fatalf("laborPercent = %v", report.KPIs.LaborPercent)
	}
}

func TestProcess_NarrativeFailureDegrades(t *testing.T) {
	t.Parallel()

	analyzer := &stubAnalyzer{err: errors.New("service unreachable")}
	c := newTestCoordinator(t, analyzer)

	report, err := c.Process(context.Background(), Options{
		RestaurantName: "Joe's Diner",
		Files:          []UploadFile{{Filename: "sales.csv", Data: []byte(salesCSV)}},
	})
	if err != nil {
		t.Fatalf("narrative failure must not fail the upload: %v", err)
	}
	if report.Narrative.Available {
		t.Fatalf("narrative should be degraded: %+v", report.Narrative)
	}
	// KPI 照常持久化
	if !report.KPIs.Availability.NetSales {
		t.Fatalf("kpis lost on narrative failure")
	}
}

func TestProcess_PersistsReport(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := store.New(filepath.Join(dir, "pulse.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	files, err := storage.NewLocalStore(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatalf("open storage: %v", err)
	}
	c := NewCoordinator(s, files, nil, 0)

	report, err := c.Process(context.Background(), Options{
		RestaurantName: "Joe's Diner",
		OwnerID:        "u1",
		Files:          []UploadFile{{Filename: "sales.csv", Data: []byte(salesCSV)}},
	})
	if err != nil {
		t.Fatalf("Process: %v", err)
	}

	stored, err := s.GetReport(report.ID)
	if err != nil {
		t.Fatalf("GetReport: %v", err)
	}
	if stored.RestaurantName != "Joe's Diner" || stored.OwnerID != "u1" {
		t.Fatalf("stored = %+v", stored)
	}

	// 原始文件已入对象存储
	data, err := files.Load(report.PrimaryFileRef)
	if err != nil {
		t.Fatalf("Load(%s): %v", report.PrimaryFileRef, err)
	}
	if string(data) != salesCSV {
		t.Fatalf("stored bytes mismatch")
	}
}
