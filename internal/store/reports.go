package store

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/L1quidL1ght/pulse-foundry/internal/metrics"
	"github.com/L1quidL1ght/pulse-foundry/internal/model"
	"github.com/L1quidL1ght/pulse-foundry/internal/narrative"
	"github.com/L1quidL1ght/pulse-foundry/internal/parser"
)

// ErrReportNotFound 报告不存在
var ErrReportNotFound = errors.New("report not found")

// InsertReport 写入一条报告记录
// 记录一次性写入，之后不做原地重算
func (s *Store) InsertReport(r *model.Report) error {
	kpisJSON, err := json.Marshal(r.KPIs)
	if err != nil {
		return fmt.Errorf("marshal kpis: %w", err)
	}
	narrativeJSON, err := json.Marshal(r.Narrative)
	if err != nil {
		return fmt.Errorf("marshal narrative: %w", err)
	}
	chartsJSON, err := json.Marshal(r.Charts)
	if err != nil {
		return fmt.Errorf("marshal charts: %w", err)
	}

	_, err = s.db.Exec(`
		INSERT INTO reports (
			id, owner_id, restaurant_name, report_type, period_label,
			primary_file_ref, kpis_json, narrative_json, charts_json, created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		r.ID, r.OwnerID, r.RestaurantName, string(r.ReportType), r.PeriodLabel,
		r.PrimaryFileRef, string(kpisJSON), string(narrativeJSON), string(chartsJSON),
		r.CreatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("failed to insert report: %w", err)
	}
	return nil
}

// GetReport 按 ID 读取报告
func (s *Store) GetReport(id string) (*model.Report, error) {
	row := s.db.QueryRow(`
		SELECT id, owner_id, restaurant_name, report_type, period_label,
		       primary_file_ref, kpis_json, narrative_json, charts_json, created_at
		FROM reports WHERE id = ?
	`, id)

	report, err := scanReport(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrReportNotFound
	}
	return report, err
}

// ListReports 按 owner 倒序列出报告；owner 为空时列出全部
func (s *Store) ListReports(ownerID string, limit int) ([]*model.Report, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT id, owner_id, restaurant_name, report_type, period_label,
		       primary_file_ref, kpis_json, narrative_json, charts_json, created_at
		FROM reports`
	args := []interface{}{}
	if ownerID != "" {
		query += " WHERE owner_id = ?"
		args = append(args, ownerID)
	}
	query += " ORDER BY created_at DESC LIMIT ?"
	args = append(args, limit)

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query reports: %w", err)
	}
	defer rows.Close()

	var reports []*model.Report
	for rows.Next() {
		report, err := scanReport(rows)
		if err != nil {
			return nil, err
		}
		reports = append(reports, report)
	}
	return reports, rows.Err()
}

// CountReports 报告总数
func (s *Store) CountReports() (int, error) {
	var count int
	err := s.db.QueryRow("SELECT COUNT(*) FROM reports").Scan(&count)
	return count, err
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanReport(row rowScanner) (*model.Report, error) {
	var (
		r             model.Report
		reportType    string
		kpisJSON      string
		narrativeJSON string
		chartsJSON    string
		createdAt     string
	)

	err := row.Scan(
		&r.ID, &r.OwnerID, &r.RestaurantName, &reportType, &r.PeriodLabel,
		&r.PrimaryFileRef, &kpisJSON, &narrativeJSON, &chartsJSON, &createdAt,
	)
	if err != nil {
		return nil, err
	}

	r.ReportType = parser.DatasetType(reportType)
	r.KPIs = metrics.KPISet{}
	if err := json.Unmarshal([]byte(kpisJSON), &r.KPIs); err != nil {
		return nil, fmt.Errorf("unmarshal kpis: %w", err)
	}
	r.Narrative = narrative.Result{}
	if err := json.Unmarshal([]byte(narrativeJSON), &r.Narrative); err != nil {
		return nil, fmt.Errorf("unmarshal narrative: %w", err)
	}
	r.Charts = model.ChartBundle{}
	if err := json.Unmarshal([]byte(chartsJSON), &r.Charts); err != nil {
		return nil, fmt.Errorf("unmarshal charts: %w", err)
	}
	if t, err := time.Parse(time.RFC3339, createdAt); err == nil {
		r.CreatedAt = t
	}

	return &r, nil
}
