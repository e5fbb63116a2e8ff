package api

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/gin-gonic/gin"

	"github.com/L1quidL1ght/pulse-foundry/internal/config"
	"github.com/L1quidL1ght/pulse-foundry/internal/importer"
	"github.com/L1quidL1ght/pulse-foundry/internal/model"
	"github.com/L1quidL1ght/pulse-foundry/internal/storage"
	"github.com/L1quidL1ght/pulse-foundry/internal/store"
)

const salesCSV = `Date,Category,Net Sales,Guests,Tips
2025-06-01,Food,500.00,20,60.00
2025-06-01,Drinks,300.00,15,40.00
2025-06-02,Food,450.00,18,55.00
`

func newTestRouter(t *testing.T) (*gin.Engine, *store.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dir := t.TempDir()
	st, err := store.New(filepath.Join(dir, "pulse.db"))
	if err != nil {
		t.Fatalf("init store: %v", err)
	}
	t.Cleanup(func() { _ = st.Close() })

	files, err := storage.NewLocalStore(filepath.Join(dir, "uploads"))
	if err != nil {
		t.Fatalf("init storage: %v", err)
	}

	coordinator := importer.NewCoordinator(st, files, nil, 0)

	r := gin.New()
	h := NewHandler(st, coordinator, config.DefaultConfig())
	h.RegisterRoutes(r.Group("/api"))
	return r, st
}

// multipartUpload 构造一个多文件上传请求体
func multipartUpload(t *testing.T, restaurantName string, files map[string]string) (*bytes.Buffer, string) {
	t.Helper()
	buf := &bytes.Buffer{}
	w := multipart.NewWriter(buf)
	if restaurantName != "" {
		if err := w.WriteField("restaurantName", restaurantName); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	for name, content := range files {
		part, err := w.CreateFormFile("files", name)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		if _, err := part.Write([]byte(content)); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return buf, w.FormDataContentType()
}

func TestCreateReport_EndToEnd(t *testing.T) {
	r, st := newTestRouter(t)

	body, contentType := multipartUpload(t, "Golden Fork", map[string]string{
		"sales.csv": salesCSV,
	})
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("X-User-ID", "user-7")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}

	var report model.Report
	if err := json.Unmarshal(w.Body.Bytes(), &report); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if report.ID == "" {
		t.Fatal("expected report id")
	}
	if report.OwnerID != "user-7" {
		t.Fatalf("unexpected owner: %q", report.OwnerID)
	}
	if report.KPIs.NetSales == nil || *report.KPIs.NetSales != 1250 {
		t.Fatalf("unexpected net sales: %+v", report.KPIs.NetSales)
	}
	if report.Narrative.Available {
		t.Fatal("narrative should be unavailable without analyzer")
	}

	// 入库后可以按 id 读回
	stored, err := st.GetReport(report.ID)
	if err != nil {
		t.Fatalf("load stored report: %v", err)
	}
	if stored.RestaurantName != "Golden Fork" {
		t.Fatalf("unexpected name: %q", stored.RestaurantName)
	}
}

func TestCreateReport_MissingRestaurantName(t *testing.T) {
	r, _ := newTestRouter(t)

	body, contentType := multipartUpload(t, "", map[string]string{"sales.csv": salesCSV})
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
}

func TestCreateReport_UnsupportedExtension(t *testing.T) {
	r, _ := newTestRouter(t)

	body, contentType := multipartUpload(t, "Golden Fork", map[string]string{"notes.pdf": "x"})
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
}

func TestCreateReport_AllFilesUnparsable(t *testing.T) {
	r, _ := newTestRouter(t)

	// 扩展名合法但内容为空，解析阶段才失败
	body, contentType := multipartUpload(t, "Golden Fork", map[string]string{"empty.csv": ""})
	req := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	req.Header.Set("Content-Type", contentType)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusUnprocessableEntity {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
}

func TestListReports_OwnerScopedAndEmptyArray(t *testing.T) {
	r, _ := newTestRouter(t)

	// 没有数据时返回空数组而不是 null
	req := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("unexpected status: %d", w.Code)
	}
	var resp struct {
		Reports []json.RawMessage `json:"reports"`
	}
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Reports == nil {
		t.Fatalf("expected empty array, got null: %s", w.Body.String())
	}

	body, contentType := multipartUpload(t, "Golden Fork", map[string]string{"sales.csv": salesCSV})
	post := httptest.NewRequest(http.MethodPost, "/api/reports", body)
	post.Header.Set("Content-Type", contentType)
	post.Header.Set("X-User-ID", "alice")
	pw := httptest.NewRecorder()
	r.ServeHTTP(pw, post)
	if pw.Code != http.StatusCreated {
		t.Fatalf("seed upload failed: %d body=%s", pw.Code, pw.Body.String())
	}

	// 其他用户看不到 alice 的报告
	other := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	other.Header.Set("X-User-ID", "bob")
	ow := httptest.NewRecorder()
	r.ServeHTTP(ow, other)
	if err := json.Unmarshal(ow.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Reports) != 0 {
		t.Fatalf("expected no reports for other owner, got %d", len(resp.Reports))
	}

	mine := httptest.NewRequest(http.MethodGet, "/api/reports", nil)
	mine.Header.Set("X-User-ID", "alice")
	mw := httptest.NewRecorder()
	r.ServeHTTP(mw, mine)
	if err := json.Unmarshal(mw.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if len(resp.Reports) != 1 {
		t.Fatalf("expected 1 report for alice, got %d", len(resp.Reports))
	}
}

func TestGetReport_NotFound(t *testing.T) {
	r, _ := newTestRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/api/reports/nope", nil)
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("unexpected status: %d body=%s", w.Code, w.Body.String())
	}
}
