package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/provider"
	"github.com/andresuchdata/stockrisk/internal/service"
)

type stubSource struct {
	err error
}

func (s *stubSource) Fetch(ctx context.Context, window provider.Window) (provider.Result, error) {
	if s.err != nil {
		return provider.Result{}, s.err
	}
	day := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	return provider.Result{
		Source: "demo",
		Snapshot: domain.Snapshot{
			Inventory: []domain.InventoryItem{
				{ID: "a", SKU: "A-1", Name: "Alpha", CurrentStock: 8, CostPerUnit: 2, PricePerUnit: 5, ReorderPoint: 25, MaxStock: 100},
				{ID: "b", SKU: "B-1", Name: "Bravo", CurrentStock: 180, CostPerUnit: 15, PricePerUnit: 30, ReorderPoint: 20, MaxStock: 200},
				{ID: "d", SKU: "D-1", Name: "Delta", CurrentStock: 2, CostPerUnit: 1, PricePerUnit: 3, ReorderPoint: 10, MaxStock: 50},
			},
			Sales: []domain.SaleRecord{
				{ItemID: "a", Quantity: 3, Date: day},
				{ItemID: "b", Quantity: 2, Date: day},
				{ItemID: "d", Quantity: 3, Date: day},
			},
		},
	}, nil
}

func newTestRouter(t *testing.T, src provider.Source) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)
	svc := service.NewRiskService(src, nil, nil, service.Options{SourceName: "demo", WindowDays: 30})
	return NewRouter(&Services{RiskService: svc}, nil)
}

func doRequest(t *testing.T, router http.Handler, method, target, body string) (*httptest.ResponseRecorder, map[string]any) {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	var payload map[string]any
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &payload))
	}
	return rec, payload
}

func idsOf(t *testing.T, raw any) []string {
	t.Helper()
	list, ok := raw.([]any)
	require.True(t, ok, "expected a list, got %T", raw)
	ids := make([]string, 0, len(list))
	for _, entry := range list {
		ids = append(ids, entry.(map[string]any)["id"].(string))
	}
	return ids
}

func TestHealthAndMetrics(t *testing.T) {
	router := newTestRouter(t, &stubSource{})

	rec, payload := doRequest(t, router, http.MethodGet, "/health", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "healthy", payload["status"])

	rec, _ = doRequest(t, router, http.MethodGet, "/metrics", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "http_requests_total")
}

func TestGetItems(t *testing.T) {
	router := newTestRouter(t, &stubSource{})

	tests := []struct {
		name   string
		target string
		want   []string
		total  float64
	}{
		{"all", "/api/v1/risk/items", []string{"d", "b", "a"}, 3},
		{"stockout", "/api/v1/risk/items?filter=stockout", []string{"d", "a"}, 2},
		{"overstock", "/api/v1/risk/items?filter=OVERSTOCK", []string{"b"}, 1},
		{"paged", "/api/v1/risk/items?page=2&page_size=1", []string{"b"}, 3},
		{"past the end", "/api/v1/risk/items?page=9&page_size=2", []string{}, 3},
		{"refresh", "/api/v1/risk/items?refresh=true", []string{"d", "b", "a"}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, payload := doRequest(t, router, http.MethodGet, tt.target, "")
			require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
			assert.Equal(t, tt.want, idsOf(t, payload["items"]))
			assert.Equal(t, tt.total, payload["total"])
			assert.Equal(t, "demo", payload["run"].(map[string]any)["source"])
		})
	}
}

func TestGetItems_InvalidFilter(t *testing.T) {
	router := newTestRouter(t, &stubSource{})

	rec, payload := doRequest(t, router, http.MethodGet, "/api/v1/risk/items?filter=bogus", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid filter", payload["error"])
	assert.Contains(t, payload["details"], "bogus")
}

func TestGetItem(t *testing.T) {
	router := newTestRouter(t, &stubSource{})

	rec, payload := doRequest(t, router, http.MethodGet, "/api/v1/risk/items/b", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "B-1", payload["sku"])
	assert.Equal(t, "critical", payload["band"])
	assert.Equal(t, true, payload["critical"])
	assert.EqualValues(t, 85, payload["overallRisk"])

	rec, payload = doRequest(t, router, http.MethodGet, "/api/v1/risk/items/missing", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, payload["details"], "missing")
}

func TestGetSummaryAndDashboard(t *testing.T) {
	router := newTestRouter(t, &stubSource{})

	rec, payload := doRequest(t, router, http.MethodGet, "/api/v1/risk/summary", "")
	require.Equal(t, http.StatusOK, rec.Code)
	summary := payload["summary"].(map[string]any)
	assert.EqualValues(t, 3, summary["totalItems"])
	assert.EqualValues(t, 2, summary["criticalAlerts"])
	assert.EqualValues(t, 30, summary["analysisWindowDays"])

	rec, payload = doRequest(t, router, http.MethodGet, "/api/v1/risk/dashboard?filter=stockout", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, []string{"d", "b"}, idsOf(t, payload["alerts"]))
	assert.Equal(t, []string{"d", "a"}, idsOf(t, payload["items"]))
	assert.Equal(t, "stockout", payload["filter"])
}

func TestRefresh(t *testing.T) {
	router := newTestRouter(t, &stubSource{})

	rec, payload := doRequest(t, router, http.MethodPost, "/api/v1/risk/refresh", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, payload["run"].(map[string]any)["id"])

	failing := newTestRouter(t, &stubSource{err: errors.New("square: connection refused")})
	rec, payload = doRequest(t, failing, http.MethodPost, "/api/v1/risk/refresh", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "failed to refresh analysis", payload["error"])
	assert.Contains(t, payload["details"], "connection refused")
}

func TestAnalyze(t *testing.T) {
	router := newTestRouter(t, &stubSource{err: errors.New("must not fetch")})

	body := `{
		"inventory": [
			{"id": "4", "sku": "BREAD-004", "name": "Sourdough Bread", "category": "Bakery",
			 "currentStock": 8, "costPerUnit": 3.5, "pricePerUnit": 7.99, "reorderPoint": 25, "maxStock": 80}
		],
		"sales": [
			{"itemId": "4", "quantity": 3, "date": "2024-03-01"},
			{"itemId": "4", "quantity": 3, "date": "2024-03-02"}
		]
	}`
	rec, payload := doRequest(t, router, http.MethodPost, "/api/v1/risk/analyze", body)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, service.RequestSource, payload["source"])

	items := payload["items"].([]any)
	require.Len(t, items, 1)
	item := items[0].(map[string]any)
	assert.EqualValues(t, 3, item["dailyVelocity"])
	stockout := item["stockoutRisk"].(map[string]any)
	assert.Equal(t, "high", stockout["risk"])
	recs := item["recommendations"].([]any)
	first := recs[0].(map[string]any)
	assert.Equal(t, "reorder", first["type"])
	assert.Equal(t, "urgent", first["priority"])
	assert.EqualValues(t, 42, first["reorderQuantity"])
}

func TestAnalyze_BadInput(t *testing.T) {
	router := newTestRouter(t, &stubSource{})

	rec, payload := doRequest(t, router, http.MethodPost, "/api/v1/risk/analyze", `{"inventory": [`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, "invalid request body", payload["error"])

	rec, payload = doRequest(t, router, http.MethodPost, "/api/v1/risk/analyze",
		`{"inventory": [{"id": "1", "sku": "X"}, {"id": "1", "sku": "Y"}], "sales": []}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, payload["details"], "duplicate id")
}

func TestCORS(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := NewRouter(nil, []string{"https://ops.example.com, https://admin.example.com"})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	req.Header.Set("Origin", "https://admin.example.com")
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "https://admin.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestNormalizeAllowedOrigins(t *testing.T) {
	origins, all := normalizeAllowedOrigins([]string{" https://a.example.com ,https://b.example.com", ""})
	assert.Equal(t, []string{"https://a.example.com", "https://b.example.com"}, origins)
	assert.False(t, all)

	_, all = normalizeAllowedOrigins([]string{"*"})
	assert.True(t, all)
}
