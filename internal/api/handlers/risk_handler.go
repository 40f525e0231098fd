package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/andresuchdata/stockrisk/internal/analysis"
	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/service"
)

// RiskService is what the handlers need from service.RiskService.
type RiskService interface {
	Refresh(ctx context.Context) (*domain.AnalysisRun, error)
	Latest(ctx context.Context) (*domain.AnalysisRun, error)
	Worklist(ctx context.Context, filter domain.RiskFilter) ([]domain.AnalyzedItem, *domain.AnalysisRun, error)
	Item(ctx context.Context, id string) (domain.AnalyzedItem, error)
	AnalyzeSnapshot(snapshot domain.Snapshot) (*domain.AnalysisRun, error)
}

type RiskHandler struct {
	service RiskService
}

func NewRiskHandler(service RiskService) *RiskHandler {
	return &RiskHandler{service: service}
}

// runInfo is the provenance block attached to every response.
type runInfo struct {
	ID             string    `json:"id"`
	Source         string    `json:"source"`
	Degraded       bool      `json:"degraded"`
	FallbackReason string    `json:"fallbackReason,omitempty"`
	WindowDays     int       `json:"windowDays"`
	GeneratedAt    time.Time `json:"generatedAt"`
}

func infoOf(run *domain.AnalysisRun) runInfo {
	return runInfo{
		ID:             run.ID,
		Source:         run.Source,
		Degraded:       run.Degraded,
		FallbackReason: run.FallbackReason,
		WindowDays:     run.WindowDays,
		GeneratedAt:    run.GeneratedAt,
	}
}

type dashboardItem struct {
	domain.AnalyzedItem
	Band     domain.SeverityBand `json:"band"`
	Critical bool                `json:"critical"`
}

type pageParams struct {
	Page     int
	PageSize int
}

// parsePage reads page and page_size. A missing page_size returns every item.
func parsePage(c *gin.Context) pageParams {
	p := pageParams{Page: 1}
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil && page > 0 {
		p.Page = page
	}
	if size, err := strconv.Atoi(c.Query("page_size")); err == nil && size > 0 {
		p.PageSize = size
	}
	return p
}

func (p pageParams) apply(items []domain.AnalyzedItem) []domain.AnalyzedItem {
	if p.PageSize == 0 {
		return items
	}
	start := (p.Page - 1) * p.PageSize
	if start >= len(items) {
		return []domain.AnalyzedItem{}
	}
	end := min(start+p.PageSize, len(items))
	return items[start:end]
}

func wantsRefresh(c *gin.Context) bool {
	refresh, _ := strconv.ParseBool(strings.TrimSpace(c.DefaultQuery("refresh", "false")))
	return refresh
}

// GetItems returns the worklist, highest overall risk first.
func (h *RiskHandler) GetItems(c *gin.Context) {
	filter, err := domain.ParseRiskFilter(c.Query("filter"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter", "details": err.Error()})
		return
	}

	if wantsRefresh(c) {
		if _, err := h.service.Refresh(c.Request.Context()); err != nil {
			writeError(c, "failed to refresh analysis", err)
			return
		}
	}

	items, run, err := h.service.Worklist(c.Request.Context(), filter)
	if err != nil {
		writeError(c, "failed to fetch items", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"items":  parsePage(c).apply(items),
		"total":  len(items),
		"filter": filter,
		"run":    infoOf(run),
	})
}

func (h *RiskHandler) GetItem(c *gin.Context) {
	item, err := h.service.Item(c.Request.Context(), c.Param("id"))
	if err != nil {
		writeError(c, "failed to fetch item", err)
		return
	}

	c.JSON(http.StatusOK, dashboardItem{
		AnalyzedItem: item,
		Band:         analysis.SeverityBand(item.OverallRisk),
		Critical:     analysis.IsCriticalAlert(item),
	})
}

func (h *RiskHandler) GetSummary(c *gin.Context) {
	run, err := h.service.Latest(c.Request.Context())
	if err != nil {
		writeError(c, "failed to fetch summary", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"summary": run.Summary,
		"run":     infoOf(run),
	})
}

// GetDashboard returns everything the risk dashboard renders in one payload:
// headline figures, the critical alerts and the filtered worklist with
// severity bands.
func (h *RiskHandler) GetDashboard(c *gin.Context) {
	filter, err := domain.ParseRiskFilter(c.Query("filter"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid filter", "details": err.Error()})
		return
	}

	items, run, err := h.service.Worklist(c.Request.Context(), filter)
	if err != nil {
		writeError(c, "failed to fetch dashboard", err)
		return
	}

	rows := make([]dashboardItem, 0, len(items))
	for _, item := range items {
		rows = append(rows, dashboardItem{
			AnalyzedItem: item,
			Band:         analysis.SeverityBand(item.OverallRisk),
			Critical:     analysis.IsCriticalAlert(item),
		})
	}

	alerts := make([]dashboardItem, 0)
	for _, item := range run.Items {
		if analysis.IsCriticalAlert(item) {
			alerts = append(alerts, dashboardItem{
				AnalyzedItem: item,
				Band:         analysis.SeverityBand(item.OverallRisk),
				Critical:     true,
			})
		}
	}

	c.JSON(http.StatusOK, gin.H{
		"run":     infoOf(run),
		"summary": run.Summary,
		"filter":  filter,
		"alerts":  alerts,
		"items":   rows,
	})
}

func (h *RiskHandler) Refresh(c *gin.Context) {
	run, err := h.service.Refresh(c.Request.Context())
	if err != nil {
		writeError(c, "failed to refresh analysis", err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"run":     infoOf(run),
		"summary": run.Summary,
	})
}

// Analyze runs the engine over the snapshot in the request body.
func (h *RiskHandler) Analyze(c *gin.Context) {
	var snapshot domain.Snapshot
	if err := c.ShouldBindJSON(&snapshot); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	run, err := h.service.AnalyzeSnapshot(snapshot)
	if err != nil {
		writeError(c, "failed to analyze snapshot", err)
		return
	}

	c.JSON(http.StatusOK, run)
}

func writeError(c *gin.Context, message string, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidSnapshot):
		status = http.StatusBadRequest
	case errors.Is(err, service.ErrItemNotFound):
		status = http.StatusNotFound
	}

	c.JSON(status, gin.H{"error": message, "details": err.Error()})
}
