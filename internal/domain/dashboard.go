package domain

import (
	"fmt"
	"strings"
)

// CatalogSummary holds the headline figures of the risk dashboard.
type CatalogSummary struct {
	TotalItems         int                     `json:"totalItems"`
	CriticalAlerts     int                     `json:"criticalAlerts"`
	StockoutRisks      int                     `json:"stockoutRisks"`
	OverstockRisks     int                     `json:"overstockRisks"`
	TotalCapitalTied   float64                 `json:"totalCapitalTied"`
	AnalysisWindowDays int                     `json:"analysisWindowDays"`
	TierCounts         map[RiskKind]TierCounts `json:"tierCounts"`
	BandCounts         map[SeverityBand]int    `json:"bandCounts"`
}

// TierCounts counts items per risk tier for one risk kind.
type TierCounts map[RiskTier]int

// SeverityBand buckets a 0-100 severity for highlighting.
type SeverityBand string

const (
	BandCritical SeverityBand = "critical"
	BandElevated SeverityBand = "elevated"
	BandModerate SeverityBand = "moderate"
	BandHealthy  SeverityBand = "healthy"
)

// RiskFilter selects a slice of the worklist.
type RiskFilter string

const (
	FilterAll       RiskFilter = "all"
	FilterStockout  RiskFilter = "stockout"
	FilterOverstock RiskFilter = "overstock"
)

// ParseRiskFilter accepts the filter names used by the dashboard. An empty
// value means all items.
func ParseRiskFilter(value string) (RiskFilter, error) {
	switch f := RiskFilter(strings.ToLower(strings.TrimSpace(value))); f {
	case "":
		return FilterAll, nil
	case FilterAll, FilterStockout, FilterOverstock:
		return f, nil
	default:
		return "", fmt.Errorf("unknown risk filter %q (want all, stockout or overstock)", value)
	}
}
