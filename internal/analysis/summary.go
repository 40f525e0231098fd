package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/stockrisk/internal/domain"
)

// Summarize computes the dashboard headline figures for an analyzed catalog.
func Summarize(items []domain.AnalyzedItem, windowDays int) domain.CatalogSummary {
	summary := domain.CatalogSummary{
		TotalItems:         len(items),
		AnalysisWindowDays: windowDays,
		TierCounts: map[domain.RiskKind]domain.TierCounts{
			domain.KindStockout:  emptyTierCounts(),
			domain.KindOverstock: emptyTierCounts(),
		},
		BandCounts: map[domain.SeverityBand]int{
			domain.BandCritical: 0,
			domain.BandElevated: 0,
			domain.BandModerate: 0,
			domain.BandHealthy:  0,
		},
	}

	capital := decimal.Zero
	for _, item := range items {
		if IsCriticalAlert(item) {
			summary.CriticalAlerts++
		}
		if isStockoutRisk(item) {
			summary.StockoutRisks++
		}
		if isOverstockRisk(item) {
			summary.OverstockRisks++
		}
		summary.TierCounts[domain.KindStockout][item.StockoutRisk.Risk]++
		summary.TierCounts[domain.KindOverstock][item.OverstockRisk.Risk]++
		summary.BandCounts[SeverityBand(item.OverallRisk)]++
		capital = capital.Add(capitalOf(item.InventoryItem))
	}
	summary.TotalCapitalTied = capital.Round(2).InexactFloat64()

	return summary
}

func emptyTierCounts() domain.TierCounts {
	return domain.TierCounts{
		domain.RiskLow:      0,
		domain.RiskMedium:   0,
		domain.RiskHigh:     0,
		domain.RiskCritical: 0,
	}
}

// IsCriticalAlert reports whether the item needs immediate action: it is about
// to stock out, or it holds far more than it sells.
func IsCriticalAlert(item domain.AnalyzedItem) bool {
	return item.StockoutRisk.Risk == domain.RiskCritical ||
		(item.OverstockRisk.Risk == domain.RiskHigh && item.OverstockRisk.DaysOfStock > overstockHighDays)
}

func isStockoutRisk(item domain.AnalyzedItem) bool {
	return item.StockoutRisk.Risk.AtLeast(domain.RiskHigh)
}

func isOverstockRisk(item domain.AnalyzedItem) bool {
	return item.OverstockRisk.Risk == domain.RiskHigh
}

// Filter returns the items matching f, keeping their order.
func Filter(items []domain.AnalyzedItem, f domain.RiskFilter) []domain.AnalyzedItem {
	out := make([]domain.AnalyzedItem, 0, len(items))
	for _, item := range items {
		switch f {
		case domain.FilterStockout:
			if !isStockoutRisk(item) {
				continue
			}
		case domain.FilterOverstock:
			if !isOverstockRisk(item) {
				continue
			}
		}
		out = append(out, item)
	}
	return out
}

// SeverityBand buckets a severity score into the dashboard highlight bands.
func SeverityBand(severity int) domain.SeverityBand {
	switch {
	case severity >= 75:
		return domain.BandCritical
	case severity >= 50:
		return domain.BandElevated
	case severity >= 25:
		return domain.BandModerate
	default:
		return domain.BandHealthy
	}
}
