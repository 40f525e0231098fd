package analysis

import (
	"fmt"
	"math"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/stockrisk/internal/domain"
)

// Recommend turns the two assessments of an item into an ordered, never empty
// list of actions: stockout-driven first, then overstock-driven, and a single
// healthy entry when neither applies.
func Recommend(item domain.InventoryItem, stockout domain.StockoutRisk, overstock domain.OverstockRisk, velocity float64) []domain.Recommendation {
	recs := make([]domain.Recommendation, 0, 2)

	switch stockout.Risk {
	case domain.RiskCritical, domain.RiskHigh:
		qty := ReorderQuantity(velocity)
		lostRevenue := math.Round(velocity * item.PricePerUnit * stockout.DaysUntilStockout)
		recs = append(recs, domain.Recommendation{
			Type:            domain.RecommendReorder,
			Priority:        domain.PriorityUrgent,
			Action:          fmt.Sprintf("Reorder %d units immediately", qty),
			Reason:          fmt.Sprintf("Only %d days of stock remaining", int(math.Floor(stockout.DaysUntilStockout))),
			Impact:          fmt.Sprintf("Prevent %.0f in lost revenue", lostRevenue),
			ReorderQuantity: qty,
		})
	case domain.RiskMedium:
		qty := ReorderQuantity(velocity)
		recs = append(recs, domain.Recommendation{
			Type:            domain.RecommendReorder,
			Priority:        domain.PriorityNormal,
			Action:          fmt.Sprintf("Plan to reorder %d units within 5 days", qty),
			Reason:          "Stock levels approaching reorder point",
			Impact:          "Maintain healthy inventory levels",
			ReorderQuantity: qty,
		})
	}

	switch overstock.Risk {
	case domain.RiskHigh:
		if overstock.DaysOfStock > overstockHighDays {
			recs = append(recs, domain.Recommendation{
				Type:     domain.RecommendReduce,
				Priority: domain.PriorityHigh,
				Action:   "Run promotion or reduce reorder quantity by 50%",
				Reason:   fmt.Sprintf("Over %d days of inventory on hand", overstockHighDays),
				Impact:   fmt.Sprintf("Free up $%s in tied capital", decimal.NewFromFloat(overstock.TiedUpCapital).StringFixed(2)),
			})
		} else {
			recs = append(recs, domain.Recommendation{
				Type:     domain.RecommendReduce,
				Priority: domain.PriorityMedium,
				Action:   fmt.Sprintf("Pause reordering until stock drops to %d units", item.ReorderPoint),
				Reason:   "Exceeding maximum recommended stock levels",
				Impact:   "Reduce storage costs and capital tie-up",
			})
		}
	case domain.RiskMedium:
		recs = append(recs, domain.Recommendation{
			Type:     domain.RecommendMonitor,
			Priority: domain.PriorityLow,
			Action:   "Monitor stock levels and adjust reorder timing",
			Reason:   "Inventory levels higher than optimal",
			Impact:   "Optimize cash flow",
		})
	}

	if len(recs) == 0 {
		recs = append(recs, domain.Recommendation{
			Type:     domain.RecommendHealthy,
			Priority: domain.PriorityInfo,
			Action:   "No action needed - stock levels are healthy",
			Reason:   "Current inventory is well-balanced",
			Impact:   "Continue current ordering patterns",
		})
	}

	return recs
}

// ReorderQuantity is the number of units that covers ReorderCoverDays of sales.
func ReorderQuantity(velocity float64) int {
	return int(math.Ceil(velocity * ReorderCoverDays))
}
