package analysis

import "github.com/andresuchdata/stockrisk/internal/domain"

// DailyVelocity returns the mean units sold per day for itemID, where the day
// count is the number of distinct calendar dates present in its sales. Items
// without sales have a velocity of 0.
func DailyVelocity(sales []domain.SaleRecord, itemID string) float64 {
	matched := make([]domain.SaleRecord, 0)
	for _, s := range sales {
		if s.ItemID == itemID {
			matched = append(matched, s)
		}
	}
	return velocityOf(matched)
}

// velocityOf expects sales that all belong to one item.
func velocityOf(sales []domain.SaleRecord) float64 {
	if len(sales) == 0 {
		return 0
	}

	total := 0
	days := make(map[string]struct{}, len(sales))
	for _, s := range sales {
		total += s.Quantity
		days[s.DayKey()] = struct{}{}
	}

	return float64(total) / float64(len(days))
}

// indexSales groups sales by item ID, keeping their original order.
func indexSales(sales []domain.SaleRecord) map[string][]domain.SaleRecord {
	idx := make(map[string][]domain.SaleRecord)
	for _, s := range sales {
		idx[s.ItemID] = append(idx[s.ItemID], s)
	}
	return idx
}
