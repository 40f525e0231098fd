package analysis

import (
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/stockrisk/internal/domain"
)

// AssessStockout classifies how close an item is to running out.
func AssessStockout(item domain.InventoryItem, velocity float64) domain.StockoutRisk {
	if velocity <= 0 {
		idle := idleBands[domain.KindStockout]
		return domain.StockoutRisk{
			Risk:              idle.tier,
			Severity:          idle.severity,
			DaysUntilStockout: domain.NoHorizon,
		}
	}

	days := float64(item.CurrentStock) / velocity
	b := classify(domain.KindStockout, horizon{days: days, stock: item.CurrentStock, maxStock: item.MaxStock})

	return domain.StockoutRisk{
		Risk:              b.tier,
		Severity:          b.severity,
		DaysUntilStockout: days,
	}
}

// AssessOverstock classifies excess stock and the capital it holds.
func AssessOverstock(item domain.InventoryItem, velocity float64) domain.OverstockRisk {
	capital := TiedUpCapital(item)

	if velocity <= 0 {
		idle := idleBands[domain.KindOverstock]
		return domain.OverstockRisk{
			Risk:          idle.tier,
			Severity:      idle.severity,
			DaysOfStock:   domain.NoHorizon,
			TiedUpCapital: capital,
		}
	}

	days := float64(item.CurrentStock) / velocity
	b := classify(domain.KindOverstock, horizon{days: days, stock: item.CurrentStock, maxStock: item.MaxStock})

	return domain.OverstockRisk{
		Risk:          b.tier,
		Severity:      b.severity,
		DaysOfStock:   days,
		TiedUpCapital: capital,
	}
}

// TiedUpCapital is the cost-basis value of the units on hand.
func TiedUpCapital(item domain.InventoryItem) float64 {
	return capitalOf(item).InexactFloat64()
}

func capitalOf(item domain.InventoryItem) decimal.Decimal {
	return decimal.NewFromFloat(item.CostPerUnit).Mul(decimal.NewFromInt(int64(item.CurrentStock)))
}
