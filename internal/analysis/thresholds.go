package analysis

import "github.com/andresuchdata/stockrisk/internal/domain"

const (
	// ReorderCoverDays is the number of days of sales a reorder should cover.
	ReorderCoverDays = 14

	stockoutCriticalDays = 2
	stockoutHighDays     = 5
	stockoutMediumDays   = 10

	overstockHighDays   = 60
	overstockMediumDays = 30
)

// horizon is what a band predicate looks at.
type horizon struct {
	days     float64
	stock    int
	maxStock int
}

// band is one row of a risk table: the first band whose predicate matches wins.
type band struct {
	name     string
	match    func(h horizon) bool
	tier     domain.RiskTier
	severity int
}

// riskBands holds the ordered threshold tables per risk kind. The overstock
// table checks days of supply before the absolute stock cap, so an item above
// its cap with 30-60 days of supply stays medium.
var riskBands = map[domain.RiskKind][]band{
	domain.KindStockout: {
		{name: "critical", match: daysAtMost(stockoutCriticalDays), tier: domain.RiskCritical, severity: 100},
		{name: "high", match: daysAtMost(stockoutHighDays), tier: domain.RiskHigh, severity: 75},
		{name: "medium", match: daysAtMost(stockoutMediumDays), tier: domain.RiskMedium, severity: 50},
		{name: "low", match: always, tier: domain.RiskLow, severity: 25},
	},
	domain.KindOverstock: {
		{name: "slow-moving", match: daysAbove(overstockHighDays), tier: domain.RiskHigh, severity: 85},
		{name: "elevated-supply", match: daysAbove(overstockMediumDays), tier: domain.RiskMedium, severity: 60},
		{name: "over-cap", match: overCap, tier: domain.RiskHigh, severity: 75},
		{name: "low", match: always, tier: domain.RiskLow, severity: 20},
	},
}

// idleBands apply when an item has no sales velocity at all.
var idleBands = map[domain.RiskKind]band{
	domain.KindStockout:  {name: "idle", tier: domain.RiskLow, severity: 0},
	domain.KindOverstock: {name: "idle", tier: domain.RiskHigh, severity: 80},
}

func daysAtMost(limit float64) func(horizon) bool {
	return func(h horizon) bool { return h.days <= limit }
}

func daysAbove(limit float64) func(horizon) bool {
	return func(h horizon) bool { return h.days > limit }
}

func overCap(h horizon) bool { return h.stock > h.maxStock }

func always(horizon) bool { return true }

func classify(kind domain.RiskKind, h horizon) band {
	for _, b := range riskBands[kind] {
		if b.match(h) {
			return b
		}
	}
	return band{name: "unclassified", tier: domain.RiskLow}
}
