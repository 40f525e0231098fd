package domain

// NoHorizon is the "effectively infinite" horizon reported for items that did not sell.
const NoHorizon = 999

// Assessment is the part of a risk assessment shared by both kinds.
type Assessment interface {
	Kind() RiskKind
	Tier() RiskTier
	Score() int
}

// StockoutRisk describes how soon an item runs out at its current velocity.
type StockoutRisk struct {
	Risk              RiskTier `json:"risk"`
	Severity          int      `json:"severity"`
	DaysUntilStockout float64  `json:"daysUntilStockout"`
}

func (StockoutRisk) Kind() RiskKind   { return KindStockout }
func (r StockoutRisk) Tier() RiskTier { return r.Risk }
func (r StockoutRisk) Score() int     { return r.Severity }

// OverstockRisk describes excess stock in days of supply and capital held.
type OverstockRisk struct {
	Risk          RiskTier `json:"risk"`
	Severity      int      `json:"severity"`
	DaysOfStock   float64  `json:"daysOfStock"`
	TiedUpCapital float64  `json:"tiedUpCapital"`
}

func (OverstockRisk) Kind() RiskKind   { return KindOverstock }
func (r OverstockRisk) Tier() RiskTier { return r.Risk }
func (r OverstockRisk) Score() int     { return r.Severity }

var (
	_ Assessment = StockoutRisk{}
	_ Assessment = OverstockRisk{}
)

// Recommendation is one suggested action for an item.
type Recommendation struct {
	Type            RecommendationType `json:"type"`
	Priority        Priority           `json:"priority"`
	Action          string             `json:"action"`
	Reason          string             `json:"reason"`
	Impact          string             `json:"impact"`
	ReorderQuantity int                `json:"reorderQuantity,omitempty"`
}
