package domain

import (
	"encoding/json"
	"fmt"
	"time"
)

// InventoryItem is one catalog entry in the current stock snapshot.
type InventoryItem struct {
	ID           string  `json:"id" db:"id" yaml:"id"`
	SKU          string  `json:"sku" db:"sku" yaml:"sku"`
	Name         string  `json:"name" db:"name" yaml:"name"`
	Category     string  `json:"category" db:"category" yaml:"category"`
	CurrentStock int     `json:"currentStock" db:"current_stock" yaml:"currentStock"`
	CostPerUnit  float64 `json:"costPerUnit" db:"cost_per_unit" yaml:"costPerUnit"`
	PricePerUnit float64 `json:"pricePerUnit" db:"price_per_unit" yaml:"pricePerUnit"`
	ReorderPoint int     `json:"reorderPoint" db:"reorder_point" yaml:"reorderPoint"`
	MaxStock     int     `json:"maxStock" db:"max_stock" yaml:"maxStock"`
}

// SaleRecord is a single historical sales fact for an item.
type SaleRecord struct {
	ItemID   string    `json:"itemId" db:"item_id"`
	Quantity int       `json:"quantity" db:"quantity"`
	Date     time.Time `json:"date" db:"sale_date"`
	Revenue  float64   `json:"revenue" db:"revenue"`
}

// DayKey identifies the calendar day of the sale, ignoring any time of day.
func (s SaleRecord) DayKey() string {
	return s.Date.Format(DateLayout)
}

// UnmarshalJSON accepts the date either as a calendar date or as an RFC 3339
// timestamp.
func (s *SaleRecord) UnmarshalJSON(data []byte) error {
	type plain SaleRecord
	var raw struct {
		plain
		Date string `json:"date"`
	}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*s = SaleRecord(raw.plain)
	if raw.Date == "" {
		s.Date = time.Time{}
		return nil
	}
	for _, layout := range []string{DateLayout, time.RFC3339} {
		if t, err := time.Parse(layout, raw.Date); err == nil {
			s.Date = t
			return nil
		}
	}
	return fmt.Errorf("sale date %q: want %s or RFC 3339", raw.Date, DateLayout)
}

// DateLayout is the calendar date format used in snapshots and JSON payloads.
const DateLayout = "2006-01-02"

// Snapshot is the pair of collections every analysis run starts from.
type Snapshot struct {
	Inventory []InventoryItem `json:"inventory"`
	Sales     []SaleRecord    `json:"sales"`
}

// AnalyzedItem is an inventory item with its derived risk figures and recommendations.
type AnalyzedItem struct {
	InventoryItem
	DailyVelocity   float64          `json:"dailyVelocity"`
	StockoutRisk    StockoutRisk     `json:"stockoutRisk"`
	OverstockRisk   OverstockRisk    `json:"overstockRisk"`
	Recommendations []Recommendation `json:"recommendations"`
	OverallRisk     int              `json:"overallRisk"`
}

// AnalysisRun is the output of one full batch pass over the catalog.
type AnalysisRun struct {
	ID             string         `json:"id"`
	Source         string         `json:"source"`
	Degraded       bool           `json:"degraded"`
	FallbackReason string         `json:"fallbackReason,omitempty"`
	WindowDays     int            `json:"windowDays"`
	GeneratedAt    time.Time      `json:"generatedAt"`
	Summary        CatalogSummary `json:"summary"`
	Items          []AnalyzedItem `json:"items"`
}

// FindItem returns the analyzed item with the given ID.
func (r *AnalysisRun) FindItem(id string) (AnalyzedItem, bool) {
	for _, item := range r.Items {
		if item.ID == id {
			return item, true
		}
	}
	return AnalyzedItem{}, false
}
