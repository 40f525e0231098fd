// Package demo serves a small built-in catalog with synthetic sales history.
package demo

import (
	"context"
	_ "embed"
	"fmt"
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/provider"
)

// Name identifies demo snapshots in analysis runs.
const Name = "demo"

//go:embed catalog.yaml
var catalogYAML []byte

type catalogFile struct {
	Items []domain.InventoryItem `yaml:"items"`
}

// Catalog returns a fresh copy of the demo inventory.
func Catalog() ([]domain.InventoryItem, error) {
	var file catalogFile
	if err := yaml.Unmarshal(catalogYAML, &file); err != nil {
		return nil, fmt.Errorf("decode demo catalog: %w", err)
	}
	return file.Items, nil
}

// Provider generates sales around each item's reorder point / 7 per day,
// with up to ±20% noise and at least one unit sold daily.
type Provider struct {
	mu  sync.Mutex
	rng *rand.Rand
}

// New creates a demo provider. A zero seed draws one from the clock.
func New(seed int64) *Provider {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Provider{rng: rand.New(rand.NewSource(seed))}
}

func (p *Provider) Name() string { return Name }

func (p *Provider) Fetch(ctx context.Context, window provider.Window) (domain.Snapshot, error) {
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}

	items, err := Catalog()
	if err != nil {
		return domain.Snapshot{}, err
	}

	return domain.Snapshot{
		Inventory: items,
		Sales:     p.Sales(items, window),
	}, nil
}

// Sales synthesizes one record per item for each day of the window, newest day first.
func (p *Provider) Sales(items []domain.InventoryItem, window provider.Window) []domain.SaleRecord {
	days := window.Days
	if days <= 0 {
		days = provider.DefaultWindowDays
	}
	end := window.End
	if end.IsZero() {
		end = time.Now().UTC()
	}
	today := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, end.Location())

	p.mu.Lock()
	defer p.mu.Unlock()

	sales := make([]domain.SaleRecord, 0, days*len(items))
	for i := 0; i < days; i++ {
		date := today.AddDate(0, 0, -i)
		for _, item := range items {
			qty := p.dailyQuantity(item.ReorderPoint)
			sales = append(sales, domain.SaleRecord{
				ItemID:   item.ID,
				Quantity: qty,
				Date:     date,
				Revenue:  decimal.NewFromFloat(item.PricePerUnit).Mul(decimal.NewFromInt(int64(qty))).Round(2).InexactFloat64(),
			})
		}
	}
	return sales
}

func (p *Provider) dailyQuantity(reorderPoint int) int {
	base := float64(reorderPoint) / 7
	variance := (p.rng.Float64() - 0.5) * base * 0.4
	return max(1, int(math.Round(base+variance)))
}
