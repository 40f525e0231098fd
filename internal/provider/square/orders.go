package square

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/provider"
)

const ordersPageLimit = 500

// FetchSales returns one sale record per catalog line item of the orders
// completed inside the window.
func (c *Client) FetchSales(ctx context.Context, window provider.Window) ([]domain.SaleRecord, error) {
	ctx, span := tracer.Start(ctx, "square.FetchSales")
	defer span.End()

	locations, err := c.locationIDs(ctx)
	if err != nil {
		return nil, err
	}

	req := searchOrdersRequest{
		LocationIDs: locations,
		Query: ordersQuery{
			Filter: ordersFilter{
				DateTimeFilter: dateTimeFilter{CreatedAt: timeRange{
					StartAt: window.Start().UTC().Format(time.RFC3339),
					EndAt:   window.End.UTC().Format(time.RFC3339),
				}},
				StateFilter: stateFilter{States: []string{"COMPLETED"}},
			},
			Sort: ordersSort{SortField: "CREATED_AT", SortOrder: "ASC"},
		},
		Limit: ordersPageLimit,
	}

	var sales []domain.SaleRecord
	for {
		var page searchOrdersResponse
		if err := c.do(ctx, "POST", "/v2/orders/search", req, &page); err != nil {
			return nil, fmt.Errorf("search orders: %w", err)
		}
		for _, o := range page.Orders {
			sales = append(sales, orderSales(o)...)
		}

		if page.Cursor == "" {
			return sales, nil
		}
		req.Cursor = page.Cursor
	}
}

func orderSales(o order) []domain.SaleRecord {
	createdAt, err := time.Parse(time.RFC3339, o.CreatedAt)
	if err != nil {
		log.Warn().Str("order_id", o.ID).Str("created_at", o.CreatedAt).Msg("Skipping order with unparseable timestamp")
		return nil
	}

	out := make([]domain.SaleRecord, 0, len(o.LineItems))
	for _, li := range o.LineItems {
		if li.CatalogObjectID == "" {
			continue
		}
		qty, err := decimal.NewFromString(li.Quantity)
		if err != nil || qty.IntPart() <= 0 {
			continue
		}

		revenue := decimal.Zero
		if li.TotalMoney != nil {
			revenue = decimal.New(li.TotalMoney.Amount, -2)
		}

		out = append(out, domain.SaleRecord{
			ItemID:   li.CatalogObjectID,
			Quantity: int(qty.IntPart()),
			Date:     createdAt.UTC(),
			Revenue:  revenue.InexactFloat64(),
		})
	}
	return out
}

// locationIDs returns the configured locations, or every active location.
func (c *Client) locationIDs(ctx context.Context) ([]string, error) {
	if len(c.cfg.LocationIDs) > 0 {
		return c.cfg.LocationIDs, nil
	}

	var resp locationsResponse
	if err := c.do(ctx, "GET", "/v2/locations", nil, &resp); err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}

	ids := make([]string, 0, len(resp.Locations))
	for _, loc := range resp.Locations {
		if loc.Status == "" || loc.Status == "ACTIVE" {
			ids = append(ids, loc.ID)
		}
	}
	if len(ids) == 0 {
		return nil, fmt.Errorf("no active locations found")
	}
	return ids, nil
}
