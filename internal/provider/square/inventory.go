package square

import (
	"context"
	"fmt"
	"net/url"

	"github.com/shopspring/decimal"

	"github.com/andresuchdata/stockrisk/internal/domain"
)

const (
	countsBatchSize = 500
	defaultVariant  = "Regular"
	stateInStock    = "IN_STOCK"
)

// FetchInventory lists every item variation in the catalog with its on-hand stock.
func (c *Client) FetchInventory(ctx context.Context) ([]domain.InventoryItem, error) {
	ctx, span := tracer.Start(ctx, "square.FetchInventory")
	defer span.End()

	objects, err := c.listCatalog(ctx)
	if err != nil {
		return nil, err
	}

	categories := make(map[string]string)
	for _, obj := range objects {
		if obj.Type == "CATEGORY" && obj.CategoryData != nil {
			categories[obj.ID] = obj.CategoryData.Name
		}
	}

	items := make([]domain.InventoryItem, 0, len(objects))
	for _, obj := range objects {
		if obj.Type != "ITEM" || obj.IsDeleted || obj.ItemData == nil {
			continue
		}
		for _, v := range obj.ItemData.Variations {
			if v.IsDeleted {
				continue
			}
			items = append(items, c.toInventoryItem(obj.ItemData, v, categories))
		}
	}

	ids := make([]string, len(items))
	for i, item := range items {
		ids[i] = item.ID
	}
	stock, err := c.fetchCounts(ctx, ids)
	if err != nil {
		return nil, err
	}

	for i := range items {
		items[i].CurrentStock = stock[items[i].ID]
		items[i].MaxStock = c.maxStock(items[i])
	}

	return items, nil
}

func (c *Client) listCatalog(ctx context.Context) ([]catalogObject, error) {
	var objects []catalogObject
	cursor := ""
	for {
		q := url.Values{"types": {"ITEM,CATEGORY"}}
		if cursor != "" {
			q.Set("cursor", cursor)
		}

		var page catalogListResponse
		if err := c.do(ctx, "GET", "/v2/catalog/list?"+q.Encode(), nil, &page); err != nil {
			return nil, fmt.Errorf("list catalog: %w", err)
		}
		objects = append(objects, page.Objects...)

		if page.Cursor == "" {
			return objects, nil
		}
		cursor = page.Cursor
	}
}

func (c *Client) toInventoryItem(item *itemData, v variationObject, categories map[string]string) domain.InventoryItem {
	name := item.Name
	if vn := v.VariationData.Name; vn != "" && vn != defaultVariant {
		name = fmt.Sprintf("%s - %s", item.Name, vn)
	}

	sku := v.VariationData.SKU
	if sku == "" {
		sku = v.ID
	}

	categoryID := item.CategoryID
	if categoryID == "" && len(item.Categories) > 0 {
		categoryID = item.Categories[0].ID
	}
	category := categories[categoryID]
	if category == "" {
		category = categoryID
	}

	price := decimal.Zero
	if v.VariationData.PriceMoney != nil {
		price = decimal.New(v.VariationData.PriceMoney.Amount, -2)
	}
	cost := price.Mul(decimal.NewFromFloat(c.cfg.DefaultCostRatio)).Round(2)

	return domain.InventoryItem{
		ID:           v.ID,
		SKU:          sku,
		Name:         name,
		Category:     category,
		CostPerUnit:  cost.InexactFloat64(),
		PricePerUnit: price.InexactFloat64(),
		ReorderPoint: int(alertThreshold(v.VariationData)),
	}
}

// alertThreshold prefers the variation-wide threshold and falls back to the
// highest per-location override.
func alertThreshold(v variationData) int64 {
	if v.InventoryAlertThreshold > 0 {
		return v.InventoryAlertThreshold
	}
	var best int64
	for _, o := range v.LocationOverrides {
		best = max(best, o.InventoryAlertThreshold)
	}
	return best
}

// maxStock derives the stocking cap from the reorder point. Items without an
// alert threshold get their current stock as cap so they never read as over cap.
func (c *Client) maxStock(item domain.InventoryItem) int {
	if item.ReorderPoint > 0 {
		return item.ReorderPoint * c.cfg.DefaultMaxStockFactor
	}
	return item.CurrentStock
}

// fetchCounts sums IN_STOCK quantities across locations per variation ID.
func (c *Client) fetchCounts(ctx context.Context, ids []string) (map[string]int, error) {
	totals := make(map[string]decimal.Decimal, len(ids))

	for start := 0; start < len(ids); start += countsBatchSize {
		end := min(start+countsBatchSize, len(ids))
		req := inventoryCountsRequest{
			CatalogObjectIDs: ids[start:end],
			LocationIDs:      c.cfg.LocationIDs,
			States:           []string{stateInStock},
		}

		for {
			var page inventoryCountsResponse
			if err := c.do(ctx, "POST", "/v2/inventory/counts/batch-retrieve", req, &page); err != nil {
				return nil, fmt.Errorf("retrieve inventory counts: %w", err)
			}
			for _, count := range page.Counts {
				if count.State != stateInStock {
					continue
				}
				qty, err := decimal.NewFromString(count.Quantity)
				if err != nil {
					return nil, fmt.Errorf("count for %s: invalid quantity %q", count.CatalogObjectID, count.Quantity)
				}
				totals[count.CatalogObjectID] = totals[count.CatalogObjectID].Add(qty)
			}

			if page.Cursor == "" {
				break
			}
			req.Cursor = page.Cursor
		}
	}

	stock := make(map[string]int, len(totals))
	for id, qty := range totals {
		stock[id] = max(0, int(qty.IntPart()))
	}
	return stock, nil
}
