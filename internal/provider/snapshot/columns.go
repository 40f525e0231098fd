// Package snapshot reads and writes inventory/sales snapshots as CSV or XLSX
// tables, and serves them from local files.
package snapshot

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/andresuchdata/stockrisk/internal/domain"
)

// ErrMissingColumn is returned when a required column is absent from the header.
var ErrMissingColumn = errors.New("missing required column")

// Column aliases accepted on read. The first alias of each is what writers emit.
var (
	colID           = []string{"id", "item_id", "item id", "variation_id"}
	colSKU          = []string{"sku", "kode", "code"}
	colName         = []string{"name", "nama", "product name", "item name"}
	colCategory     = []string{"category", "kategori"}
	colCurrentStock = []string{"current_stock", "stock", "stok", "on hand", "quantity on hand"}
	colCostPerUnit  = []string{"cost_per_unit", "cost", "hpp", "unit cost"}
	colPricePerUnit = []string{"price_per_unit", "price", "harga", "unit price"}
	colReorderPoint = []string{"reorder_point", "min stock", "alert threshold"}
	colMaxStock     = []string{"max_stock", "max. stock", "maximum stock"}

	colSaleItemID  = []string{"item_id", "itemid", "id", "variation_id"}
	colSaleQty     = []string{"quantity", "qty", "units", "sold"}
	colSaleDate    = []string{"date", "sale_date", "tanggal", "created_at"}
	colSaleRevenue = []string{"revenue", "amount", "total"}
)

var inventoryHeader = []string{
	colID[0], colSKU[0], colName[0], colCategory[0], colCurrentStock[0],
	colCostPerUnit[0], colPricePerUnit[0], colReorderPoint[0], colMaxStock[0],
}

var salesHeader = []string{colSaleItemID[0], colSaleQty[0], colSaleDate[0], colSaleRevenue[0]}

var dateLayouts = []string{domain.DateLayout, time.RFC3339, "2006-01-02 15:04:05", "02/01/2006"}

var columnNameSanitizer = strings.NewReplacer(" ", "", "_", "", ".", "", "-", "", "/", "")

func normalizeColumnName(name string) string {
	name = strings.TrimSpace(strings.ToLower(name))
	return columnNameSanitizer.Replace(name)
}

// columnIndex returns the position of the first header matching any alias, or -1.
func columnIndex(header []string, aliases ...string) int {
	targets := make(map[string]struct{}, len(aliases))
	for _, name := range aliases {
		targets[normalizeColumnName(name)] = struct{}{}
	}
	for i, h := range header {
		if _, ok := targets[normalizeColumnName(h)]; ok {
			return i
		}
	}
	return -1
}

func requireColumn(header []string, aliases ...string) (int, error) {
	idx := columnIndex(header, aliases...)
	if idx < 0 {
		return -1, fmt.Errorf("%w: %s", ErrMissingColumn, aliases[0])
	}
	return idx, nil
}

// row wraps one record with its 1-based line number for error messages.
type row struct {
	line   int
	record []string
}

func (r row) get(idx int) string {
	if idx < 0 || idx >= len(r.record) {
		return ""
	}
	return strings.TrimSpace(r.record[idx])
}

func (r row) blank() bool {
	for _, v := range r.record {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

func (r row) float(idx int, column string) (float64, error) {
	v := strings.ReplaceAll(r.get(idx), ",", "")
	if v == "" {
		return 0, nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, fmt.Errorf("line %d: invalid %s %q", r.line, column, v)
	}
	return f, nil
}

func (r row) int(idx int, column string) (int, error) {
	f, err := r.float(idx, column)
	if err != nil {
		return 0, err
	}
	return int(f), nil
}

func (r row) date(idx int, column string) (time.Time, error) {
	v := r.get(idx)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, v); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("line %d: invalid %s %q", r.line, column, v)
}
