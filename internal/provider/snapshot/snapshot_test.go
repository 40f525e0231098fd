package snapshot

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/provider"
)

func TestReadInventory_CSVAliases(t *testing.T) {
	input := `Item ID, SKU ,Product Name,Kategori,Stok,HPP,Harga,Reorder Point,Max. Stock
1,COFFEE-001,Coffee Beans,Beverages,"1,045",12.50,24.99,50,200

2,,Latte Mix,Beverages,8,8,16.99,25,100
`

	items, err := ReadInventory(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	require.Len(t, items, 2)

	assert.Equal(t, domain.InventoryItem{
		ID:           "1",
		SKU:          "COFFEE-001",
		Name:         "Coffee Beans",
		Category:     "Beverages",
		CurrentStock: 1045,
		CostPerUnit:  12.50,
		PricePerUnit: 24.99,
		ReorderPoint: 50,
		MaxStock:     200,
	}, items[0])
	assert.Equal(t, "2", items[1].SKU, "sku falls back to the id")
}

func TestReadInventory_MissingColumn(t *testing.T) {
	_, err := ReadInventory(strings.NewReader("id,sku\n1,A\n"), FormatCSV)
	assert.ErrorIs(t, err, ErrMissingColumn)

	_, err = ReadInventory(strings.NewReader(""), FormatCSV)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestReadInventory_BadNumbers(t *testing.T) {
	input := "id,stock,cost\n1,ten,1\n2,5,abc\n"

	_, err := ReadInventory(strings.NewReader(input), FormatCSV)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `line 2: invalid current_stock "ten"`)
	assert.Contains(t, err.Error(), `line 3: invalid cost_per_unit "abc"`)
}

func TestReadSales(t *testing.T) {
	input := `item_id,qty,date,amount
1,3,2024-03-01,74.97
2,1,2024-03-02T10:30:00Z,
`

	sales, err := ReadSales(strings.NewReader(input), FormatCSV)
	require.NoError(t, err)
	require.Len(t, sales, 2)

	assert.Equal(t, "1", sales[0].ItemID)
	assert.Equal(t, 3, sales[0].Quantity)
	assert.Equal(t, "2024-03-01", sales[0].DayKey())
	assert.Equal(t, 74.97, sales[0].Revenue)
	assert.Equal(t, "2024-03-02", sales[1].DayKey())
	assert.Zero(t, sales[1].Revenue)

	_, err = ReadSales(strings.NewReader("item_id,qty,date\n1,2,yesterday\n"), FormatCSV)
	assert.ErrorContains(t, err, `invalid date "yesterday"`)
}

func sampleSnapshot() domain.Snapshot {
	return domain.Snapshot{
		Inventory: []domain.InventoryItem{
			{ID: "1", SKU: "COFFEE-001", Name: "Coffee, Dark Roast", Category: "Beverages", CurrentStock: 45, CostPerUnit: 12.5, PricePerUnit: 24.99, ReorderPoint: 50, MaxStock: 200},
			{ID: "2", SKU: "MUFFIN-006", Name: "Muffin", Category: "Bakery", CurrentStock: 3, CostPerUnit: 1.75, PricePerUnit: 4.49, ReorderPoint: 15, MaxStock: 48},
		},
		Sales: []domain.SaleRecord{
			{ItemID: "1", Quantity: 7, Date: time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), Revenue: 174.93},
			{ItemID: "2", Quantity: 2, Date: time.Date(2024, 3, 2, 0, 0, 0, 0, time.UTC), Revenue: 8.98},
		},
	}
}

func TestWriteThenRead(t *testing.T) {
	for _, format := range []Format{FormatCSV, FormatXLSX} {
		t.Run(string(format), func(t *testing.T) {
			want := sampleSnapshot()

			var inv, sales bytes.Buffer
			require.NoError(t, WriteInventory(&inv, want.Inventory, format))
			require.NoError(t, WriteSales(&sales, want.Sales, format))

			gotInv, err := ReadInventory(&inv, format)
			require.NoError(t, err)
			gotSales, err := ReadSales(&sales, format)
			require.NoError(t, err)

			assert.Equal(t, want.Inventory, gotInv)
			assert.Equal(t, want.Sales, gotSales)
		})
	}
}

func TestFormatFromName(t *testing.T) {
	assert.Equal(t, FormatXLSX, FormatFromName("exports/Inventory.XLSX"))
	assert.Equal(t, FormatCSV, FormatFromName("inventory.csv"))
	assert.Equal(t, FormatCSV, FormatFromName("inventory"))
}

func TestFileProvider(t *testing.T) {
	dir := t.TempDir()
	invPath := filepath.Join(dir, "inventory.xlsx")
	salesPath := filepath.Join(dir, "sales.csv")

	snap := sampleSnapshot()
	snap.Sales = append(snap.Sales, domain.SaleRecord{
		ItemID: "1", Quantity: 4, Date: time.Date(2023, 12, 1, 0, 0, 0, 0, time.UTC), Revenue: 99.96,
	})
	require.NoError(t, WriteFiles(snap, invPath, salesPath))

	p := NewFileProvider(invPath, salesPath)
	window := provider.Window{Days: 30, End: time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)}

	got, err := p.Fetch(context.Background(), window)
	require.NoError(t, err)

	assert.Equal(t, "file", p.Name())
	assert.Len(t, got.Inventory, 2)
	assert.Len(t, got.Sales, 2, "sales outside the window are dropped")
}

func TestFileProvider_Errors(t *testing.T) {
	_, err := NewFileProvider("", "").Fetch(context.Background(), provider.NewWindow(30))
	assert.ErrorIs(t, err, provider.ErrNotConfigured)

	_, err = NewFileProvider("/nonexistent/inv.csv", "/nonexistent/sales.csv").Fetch(context.Background(), provider.NewWindow(30))
	assert.ErrorIs(t, err, os.ErrNotExist)
}
