package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/provider"
	"github.com/andresuchdata/stockrisk/internal/provider/snapshot"
)

type fakeFiles struct {
	listing  []*File
	contents map[string][]byte
}

func (f *fakeFiles) ListFiles(ctx context.Context, folderID string) ([]*File, error) {
	return f.listing, nil
}

func (f *fakeFiles) DownloadFile(ctx context.Context, file *File, w io.Writer) error {
	data, ok := f.contents[file.ID]
	if !ok {
		return fmt.Errorf("no content for %s", file.ID)
	}
	_, err := w.Write(data)
	return err
}

func encode(t *testing.T, write func(io.Writer) error) []byte {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, write(&buf))
	return buf.Bytes()
}

func TestFetch_FindsFilesByName(t *testing.T) {
	end := time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC)
	inventory := []domain.InventoryItem{{ID: "4", SKU: "BREAD-004", Name: "Sourdough", CurrentStock: 15, CostPerUnit: 3, PricePerUnit: 7.99, ReorderPoint: 20, MaxStock: 60}}
	sales := []domain.SaleRecord{{ItemID: "4", Quantity: 3, Date: end.AddDate(0, 0, -1), Revenue: 23.97}}

	invXLSX := encode(t, func(w io.Writer) error { return snapshot.WriteInventory(w, inventory, snapshot.FormatXLSX) })
	salesCSV := encode(t, func(w io.Writer) error { return snapshot.WriteSales(w, sales, snapshot.FormatCSV) })

	files := &fakeFiles{
		listing: []*File{
			{ID: "f-new", Name: "inventory", MimeType: spreadsheetMimeType},
			{ID: "f-old", Name: "inventory.csv", MimeType: "text/csv"},
			{ID: "f-sales", Name: "Sales.CSV", MimeType: "text/csv"},
		},
		contents: map[string][]byte{
			"f-new":   invXLSX,
			"f-old":   []byte("garbage"),
			"f-sales": salesCSV,
		},
	}

	p := New(files, "folder-1", "inventory.csv", "sales.csv")
	got, err := p.Fetch(context.Background(), provider.Window{Days: 30, End: end})
	require.NoError(t, err)

	assert.Equal(t, "drive", p.Name())
	assert.Equal(t, inventory, got.Inventory, "the native sheet listed first wins")
	assert.Equal(t, sales, got.Sales)
}

func TestFetch_MissingFile(t *testing.T) {
	files := &fakeFiles{listing: []*File{{ID: "x", Name: "other.csv"}}}

	_, err := New(files, "folder-1", "inventory.csv", "sales.csv").Fetch(context.Background(), provider.NewWindow(30))
	assert.ErrorContains(t, err, `file "inventory.csv" not found`)
}

func TestFetch_NotConfigured(t *testing.T) {
	_, err := New(nil, "", "inventory.csv", "sales.csv").Fetch(context.Background(), provider.NewWindow(30))
	assert.ErrorIs(t, err, provider.ErrNotConfigured)
}

func TestNewService_BadCredentials(t *testing.T) {
	_, err := NewService(context.Background(), "{not json")
	assert.Error(t, err)
}
