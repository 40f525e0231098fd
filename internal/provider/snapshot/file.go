package snapshot

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/provider"
)

// FileProvider reads the snapshot from local CSV or XLSX files.
type FileProvider struct {
	InventoryPath string
	SalesPath     string
}

// NewFileProvider creates a provider for the given inventory and sales files.
func NewFileProvider(inventoryPath, salesPath string) *FileProvider {
	return &FileProvider{InventoryPath: inventoryPath, SalesPath: salesPath}
}

func (p *FileProvider) Name() string { return "file" }

func (p *FileProvider) Fetch(ctx context.Context, window provider.Window) (domain.Snapshot, error) {
	if p.InventoryPath == "" || p.SalesPath == "" {
		return domain.Snapshot{}, fmt.Errorf("inventory and sales paths are required: %w", provider.ErrNotConfigured)
	}
	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}

	inventory, err := readFile(p.InventoryPath, ReadInventory)
	if err != nil {
		return domain.Snapshot{}, err
	}
	sales, err := readFile(p.SalesPath, ReadSales)
	if err != nil {
		return domain.Snapshot{}, err
	}

	return domain.Snapshot{
		Inventory: inventory,
		Sales:     provider.FilterSales(sales, window),
	}, nil
}

func readFile[T any](path string, decode func(io.Reader, Format) ([]T, error)) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	out, err := decode(f, FormatFromName(path))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return out, nil
}

// WriteFiles writes a snapshot to the given paths, choosing the format from
// each file extension.
func WriteFiles(snapshot domain.Snapshot, inventoryPath, salesPath string) error {
	inv, err := os.Create(inventoryPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", inventoryPath, err)
	}
	defer inv.Close()
	if err := WriteInventory(inv, snapshot.Inventory, FormatFromName(inventoryPath)); err != nil {
		return fmt.Errorf("%s: %w", inventoryPath, err)
	}

	sales, err := os.Create(salesPath)
	if err != nil {
		return fmt.Errorf("create %s: %w", salesPath, err)
	}
	defer sales.Close()
	if err := WriteSales(sales, snapshot.Sales, FormatFromName(salesPath)); err != nil {
		return fmt.Errorf("%s: %w", salesPath, err)
	}

	return nil
}
