// Package objectstore serves snapshots kept as CSV/XLSX objects in a bucket.
package objectstore

import (
	"bytes"
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/provider"
	"github.com/andresuchdata/stockrisk/internal/provider/snapshot"
	"github.com/andresuchdata/stockrisk/internal/storage"
)

// Provider reads the inventory and sales objects named by its keys.
type Provider struct {
	store        storage.ObjectStorage
	inventoryKey string
	salesKey     string
}

// New creates a bucket-backed provider.
func New(store storage.ObjectStorage, inventoryKey, salesKey string) *Provider {
	return &Provider{store: store, inventoryKey: inventoryKey, salesKey: salesKey}
}

func (p *Provider) Name() string { return "bucket" }

func (p *Provider) Fetch(ctx context.Context, window provider.Window) (domain.Snapshot, error) {
	if p.store == nil || p.inventoryKey == "" || p.salesKey == "" {
		return domain.Snapshot{}, fmt.Errorf("bucket and object keys are required: %w", provider.ErrNotConfigured)
	}

	var (
		inventory []domain.InventoryItem
		sales     []domain.SaleRecord
	)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		data, err := p.store.GetObject(gctx, p.inventoryKey)
		if err != nil {
			return err
		}
		inventory, err = snapshot.ReadInventory(bytes.NewReader(data), snapshot.FormatFromName(p.inventoryKey))
		if err != nil {
			return fmt.Errorf("%s: %w", p.inventoryKey, err)
		}
		return nil
	})
	g.Go(func() error {
		data, err := p.store.GetObject(gctx, p.salesKey)
		if err != nil {
			return err
		}
		sales, err = snapshot.ReadSales(bytes.NewReader(data), snapshot.FormatFromName(p.salesKey))
		if err != nil {
			return fmt.Errorf("%s: %w", p.salesKey, err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return domain.Snapshot{}, err
	}

	return domain.Snapshot{
		Inventory: inventory,
		Sales:     provider.FilterSales(sales, window),
	}, nil
}

// Upload writes a snapshot to the bucket under the given keys.
func Upload(ctx context.Context, store storage.ObjectStorage, snap domain.Snapshot, inventoryKey, salesKey string) error {
	var inv, sales bytes.Buffer

	invFormat := snapshot.FormatFromName(inventoryKey)
	if err := snapshot.WriteInventory(&inv, snap.Inventory, invFormat); err != nil {
		return fmt.Errorf("encode inventory: %w", err)
	}
	salesFormat := snapshot.FormatFromName(salesKey)
	if err := snapshot.WriteSales(&sales, snap.Sales, salesFormat); err != nil {
		return fmt.Errorf("encode sales: %w", err)
	}

	if err := store.UploadObject(ctx, inventoryKey, inv.Bytes(), contentType(invFormat)); err != nil {
		return err
	}
	return store.UploadObject(ctx, salesKey, sales.Bytes(), contentType(salesFormat))
}

func contentType(format snapshot.Format) string {
	if format == snapshot.FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv"
}
