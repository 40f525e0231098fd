// Package drive serves snapshots from inventory/sales files in a Google Drive folder.
package drive

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/provider"
	"github.com/andresuchdata/stockrisk/internal/provider/snapshot"
)

// Files is the part of the Drive API the provider uses.
type Files interface {
	ListFiles(ctx context.Context, folderID string) ([]*File, error)
	DownloadFile(ctx context.Context, file *File, w io.Writer) error
}

// Provider looks up the inventory and sales files by name inside one folder.
type Provider struct {
	files         Files
	folderID      string
	inventoryName string
	salesName     string
}

// New creates a Drive-backed provider.
func New(files Files, folderID, inventoryName, salesName string) *Provider {
	return &Provider{
		files:         files,
		folderID:      folderID,
		inventoryName: inventoryName,
		salesName:     salesName,
	}
}

func (p *Provider) Name() string { return "drive" }

func (p *Provider) Fetch(ctx context.Context, window provider.Window) (domain.Snapshot, error) {
	if p.files == nil || p.folderID == "" {
		return domain.Snapshot{}, fmt.Errorf("drive folder is required: %w", provider.ErrNotConfigured)
	}

	listing, err := p.files.ListFiles(ctx, p.folderID)
	if err != nil {
		return domain.Snapshot{}, err
	}

	invData, invFormat, err := p.download(ctx, listing, p.inventoryName)
	if err != nil {
		return domain.Snapshot{}, err
	}
	inventory, err := snapshot.ReadInventory(bytes.NewReader(invData), invFormat)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s: %w", p.inventoryName, err)
	}

	salesData, salesFormat, err := p.download(ctx, listing, p.salesName)
	if err != nil {
		return domain.Snapshot{}, err
	}
	sales, err := snapshot.ReadSales(bytes.NewReader(salesData), salesFormat)
	if err != nil {
		return domain.Snapshot{}, fmt.Errorf("%s: %w", p.salesName, err)
	}

	return domain.Snapshot{
		Inventory: inventory,
		Sales:     provider.FilterSales(sales, window),
	}, nil
}

// download fetches the newest file called name. A native Sheet also matches
// name without its extension.
func (p *Provider) download(ctx context.Context, listing []*File, name string) ([]byte, snapshot.Format, error) {
	file := findFile(listing, name)
	if file == nil {
		return nil, "", fmt.Errorf("file %q not found in drive folder %s", name, p.folderID)
	}

	var buf bytes.Buffer
	if err := p.files.DownloadFile(ctx, file, &buf); err != nil {
		return nil, "", err
	}

	format := snapshot.FormatFromName(file.Name)
	if file.IsSpreadsheet() {
		format = snapshot.FormatXLSX
	}
	return buf.Bytes(), format, nil
}

func findFile(listing []*File, name string) *File {
	base := strings.TrimSuffix(name, filepath.Ext(name))
	for _, f := range listing {
		if strings.EqualFold(f.Name, name) {
			return f
		}
		if f.IsSpreadsheet() && strings.EqualFold(f.Name, base) {
			return f
		}
	}
	return nil
}
