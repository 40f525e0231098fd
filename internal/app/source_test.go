package app

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/provider"
	"github.com/andresuchdata/stockrisk/internal/provider/demo"
	"github.com/andresuchdata/stockrisk/internal/provider/snapshot"
)

func testConfig() *config.Config {
	return &config.Config{
		Source: config.SourceConfig{Kind: KindDemo, FallbackToDemo: true, DemoSeed: 7},
	}
}

func TestNewSource_Demo(t *testing.T) {
	src, closeFn, err := NewSource(context.Background(), KindDemo, testConfig())
	require.NoError(t, err)
	defer closeFn()

	res, err := src.Fetch(context.Background(), provider.NewWindow(7))
	require.NoError(t, err)
	assert.Equal(t, demo.Name, res.Source)
	assert.False(t, res.Degraded())
	assert.Len(t, res.Snapshot.Inventory, 6)
	assert.Len(t, res.Snapshot.Sales, 6*7)
}

func TestNewSource_SquareWithoutTokenFallsBack(t *testing.T) {
	src, closeFn, err := NewSource(context.Background(), KindSquare, testConfig())
	require.NoError(t, err)
	defer closeFn()

	res, err := src.Fetch(context.Background(), provider.NewWindow(30))
	require.NoError(t, err)
	assert.True(t, res.Degraded())
	assert.Equal(t, demo.Name, res.Source)
	assert.Contains(t, res.FallbackReason, "square")
	assert.NotEmpty(t, res.Snapshot.Inventory)
}

func TestNewSource_SquareWithoutTokenNoFallback(t *testing.T) {
	cfg := testConfig()
	cfg.Source.FallbackToDemo = false

	_, closeFn, err := NewSource(context.Background(), KindSquare, cfg)
	require.NotNil(t, closeFn)
	assert.ErrorIs(t, err, provider.ErrNotConfigured)
}

func TestNewSource_File(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig()
	cfg.Source.FallbackToDemo = false
	cfg.File = config.FileConfig{
		InventoryPath: filepath.Join(dir, "inventory.csv"),
		SalesPath:     filepath.Join(dir, "sales.csv"),
	}

	today := time.Now().UTC().Truncate(24 * time.Hour)
	require.NoError(t, snapshot.WriteFiles(domain.Snapshot{
		Inventory: []domain.InventoryItem{{ID: "1", SKU: "COFFEE-001", Name: "Coffee", CurrentStock: 45, ReorderPoint: 50, MaxStock: 200}},
		Sales:     []domain.SaleRecord{{ItemID: "1", Quantity: 2, Date: today}},
	}, cfg.File.InventoryPath, cfg.File.SalesPath))

	src, closeFn, err := NewSource(context.Background(), KindFile, cfg)
	require.NoError(t, err)
	defer closeFn()

	res, err := src.Fetch(context.Background(), provider.NewWindow(30))
	require.NoError(t, err)
	assert.Equal(t, "file", res.Source)
	require.Len(t, res.Snapshot.Inventory, 1)
	assert.Equal(t, "COFFEE-001", res.Snapshot.Inventory[0].SKU)
	assert.Len(t, res.Snapshot.Sales, 1)
}

func TestNewProvider_Unknown(t *testing.T) {
	_, closeFn, err := NewProvider(context.Background(), "ftp", testConfig())
	require.NotNil(t, closeFn)
	assert.ErrorContains(t, err, `unknown data source "ftp"`)
}

func TestNewProvider_DriveNeedsCredentials(t *testing.T) {
	_, _, err := NewProvider(context.Background(), KindDrive, testConfig())
	assert.ErrorIs(t, err, provider.ErrNotConfigured)
}

func TestNewSource_UnknownKindIgnoresFallback(t *testing.T) {
	_, closeFn, err := NewSource(context.Background(), "ftp", testConfig())
	require.NotNil(t, closeFn)
	assert.ErrorContains(t, err, "unknown data source")
}
