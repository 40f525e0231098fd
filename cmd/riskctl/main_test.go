package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockrisk/internal/cache"
	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/domain"
)

func testConfig() *config.Config {
	return &config.Config{
		Analysis: config.AnalysisConfig{WindowDays: 30, Workers: 2},
		Source:   config.SourceConfig{Kind: "demo", FallbackToDemo: true, DemoSeed: 42},
	}
}

func run(t *testing.T, cfg *config.Config, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	a := newApp(cfg)
	a.Writer = &out
	a.ErrWriter = &out
	err := a.Run(append([]string{"riskctl"}, args...))
	return out.String(), err
}

func TestAnalyze_JSON(t *testing.T) {
	out, err := run(t, testConfig(), "analyze", "--format", "json", "--window", "14")
	require.NoError(t, err)

	var got domain.AnalysisRun
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "demo", got.Source)
	assert.Equal(t, 14, got.WindowDays)
	assert.Len(t, got.Items, 6)
	for i := 1; i < len(got.Items); i++ {
		assert.GreaterOrEqual(t, got.Items[i-1].OverallRisk, got.Items[i].OverallRisk)
	}
}

func TestAnalyze_Table(t *testing.T) {
	out, err := run(t, testConfig(), "analyze", "--filter", "all")
	require.NoError(t, err)

	assert.Contains(t, out, "source demo")
	assert.Contains(t, out, "SKU")
	assert.Contains(t, out, "COFFEE-001")
	assert.Contains(t, out, "MUFFIN-006")
}

func TestAnalyze_RejectsBadFlags(t *testing.T) {
	_, err := run(t, testConfig(), "analyze", "--filter", "everything")
	assert.ErrorContains(t, err, "unknown risk filter")

	_, err = run(t, testConfig(), "analyze", "--format", "yaml")
	assert.ErrorContains(t, err, "unknown format")

	_, err = run(t, testConfig(), "analyze", "--source", "carrier-pigeon")
	assert.ErrorContains(t, err, "unknown data source")
}

func TestExport(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "snapshots")

	out, err := run(t, testConfig(), "export", "--dir", dir, "--window", "3")
	require.NoError(t, err)
	assert.Contains(t, out, "inventory.csv")

	inv, err := os.ReadFile(filepath.Join(dir, "inventory.csv"))
	require.NoError(t, err)
	assert.Equal(t, 7, len(strings.Split(strings.TrimSpace(string(inv)), "\n")), "header plus six items")

	sales, err := os.ReadFile(filepath.Join(dir, "sales.csv"))
	require.NoError(t, err)
	assert.Equal(t, 19, len(strings.Split(strings.TrimSpace(string(sales)), "\n")), "header plus 3 days x 6 items")

	_, err = run(t, testConfig(), "export", "--dir", dir, "--format", "parquet")
	assert.Error(t, err)
}

func TestExport_XLSXRoundTripsThroughFileSource(t *testing.T) {
	dir := t.TempDir()
	_, err := run(t, testConfig(), "export", "--dir", dir, "--format", "xlsx", "--window", "5")
	require.NoError(t, err)

	cfg := testConfig()
	cfg.Source.FallbackToDemo = false
	cfg.File = config.FileConfig{
		InventoryPath: filepath.Join(dir, "inventory.xlsx"),
		SalesPath:     filepath.Join(dir, "sales.xlsx"),
	}
	out, err := run(t, cfg, "analyze", "--source", "file", "--format", "json")
	require.NoError(t, err)

	var got domain.AnalysisRun
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "file", got.Source)
	assert.Len(t, got.Items, 6)
}

func TestFormatDays(t *testing.T) {
	assert.Equal(t, "-", formatDays(domain.NoHorizon))
	assert.Equal(t, "2.7", formatDays(8.0/3))
}

type countingRunCache struct {
	cache.RunCache
	invalidations int
}

func (c *countingRunCache) InvalidateAll(ctx context.Context) (int, error) {
	c.invalidations++
	return 3, nil
}

func TestInvalidateCachedRuns(t *testing.T) {
	fake := &countingRunCache{RunCache: cache.NewNoopRunCache()}
	opened := 0
	original := newRunCache
	newRunCache = func(cfg config.CacheConfig) (cache.RunCache, error) {
		opened++
		if cfg.RedisHost == "down" {
			return nil, errors.New("redis ping failed")
		}
		return fake, nil
	}
	t.Cleanup(func() { newRunCache = original })
	ctx := context.Background()

	invalidateCachedRuns(ctx, config.CacheConfig{Enabled: false})
	assert.Zero(t, opened)

	invalidateCachedRuns(ctx, config.CacheConfig{Enabled: true, RedisHost: "cache"})
	assert.Equal(t, 1, fake.invalidations)

	invalidateCachedRuns(ctx, config.CacheConfig{Enabled: true, RedisHost: "down"})
	assert.Equal(t, 2, opened)
	assert.Equal(t, 1, fake.invalidations)
}
