package sqlstore

import (
	"context"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/stockrisk/internal/config"
	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/provider"
)

func TestDSN(t *testing.T) {
	cfg := config.DatabaseConfig{
		Host: "db", Port: "5432", User: "risk", Password: "s3cret", DBName: "stockrisk", SSLMode: "disable",
	}

	cfg.Driver = DriverPostgres
	dsn, err := DSN(cfg)
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=risk password=s3cret dbname=stockrisk sslmode=disable", dsn)

	cfg.Driver = DriverPgx
	pgxDSN, err := DSN(cfg)
	require.NoError(t, err)
	assert.Equal(t, dsn, pgxDSN)

	cfg.Driver = DriverMySQL
	cfg.Port = "3306"
	dsn, err = DSN(cfg)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dsn, "risk:s3cret@tcp(db:3306)/stockrisk?"), dsn)
	assert.Contains(t, dsn, "parseTime=true")

	cfg.Driver = "sqlite"
	_, err = DSN(cfg)
	assert.ErrorContains(t, err, "unsupported")
}

func TestSchemaFor(t *testing.T) {
	assert.Contains(t, schemaFor(DriverMySQL)[1], "AUTO_INCREMENT")
	assert.Contains(t, schemaFor(DriverPostgres)[1], "BIGSERIAL")
	assert.Contains(t, schemaFor(DriverPgx)[1], "BIGSERIAL")
}

func TestFetch_NotConfigured(t *testing.T) {
	_, err := NewStore(nil).Fetch(context.Background(), provider.NewWindow(30))
	assert.ErrorIs(t, err, provider.ErrNotConfigured)
}

func openTestDB(t *testing.T) *DB {
	driver := os.Getenv("TEST_DB_DRIVER")
	if driver == "" {
		driver = DriverPgx
	}
	cfg := config.DatabaseConfig{
		Driver:   driver,
		Host:     envOr("TEST_DB_HOST", "localhost"),
		Port:     envOr("TEST_DB_PORT", "5432"),
		User:     envOr("TEST_DB_USER", "postgres"),
		Password: envOr("TEST_DB_PASSWORD", "postgres"),
		DBName:   envOr("TEST_DB_NAME", "stockrisk_test"),
		SSLMode:  "disable",
	}

	db, err := Open(cfg)
	if err != nil {
		t.Skipf("database not available: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func TestStore_ReplaceThenFetch(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()
	store := NewStore(db)
	require.NoError(t, store.Migrate(ctx))

	end := time.Date(2024, 4, 30, 0, 0, 0, 0, time.UTC)
	snap := domain.Snapshot{
		Inventory: []domain.InventoryItem{
			{ID: "1", SKU: "COFFEE-001", Name: "Coffee", Category: "Beverages", CurrentStock: 45, CostPerUnit: 12.5, PricePerUnit: 24.99, ReorderPoint: 50, MaxStock: 200},
			{ID: "2", SKU: "LATTE-002", Name: "Latte Mix", Category: "Beverages", CurrentStock: 8, CostPerUnit: 8, PricePerUnit: 16.99, ReorderPoint: 25, MaxStock: 100},
		},
		Sales: []domain.SaleRecord{
			{ItemID: "1", Quantity: 7, Date: end.AddDate(0, 0, -1), Revenue: 174.93},
			{ItemID: "2", Quantity: 3, Date: end.AddDate(0, 0, -2), Revenue: 50.97},
			{ItemID: "2", Quantity: 3, Date: end.AddDate(0, 0, -60), Revenue: 50.97},
		},
	}
	require.NoError(t, store.ReplaceSnapshot(ctx, snap))

	got, err := store.Fetch(ctx, provider.Window{Days: 30, End: end})
	require.NoError(t, err)

	assert.Equal(t, snap.Inventory, got.Inventory)
	require.Len(t, got.Sales, 2)
	assert.Equal(t, "2", got.Sales[0].ItemID)
	assert.Equal(t, "2024-04-28", got.Sales[0].DayKey())
	assert.Equal(t, 174.93, got.Sales[1].Revenue)
}
