package sqlstore

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	"github.com/andresuchdata/stockrisk/internal/domain"
	"github.com/andresuchdata/stockrisk/internal/provider"
)

const insertBatchSize = 500

var postgresSchema = []string{
	`CREATE TABLE IF NOT EXISTS inventory_items (
		id VARCHAR(64) PRIMARY KEY,
		sku VARCHAR(128) NOT NULL,
		name TEXT NOT NULL DEFAULT '',
		category VARCHAR(128) NOT NULL DEFAULT '',
		current_stock INTEGER NOT NULL,
		cost_per_unit NUMERIC(12,2) NOT NULL DEFAULT 0,
		price_per_unit NUMERIC(12,2) NOT NULL DEFAULT 0,
		reorder_point INTEGER NOT NULL DEFAULT 0,
		max_stock INTEGER NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id BIGSERIAL PRIMARY KEY,
		item_id VARCHAR(64) NOT NULL,
		quantity INTEGER NOT NULL,
		sale_date DATE NOT NULL,
		revenue NUMERIC(12,2) NOT NULL DEFAULT 0
	)`,
	`CREATE INDEX IF NOT EXISTS idx_sales_sale_date ON sales (sale_date)`,
}

var mysqlSchema = []string{
	`CREATE TABLE IF NOT EXISTS inventory_items (
		id VARCHAR(64) PRIMARY KEY,
		sku VARCHAR(128) NOT NULL,
		name TEXT NOT NULL,
		category VARCHAR(128) NOT NULL DEFAULT '',
		current_stock INT NOT NULL,
		cost_per_unit DECIMAL(12,2) NOT NULL DEFAULT 0,
		price_per_unit DECIMAL(12,2) NOT NULL DEFAULT 0,
		reorder_point INT NOT NULL DEFAULT 0,
		max_stock INT NOT NULL DEFAULT 0
	)`,
	`CREATE TABLE IF NOT EXISTS sales (
		id BIGINT AUTO_INCREMENT PRIMARY KEY,
		item_id VARCHAR(64) NOT NULL,
		quantity INT NOT NULL,
		sale_date DATE NOT NULL,
		revenue DECIMAL(12,2) NOT NULL DEFAULT 0,
		INDEX idx_sales_sale_date (sale_date)
	)`,
}

// schemaFor returns the DDL statements for a driver.
func schemaFor(driver string) []string {
	if driver == DriverMySQL {
		return mysqlSchema
	}
	return postgresSchema
}

const (
	selectInventory = `SELECT id, sku, name, category, current_stock, cost_per_unit, price_per_unit, reorder_point, max_stock
		FROM inventory_items ORDER BY id`
	selectSales = `SELECT item_id, quantity, sale_date, revenue
		FROM sales WHERE sale_date >= ? AND sale_date <= ? ORDER BY sale_date, id`
	insertInventory = `INSERT INTO inventory_items (id, sku, name, category, current_stock, cost_per_unit, price_per_unit, reorder_point, max_stock)
		VALUES (:id, :sku, :name, :category, :current_stock, :cost_per_unit, :price_per_unit, :reorder_point, :max_stock)`
	insertSales = `INSERT INTO sales (item_id, quantity, sale_date, revenue)
		VALUES (:item_id, :quantity, :sale_date, :revenue)`
)

// Store reads and writes snapshots in the database.
type Store struct {
	db *DB
}

func NewStore(db *DB) *Store {
	return &Store{db: db}
}

func (s *Store) Name() string { return "database" }

// Migrate creates the tables when they do not exist.
func (s *Store) Migrate(ctx context.Context) error {
	for _, stmt := range schemaFor(s.db.DriverName()) {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

func (s *Store) Fetch(ctx context.Context, window provider.Window) (domain.Snapshot, error) {
	if s.db == nil {
		return domain.Snapshot{}, fmt.Errorf("database connection is required: %w", provider.ErrNotConfigured)
	}

	var inventory []domain.InventoryItem
	if err := s.db.SelectContext(ctx, &inventory, selectInventory); err != nil {
		return domain.Snapshot{}, fmt.Errorf("select inventory: %w", err)
	}

	var sales []domain.SaleRecord
	query := s.db.Rebind(selectSales)
	if err := s.db.SelectContext(ctx, &sales, query, window.Start(), window.End); err != nil {
		return domain.Snapshot{}, fmt.Errorf("select sales: %w", err)
	}

	return domain.Snapshot{Inventory: inventory, Sales: sales}, nil
}

// ReplaceSnapshot swaps the stored inventory and sales for snap in one transaction.
func (s *Store) ReplaceSnapshot(ctx context.Context, snap domain.Snapshot) error {
	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		if _, err := tx.ExecContext(ctx, "DELETE FROM sales"); err != nil {
			return fmt.Errorf("clear sales: %w", err)
		}
		if _, err := tx.ExecContext(ctx, "DELETE FROM inventory_items"); err != nil {
			return fmt.Errorf("clear inventory: %w", err)
		}
		if err := insertChunked(ctx, tx, insertInventory, snap.Inventory); err != nil {
			return fmt.Errorf("insert inventory: %w", err)
		}
		if err := insertChunked(ctx, tx, insertSales, snap.Sales); err != nil {
			return fmt.Errorf("insert sales: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	log.Info().
		Int("items", len(snap.Inventory)).
		Int("sales", len(snap.Sales)).
		Msg("Snapshot stored in database")
	return nil
}

func insertChunked[T any](ctx context.Context, tx *sqlx.Tx, query string, rows []T) error {
	for start := 0; start < len(rows); start += insertBatchSize {
		end := min(start+insertBatchSize, len(rows))
		if _, err := tx.NamedExecContext(ctx, query, rows[start:end]); err != nil {
			return err
		}
	}
	return nil
}
