package database

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMigrateSQLite(t *testing.T) {
	ctx := context.Background()
	db, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "workshop.db"))
	require.NoError(t, err)
	defer db.Close()

	require.False(t, IsPostgres(db))
	require.NoError(t, Migrate(ctx, db))
	// idempotent
	require.NoError(t, Migrate(ctx, db))

	var tables []string
	require.NoError(t, db.SelectContext(ctx, &tables,
		`SELECT name FROM sqlite_master WHERE type = 'table' AND name NOT LIKE 'sqlite_%' ORDER BY name`))
	require.Equal(t, []string{
		"customers", "inventory_categories", "inventory_items", "item_activity", "job_card_materials",
		"job_cards", "outbox", "sales_return_items", "sales_returns", "stock_transactions", "testing_records",
	}, tables)
}

func TestStockFloorConstraint(t *testing.T) {
	ctx := context.Background()
	db, err := NewSQLite(ctx, filepath.Join(t.TempDir(), "workshop.db"))
	require.NoError(t, err)
	defer db.Close()
	require.NoError(t, Migrate(ctx, db))

	_, err = db.ExecContext(ctx, `INSERT INTO inventory_items (part_name, available_stock, created_at, updated_at)
		VALUES ('Nozzle', -1, CURRENT_TIMESTAMP, CURRENT_TIMESTAMP)`)
	require.Error(t, err)
}

func TestPostgresDSN(t *testing.T) {
	cfg := &PostgresConfig{Host: "db", Port: "5432", User: "u", Password: "p", DBName: "workshop", SSLMode: "disable"}
	require.Equal(t, "host=db port=5432 user=u password=p dbname=workshop sslmode=disable", cfg.DSN())
}
