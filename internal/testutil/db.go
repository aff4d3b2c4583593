// Package testutil holds database fixtures shared by package tests.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/fekuna/omnipos-workshop-service/pkg/database"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"
)

// NewSQLite returns a migrated database in the test's temp dir.
func NewSQLite(t testing.TB) *sqlx.DB {
	t.Helper()
	ctx := context.Background()
	db, err := database.NewSQLite(ctx, filepath.Join(t.TempDir(), "workshop.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, database.Migrate(ctx, db))
	return db
}

type ItemFixture struct {
	Name          string
	Code          string
	Stock         int
	MinStock      int
	SalesPrice    string
	UnitPrice     string
	PurchasePrice string
}

func SeedItem(t testing.TB, db *sqlx.DB, f ItemFixture) int64 {
	t.Helper()
	if f.SalesPrice == "" {
		f.SalesPrice = "0"
	}
	if f.UnitPrice == "" {
		f.UnitPrice = "0"
	}
	if f.PurchasePrice == "" {
		f.PurchasePrice = "0"
	}
	var code *string
	if f.Code != "" {
		code = &f.Code
	}
	now := time.Now().UTC()
	var id int64
	err := db.Get(&id, db.Rebind(`
        INSERT INTO inventory_items (part_name, part_code, available_stock, min_stock_level,
            unit_price, wholesale_price, sales_price, purchase_price, created_at, updated_at)
        VALUES (?, ?, ?, ?, ?, 0, ?, ?, ?, ?) RETURNING id`),
		f.Name, code, f.Stock, f.MinStock, f.UnitPrice, f.SalesPrice, f.PurchasePrice, now, now)
	require.NoError(t, err)
	return id
}

func Stock(t testing.TB, db *sqlx.DB, itemID int64) int {
	t.Helper()
	var n int
	require.NoError(t, db.Get(&n, db.Rebind(`SELECT available_stock FROM inventory_items WHERE id = ?`), itemID))
	return n
}

// Count runs SELECT count(*) FROM table WHERE where.
func Count(t testing.TB, db *sqlx.DB, table, where string, args ...any) int {
	t.Helper()
	q := "SELECT count(*) FROM " + table
	if where != "" {
		q += " WHERE " + where
	}
	var n int
	require.NoError(t, db.Get(&n, db.Rebind(q), args...))
	return n
}

// SeedJobCard inserts a bare card in the given status and returns its id.
func SeedJobCard(t testing.TB, db *sqlx.DB, jobNo, status string) int64 {
	t.Helper()
	now := time.Now().UTC()
	var id int64
	err := db.Get(&id, db.Rebind(`
        INSERT INTO job_cards (job_no, status, quotation_amount, final_amount, labour_cost, created_at, updated_at)
        VALUES (?, ?, 0, 0, 0, ?, ?) RETURNING id`),
		jobNo, status, now, now)
	require.NoError(t, err)
	return id
}
