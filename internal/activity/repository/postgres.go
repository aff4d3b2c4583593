package repository

import (
	"context"
	"fmt"

	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/pkg/txn"
	"github.com/jmoiron/sqlx"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) InsertStockTransaction(ctx context.Context, t *model.StockTransaction) error {
	ex := txn.Executor(ctx, r.DB)
	query, args, err := sqlx.Named(`
        INSERT INTO stock_transactions (
            inventory_item_id, transaction_type, quantity, previous_stock, new_stock,
            reference_no, notes, bill_no, supplier_name, purchase_date, unit_price,
            created_by, created_at
        ) VALUES (
            :inventory_item_id, :transaction_type, :quantity, :previous_stock, :new_stock,
            :reference_no, :notes, :bill_no, :supplier_name, :purchase_date, :unit_price,
            :created_by, :created_at
        ) RETURNING id
    `, t)
	if err != nil {
		return err
	}
	if err := sqlx.GetContext(ctx, ex, &t.ID, ex.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to log stock transaction: %w", err)
	}
	return nil
}

func (r *PGRepository) InsertItemActivity(ctx context.Context, a *model.ItemActivity) error {
	ex := txn.Executor(ctx, r.DB)
	query, args, err := sqlx.Named(`
        INSERT INTO item_activity (
            inventory_item_id, activity_type, activity_date, quantity, unit_price, total_price,
            reference_type, reference_id, reference_no, customer_name, supplier_name, notes,
            created_by, created_at
        ) VALUES (
            :inventory_item_id, :activity_type, :activity_date, :quantity, :unit_price, :total_price,
            :reference_type, :reference_id, :reference_no, :customer_name, :supplier_name, :notes,
            :created_by, :created_at
        ) RETURNING id
    `, a)
	if err != nil {
		return err
	}
	if err := sqlx.GetContext(ctx, ex, &a.ID, ex.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to log item activity: %w", err)
	}
	return nil
}

func (r *PGRepository) ListStockTransactions(ctx context.Context, itemID int64) ([]model.StockTransaction, error) {
	ex := txn.Executor(ctx, r.DB)
	items := []model.StockTransaction{}
	err := sqlx.SelectContext(ctx, ex, &items, ex.Rebind(`
        SELECT * FROM stock_transactions
        WHERE inventory_item_id = ?
        ORDER BY created_at DESC, id DESC
    `), itemID)
	return items, err
}

func (r *PGRepository) ListItemActivities(ctx context.Context, itemID int64) ([]model.ItemActivity, error) {
	ex := txn.Executor(ctx, r.DB)
	items := []model.ItemActivity{}
	err := sqlx.SelectContext(ctx, ex, &items, ex.Rebind(`
        SELECT * FROM item_activity
        WHERE inventory_item_id = ?
        ORDER BY activity_date DESC, id DESC
    `), itemID)
	return items, err
}
