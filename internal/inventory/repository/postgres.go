package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-workshop-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/pkg/txn"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) FindByID(ctx context.Context, id int64) (*model.InventoryItem, error) {
	return r.find(ctx, id, "")
}

func (r *PGRepository) FindByIDForUpdate(ctx context.Context, id int64) (*model.InventoryItem, error) {
	return r.find(ctx, id, txn.ForUpdate(r.DB))
}

func (r *PGRepository) find(ctx context.Context, id int64, lock string) (*model.InventoryItem, error) {
	ex := txn.Executor(ctx, r.DB)
	var item model.InventoryItem
	err := sqlx.GetContext(ctx, ex, &item, ex.Rebind(`SELECT * FROM inventory_items WHERE id = ?`+lock), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &item, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ItemFilters) ([]model.InventoryItem, int, error) {
	ex := txn.Executor(ctx, r.DB)

	conditions := []string{}
	args := []any{}

	if f.Search != "" {
		conditions = append(conditions, "(LOWER(part_name) LIKE LOWER(?) OR LOWER(part_code) LIKE LOWER(?) OR barcode = ?)")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern, f.Search)
	}
	if f.Category != "" {
		conditions = append(conditions, "category = ?")
		args = append(args, f.Category)
	}
	switch f.Status {
	case model.StockStatusLow:
		conditions = append(conditions, "available_stock <= min_stock_level")
	case model.StockStatusOK:
		conditions = append(conditions, "available_stock > min_stock_level")
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	if err := sqlx.GetContext(ctx, ex, &count, ex.Rebind("SELECT count(*) FROM inventory_items"+whereClause), args...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM inventory_items" + whereClause + " ORDER BY part_name, id"
	if f.PageSize > 0 {
		page := f.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	items := []model.InventoryItem{}
	if err := sqlx.SelectContext(ctx, ex, &items, ex.Rebind(query), args...); err != nil {
		return nil, 0, err
	}
	return items, count, nil
}

func (r *PGRepository) Create(ctx context.Context, item *model.InventoryItem) error {
	ex := txn.Executor(ctx, r.DB)
	query, args, err := sqlx.Named(`
        INSERT INTO inventory_items (
            part_name, part_code, barcode, category, supplier, available_stock, min_stock_level,
            unit_price, wholesale_price, sales_price, purchase_price, created_at, updated_at
        ) VALUES (
            :part_name, :part_code, :barcode, :category, :supplier, :available_stock, :min_stock_level,
            :unit_price, :wholesale_price, :sales_price, :purchase_price, :created_at, :updated_at
        ) RETURNING id
    `, item)
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, ex, &item.ID, ex.Rebind(query), args...)
}

func (r *PGRepository) Update(ctx context.Context, id int64, p *dto.ItemPatch, updatedAt time.Time) error {
	sets := []string{}
	args := []any{}
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if p.PartName != nil {
		set("part_name", *p.PartName)
	}
	if p.PartCode != nil {
		set("part_code", nullable(*p.PartCode))
	}
	if p.Barcode != nil {
		set("barcode", nullable(*p.Barcode))
	}
	if p.Category != nil {
		set("category", nullable(*p.Category))
	}
	if p.Supplier != nil {
		set("supplier", nullable(*p.Supplier))
	}
	if p.MinStockLevel != nil {
		set("min_stock_level", *p.MinStockLevel)
	}
	if p.UnitPrice != nil {
		set("unit_price", *p.UnitPrice)
	}
	if p.WholesalePrice != nil {
		set("wholesale_price", *p.WholesalePrice)
	}
	if p.SalesPrice != nil {
		set("sales_price", *p.SalesPrice)
	}
	if p.PurchasePrice != nil {
		set("purchase_price", *p.PurchasePrice)
	}
	set("updated_at", updatedAt)
	args = append(args, id)

	ex := txn.Executor(ctx, r.DB)
	_, err := ex.ExecContext(ctx, ex.Rebind("UPDATE inventory_items SET "+strings.Join(sets, ", ")+" WHERE id = ?"), args...)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	ex := txn.Executor(ctx, r.DB)
	_, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM inventory_items WHERE id = ?`), id)
	return err
}

func (r *PGRepository) ApplyStockDelta(ctx context.Context, id int64, delta int, updatedAt time.Time) (bool, error) {
	ex := txn.Executor(ctx, r.DB)
	res, err := ex.ExecContext(ctx, ex.Rebind(`
        UPDATE inventory_items
        SET available_stock = available_stock + ?, updated_at = ?
        WHERE id = ? AND available_stock + ? >= 0
    `), delta, updatedAt, id, delta)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n == 1, nil
}

func (r *PGRepository) UpdatePurchasePrice(ctx context.Context, id int64, price decimal.Decimal, updatedAt time.Time) error {
	ex := txn.Executor(ctx, r.DB)
	_, err := ex.ExecContext(ctx, ex.Rebind(`UPDATE inventory_items SET purchase_price = ?, updated_at = ? WHERE id = ?`),
		price, updatedAt, id)
	return err
}

func (r *PGRepository) IsPartCodeTaken(ctx context.Context, code string, excludeID int64) (bool, error) {
	return r.taken(ctx, "part_code", code, excludeID)
}

func (r *PGRepository) IsBarcodeTaken(ctx context.Context, barcode string, excludeID int64) (bool, error) {
	return r.taken(ctx, "barcode", barcode, excludeID)
}

func (r *PGRepository) taken(ctx context.Context, column, value string, excludeID int64) (bool, error) {
	ex := txn.Executor(ctx, r.DB)
	var n int
	err := sqlx.GetContext(ctx, ex, &n,
		ex.Rebind("SELECT count(*) FROM inventory_items WHERE "+column+" = ? AND id <> ?"), value, excludeID)
	return n > 0, err
}

// CountReferences counts the rows that keep an item from being deleted.
func (r *PGRepository) CountReferences(ctx context.Context, id int64) (int, error) {
	ex := txn.Executor(ctx, r.DB)
	var n int
	err := sqlx.GetContext(ctx, ex, &n, ex.Rebind(`
        SELECT
            (SELECT count(*) FROM job_card_materials WHERE inventory_item_id = ?) +
            (SELECT count(*) FROM stock_transactions WHERE inventory_item_id = ?) +
            (SELECT count(*) FROM item_activity WHERE inventory_item_id = ?) +
            (SELECT count(*) FROM sales_return_items WHERE inventory_item_id = ?)
    `), id, id, id, id)
	return n, err
}

func nullable(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
