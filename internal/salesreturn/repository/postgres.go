package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/internal/salesreturn/dto"
	"github.com/fekuna/omnipos-workshop-service/pkg/txn"
	"github.com/jmoiron/sqlx"
)

const selectReturn = `
    SELECT sr.*, jc.job_no, c.name AS customer_name
    FROM sales_returns sr
    LEFT JOIN job_cards jc ON jc.id = sr.job_card_id
    LEFT JOIN customers c ON c.id = jc.customer_id`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, sr *model.SalesReturn) error {
	ex := txn.Executor(ctx, r.DB)
	query, args, err := sqlx.Named(`
        INSERT INTO sales_returns (
            return_no, invoice_id, invoice_no, job_card_id, return_date, return_amount,
            reason, status, stock_updated, created_by, created_at, updated_at
        ) VALUES (
            :return_no, :invoice_id, :invoice_no, :job_card_id, :return_date, :return_amount,
            :reason, :status, :stock_updated, :created_by, :created_at, :updated_at
        ) RETURNING id
    `, sr)
	if err != nil {
		return err
	}
	if err := sqlx.GetContext(ctx, ex, &sr.ID, ex.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to insert sales return: %w", err)
	}
	return nil
}

func (r *PGRepository) SetReturnNo(ctx context.Context, id int64, returnNo string) error {
	ex := txn.Executor(ctx, r.DB)
	_, err := ex.ExecContext(ctx, ex.Rebind(`UPDATE sales_returns SET return_no = ? WHERE id = ?`), returnNo, id)
	return err
}

func (r *PGRepository) CreateItem(ctx context.Context, item *model.SalesReturnItem) error {
	ex := txn.Executor(ctx, r.DB)
	query, args, err := sqlx.Named(`
        INSERT INTO sales_return_items (sales_return_id, inventory_item_id, quantity, unit_price, total_price)
        VALUES (:sales_return_id, :inventory_item_id, :quantity, :unit_price, :total_price)
        RETURNING id
    `, item)
	if err != nil {
		return err
	}
	if err := sqlx.GetContext(ctx, ex, &item.ID, ex.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to insert sales return item: %w", err)
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id int64) (*model.SalesReturn, error) {
	return r.find(ctx, selectReturn+` WHERE sr.id = ?`, id)
}

func (r *PGRepository) FindByIDForUpdate(ctx context.Context, id int64) (*model.SalesReturn, error) {
	return r.find(ctx, `SELECT * FROM sales_returns WHERE id = ?`+txn.ForUpdate(r.DB), id)
}

func (r *PGRepository) find(ctx context.Context, query string, id int64) (*model.SalesReturn, error) {
	ex := txn.Executor(ctx, r.DB)
	var sr model.SalesReturn
	if err := sqlx.GetContext(ctx, ex, &sr, ex.Rebind(query), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &sr, nil
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.ReturnFilters) ([]model.SalesReturn, error) {
	ex := txn.Executor(ctx, r.DB)
	query := selectReturn
	args := []any{}
	if f.Status != "" && !strings.EqualFold(f.Status, "all") {
		query += ` WHERE sr.status = ?`
		args = append(args, f.Status)
	}
	query += ` ORDER BY sr.created_at DESC, sr.id DESC`

	returns := []model.SalesReturn{}
	if err := sqlx.SelectContext(ctx, ex, &returns, ex.Rebind(query), args...); err != nil {
		return nil, err
	}
	return returns, nil
}

func (r *PGRepository) ListItems(ctx context.Context, returnID int64) ([]model.SalesReturnItem, error) {
	ex := txn.Executor(ctx, r.DB)
	items := []model.SalesReturnItem{}
	err := sqlx.SelectContext(ctx, ex, &items, ex.Rebind(`
        SELECT ri.*, i.part_name
        FROM sales_return_items ri
        LEFT JOIN inventory_items i ON i.id = ri.inventory_item_id
        WHERE ri.sales_return_id = ?
        ORDER BY ri.inventory_item_id, ri.id`), returnID)
	return items, err
}

func (r *PGRepository) Update(ctx context.Context, id int64, p *dto.ReturnPatch, updatedAt time.Time) error {
	sets := []string{}
	args := []any{}
	if p.Status != nil {
		sets = append(sets, "status = ?")
		args = append(args, *p.Status)
	}
	if p.Reason != nil {
		sets = append(sets, "reason = ?")
		if reason := strings.TrimSpace(*p.Reason); reason != "" {
			args = append(args, reason)
		} else {
			args = append(args, nil)
		}
	}
	sets = append(sets, "updated_at = ?")
	args = append(args, updatedAt, id)

	ex := txn.Executor(ctx, r.DB)
	_, err := ex.ExecContext(ctx, ex.Rebind("UPDATE sales_returns SET "+strings.Join(sets, ", ")+" WHERE id = ?"), args...)
	return err
}

func (r *PGRepository) MarkStockUpdated(ctx context.Context, id int64) (bool, error) {
	ex := txn.Executor(ctx, r.DB)
	res, err := ex.ExecContext(ctx, ex.Rebind(`
        UPDATE sales_returns SET stock_updated = ? WHERE id = ? AND stock_updated = ?`), true, id, false)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	ex := txn.Executor(ctx, r.DB)
	_, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM sales_returns WHERE id = ?`), id)
	return err
}
