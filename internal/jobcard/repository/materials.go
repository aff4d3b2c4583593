package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/pkg/txn"
	"github.com/jmoiron/sqlx"
)

type MaterialPGRepository struct {
	DB *sqlx.DB
}

func NewMaterialPGRepository(db *sqlx.DB) *MaterialPGRepository {
	return &MaterialPGRepository{DB: db}
}

func (r *MaterialPGRepository) Create(ctx context.Context, m *model.JobCardMaterial) error {
	ex := txn.Executor(ctx, r.DB)
	query, args, err := sqlx.Named(`
        INSERT INTO job_card_materials (
            job_card_id, inventory_item_id, material_name, quantity, unit_price, unit_cost,
            total_price, total_cost, stock_deducted, created_at
        ) VALUES (
            :job_card_id, :inventory_item_id, :material_name, :quantity, :unit_price, :unit_cost,
            :total_price, :total_cost, :stock_deducted, :created_at
        ) RETURNING id
    `, m)
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, ex, &m.ID, ex.Rebind(query), args...)
}

func (r *MaterialPGRepository) FindForUpdate(ctx context.Context, jobCardID, materialID int64) (*model.JobCardMaterial, error) {
	ex := txn.Executor(ctx, r.DB)
	var m model.JobCardMaterial
	err := sqlx.GetContext(ctx, ex, &m, ex.Rebind(`
        SELECT * FROM job_card_materials WHERE id = ? AND job_card_id = ?`+txn.ForUpdate(r.DB)),
		materialID, jobCardID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &m, nil
}

func (r *MaterialPGRepository) ListByJobCard(ctx context.Context, jobCardID int64) ([]model.JobCardMaterial, error) {
	ex := txn.Executor(ctx, r.DB)
	lines := []model.JobCardMaterial{}
	err := sqlx.SelectContext(ctx, ex, &lines, ex.Rebind(`
        SELECT m.*, i.part_code, i.available_stock
        FROM job_card_materials m
        LEFT JOIN inventory_items i ON i.id = m.inventory_item_id
        WHERE m.job_card_id = ?
        ORDER BY m.id
    `), jobCardID)
	return lines, err
}

func (r *MaterialPGRepository) ListUndeducted(ctx context.Context, jobCardID int64) ([]model.JobCardMaterial, error) {
	return r.listByFlag(ctx, jobCardID, false)
}

func (r *MaterialPGRepository) ListDeducted(ctx context.Context, jobCardID int64) ([]model.JobCardMaterial, error) {
	return r.listByFlag(ctx, jobCardID, true)
}

func (r *MaterialPGRepository) listByFlag(ctx context.Context, jobCardID int64, deducted bool) ([]model.JobCardMaterial, error) {
	ex := txn.Executor(ctx, r.DB)
	lines := []model.JobCardMaterial{}
	err := sqlx.SelectContext(ctx, ex, &lines, ex.Rebind(`
        SELECT * FROM job_card_materials
        WHERE job_card_id = ? AND stock_deducted = ? AND inventory_item_id IS NOT NULL
        ORDER BY inventory_item_id, id`+txn.ForUpdate(r.DB)), jobCardID, deducted)
	return lines, err
}

func (r *MaterialPGRepository) MarkDeducted(ctx context.Context, id int64) (bool, error) {
	ex := txn.Executor(ctx, r.DB)
	res, err := ex.ExecContext(ctx, ex.Rebind(`
        UPDATE job_card_materials SET stock_deducted = ? WHERE id = ? AND stock_deducted = ?
    `), true, id, false)
	if err != nil {
		return false, err
	}
	n, err := res.RowsAffected()
	return n == 1, err
}

func (r *MaterialPGRepository) Delete(ctx context.Context, id int64) error {
	ex := txn.Executor(ctx, r.DB)
	_, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM job_card_materials WHERE id = ?`), id)
	return err
}
