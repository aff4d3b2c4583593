package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-workshop-service/internal/category/dto"
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

func (r *PGRepository) Create(ctx context.Context, c *model.Category) error {
	ex := txn.Executor(ctx, r.DB)
	query, args, err := sqlx.Named(`
        INSERT INTO inventory_categories (name, description, created_at)
        VALUES (:name, :description, :created_at)
        RETURNING id
    `, c)
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, ex, &c.ID, ex.Rebind(query), args...)
}

func (r *PGRepository) FindByID(ctx context.Context, id int64) (*model.Category, error) {
	ex := txn.Executor(ctx, r.DB)
	var category model.Category
	err := sqlx.GetContext(ctx, ex, &category, ex.Rebind(`SELECT * FROM inventory_categories WHERE id = ? LIMIT 1`), id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &category, nil
}

func (r *PGRepository) ExistsByName(ctx context.Context, name string) (bool, error) {
	ex := txn.Executor(ctx, r.DB)
	var n int
	err := sqlx.GetContext(ctx, ex, &n, ex.Rebind(`SELECT count(*) FROM inventory_categories WHERE LOWER(name) = LOWER(?)`), name)
	return n > 0, err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.CategoryFilters) ([]model.Category, int, error) {
	ex := txn.Executor(ctx, r.DB)

	whereClause := ""
	args := []any{}
	if f.Search != "" {
		whereClause = " WHERE LOWER(name) LIKE LOWER(?)"
		args = append(args, "%"+f.Search+"%")
	}

	var count int
	if err := sqlx.GetContext(ctx, ex, &count, ex.Rebind("SELECT count(*) FROM inventory_categories"+whereClause), args...); err != nil {
		return nil, 0, err
	}

	query := "SELECT * FROM inventory_categories" + whereClause + " ORDER BY name ASC"
	if f.PageSize > 0 {
		page := max(f.Page, 1)
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	categories := []model.Category{}
	if err := sqlx.SelectContext(ctx, ex, &categories, ex.Rebind(query), args...); err != nil {
		return nil, 0, err
	}
	return categories, count, nil
}
