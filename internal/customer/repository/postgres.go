package repository

import (
	"context"
	"database/sql"
	"errors"

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

func (r *PGRepository) FindByID(ctx context.Context, id int64) (*model.Customer, error) {
	ex := txn.Executor(ctx, r.DB)
	var c model.Customer
	if err := sqlx.GetContext(ctx, ex, &c, ex.Rebind(`SELECT * FROM customers WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

// FindByNameAndPhone treats a missing phone as the empty string.
func (r *PGRepository) FindByNameAndPhone(ctx context.Context, name, phone string) (*model.Customer, error) {
	ex := txn.Executor(ctx, r.DB)
	var c model.Customer
	err := sqlx.GetContext(ctx, ex, &c, ex.Rebind(`
        SELECT * FROM customers
        WHERE name = ? AND COALESCE(phone, '') = ?
        ORDER BY id LIMIT 1
    `), name, phone)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &c, nil
}

func (r *PGRepository) Create(ctx context.Context, c *model.Customer) error {
	ex := txn.Executor(ctx, r.DB)
	query, args, err := sqlx.Named(`
        INSERT INTO customers (name, phone, company_name, created_at)
        VALUES (:name, :phone, :company_name, :created_at)
        RETURNING id
    `, c)
	if err != nil {
		return err
	}
	return sqlx.GetContext(ctx, ex, &c.ID, ex.Rebind(query), args...)
}

func (r *PGRepository) Update(ctx context.Context, c *model.Customer) error {
	ex := txn.Executor(ctx, r.DB)
	_, err := ex.ExecContext(ctx, ex.Rebind(`UPDATE customers SET name = ?, phone = ?, company_name = ? WHERE id = ?`),
		c.Name, c.Phone, c.CompanyName, c.ID)
	return err
}
