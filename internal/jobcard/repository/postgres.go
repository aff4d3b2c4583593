package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/fekuna/omnipos-workshop-service/internal/jobcard/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/pkg/txn"
	"github.com/jmoiron/sqlx"
)

const selectJobCard = `
    SELECT jc.*, c.name AS customer_name
    FROM job_cards jc
    LEFT JOIN customers c ON c.id = jc.customer_id`

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, jc *model.JobCard) error {
	ex := txn.Executor(ctx, r.DB)
	query, args, err := sqlx.Named(`
        INSERT INTO job_cards (
            job_no, customer_id, technician_id, vehicle_type, vehicle_number, engine_model,
            job_type, brand, status, received_date, expected_delivery_date, description,
            quotation_amount, final_amount, labour_cost, created_at, updated_at
        ) VALUES (
            :job_no, :customer_id, :technician_id, :vehicle_type, :vehicle_number, :engine_model,
            :job_type, :brand, :status, :received_date, :expected_delivery_date, :description,
            :quotation_amount, :final_amount, :labour_cost, :created_at, :updated_at
        ) RETURNING id
    `, jc)
	if err != nil {
		return err
	}
	if err := sqlx.GetContext(ctx, ex, &jc.ID, ex.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to insert job card: %w", err)
	}
	return nil
}

func (r *PGRepository) SetJobNo(ctx context.Context, id int64, jobNo string) error {
	ex := txn.Executor(ctx, r.DB)
	_, err := ex.ExecContext(ctx, ex.Rebind(`UPDATE job_cards SET job_no = ? WHERE id = ?`), jobNo, id)
	return err
}

func (r *PGRepository) FindByID(ctx context.Context, id int64) (*model.JobCard, error) {
	ex := txn.Executor(ctx, r.DB)
	var jc model.JobCard
	if err := sqlx.GetContext(ctx, ex, &jc, ex.Rebind(selectJobCard+` WHERE jc.id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &jc, nil
}

func (r *PGRepository) LockByID(ctx context.Context, id int64) (bool, error) {
	ex := txn.Executor(ctx, r.DB)
	var got int64
	err := sqlx.GetContext(ctx, ex, &got, ex.Rebind(`SELECT id FROM job_cards WHERE id = ?`+txn.ForUpdate(r.DB)), id)
	if errors.Is(err, sql.ErrNoRows) {
		return false, nil
	}
	return err == nil, err
}

func (r *PGRepository) Exists(ctx context.Context, id int64) (bool, error) {
	ex := txn.Executor(ctx, r.DB)
	var n int
	err := sqlx.GetContext(ctx, ex, &n, ex.Rebind(`SELECT count(*) FROM job_cards WHERE id = ?`), id)
	return n > 0, err
}

func (r *PGRepository) FindAll(ctx context.Context, f *dto.JobCardFilters) ([]model.JobCard, int, error) {
	ex := txn.Executor(ctx, r.DB)

	conditions := []string{}
	args := []any{}
	if f.Status != "" {
		conditions = append(conditions, "jc.status = ?")
		args = append(args, f.Status)
	}
	if f.TechnicianID != nil {
		conditions = append(conditions, "jc.technician_id = ?")
		args = append(args, *f.TechnicianID)
	}
	if f.Search != "" {
		conditions = append(conditions,
			"(LOWER(jc.job_no) LIKE LOWER(?) OR LOWER(jc.vehicle_number) LIKE LOWER(?) OR LOWER(c.name) LIKE LOWER(?))")
		pattern := "%" + f.Search + "%"
		args = append(args, pattern, pattern, pattern)
	}

	whereClause := ""
	if len(conditions) > 0 {
		whereClause = " WHERE " + strings.Join(conditions, " AND ")
	}

	var count int
	countQuery := `SELECT count(*) FROM job_cards jc LEFT JOIN customers c ON c.id = jc.customer_id` + whereClause
	if err := sqlx.GetContext(ctx, ex, &count, ex.Rebind(countQuery), args...); err != nil {
		return nil, 0, err
	}

	query := selectJobCard + whereClause + " ORDER BY jc.id DESC"
	if f.PageSize > 0 {
		page := max(f.Page, 1)
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", f.PageSize, (page-1)*f.PageSize)
	}

	cards := []model.JobCard{}
	if err := sqlx.SelectContext(ctx, ex, &cards, ex.Rebind(query), args...); err != nil {
		return nil, 0, err
	}
	return cards, count, nil
}

func (r *PGRepository) Update(ctx context.Context, id int64, p *dto.JobCardPatch, updatedAt time.Time) error {
	sets := []string{}
	args := []any{}
	set := func(column string, value any) {
		sets = append(sets, column+" = ?")
		args = append(args, value)
	}

	if p.CustomerID != nil {
		set("customer_id", *p.CustomerID)
	}
	if p.TechnicianID != nil {
		if *p.TechnicianID == 0 {
			set("technician_id", nil)
		} else {
			set("technician_id", *p.TechnicianID)
		}
	}
	if p.VehicleType != nil {
		set("vehicle_type", nullable(*p.VehicleType))
	}
	if p.VehicleNumber != nil {
		set("vehicle_number", nullable(*p.VehicleNumber))
	}
	if p.EngineModel != nil {
		set("engine_model", nullable(*p.EngineModel))
	}
	if p.JobType != nil {
		set("job_type", nullable(*p.JobType))
	}
	if p.Brand != nil {
		set("brand", nullable(*p.Brand))
	}
	if p.ReceivedDate != nil {
		set("received_date", *p.ReceivedDate)
	}
	if p.ExpectedDeliveryDate != nil {
		set("expected_delivery_date", *p.ExpectedDeliveryDate)
	}
	if p.Description != nil {
		set("description", nullable(*p.Description))
	}
	if p.QuotationAmount != nil {
		set("quotation_amount", *p.QuotationAmount)
	}
	if p.FinalAmount != nil {
		set("final_amount", *p.FinalAmount)
	}
	if p.LabourCost != nil {
		set("labour_cost", *p.LabourCost)
	}
	set("updated_at", updatedAt)
	args = append(args, id)

	ex := txn.Executor(ctx, r.DB)
	_, err := ex.ExecContext(ctx, ex.Rebind("UPDATE job_cards SET "+strings.Join(sets, ", ")+" WHERE id = ?"), args...)
	return err
}

func (r *PGRepository) UpdateStatus(ctx context.Context, id int64, status string, updatedAt time.Time) error {
	ex := txn.Executor(ctx, r.DB)
	_, err := ex.ExecContext(ctx, ex.Rebind(`UPDATE job_cards SET status = ?, updated_at = ? WHERE id = ?`), status, updatedAt, id)
	return err
}

func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	ex := txn.Executor(ctx, r.DB)
	_, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM job_cards WHERE id = ?`), id)
	return err
}

func nullable(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
