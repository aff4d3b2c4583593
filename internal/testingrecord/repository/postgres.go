package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/internal/testingrecord"
	"github.com/fekuna/omnipos-workshop-service/pkg/txn"
	"github.com/jmoiron/sqlx"
)

// recordRow is the stored shape: flat columns for legacy readings and a JSON
// document per side for structured ones.
type recordRow struct {
	model.TestingRecord
	BeforePressure    *string `db:"before_pressure"`
	BeforeLeak        *string `db:"before_leak"`
	BeforeCalibration *string `db:"before_calibration"`
	BeforePassFail    *string `db:"before_pass_fail"`
	AfterPressure     *string `db:"after_pressure"`
	AfterLeak         *string `db:"after_leak"`
	AfterCalibration  *string `db:"after_calibration"`
	AfterPassFail     *string `db:"after_pass_fail"`
	BeforeData        *string `db:"before_data"`
	AfterData         *string `db:"after_data"`
}

func (row *recordRow) record() model.TestingRecord {
	rec := row.TestingRecord
	rec.Before = testingrecord.NormalizeReadings(rec.SchemaVersion, model.LegacyReadings{
		Pressure:    row.BeforePressure,
		Leak:        row.BeforeLeak,
		Calibration: row.BeforeCalibration,
		PassFail:    row.BeforePassFail,
	}, row.BeforeData)
	rec.After = testingrecord.NormalizeReadings(rec.SchemaVersion, model.LegacyReadings{
		Pressure:    row.AfterPressure,
		Leak:        row.AfterLeak,
		Calibration: row.AfterCalibration,
		PassFail:    row.AfterPassFail,
	}, row.AfterData)
	return rec
}

func toRow(rec *model.TestingRecord) (*recordRow, error) {
	row := &recordRow{TestingRecord: *rec}

	var err error
	var before, after model.LegacyReadings
	if before, row.BeforeData, err = flatten(rec.Before); err != nil {
		return nil, err
	}
	if after, row.AfterData, err = flatten(rec.After); err != nil {
		return nil, err
	}
	row.BeforePressure, row.BeforeLeak, row.BeforeCalibration, row.BeforePassFail =
		before.Pressure, before.Leak, before.Calibration, before.PassFail
	row.AfterPressure, row.AfterLeak, row.AfterCalibration, row.AfterPassFail =
		after.Pressure, after.Leak, after.Calibration, after.PassFail
	return row, nil
}

// flatten splits one side into its flat columns and its JSON document.
// The verdict is always kept in the flat column.
func flatten(r model.Readings) (model.LegacyReadings, *string, error) {
	var flat model.LegacyReadings
	if r.Legacy != nil {
		flat = *r.Legacy
	}
	if r.PassFail != "" {
		pf := r.PassFail
		flat.PassFail = &pf
	}
	if r.Version != model.ReadingsStructured || r.Structured == nil {
		return flat, nil, nil
	}
	b, err := json.Marshal(r.Structured)
	if err != nil {
		return flat, nil, fmt.Errorf("failed to encode readings: %w", err)
	}
	doc := string(b)
	return flat, &doc, nil
}

type PGRepository struct {
	DB *sqlx.DB
}

func NewPGRepository(db *sqlx.DB) *PGRepository {
	return &PGRepository{DB: db}
}

func (r *PGRepository) Create(ctx context.Context, rec *model.TestingRecord) error {
	row, err := toRow(rec)
	if err != nil {
		return err
	}

	ex := txn.Executor(ctx, r.DB)
	query, args, err := sqlx.Named(`
        INSERT INTO testing_records (
            job_card_id, test_date, category_type, schema_version,
            before_pressure, before_leak, before_calibration, before_pass_fail,
            after_pressure, after_leak, after_calibration, after_pass_fail,
            before_data, after_data, tested_by, approved_by, approval_date,
            created_at, updated_at
        ) VALUES (
            :job_card_id, :test_date, :category_type, :schema_version,
            :before_pressure, :before_leak, :before_calibration, :before_pass_fail,
            :after_pressure, :after_leak, :after_calibration, :after_pass_fail,
            :before_data, :after_data, :tested_by, :approved_by, :approval_date,
            :created_at, :updated_at
        ) RETURNING id
    `, row)
	if err != nil {
		return err
	}
	if err := sqlx.GetContext(ctx, ex, &rec.ID, ex.Rebind(query), args...); err != nil {
		return fmt.Errorf("failed to insert testing record: %w", err)
	}
	return nil
}

func (r *PGRepository) FindByID(ctx context.Context, id int64) (*model.TestingRecord, error) {
	ex := txn.Executor(ctx, r.DB)
	var row recordRow
	if err := sqlx.GetContext(ctx, ex, &row, ex.Rebind(`SELECT * FROM testing_records WHERE id = ?`), id); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	rec := row.record()
	return &rec, nil
}

func (r *PGRepository) ListByJobCard(ctx context.Context, jobCardID int64) ([]model.TestingRecord, error) {
	ex := txn.Executor(ctx, r.DB)
	rows := []recordRow{}
	query := `SELECT * FROM testing_records WHERE job_card_id = ? ORDER BY test_date DESC, id DESC`
	if err := sqlx.SelectContext(ctx, ex, &rows, ex.Rebind(query), jobCardID); err != nil {
		return nil, err
	}
	records := make([]model.TestingRecord, 0, len(rows))
	for i := range rows {
		records = append(records, rows[i].record())
	}
	return records, nil
}

func (r *PGRepository) Delete(ctx context.Context, id int64) error {
	ex := txn.Executor(ctx, r.DB)
	_, err := ex.ExecContext(ctx, ex.Rebind(`DELETE FROM testing_records WHERE id = ?`), id)
	return err
}

func (r *PGRepository) CountByJobCard(ctx context.Context, jobCardID int64) (int, error) {
	ex := txn.Executor(ctx, r.DB)
	var n int
	err := sqlx.GetContext(ctx, ex, &n, ex.Rebind(`SELECT count(*) FROM testing_records WHERE job_card_id = ?`), jobCardID)
	return n, err
}
