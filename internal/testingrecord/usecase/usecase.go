package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/internal/testingrecord"
	"github.com/fekuna/omnipos-workshop-service/internal/testingrecord/dto"
	"github.com/fekuna/omnipos-workshop-service/pkg/apperror"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/fekuna/omnipos-workshop-service/pkg/txn"
	"go.uber.org/zap"
)

type testingRecordUseCase struct {
	txm    *txn.Manager
	repo   testingrecord.Repository
	cards  testingrecord.JobCards
	logger logger.ZapLogger
	now    func() time.Time
}

func NewTestingRecordUseCase(txm *txn.Manager, repo testingrecord.Repository, cards testingrecord.JobCards, log logger.ZapLogger) testingrecord.UseCase {
	return &testingRecordUseCase{
		txm:    txm,
		repo:   repo,
		cards:  cards,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (uc *testingRecordUseCase) CreateRecord(ctx context.Context, input *dto.CreateRecordInput) (*model.TestingRecord, error) {
	if input.JobCardID <= 0 {
		return nil, apperror.Validation("jobCardId", "is required")
	}

	now := uc.now()
	rec := &model.TestingRecord{
		BaseModel:     model.BaseModel{CreatedAt: now, UpdatedAt: now},
		JobCardID:     input.JobCardID,
		TestDate:      input.TestDate,
		CategoryType:  optional(input.CategoryType),
		SchemaVersion: model.ReadingsLegacy,
		TestedBy:      optional(input.TestedBy),
		ApprovedBy:    optional(input.ApprovedBy),
		ApprovalDate:  input.ApprovalDate,
		Before:        readings(input.Before),
		After:         readings(input.After),
	}
	if rec.TestDate == nil {
		today := now.Truncate(24 * time.Hour)
		rec.TestDate = &today
	}
	if input.Before.Structured() || input.After.Structured() {
		rec.SchemaVersion = model.ReadingsStructured
	}

	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		found, err := uc.cards.LockByID(ctx, input.JobCardID)
		if err != nil {
			return apperror.Storage("lock job card", err)
		}
		if !found {
			return apperror.NotFound("job card", input.JobCardID)
		}
		if err := uc.repo.Create(ctx, rec); err != nil {
			return apperror.Storage("create testing record", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("testing record created",
		zap.Int64("testing_record_id", rec.ID),
		zap.Int64("job_card_id", rec.JobCardID),
		zap.Int("schema_version", rec.SchemaVersion),
	)
	return uc.GetRecord(ctx, rec.ID)
}

// readings builds one side. A side without a verdict is recorded as failed.
func readings(in dto.ReadingsInput) model.Readings {
	fallback := testingrecord.DefaultPassFail
	if in.PassFail != nil && strings.TrimSpace(*in.PassFail) != "" {
		fallback = strings.TrimSpace(*in.PassFail)
	}
	if in.Structured() {
		return model.Readings{
			Version:    model.ReadingsStructured,
			PassFail:   testingrecord.DerivePassFail(in.Data, fallback),
			Structured: in.Data,
		}
	}
	return model.Readings{
		Version:  model.ReadingsLegacy,
		PassFail: fallback,
		Legacy: &model.LegacyReadings{
			Pressure:    in.Pressure,
			Leak:        in.Leak,
			Calibration: in.Calibration,
			PassFail:    &fallback,
		},
	}
}

func (uc *testingRecordUseCase) GetRecord(ctx context.Context, id int64) (*model.TestingRecord, error) {
	rec, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Storage("get testing record", err)
	}
	if rec == nil {
		return nil, apperror.NotFound("testing record", id)
	}
	return rec, nil
}

func (uc *testingRecordUseCase) ListByJobCard(ctx context.Context, jobCardID int64) ([]model.TestingRecord, error) {
	found, err := uc.cards.Exists(ctx, jobCardID)
	if err != nil {
		return nil, apperror.Storage("find job card", err)
	}
	if !found {
		return nil, apperror.NotFound("job card", jobCardID)
	}
	records, err := uc.repo.ListByJobCard(ctx, jobCardID)
	if err != nil {
		return nil, apperror.Storage("list testing records", err)
	}
	return records, nil
}

func (uc *testingRecordUseCase) DeleteRecord(ctx context.Context, id int64) error {
	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		rec, err := uc.repo.FindByID(ctx, id)
		if err != nil {
			return apperror.Storage("get testing record", err)
		}
		if rec == nil {
			return apperror.NotFound("testing record", id)
		}
		if err := uc.repo.Delete(ctx, id); err != nil {
			return apperror.Storage("delete testing record", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	uc.logger.Info("testing record deleted", zap.Int64("testing_record_id", id))
	return nil
}

func (uc *testingRecordUseCase) CountByJobCard(ctx context.Context, jobCardID int64) (int, error) {
	n, err := uc.repo.CountByJobCard(ctx, jobCardID)
	if err != nil {
		return 0, apperror.Storage("count testing records", err)
	}
	return n, nil
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
