package usecase

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-workshop-service/internal/activity"
	"github.com/fekuna/omnipos-workshop-service/internal/activity/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/pkg/apperror"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type recorder struct {
	repo   activity.Repository
	logger logger.ZapLogger
	now    func() time.Time
}

func NewRecorder(repo activity.Repository, log logger.ZapLogger) activity.Recorder {
	return &recorder{
		repo:   repo,
		logger: log,
		now:    func() time.Time { return time.Now().UTC() },
	}
}

func (uc *recorder) RecordStockTransaction(ctx context.Context, input *dto.StockTransactionInput) (*model.StockTransaction, error) {
	if input.Quantity <= 0 {
		return nil, apperror.Validation("quantity", "must be positive")
	}
	if input.Type != model.TransactionStockIn && input.Type != model.TransactionStockOut {
		return nil, apperror.Validation("transactionType", "must be Stock In or Stock Out")
	}

	t := &model.StockTransaction{
		InventoryItemID: input.InventoryItemID,
		TransactionType: input.Type,
		Quantity:        input.Quantity,
		PreviousStock:   input.Before,
		NewStock:        input.After,
		ReferenceNo:     optional(input.ReferenceNo),
		Notes:           optional(input.Notes),
		BillNo:          optional(input.BillNo),
		SupplierName:    optional(input.SupplierName),
		PurchaseDate:    input.PurchaseDate,
		CreatedBy:       input.CreatedBy,
		CreatedAt:       uc.now(),
	}
	if input.UnitPrice != nil {
		t.UnitPrice = decimal.NewNullDecimal(*input.UnitPrice)
	}

	if err := uc.repo.InsertStockTransaction(ctx, t); err != nil {
		uc.logger.Error("failed to record stock transaction", zap.Int64("item_id", input.InventoryItemID), zap.Error(err))
		return nil, apperror.Storage("record stock transaction", err)
	}
	return t, nil
}

func (uc *recorder) RecordItemActivity(ctx context.Context, input *dto.ItemActivityInput) (*model.ItemActivity, error) {
	if input.Quantity <= 0 {
		return nil, apperror.Validation("quantity", "must be positive")
	}

	now := uc.now()
	date := input.Date
	if date.IsZero() {
		date = now
	}

	a := &model.ItemActivity{
		InventoryItemID: input.InventoryItemID,
		ActivityType:    input.Type,
		ActivityDate:    truncateToDay(date),
		Quantity:        input.Quantity,
		UnitPrice:       input.UnitPrice,
		TotalPrice:      input.UnitPrice.Mul(decimal.NewFromInt(int64(input.Quantity))),
		ReferenceType:   optional(input.ReferenceType),
		ReferenceID:     input.ReferenceID,
		ReferenceNo:     optional(input.ReferenceNo),
		CustomerName:    optional(input.CustomerName),
		SupplierName:    optional(input.SupplierName),
		Notes:           optional(input.Notes),
		CreatedBy:       input.CreatedBy,
		CreatedAt:       now,
	}

	if err := uc.repo.InsertItemActivity(ctx, a); err != nil {
		uc.logger.Error("failed to record item activity", zap.Int64("item_id", input.InventoryItemID), zap.Error(err))
		return nil, apperror.Storage("record item activity", err)
	}
	return a, nil
}

func (uc *recorder) ListStockTransactions(ctx context.Context, itemID int64) ([]model.StockTransaction, error) {
	items, err := uc.repo.ListStockTransactions(ctx, itemID)
	if err != nil {
		return nil, apperror.Storage("list stock transactions", err)
	}
	return items, nil
}

func (uc *recorder) ListItemActivities(ctx context.Context, itemID int64) ([]model.ItemActivity, error) {
	items, err := uc.repo.ListItemActivities(ctx, itemID)
	if err != nil {
		return nil, apperror.Storage("list item activity", err)
	}
	return items, nil
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func truncateToDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
