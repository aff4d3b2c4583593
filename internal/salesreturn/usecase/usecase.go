package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fekuna/omnipos-workshop-service/internal/activity"
	activitydto "github.com/fekuna/omnipos-workshop-service/internal/activity/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/inventory"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/internal/salesreturn"
	"github.com/fekuna/omnipos-workshop-service/internal/salesreturn/dto"
	"github.com/fekuna/omnipos-workshop-service/pkg/apperror"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/fekuna/omnipos-workshop-service/pkg/outbox"
	"github.com/fekuna/omnipos-workshop-service/pkg/txn"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	EventApproved = "salesreturn.approved"

	aggregateSalesReturn = "sales_return"
)

type ApprovedEvent struct {
	ReturnID      int64  `json:"returnId"`
	ReturnNo      string `json:"returnNo"`
	InvoiceID     int64  `json:"invoiceId"`
	CreditedItems int    `json:"creditedItems"`
	CreditedUnits int    `json:"creditedUnits"`
}

type salesReturnUseCase struct {
	txm       *txn.Manager
	repo      salesreturn.Repository
	ledger    inventory.Ledger
	recorder  activity.Recorder
	publisher outbox.Publisher
	prefix    string
	logger    logger.ZapLogger
	now       func() time.Time
}

func NewSalesReturnUseCase(txm *txn.Manager, repo salesreturn.Repository, ledger inventory.Ledger, recorder activity.Recorder, publisher outbox.Publisher, numberPrefix string, log logger.ZapLogger) salesreturn.UseCase {
	if publisher == nil {
		publisher = outbox.Discard{}
	}
	if numberPrefix == "" {
		numberPrefix = "SR"
	}
	return &salesReturnUseCase{
		txm:       txm,
		repo:      repo,
		ledger:    ledger,
		recorder:  recorder,
		publisher: publisher,
		prefix:    numberPrefix,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *salesReturnUseCase) CreateReturn(ctx context.Context, input *dto.CreateReturnInput) (*model.SalesReturn, error) {
	if input.InvoiceID <= 0 {
		return nil, apperror.Validation("invoiceId", "is required")
	}
	if input.ReturnDate.IsZero() {
		return nil, apperror.Validation("returnDate", "is required")
	}
	if input.ReturnAmount.IsNegative() {
		return nil, apperror.Validation("returnAmount", "must not be negative")
	}
	for _, it := range input.Items {
		if it.Quantity <= 0 {
			return nil, apperror.Validation("items", "quantity must be positive")
		}
		if it.UnitPrice.IsNegative() {
			return nil, apperror.Validation("items", "unit price must not be negative")
		}
	}

	now := uc.now()
	sr := &model.SalesReturn{
		BaseModel:    model.BaseModel{CreatedAt: now, UpdatedAt: now},
		ReturnNo:     uuid.NewString(),
		InvoiceID:    input.InvoiceID,
		InvoiceNo:    optional(input.InvoiceNo),
		JobCardID:    input.JobCardID,
		ReturnDate:   input.ReturnDate,
		ReturnAmount: input.ReturnAmount,
		Reason:       optional(input.Reason),
		Status:       model.ReturnStatusPending,
		CreatedBy:    input.CreatedBy,
	}

	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.repo.Create(ctx, sr); err != nil {
			return apperror.Storage("create sales return", err)
		}
		sr.ReturnNo = fmt.Sprintf("%s-%03d", uc.prefix, sr.ID)
		if err := uc.repo.SetReturnNo(ctx, sr.ID, sr.ReturnNo); err != nil {
			return apperror.Storage("assign return number", err)
		}

		for _, it := range input.Items {
			if it.InventoryItemID != nil {
				if _, err := uc.ledger.GetItem(ctx, *it.InventoryItemID); err != nil {
					return err
				}
			}
			item := &model.SalesReturnItem{
				SalesReturnID:   sr.ID,
				InventoryItemID: it.InventoryItemID,
				Quantity:        it.Quantity,
				UnitPrice:       it.UnitPrice,
				TotalPrice:      it.UnitPrice.Mul(decimal.NewFromInt(int64(it.Quantity))),
			}
			if err := uc.repo.CreateItem(ctx, item); err != nil {
				return apperror.Storage("create sales return item", err)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("sales return created",
		zap.Int64("sales_return_id", sr.ID),
		zap.String("return_no", sr.ReturnNo),
		zap.Int("items", len(input.Items)),
	)
	return uc.GetReturn(ctx, sr.ID)
}

func (uc *salesReturnUseCase) GetReturn(ctx context.Context, id int64) (*model.SalesReturn, error) {
	sr, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Storage("get sales return", err)
	}
	if sr == nil {
		return nil, apperror.NotFound("sales return", id)
	}
	if sr.Items, err = uc.repo.ListItems(ctx, id); err != nil {
		return nil, apperror.Storage("list sales return items", err)
	}
	return sr, nil
}

func (uc *salesReturnUseCase) ListReturns(ctx context.Context, filters *dto.ReturnFilters) ([]model.SalesReturn, error) {
	if filters == nil {
		filters = &dto.ReturnFilters{}
	}
	returns, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, apperror.Storage("list sales returns", err)
	}
	return returns, nil
}

func (uc *salesReturnUseCase) UpdateStatus(ctx context.Context, id int64, status string) (*model.SalesReturn, error) {
	return uc.UpdateReturn(ctx, id, &dto.ReturnPatch{Status: &status})
}

func (uc *salesReturnUseCase) UpdateReturn(ctx context.Context, id int64, patch *dto.ReturnPatch) (*model.SalesReturn, error) {
	if patch == nil || patch.Empty() {
		return nil, apperror.Validation("", "no fields to update")
	}
	patch = &dto.ReturnPatch{Status: patch.Status, Reason: patch.Reason}
	if patch.Status != nil {
		status := strings.TrimSpace(*patch.Status)
		if !model.ValidReturnStatus(status) {
			return nil, apperror.Validation("status", "must be Pending, Approved or Rejected")
		}
		patch.Status = &status
	}

	var credited int
	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		sr, err := uc.repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return apperror.Storage("lock sales return", err)
		}
		if sr == nil {
			return apperror.NotFound("sales return", id)
		}

		if patch.Status != nil && *patch.Status == sr.Status {
			patch.Status = nil
		}
		if patch.Status != nil && sr.Terminal() {
			return apperror.Conflict("Sales return %s is already %s", sr.ReturnNo, sr.Status)
		}
		if patch.Empty() {
			return nil
		}

		if err := uc.repo.Update(ctx, id, patch, uc.now()); err != nil {
			return apperror.Storage("update sales return", err)
		}
		if patch.Status == nil || *patch.Status != model.ReturnStatusApproved || sr.StockUpdated {
			return nil
		}
		credited, err = uc.credit(ctx, sr)
		return err
	})
	if err != nil {
		return nil, err
	}

	if patch.Status != nil {
		uc.logger.Info("sales return status changed",
			zap.Int64("sales_return_id", id),
			zap.String("to", *patch.Status),
			zap.Int("credited_items", credited),
		)
	}
	return uc.GetReturn(ctx, id)
}

// credit puts every resolved line back into stock and flags the return so it
// is never credited twice.
func (uc *salesReturnUseCase) credit(ctx context.Context, sr *model.SalesReturn) (int, error) {
	items, err := uc.repo.ListItems(ctx, sr.ID)
	if err != nil {
		return 0, apperror.Storage("list sales return items", err)
	}

	invoice := deref(sr.InvoiceNo)
	if invoice == "" {
		invoice = strconv.FormatInt(sr.InvoiceID, 10)
	}
	returnID := sr.ID

	credited, units := 0, 0
	for _, it := range items {
		if it.InventoryItemID == nil {
			continue
		}
		change, err := uc.ledger.AdjustStock(ctx, *it.InventoryItemID, it.Quantity, inventory.AdjustOptions{})
		if err != nil {
			return 0, err
		}
		if _, err := uc.recorder.RecordStockTransaction(ctx, &activitydto.StockTransactionInput{
			InventoryItemID: *it.InventoryItemID,
			Type:            model.TransactionStockIn,
			Quantity:        it.Quantity,
			Before:          change.Before,
			After:           change.After,
			ReferenceNo:     sr.ReturnNo,
			Notes:           "Sales Return from Invoice " + invoice,
			CreatedBy:       sr.CreatedBy,
		}); err != nil {
			return 0, err
		}
		if _, err := uc.recorder.RecordItemActivity(ctx, &activitydto.ItemActivityInput{
			InventoryItemID: *it.InventoryItemID,
			Type:            model.ActivityReturn,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
			ReferenceType:   model.ReferenceSalesReturn,
			ReferenceID:     &returnID,
			ReferenceNo:     sr.ReturnNo,
			Notes:           "Returned items from Invoice " + invoice,
			CreatedBy:       sr.CreatedBy,
		}); err != nil {
			return 0, err
		}
		credited++
		units += it.Quantity
	}

	marked, err := uc.repo.MarkStockUpdated(ctx, sr.ID)
	if err != nil {
		return 0, apperror.Storage("mark return stock updated", err)
	}
	if !marked {
		return 0, apperror.Conflict("Sales return %s was credited concurrently", sr.ReturnNo)
	}

	err = uc.publisher.Publish(ctx, aggregateSalesReturn, strconv.FormatInt(sr.ID, 10), EventApproved, ApprovedEvent{
		ReturnID:      sr.ID,
		ReturnNo:      sr.ReturnNo,
		InvoiceID:     sr.InvoiceID,
		CreditedItems: credited,
		CreditedUnits: units,
	})
	if err != nil {
		return 0, apperror.Storage("publish approval event", err)
	}
	return credited, nil
}

func (uc *salesReturnUseCase) DeleteReturn(ctx context.Context, id int64) error {
	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		sr, err := uc.repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return apperror.Storage("lock sales return", err)
		}
		if sr == nil {
			return apperror.NotFound("sales return", id)
		}
		if sr.Status != model.ReturnStatusPending {
			return apperror.Conflict("Only pending returns can be deleted; %s is %s", sr.ReturnNo, sr.Status)
		}
		if err := uc.repo.Delete(ctx, id); err != nil {
			return apperror.Storage("delete sales return", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	uc.logger.Info("sales return deleted", zap.Int64("sales_return_id", id))
	return nil
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
