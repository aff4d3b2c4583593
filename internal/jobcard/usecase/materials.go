package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-workshop-service/internal/activity"
	activitydto "github.com/fekuna/omnipos-workshop-service/internal/activity/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/inventory"
	"github.com/fekuna/omnipos-workshop-service/internal/jobcard"
	"github.com/fekuna/omnipos-workshop-service/internal/jobcard/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/pkg/apperror"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/fekuna/omnipos-workshop-service/pkg/txn"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

type materialsLedger struct {
	txm             *txn.Manager
	cards           jobcard.Repository
	materials       jobcard.MaterialRepository
	ledger          inventory.Ledger
	recorder        activity.Recorder
	deductionStatus string
	logger          logger.ZapLogger
	now             func() time.Time
}

func NewMaterialsLedger(txm *txn.Manager, cards jobcard.Repository, materials jobcard.MaterialRepository, ledger inventory.Ledger, recorder activity.Recorder, cfg Config, log logger.ZapLogger) jobcard.MaterialsLedger {
	return newMaterialsLedger(txm, cards, materials, ledger, recorder, cfg.withDefaults(), log)
}

func newMaterialsLedger(txm *txn.Manager, cards jobcard.Repository, materials jobcard.MaterialRepository, ledger inventory.Ledger, recorder activity.Recorder, cfg Config, log logger.ZapLogger) *materialsLedger {
	return &materialsLedger{
		txm:             txm,
		cards:           cards,
		materials:       materials,
		ledger:          ledger,
		recorder:        recorder,
		deductionStatus: cfg.DeductionStatus,
		logger:          log,
		now:             func() time.Time { return time.Now().UTC() },
	}
}

func (l *materialsLedger) AddMaterial(ctx context.Context, input *dto.AddMaterialInput) (*model.JobCardMaterial, error) {
	if input.Quantity <= 0 {
		return nil, apperror.Validation("quantity", "must be positive")
	}
	if input.InventoryItemID == nil && strings.TrimSpace(input.MaterialName) == "" {
		return nil, apperror.Validation("materialName", "is required when no inventory item is given")
	}

	var line *model.JobCardMaterial
	err := l.txm.WithinTx(ctx, func(ctx context.Context) error {
		card, err := l.lockCard(ctx, input.JobCardID)
		if err != nil {
			return err
		}
		if line, err = l.add(ctx, card, input); err != nil {
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	l.logger.Info("material added",
		zap.Int64("job_card_id", input.JobCardID),
		zap.Int64("material_id", line.ID),
		zap.Bool("stock_deducted", line.StockDeducted),
	)
	return line, nil
}

// add writes one line for a card the caller has already locked.
func (l *materialsLedger) add(ctx context.Context, card *model.JobCard, input *dto.AddMaterialInput) (*model.JobCardMaterial, error) {
	line := &model.JobCardMaterial{
		JobCardID:    card.ID,
		MaterialName: strings.TrimSpace(input.MaterialName),
		Quantity:     input.Quantity,
		UnitPrice:    decimal.Zero,
		UnitCost:     decimal.Zero,
		CreatedAt:    l.now(),
	}

	if input.InventoryItemID == nil {
		if input.UnitPrice != nil {
			line.UnitPrice = *input.UnitPrice
		}
		if input.UnitCost != nil {
			line.UnitCost = *input.UnitCost
		}
		if line.UnitPrice.IsNegative() || line.UnitCost.IsNegative() {
			return nil, apperror.Validation("unitPrice", "must not be negative")
		}
	} else {
		item, err := l.ledger.GetItem(ctx, *input.InventoryItemID)
		if err != nil {
			return nil, err
		}
		itemID := item.ID
		line.InventoryItemID = &itemID
		line.UnitPrice = item.SellingPrice()
		line.UnitCost = item.PurchasePrice
		if line.MaterialName == "" {
			line.MaterialName = item.PartName
		}

		// A card already in repair will not be swept again, so its lines deduct now.
		immediate := !input.Deferred || card.Status == l.deductionStatus
		if immediate {
			if err := l.deduct(ctx, card, line, input.CreatedBy); err != nil {
				return nil, err
			}
			line.StockDeducted = true
		}
	}

	line.Totals()
	if err := l.materials.Create(ctx, line); err != nil {
		return nil, apperror.Storage("create material line", err)
	}
	return line, nil
}

func (l *materialsLedger) RemoveMaterial(ctx context.Context, jobCardID, materialID int64) error {
	var restored int
	err := l.txm.WithinTx(ctx, func(ctx context.Context) error {
		card, err := l.lockCard(ctx, jobCardID)
		if err != nil {
			return err
		}
		line, err := l.materials.FindForUpdate(ctx, jobCardID, materialID)
		if err != nil {
			return apperror.Storage("lock material line", err)
		}
		if line == nil {
			return apperror.NotFound("material", materialID)
		}

		if line.StockDeducted && line.InventoryItemID != nil {
			if err := l.restore(ctx, card, line, nil); err != nil {
				return err
			}
			restored = line.Quantity
		}
		if err := l.materials.Delete(ctx, line.ID); err != nil {
			return apperror.Storage("delete material line", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	l.logger.Info("material removed",
		zap.Int64("job_card_id", jobCardID),
		zap.Int64("material_id", materialID),
		zap.Int("restored", restored),
	)
	return nil
}

func (l *materialsLedger) ListMaterials(ctx context.Context, jobCardID int64) ([]model.JobCardMaterial, error) {
	exists, err := l.cards.Exists(ctx, jobCardID)
	if err != nil {
		return nil, apperror.Storage("find job card", err)
	}
	if !exists {
		return nil, apperror.NotFound("job card", jobCardID)
	}
	lines, err := l.materials.ListByJobCard(ctx, jobCardID)
	if err != nil {
		return nil, apperror.Storage("list materials", err)
	}
	return lines, nil
}

func (l *materialsLedger) lockCard(ctx context.Context, id int64) (*model.JobCard, error) {
	found, err := l.cards.LockByID(ctx, id)
	if err != nil {
		return nil, apperror.Storage("lock job card", err)
	}
	if !found {
		return nil, apperror.NotFound("job card", id)
	}
	card, err := l.cards.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Storage("load job card", err)
	}
	return card, nil
}

// deduct takes the line's quantity out of stock and logs it as job usage.
func (l *materialsLedger) deduct(ctx context.Context, card *model.JobCard, line *model.JobCardMaterial, createdBy *int64) error {
	change, err := l.ledger.AdjustStock(ctx, *line.InventoryItemID, -line.Quantity, inventory.AdjustOptions{RequireNonNegative: true})
	if err != nil {
		return err
	}
	if _, err := l.recorder.RecordStockTransaction(ctx, &activitydto.StockTransactionInput{
		InventoryItemID: *line.InventoryItemID,
		Type:            model.TransactionStockOut,
		Quantity:        line.Quantity,
		Before:          change.Before,
		After:           change.After,
		ReferenceNo:     card.JobNo,
		Notes:           "Used in job card " + card.JobNo,
		CreatedBy:       createdBy,
	}); err != nil {
		return err
	}
	cardID := card.ID
	_, err = l.recorder.RecordItemActivity(ctx, &activitydto.ItemActivityInput{
		InventoryItemID: *line.InventoryItemID,
		Type:            model.ActivityJobUsage,
		Quantity:        line.Quantity,
		UnitPrice:       line.UnitPrice,
		ReferenceType:   model.ReferenceJobCard,
		ReferenceID:     &cardID,
		ReferenceNo:     card.JobNo,
		CustomerName:    deref(card.CustomerName),
		CreatedBy:       createdBy,
	})
	return err
}

// restore puts a deducted line's quantity back and logs it as a return.
func (l *materialsLedger) restore(ctx context.Context, card *model.JobCard, line *model.JobCardMaterial, createdBy *int64) error {
	change, err := l.ledger.AdjustStock(ctx, *line.InventoryItemID, line.Quantity, inventory.AdjustOptions{})
	if err != nil {
		return err
	}
	if _, err := l.recorder.RecordStockTransaction(ctx, &activitydto.StockTransactionInput{
		InventoryItemID: *line.InventoryItemID,
		Type:            model.TransactionStockIn,
		Quantity:        line.Quantity,
		Before:          change.Before,
		After:           change.After,
		ReferenceNo:     card.JobNo,
		Notes:           "Returned from job card " + card.JobNo,
		CreatedBy:       createdBy,
	}); err != nil {
		return err
	}
	cardID := card.ID
	_, err = l.recorder.RecordItemActivity(ctx, &activitydto.ItemActivityInput{
		InventoryItemID: *line.InventoryItemID,
		Type:            model.ActivityReturn,
		Quantity:        line.Quantity,
		UnitPrice:       line.UnitPrice,
		ReferenceType:   model.ReferenceJobCard,
		ReferenceID:     &cardID,
		ReferenceNo:     card.JobNo,
		CustomerName:    deref(card.CustomerName),
		CreatedBy:       createdBy,
	})
	return err
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
