package usecase

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/fekuna/omnipos-workshop-service/internal/activity"
	activitydto "github.com/fekuna/omnipos-workshop-service/internal/activity/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/inventory"
	"github.com/fekuna/omnipos-workshop-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/pkg/apperror"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/fekuna/omnipos-workshop-service/pkg/outbox"
	"github.com/fekuna/omnipos-workshop-service/pkg/txn"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	EventStockAdjusted = "inventory.stock_adjusted"
	EventLowStock      = "inventory.low_stock"

	aggregateItem = "inventory_item"
)

type StockAdjustedEvent struct {
	ItemID   int64  `json:"itemId"`
	PartName string `json:"partName"`
	Delta    int    `json:"delta"`
	Before   int    `json:"before"`
	After    int    `json:"after"`
}

type LowStockEvent struct {
	ItemID        int64  `json:"itemId"`
	PartName      string `json:"partName"`
	Available     int    `json:"available"`
	MinStockLevel int    `json:"minStockLevel"`
}

type inventoryUseCase struct {
	txm       *txn.Manager
	repo      inventory.Repository
	recorder  activity.Recorder
	publisher outbox.Publisher
	logger    logger.ZapLogger
	now       func() time.Time
}

func NewInventoryUseCase(txm *txn.Manager, repo inventory.Repository, recorder activity.Recorder, publisher outbox.Publisher, log logger.ZapLogger) inventory.UseCase {
	if publisher == nil {
		publisher = outbox.Discard{}
	}
	return &inventoryUseCase{
		txm:       txm,
		repo:      repo,
		recorder:  recorder,
		publisher: publisher,
		logger:    log,
		now:       func() time.Time { return time.Now().UTC() },
	}
}

func (uc *inventoryUseCase) GetItem(ctx context.Context, id int64) (*model.InventoryItem, error) {
	item, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Storage("get inventory item", err)
	}
	if item == nil {
		return nil, apperror.NotFound("inventory item", id)
	}
	return item, nil
}

// AdjustStock joins the caller's transaction when there is one.
func (uc *inventoryUseCase) AdjustStock(ctx context.Context, id int64, delta int, opts inventory.AdjustOptions) (*inventory.StockChange, error) {
	if delta == 0 {
		return nil, apperror.Validation("quantity", "must not be zero")
	}
	if delta < 0 && !opts.RequireNonNegative {
		return nil, apperror.Validation("quantity", "decrements must enforce the stock floor")
	}

	var change *inventory.StockChange
	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		item, err := uc.repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return apperror.Storage("lock inventory item", err)
		}
		if item == nil {
			return apperror.NotFound("inventory item", id)
		}

		before := item.AvailableStock
		after := before + delta
		insufficient := &apperror.InsufficientStockError{
			ItemID:    id,
			ItemName:  item.PartName,
			Available: before,
			Requested: -delta,
		}
		if after < 0 {
			return insufficient
		}

		now := uc.now()
		applied, err := uc.repo.ApplyStockDelta(ctx, id, delta, now)
		if err != nil {
			return apperror.Storage("adjust stock", err)
		}
		if !applied {
			return insufficient
		}
		item.AvailableStock = after
		item.UpdatedAt = now

		if err := uc.publish(ctx, item, delta, before); err != nil {
			return err
		}
		change = &inventory.StockChange{Item: *item, Before: before, After: after}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Debug("stock adjusted",
		zap.Int64("item_id", id),
		zap.Int("delta", delta),
		zap.Int("before", change.Before),
		zap.Int("after", change.After),
	)
	return change, nil
}

func (uc *inventoryUseCase) publish(ctx context.Context, item *model.InventoryItem, delta, before int) error {
	aggID := strconv.FormatInt(item.ID, 10)
	err := uc.publisher.Publish(ctx, aggregateItem, aggID, EventStockAdjusted, StockAdjustedEvent{
		ItemID:   item.ID,
		PartName: item.PartName,
		Delta:    delta,
		Before:   before,
		After:    item.AvailableStock,
	})
	if err != nil {
		return apperror.Storage("publish stock event", err)
	}

	wasLow := model.DeriveStockStatus(before, item.MinStockLevel) == model.StockStatusLow
	if wasLow || item.Status() != model.StockStatusLow {
		return nil
	}
	err = uc.publisher.Publish(ctx, aggregateItem, aggID, EventLowStock, LowStockEvent{
		ItemID:        item.ID,
		PartName:      item.PartName,
		Available:     item.AvailableStock,
		MinStockLevel: item.MinStockLevel,
	})
	if err != nil {
		return apperror.Storage("publish low stock event", err)
	}
	return nil
}

func (uc *inventoryUseCase) ListItems(ctx context.Context, filters *dto.ItemFilters) ([]model.InventoryItem, int, error) {
	if filters == nil {
		filters = &dto.ItemFilters{}
	}
	items, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, apperror.Storage("list inventory items", err)
	}
	return items, count, nil
}

func (uc *inventoryUseCase) CreateItem(ctx context.Context, input *dto.CreateItemInput) (*model.InventoryItem, error) {
	if strings.TrimSpace(input.PartName) == "" {
		return nil, apperror.Validation("partName", "is required")
	}
	if input.AvailableStock < 0 {
		return nil, apperror.Validation("availableStock", "must not be negative")
	}
	if input.MinStockLevel < 0 {
		return nil, apperror.Validation("minStockLevel", "must not be negative")
	}
	if err := validatePrices(input.UnitPrice, input.WholesalePrice, input.SalesPrice, input.PurchasePrice); err != nil {
		return nil, err
	}

	now := uc.now()
	item := &model.InventoryItem{
		BaseModel:      model.BaseModel{CreatedAt: now, UpdatedAt: now},
		PartName:       strings.TrimSpace(input.PartName),
		PartCode:       optional(input.PartCode),
		Barcode:        optional(input.Barcode),
		Category:       optional(input.Category),
		Supplier:       optional(input.Supplier),
		AvailableStock: input.AvailableStock,
		MinStockLevel:  input.MinStockLevel,
		UnitPrice:      input.UnitPrice,
		WholesalePrice: input.WholesalePrice,
		SalesPrice:     input.SalesPrice,
		PurchasePrice:  input.PurchasePrice,
	}

	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		if err := uc.checkUnique(ctx, item.PartCode, item.Barcode, 0); err != nil {
			return err
		}
		if err := uc.repo.Create(ctx, item); err != nil {
			return apperror.Storage("create inventory item", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("inventory item created", zap.Int64("item_id", item.ID), zap.String("part_name", item.PartName))
	return item, nil
}

func (uc *inventoryUseCase) UpdateItem(ctx context.Context, id int64, patch *dto.ItemPatch) (*model.InventoryItem, error) {
	if patch == nil || patch.Empty() {
		return nil, apperror.Validation("", "no fields to update")
	}
	if patch.PartName != nil && strings.TrimSpace(*patch.PartName) == "" {
		return nil, apperror.Validation("partName", "must not be empty")
	}
	if patch.MinStockLevel != nil && *patch.MinStockLevel < 0 {
		return nil, apperror.Validation("minStockLevel", "must not be negative")
	}
	for _, p := range []*decimal.Decimal{patch.UnitPrice, patch.WholesalePrice, patch.SalesPrice, patch.PurchasePrice} {
		if p != nil && p.IsNegative() {
			return nil, apperror.Validation("price", "must not be negative")
		}
	}

	var updated *model.InventoryItem
	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		item, err := uc.repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return apperror.Storage("lock inventory item", err)
		}
		if item == nil {
			return apperror.NotFound("inventory item", id)
		}

		var code, barcode *string
		if patch.PartCode != nil {
			code = optional(*patch.PartCode)
		}
		if patch.Barcode != nil {
			barcode = optional(*patch.Barcode)
		}
		if err := uc.checkUnique(ctx, code, barcode, id); err != nil {
			return err
		}

		if err := uc.repo.Update(ctx, id, patch, uc.now()); err != nil {
			return apperror.Storage("update inventory item", err)
		}
		if updated, err = uc.repo.FindByID(ctx, id); err != nil {
			return apperror.Storage("reload inventory item", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return updated, nil
}

func (uc *inventoryUseCase) DeleteItem(ctx context.Context, id int64) error {
	return uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		item, err := uc.repo.FindByIDForUpdate(ctx, id)
		if err != nil {
			return apperror.Storage("lock inventory item", err)
		}
		if item == nil {
			return apperror.NotFound("inventory item", id)
		}
		refs, err := uc.repo.CountReferences(ctx, id)
		if err != nil {
			return apperror.Storage("count item references", err)
		}
		if refs > 0 {
			return apperror.Conflict("Cannot delete %s: it is referenced by job cards, returns or stock history", item.PartName)
		}
		if err := uc.repo.Delete(ctx, id); err != nil {
			return apperror.Storage("delete inventory item", err)
		}
		return nil
	})
}

func (uc *inventoryUseCase) StockIn(ctx context.Context, input *dto.StockInInput) (*inventory.StockChange, error) {
	if input.Quantity <= 0 {
		return nil, apperror.Validation("quantity", "must be positive")
	}
	if input.UnitPrice != nil && input.UnitPrice.IsNegative() {
		return nil, apperror.Validation("unitPrice", "must not be negative")
	}

	var change *inventory.StockChange
	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if change, err = uc.AdjustStock(ctx, input.ItemID, input.Quantity, inventory.AdjustOptions{}); err != nil {
			return err
		}

		price := change.Item.PurchasePrice
		if input.UnitPrice != nil {
			price = *input.UnitPrice
		}

		if _, err := uc.recorder.RecordStockTransaction(ctx, &activitydto.StockTransactionInput{
			InventoryItemID: input.ItemID,
			Type:            model.TransactionStockIn,
			Quantity:        input.Quantity,
			Before:          change.Before,
			After:           change.After,
			ReferenceNo:     input.BillNo,
			Notes:           input.Notes,
			BillNo:          input.BillNo,
			SupplierName:    input.SupplierName,
			PurchaseDate:    input.PurchaseDate,
			UnitPrice:       &price,
			CreatedBy:       input.CreatedBy,
		}); err != nil {
			return err
		}

		activityInput := &activitydto.ItemActivityInput{
			InventoryItemID: input.ItemID,
			Type:            model.ActivityPurchase,
			Quantity:        input.Quantity,
			UnitPrice:       price,
			ReferenceType:   model.ReferencePurchaseBill,
			ReferenceNo:     input.BillNo,
			SupplierName:    input.SupplierName,
			Notes:           input.Notes,
			CreatedBy:       input.CreatedBy,
		}
		if input.PurchaseDate != nil {
			activityInput.Date = *input.PurchaseDate
		}
		if _, err := uc.recorder.RecordItemActivity(ctx, activityInput); err != nil {
			return err
		}

		if input.UnitPrice != nil {
			if err := uc.repo.UpdatePurchasePrice(ctx, input.ItemID, price, uc.now()); err != nil {
				return apperror.Storage("update purchase price", err)
			}
			change.Item.PurchasePrice = price
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("stock in recorded",
		zap.Int64("item_id", input.ItemID),
		zap.Int("quantity", input.Quantity),
		zap.String("bill_no", input.BillNo),
	)
	return change, nil
}

func (uc *inventoryUseCase) StockOut(ctx context.Context, input *dto.StockOutInput) (*inventory.StockChange, error) {
	if input.Quantity <= 0 {
		return nil, apperror.Validation("quantity", "must be positive")
	}

	var change *inventory.StockChange
	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if change, err = uc.AdjustStock(ctx, input.ItemID, -input.Quantity, inventory.AdjustOptions{RequireNonNegative: true}); err != nil {
			return err
		}
		if _, err := uc.recorder.RecordStockTransaction(ctx, &activitydto.StockTransactionInput{
			InventoryItemID: input.ItemID,
			Type:            model.TransactionStockOut,
			Quantity:        input.Quantity,
			Before:          change.Before,
			After:           change.After,
			Notes:           input.Notes,
			CreatedBy:       input.CreatedBy,
		}); err != nil {
			return err
		}
		_, err = uc.recorder.RecordItemActivity(ctx, &activitydto.ItemActivityInput{
			InventoryItemID: input.ItemID,
			Type:            model.ActivityStockOut,
			Quantity:        input.Quantity,
			UnitPrice:       change.Item.SellingPrice(),
			Notes:           input.Notes,
			CreatedBy:       input.CreatedBy,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

func (uc *inventoryUseCase) RecordSale(ctx context.Context, input *dto.SaleInput) (*inventory.StockChange, error) {
	if input.Quantity <= 0 {
		return nil, apperror.Validation("quantity", "must be positive")
	}

	var change *inventory.StockChange
	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if change, err = uc.AdjustStock(ctx, input.ItemID, -input.Quantity, inventory.AdjustOptions{RequireNonNegative: true}); err != nil {
			return err
		}
		price := input.UnitPrice
		if !price.IsPositive() {
			price = change.Item.SellingPrice()
		}
		if _, err := uc.recorder.RecordStockTransaction(ctx, &activitydto.StockTransactionInput{
			InventoryItemID: input.ItemID,
			Type:            model.TransactionStockOut,
			Quantity:        input.Quantity,
			Before:          change.Before,
			After:           change.After,
			ReferenceNo:     input.InvoiceNo,
			UnitPrice:       &price,
		}); err != nil {
			return err
		}
		_, err = uc.recorder.RecordItemActivity(ctx, &activitydto.ItemActivityInput{
			InventoryItemID: input.ItemID,
			Type:            model.ActivitySale,
			Quantity:        input.Quantity,
			UnitPrice:       price,
			ReferenceType:   model.ReferenceInvoice,
			ReferenceNo:     input.InvoiceNo,
			CustomerName:    input.CustomerName,
		})
		return err
	})
	if err != nil {
		return nil, err
	}
	return change, nil
}

func (uc *inventoryUseCase) ListTransactions(ctx context.Context, id int64) ([]model.StockTransaction, error) {
	if _, err := uc.GetItem(ctx, id); err != nil {
		return nil, err
	}
	return uc.recorder.ListStockTransactions(ctx, id)
}

func (uc *inventoryUseCase) ItemActivity(ctx context.Context, id int64) (*dto.ItemActivityReport, error) {
	item, err := uc.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	activities, err := uc.recorder.ListItemActivities(ctx, id)
	if err != nil {
		return nil, err
	}
	return &dto.ItemActivityReport{
		Item:       item,
		Activities: activities,
		Summary:    activity.Summarize(activities, item.AvailableStock),
	}, nil
}

func (uc *inventoryUseCase) checkUnique(ctx context.Context, code, barcode *string, excludeID int64) error {
	if code != nil {
		taken, err := uc.repo.IsPartCodeTaken(ctx, *code, excludeID)
		if err != nil {
			return apperror.Storage("check part code", err)
		}
		if taken {
			return apperror.Conflict("Part code %s already exists", *code)
		}
	}
	if barcode != nil {
		taken, err := uc.repo.IsBarcodeTaken(ctx, *barcode, excludeID)
		if err != nil {
			return apperror.Storage("check barcode", err)
		}
		if taken {
			return apperror.Conflict("Barcode %s already exists", *barcode)
		}
	}
	return nil
}

func validatePrices(prices ...decimal.Decimal) error {
	for _, p := range prices {
		if p.IsNegative() {
			return apperror.Validation("price", "must not be negative")
		}
	}
	return nil
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
