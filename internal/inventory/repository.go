package inventory

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-workshop-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/shopspring/decimal"
)

type Repository interface {
	FindByID(ctx context.Context, id int64) (*model.InventoryItem, error)
	// FindByIDForUpdate row-locks the item until the surrounding transaction ends.
	FindByIDForUpdate(ctx context.Context, id int64) (*model.InventoryItem, error)
	FindAll(ctx context.Context, filters *dto.ItemFilters) ([]model.InventoryItem, int, error)

	Create(ctx context.Context, item *model.InventoryItem) error
	Update(ctx context.Context, id int64, patch *dto.ItemPatch, updatedAt time.Time) error
	Delete(ctx context.Context, id int64) error

	// ApplyStockDelta reports false when the delta would take stock below zero.
	ApplyStockDelta(ctx context.Context, id int64, delta int, updatedAt time.Time) (bool, error)
	UpdatePurchasePrice(ctx context.Context, id int64, price decimal.Decimal, updatedAt time.Time) error

	IsPartCodeTaken(ctx context.Context, code string, excludeID int64) (bool, error)
	IsBarcodeTaken(ctx context.Context, barcode string, excludeID int64) (bool, error)
	CountReferences(ctx context.Context, id int64) (int, error)
}
