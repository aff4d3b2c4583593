package inventory

import (
	"context"

	"github.com/fekuna/omnipos-workshop-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
)

type AdjustOptions struct {
	// RequireNonNegative must be set on every decrement.
	RequireNonNegative bool
}

type StockChange struct {
	Item   model.InventoryItem
	Before int
	After  int
}

// Ledger is the only writer of available stock.
type Ledger interface {
	GetItem(ctx context.Context, id int64) (*model.InventoryItem, error)
	AdjustStock(ctx context.Context, id int64, delta int, opts AdjustOptions) (*StockChange, error)
}

type UseCase interface {
	Ledger

	ListItems(ctx context.Context, filters *dto.ItemFilters) ([]model.InventoryItem, int, error)
	CreateItem(ctx context.Context, input *dto.CreateItemInput) (*model.InventoryItem, error)
	UpdateItem(ctx context.Context, id int64, patch *dto.ItemPatch) (*model.InventoryItem, error)
	DeleteItem(ctx context.Context, id int64) error

	StockIn(ctx context.Context, input *dto.StockInInput) (*StockChange, error)
	StockOut(ctx context.Context, input *dto.StockOutInput) (*StockChange, error)
	RecordSale(ctx context.Context, input *dto.SaleInput) (*StockChange, error)

	ListTransactions(ctx context.Context, id int64) ([]model.StockTransaction, error)
	ItemActivity(ctx context.Context, id int64) (*dto.ItemActivityReport, error)
}
