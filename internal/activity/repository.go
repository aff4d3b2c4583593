package activity

import (
	"context"

	"github.com/fekuna/omnipos-workshop-service/internal/model"
)

// Repository is append-only.
type Repository interface {
	InsertStockTransaction(ctx context.Context, tx *model.StockTransaction) error
	InsertItemActivity(ctx context.Context, a *model.ItemActivity) error
	ListStockTransactions(ctx context.Context, itemID int64) ([]model.StockTransaction, error)
	ListItemActivities(ctx context.Context, itemID int64) ([]model.ItemActivity, error)
}
