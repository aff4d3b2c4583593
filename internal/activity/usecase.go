package activity

import (
	"context"

	"github.com/fekuna/omnipos-workshop-service/internal/activity/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
)

// Recorder appends audit rows. Called inside the caller's transaction, so a
// failed write rolls back the stock change it describes.
type Recorder interface {
	RecordStockTransaction(ctx context.Context, input *dto.StockTransactionInput) (*model.StockTransaction, error)
	RecordItemActivity(ctx context.Context, input *dto.ItemActivityInput) (*model.ItemActivity, error)
	ListStockTransactions(ctx context.Context, itemID int64) ([]model.StockTransaction, error)
	ListItemActivities(ctx context.Context, itemID int64) ([]model.ItemActivity, error)
}
