package salesreturn

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/internal/salesreturn/dto"
)

type Repository interface {
	Create(ctx context.Context, sr *model.SalesReturn) error
	SetReturnNo(ctx context.Context, id int64, returnNo string) error
	CreateItem(ctx context.Context, item *model.SalesReturnItem) error
	FindByID(ctx context.Context, id int64) (*model.SalesReturn, error)
	// FindByIDForUpdate row-locks the return until the transaction ends.
	FindByIDForUpdate(ctx context.Context, id int64) (*model.SalesReturn, error)
	FindAll(ctx context.Context, filters *dto.ReturnFilters) ([]model.SalesReturn, error)
	// ListItems returns the lines in inventory item id order.
	ListItems(ctx context.Context, returnID int64) ([]model.SalesReturnItem, error)
	Update(ctx context.Context, id int64, patch *dto.ReturnPatch, updatedAt time.Time) error
	// MarkStockUpdated flips stock_updated from false to true and reports whether it did.
	MarkStockUpdated(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}
