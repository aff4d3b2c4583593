package salesreturn

import (
	"context"

	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/internal/salesreturn/dto"
)

type UseCase interface {
	CreateReturn(ctx context.Context, input *dto.CreateReturnInput) (*model.SalesReturn, error)
	GetReturn(ctx context.Context, id int64) (*model.SalesReturn, error)
	ListReturns(ctx context.Context, filters *dto.ReturnFilters) ([]model.SalesReturn, error)
	// UpdateStatus credits the returned stock the first time a return is approved.
	UpdateStatus(ctx context.Context, id int64, status string) (*model.SalesReturn, error)
	UpdateReturn(ctx context.Context, id int64, patch *dto.ReturnPatch) (*model.SalesReturn, error)
	DeleteReturn(ctx context.Context, id int64) error
}
