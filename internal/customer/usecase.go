package customer

import (
	"context"

	"github.com/fekuna/omnipos-workshop-service/internal/customer/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
)

// UseCase covers the lookups job cards need. Customer management lives in
// its own service.
type UseCase interface {
	FindOrCreate(ctx context.Context, name, phone, company string) (*model.Customer, error)
	FindByID(ctx context.Context, id int64) (*model.Customer, error)
	// UpdateDetails edits the customer row in place, so every card that
	// references it sees the change.
	UpdateDetails(ctx context.Context, id int64, patch *dto.CustomerPatch) (*model.Customer, error)
}
