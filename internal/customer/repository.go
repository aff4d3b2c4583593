package customer

import (
	"context"

	"github.com/fekuna/omnipos-workshop-service/internal/model"
)

type Repository interface {
	FindByID(ctx context.Context, id int64) (*model.Customer, error)
	FindByNameAndPhone(ctx context.Context, name, phone string) (*model.Customer, error)
	Create(ctx context.Context, c *model.Customer) error
	Update(ctx context.Context, c *model.Customer) error
}
