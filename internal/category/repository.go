package category

import (
	"context"

	"github.com/fekuna/omnipos-workshop-service/internal/category/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, category *model.Category) error
	FindByID(ctx context.Context, id int64) (*model.Category, error)
	ExistsByName(ctx context.Context, name string) (bool, error)
	FindAll(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error)
}
