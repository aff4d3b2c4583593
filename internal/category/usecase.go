package category

import (
	"context"

	"github.com/fekuna/omnipos-workshop-service/internal/category/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
)

type UseCase interface {
	CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error)
	GetCategory(ctx context.Context, id int64) (*model.Category, error)
	ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error)
}
