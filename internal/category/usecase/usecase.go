package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-workshop-service/internal/category"
	"github.com/fekuna/omnipos-workshop-service/internal/category/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/pkg/apperror"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/fekuna/omnipos-workshop-service/pkg/txn"
	"go.uber.org/zap"
)

type categoryUseCase struct {
	txm    *txn.Manager
	repo   category.Repository
	logger logger.ZapLogger
}

func NewCategoryUseCase(txm *txn.Manager, repo category.Repository, log logger.ZapLogger) category.UseCase {
	return &categoryUseCase{
		txm:    txm,
		repo:   repo,
		logger: log,
	}
}

func (uc *categoryUseCase) CreateCategory(ctx context.Context, input *dto.CreateCategoryInput) (*model.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, apperror.Validation("name", "is required")
	}

	cat := &model.Category{
		Name:      name,
		CreatedAt: time.Now().UTC(),
	}
	if d := strings.TrimSpace(input.Description); d != "" {
		cat.Description = &d
	}

	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		exists, err := uc.repo.ExistsByName(ctx, name)
		if err != nil {
			return apperror.Storage("check category name", err)
		}
		if exists {
			return apperror.Conflict("Category %s already exists", name)
		}
		if err := uc.repo.Create(ctx, cat); err != nil {
			return apperror.Storage("create category", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("category created", zap.Int64("category_id", cat.ID), zap.String("name", cat.Name))
	return cat, nil
}

func (uc *categoryUseCase) GetCategory(ctx context.Context, id int64) (*model.Category, error) {
	cat, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Storage("get category", err)
	}
	if cat == nil {
		return nil, apperror.NotFound("category", id)
	}
	return cat, nil
}

func (uc *categoryUseCase) ListCategories(ctx context.Context, filters *dto.CategoryFilters) ([]model.Category, int, error) {
	if filters == nil {
		filters = &dto.CategoryFilters{}
	}
	cats, count, err := uc.repo.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, apperror.Storage("list categories", err)
	}
	return cats, count, nil
}
