package usecase

import (
	"context"
	"strings"
	"time"

	"github.com/fekuna/omnipos-workshop-service/internal/customer"
	"github.com/fekuna/omnipos-workshop-service/internal/customer/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/pkg/apperror"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/fekuna/omnipos-workshop-service/pkg/txn"
	"go.uber.org/zap"
)

type customerUseCase struct {
	txm    *txn.Manager
	repo   customer.Repository
	logger logger.ZapLogger
}

func NewCustomerUseCase(txm *txn.Manager, repo customer.Repository, log logger.ZapLogger) customer.UseCase {
	return &customerUseCase{txm: txm, repo: repo, logger: log}
}

func (uc *customerUseCase) FindOrCreate(ctx context.Context, name, phone, company string) (*model.Customer, error) {
	name, phone = strings.TrimSpace(name), strings.TrimSpace(phone)
	if name == "" {
		return nil, apperror.Validation("customerName", "is required")
	}

	var c *model.Customer
	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if c, err = uc.repo.FindByNameAndPhone(ctx, name, phone); err != nil {
			return apperror.Storage("find customer", err)
		}
		if c != nil {
			return nil
		}

		c = &model.Customer{
			Name:        name,
			Phone:       optional(phone),
			CompanyName: optional(company),
			CreatedAt:   time.Now().UTC(),
		}
		if err := uc.repo.Create(ctx, c); err != nil {
			return apperror.Storage("create customer", err)
		}
		uc.logger.Info("customer created", zap.Int64("customer_id", c.ID))
		return nil
	})
	if err != nil {
		return nil, err
	}
	return c, nil
}

func (uc *customerUseCase) FindByID(ctx context.Context, id int64) (*model.Customer, error) {
	c, err := uc.repo.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Storage("get customer", err)
	}
	if c == nil {
		return nil, apperror.NotFound("customer", id)
	}
	return c, nil
}

func (uc *customerUseCase) UpdateDetails(ctx context.Context, id int64, patch *dto.CustomerPatch) (*model.Customer, error) {
	if patch == nil || patch.Empty() {
		return nil, apperror.Validation("", "no customer fields to update")
	}
	if patch.Name != nil && strings.TrimSpace(*patch.Name) == "" {
		return nil, apperror.Validation("customerName", "must not be empty")
	}

	var c *model.Customer
	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if c, err = uc.repo.FindByID(ctx, id); err != nil {
			return apperror.Storage("find customer", err)
		}
		if c == nil {
			return apperror.NotFound("customer", id)
		}
		if patch.Name != nil {
			c.Name = strings.TrimSpace(*patch.Name)
		}
		if patch.Phone != nil {
			c.Phone = optional(*patch.Phone)
		}
		if patch.CompanyName != nil {
			c.CompanyName = optional(*patch.CompanyName)
		}
		if err := uc.repo.Update(ctx, c); err != nil {
			return apperror.Storage("update customer", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("customer updated", zap.Int64("customer_id", c.ID))
	return c, nil
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
