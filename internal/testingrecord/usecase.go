package testingrecord

import (
	"context"

	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/internal/testingrecord/dto"
)

type UseCase interface {
	CreateRecord(ctx context.Context, input *dto.CreateRecordInput) (*model.TestingRecord, error)
	GetRecord(ctx context.Context, id int64) (*model.TestingRecord, error)
	ListByJobCard(ctx context.Context, jobCardID int64) ([]model.TestingRecord, error)
	DeleteRecord(ctx context.Context, id int64) error
	CountByJobCard(ctx context.Context, jobCardID int64) (int, error)
}
