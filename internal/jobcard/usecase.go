package jobcard

import (
	"context"

	"github.com/fekuna/omnipos-workshop-service/internal/jobcard/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
)

type MaterialsLedger interface {
	AddMaterial(ctx context.Context, input *dto.AddMaterialInput) (*model.JobCardMaterial, error)
	RemoveMaterial(ctx context.Context, jobCardID, materialID int64) error
	ListMaterials(ctx context.Context, jobCardID int64) ([]model.JobCardMaterial, error)
}

type UseCase interface {
	CreateJobCard(ctx context.Context, input *dto.CreateJobCardInput) (*model.JobCardDetail, error)
	GetJobCard(ctx context.Context, id int64) (*model.JobCardDetail, error)
	ListJobCards(ctx context.Context, filters *dto.JobCardFilters) ([]model.JobCard, int, error)
	UpdateJobCard(ctx context.Context, id int64, patch *dto.JobCardPatch) (*model.JobCardDetail, error)
	// UpdateStatus runs the deduction sweep when the card enters the deduction status.
	UpdateStatus(ctx context.Context, id int64, status string) (*model.JobCard, error)
	DeleteJobCard(ctx context.Context, id int64) error
}
