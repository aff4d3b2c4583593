package jobcard

import (
	"context"
	"time"

	"github.com/fekuna/omnipos-workshop-service/internal/jobcard/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, jc *model.JobCard) error
	SetJobNo(ctx context.Context, id int64, jobNo string) error
	FindByID(ctx context.Context, id int64) (*model.JobCard, error)
	// LockByID row-locks the card and reports whether it exists.
	LockByID(ctx context.Context, id int64) (bool, error)
	Exists(ctx context.Context, id int64) (bool, error)
	FindAll(ctx context.Context, filters *dto.JobCardFilters) ([]model.JobCard, int, error)
	Update(ctx context.Context, id int64, patch *dto.JobCardPatch, updatedAt time.Time) error
	UpdateStatus(ctx context.Context, id int64, status string, updatedAt time.Time) error
	Delete(ctx context.Context, id int64) error
}

type MaterialRepository interface {
	Create(ctx context.Context, m *model.JobCardMaterial) error
	// FindForUpdate row-locks the line until the transaction ends.
	FindForUpdate(ctx context.Context, jobCardID, materialID int64) (*model.JobCardMaterial, error)
	ListByJobCard(ctx context.Context, jobCardID int64) ([]model.JobCardMaterial, error)
	// ListUndeducted returns inventory lines not yet deducted, in item id order.
	ListUndeducted(ctx context.Context, jobCardID int64) ([]model.JobCardMaterial, error)
	ListDeducted(ctx context.Context, jobCardID int64) ([]model.JobCardMaterial, error)
	// MarkDeducted flips stock_deducted from false to true and reports whether it did.
	MarkDeducted(ctx context.Context, id int64) (bool, error)
	Delete(ctx context.Context, id int64) error
}

// TestingRecordCounter guards job-card deletion.
type TestingRecordCounter interface {
	CountByJobCard(ctx context.Context, jobCardID int64) (int, error)
}
