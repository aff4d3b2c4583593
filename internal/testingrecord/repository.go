package testingrecord

import (
	"context"

	"github.com/fekuna/omnipos-workshop-service/internal/model"
)

type Repository interface {
	Create(ctx context.Context, rec *model.TestingRecord) error
	FindByID(ctx context.Context, id int64) (*model.TestingRecord, error)
	ListByJobCard(ctx context.Context, jobCardID int64) ([]model.TestingRecord, error)
	Delete(ctx context.Context, id int64) error
	CountByJobCard(ctx context.Context, jobCardID int64) (int, error)
}

// JobCards is the slice of the job-card store a record needs. Creating a
// record locks its card so it cannot race the card's deletion.
type JobCards interface {
	LockByID(ctx context.Context, id int64) (bool, error)
	Exists(ctx context.Context, id int64) (bool, error)
}
