package usecase

import (
	"context"
	"testing"

	"github.com/fekuna/omnipos-workshop-service/internal/customer/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/customer/repository"
	"github.com/fekuna/omnipos-workshop-service/internal/testutil"
	"github.com/fekuna/omnipos-workshop-service/pkg/apperror"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/fekuna/omnipos-workshop-service/pkg/txn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFindOrCreate(t *testing.T) {
	db := testutil.NewSQLite(t)
	uc := NewCustomerUseCase(txn.NewManager(db), repository.NewPGRepository(db), logger.NewNop())
	ctx := context.Background()

	first, err := uc.FindOrCreate(ctx, "Ravi Motors", "98450", "Ravi Motors Pvt")
	require.NoError(t, err)
	require.NotNil(t, first.CompanyName)

	again, err := uc.FindOrCreate(ctx, " Ravi Motors ", "98450", "")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)

	other, err := uc.FindOrCreate(ctx, "Ravi Motors", "", "")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, other.ID)
	assert.Nil(t, other.Phone)

	noPhone, err := uc.FindOrCreate(ctx, "Ravi Motors", "", "")
	require.NoError(t, err)
	assert.Equal(t, other.ID, noPhone.ID)
	assert.Equal(t, 2, testutil.Count(t, db, "customers", ""))

	_, err = uc.FindOrCreate(ctx, "", "1", "")
	var verr *apperror.ValidationError
	assert.ErrorAs(t, err, &verr)

	got, err := uc.FindByID(ctx, first.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ravi Motors", got.Name)

	_, err = uc.FindByID(ctx, 404)
	assert.True(t, apperror.IsNotFound(err))
}

func TestUpdateDetails(t *testing.T) {
	db := testutil.NewSQLite(t)
	uc := NewCustomerUseCase(txn.NewManager(db), repository.NewPGRepository(db), logger.NewNop())
	ctx := context.Background()

	c, err := uc.FindOrCreate(ctx, "Ravi Motors", "555", "Ravi Motors Pvt")
	require.NoError(t, err)

	phone := "999"
	got, err := uc.UpdateDetails(ctx, c.ID, &dto.CustomerPatch{Phone: &phone})
	require.NoError(t, err)
	assert.Equal(t, "Ravi Motors", got.Name)
	require.NotNil(t, got.CompanyName)
	assert.Equal(t, "Ravi Motors Pvt", *got.CompanyName)

	empty := ""
	_, err = uc.UpdateDetails(ctx, c.ID, &dto.CustomerPatch{CompanyName: &empty})
	require.NoError(t, err)

	got, err = uc.FindByID(ctx, c.ID)
	require.NoError(t, err)
	require.NotNil(t, got.Phone)
	assert.Equal(t, "999", *got.Phone)
	assert.Nil(t, got.CompanyName)

	_, err = uc.UpdateDetails(ctx, c.ID, &dto.CustomerPatch{})
	var verr *apperror.ValidationError
	assert.ErrorAs(t, err, &verr)

	_, err = uc.UpdateDetails(ctx, 404, &dto.CustomerPatch{Phone: &phone})
	assert.True(t, apperror.IsNotFound(err))
}
