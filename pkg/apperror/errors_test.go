package apperror

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestStorageWrapsInfrastructureOnly(t *testing.T) {
	assert.Nil(t, Storage("op", nil))

	nf := NotFound("job card", 3)
	assert.Same(t, nf, Storage("load job card", nf))

	raw := errors.New("connection reset")
	wrapped := Storage("commit", raw)
	var se *StorageError
	assert.True(t, errors.As(wrapped, &se))
	assert.Equal(t, "commit", se.Op)
	assert.ErrorIs(t, wrapped, raw)

	assert.Same(t, wrapped, Storage("outer", wrapped))
}

func TestClassifiers(t *testing.T) {
	insufficient := fmt.Errorf("sweep: %w", &InsufficientStockError{ItemName: "Nozzle", Available: 1, Requested: 2})
	assert.True(t, IsInsufficientStock(insufficient))
	assert.True(t, IsBusiness(insufficient))
	assert.Equal(t, "sweep: Insufficient stock for Nozzle. Available: 1, needed: 2", insufficient.Error())

	assert.True(t, IsConflict(Conflict("cannot delete %s", "it")))
	assert.True(t, IsNotFound(NotFound("material", 9)))
	assert.Equal(t, "material 9 not found", NotFound("material", 9).Error())
	assert.Equal(t, "quantity: must be positive", Validation("quantity", "must be positive").Error())
	assert.False(t, IsBusiness(errors.New("boom")))
}
