//go:build integration

package usecase

import (
	"context"
	"sync"
	"testing"

	"github.com/fekuna/omnipos-workshop-service/internal/jobcard/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/internal/testutil"
	"github.com/fekuna/omnipos-workshop-service/pkg/apperror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Two cards each need 3 of an item with 4 in stock. Row locks must let
// exactly one sweep through.
func TestConcurrentSweepsHoldTheFloor(t *testing.T) {
	f := newFixtureOn(t, testutil.NewPostgres(t))
	itemID := testutil.SeedItem(t, f.db, testutil.ItemFixture{Name: "Nozzle", Stock: 4})

	cards := []int64{
		f.createCard(t, "", dto.PlannedMaterial{InventoryItemID: itemID, Quantity: 3}).ID,
		f.createCard(t, "", dto.PlannedMaterial{InventoryItemID: itemID, Quantity: 3}).ID,
	}

	var wg sync.WaitGroup
	errs := make([]error, len(cards))
	for i, id := range cards {
		wg.Add(1)
		go func(i int, id int64) {
			defer wg.Done()
			_, errs[i] = f.uc.UpdateStatus(context.Background(), id, model.JobStatusUnderRepair)
		}(i, id)
	}
	wg.Wait()

	succeeded, short := 0, 0
	for _, err := range errs {
		switch {
		case err == nil:
			succeeded++
		case apperror.IsInsufficientStock(err):
			short++
		default:
			t.Fatalf("unexpected error: %v", err)
		}
	}
	assert.Equal(t, 1, succeeded)
	assert.Equal(t, 1, short)
	assert.Equal(t, 1, testutil.Stock(t, f.db, itemID))
	assert.Equal(t, 1, testutil.Count(t, f.db, "job_cards", "status = ?", model.JobStatusUnderRepair))
}

func TestConcurrentAddsNeverOverdraw(t *testing.T) {
	f := newFixtureOn(t, testutil.NewPostgres(t))
	itemID := testutil.SeedItem(t, f.db, testutil.ItemFixture{Name: "Seal", Stock: 10})
	card := f.createCard(t, "")

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			in := itemLine(itemID, 2, false)
			in.JobCardID = card.ID
			_, _ = f.materials.AddMaterial(context.Background(), in)
		}()
	}
	wg.Wait()

	assert.Equal(t, 0, testutil.Stock(t, f.db, itemID))
	require.Equal(t, 5, testutil.Count(t, f.db, "job_card_materials", "stock_deducted = ?", true))
}
