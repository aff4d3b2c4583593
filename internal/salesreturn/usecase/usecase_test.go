package usecase

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	activityrepo "github.com/fekuna/omnipos-workshop-service/internal/activity/repository"
	activityuc "github.com/fekuna/omnipos-workshop-service/internal/activity/usecase"
	inventoryrepo "github.com/fekuna/omnipos-workshop-service/internal/inventory/repository"
	inventoryuc "github.com/fekuna/omnipos-workshop-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/internal/salesreturn"
	"github.com/fekuna/omnipos-workshop-service/internal/salesreturn/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/salesreturn/repository"
	"github.com/fekuna/omnipos-workshop-service/internal/testutil"
	"github.com/fekuna/omnipos-workshop-service/pkg/apperror"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/fekuna/omnipos-workshop-service/pkg/outbox"
	"github.com/fekuna/omnipos-workshop-service/pkg/txn"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fixture struct {
	db     *sqlx.DB
	outbox *outbox.SQLStore
	uc     salesreturn.UseCase
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	db := testutil.NewSQLite(t)
	txm := txn.NewManager(db)
	store := outbox.NewSQLStore(db)
	log := logger.NewNop()
	rec := activityuc.NewRecorder(activityrepo.NewPGRepository(db), log)
	ledger := inventoryuc.NewInventoryUseCase(txm, inventoryrepo.NewPGRepository(db), rec, store, log)
	return &fixture{
		db:     db,
		outbox: store,
		uc:     NewSalesReturnUseCase(txm, repository.NewPGRepository(db), ledger, rec, store, "", log),
	}
}

func (f *fixture) create(t *testing.T, items ...dto.ReturnItemInput) *model.SalesReturn {
	t.Helper()
	sr, err := f.uc.CreateReturn(context.Background(), &dto.CreateReturnInput{
		InvoiceID:    42,
		InvoiceNo:    "INV-042",
		ReturnDate:   time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC),
		ReturnAmount: decimal.NewFromInt(250),
		Reason:       "Wrong part",
		Items:        items,
	})
	require.NoError(t, err)
	return sr
}

func item(id int64, qty int, price string) dto.ReturnItemInput {
	return dto.ReturnItemInput{InventoryItemID: &id, Quantity: qty, UnitPrice: decimal.RequireFromString(price)}
}

func (f *fixture) approvals(t *testing.T) []outbox.Event {
	t.Helper()
	pending, err := f.outbox.ListByStatus(context.Background(), outbox.StatusPending)
	require.NoError(t, err)
	var out []outbox.Event
	for _, ev := range pending {
		if ev.Type == EventApproved {
			out = append(out, ev)
		}
	}
	return out
}

func TestCreateReturn(t *testing.T) {
	f := newFixture(t)
	itemID := testutil.SeedItem(t, f.db, testutil.ItemFixture{Name: "Nozzle", Stock: 20})

	first := f.create(t, item(itemID, 5, "50"))
	second := f.create(t)

	assert.Equal(t, "SR-001", first.ReturnNo)
	assert.Equal(t, "SR-002", second.ReturnNo)
	assert.Equal(t, model.ReturnStatusPending, first.Status)
	assert.False(t, first.StockUpdated)
	require.Len(t, first.Items, 1)
	assert.True(t, first.Items[0].TotalPrice.Equal(decimal.NewFromInt(250)))
	assert.Equal(t, "Nozzle", *first.Items[0].PartName)
	assert.Equal(t, 20, testutil.Stock(t, f.db, itemID))
}

func TestCreateReturnValidation(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	_, err := f.uc.CreateReturn(ctx, &dto.CreateReturnInput{ReturnDate: time.Now()})
	var ve *apperror.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = f.uc.CreateReturn(ctx, &dto.CreateReturnInput{
		InvoiceID:  1,
		ReturnDate: time.Now(),
		Items:      []dto.ReturnItemInput{item(999, 1, "1")},
	})
	assert.True(t, apperror.IsNotFound(err))
	assert.Equal(t, 0, testutil.Count(t, f.db, "sales_returns", ""))
}

func TestApproveCreditsStockOnce(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	itemID := testutil.SeedItem(t, f.db, testutil.ItemFixture{Name: "Nozzle", Stock: 20})
	sr := f.create(t, item(itemID, 5, "50"), dto.ReturnItemInput{Quantity: 1, UnitPrice: decimal.NewFromInt(10)})

	approved, err := f.uc.UpdateStatus(ctx, sr.ID, model.ReturnStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, model.ReturnStatusApproved, approved.Status)
	assert.True(t, approved.StockUpdated)
	assert.Equal(t, 25, testutil.Stock(t, f.db, itemID))
	assert.Equal(t, 1, testutil.Count(t, f.db, "stock_transactions", "transaction_type = ? AND reference_no = ?", model.TransactionStockIn, "SR-001"))
	assert.Equal(t, 1, testutil.Count(t, f.db, "item_activity", "activity_type = ? AND reference_type = ?", model.ActivityReturn, model.ReferenceSalesReturn))

	_, err = f.uc.UpdateStatus(ctx, sr.ID, model.ReturnStatusApproved)
	require.NoError(t, err)
	assert.Equal(t, 25, testutil.Stock(t, f.db, itemID))
	assert.Equal(t, 1, testutil.Count(t, f.db, "stock_transactions", ""))

	evs := f.approvals(t)
	require.Len(t, evs, 1)
	var payload ApprovedEvent
	require.NoError(t, json.Unmarshal(evs[0].Payload, &payload))
	assert.Equal(t, ApprovedEvent{ReturnID: sr.ID, ReturnNo: "SR-001", InvoiceID: 42, CreditedItems: 1, CreditedUnits: 5}, payload)
}

func TestApprovedAndRejectedAreTerminal(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	itemID := testutil.SeedItem(t, f.db, testutil.ItemFixture{Name: "Nozzle", Stock: 20})
	approved := f.create(t, item(itemID, 5, "50"))
	rejected := f.create(t, item(itemID, 5, "50"))

	_, err := f.uc.UpdateStatus(ctx, approved.ID, model.ReturnStatusApproved)
	require.NoError(t, err)
	_, err = f.uc.UpdateStatus(ctx, approved.ID, model.ReturnStatusPending)
	assert.True(t, apperror.IsConflict(err))

	_, err = f.uc.UpdateStatus(ctx, rejected.ID, model.ReturnStatusRejected)
	require.NoError(t, err)
	_, err = f.uc.UpdateStatus(ctx, rejected.ID, model.ReturnStatusApproved)
	assert.True(t, apperror.IsConflict(err))

	assert.Equal(t, 25, testutil.Stock(t, f.db, itemID))

	// The reason stays editable.
	reason := "Customer changed mind"
	got, err := f.uc.UpdateReturn(ctx, rejected.ID, &dto.ReturnPatch{Reason: &reason})
	require.NoError(t, err)
	assert.Equal(t, reason, *got.Reason)
	assert.Equal(t, model.ReturnStatusRejected, got.Status)
}

func TestUpdateStatusRejectsUnknownStatus(t *testing.T) {
	f := newFixture(t)
	sr := f.create(t)

	_, err := f.uc.UpdateStatus(context.Background(), sr.ID, "Shipped")
	var ve *apperror.ValidationError
	assert.ErrorAs(t, err, &ve)

	_, err = f.uc.UpdateStatus(context.Background(), 999, model.ReturnStatusApproved)
	assert.True(t, apperror.IsNotFound(err))
}

func TestDeleteOnlyWhilePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	itemID := testutil.SeedItem(t, f.db, testutil.ItemFixture{Name: "Nozzle", Stock: 20})
	pending := f.create(t, item(itemID, 1, "50"))
	approved := f.create(t)

	_, err := f.uc.UpdateStatus(ctx, approved.ID, model.ReturnStatusApproved)
	require.NoError(t, err)

	assert.True(t, apperror.IsConflict(f.uc.DeleteReturn(ctx, approved.ID)))
	require.NoError(t, f.uc.DeleteReturn(ctx, pending.ID))
	assert.True(t, apperror.IsNotFound(f.uc.DeleteReturn(ctx, pending.ID)))
	assert.Equal(t, 0, testutil.Count(t, f.db, "sales_return_items", ""))
}

func TestListReturnsByStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	f.create(t)
	sr := f.create(t)
	_, err := f.uc.UpdateStatus(ctx, sr.ID, model.ReturnStatusRejected)
	require.NoError(t, err)

	all, err := f.uc.ListReturns(ctx, &dto.ReturnFilters{Status: "all"})
	require.NoError(t, err)
	assert.Len(t, all, 2)

	rejected, err := f.uc.ListReturns(ctx, &dto.ReturnFilters{Status: model.ReturnStatusRejected})
	require.NoError(t, err)
	require.Len(t, rejected, 1)
	assert.Equal(t, sr.ID, rejected[0].ID)
}
