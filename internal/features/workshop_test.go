package features

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/cucumber/godog"
	activityrepo "github.com/fekuna/omnipos-workshop-service/internal/activity/repository"
	activityuc "github.com/fekuna/omnipos-workshop-service/internal/activity/usecase"
	customerrepo "github.com/fekuna/omnipos-workshop-service/internal/customer/repository"
	customeruc "github.com/fekuna/omnipos-workshop-service/internal/customer/usecase"
	"github.com/fekuna/omnipos-workshop-service/internal/inventory"
	inventoryrepo "github.com/fekuna/omnipos-workshop-service/internal/inventory/repository"
	inventoryuc "github.com/fekuna/omnipos-workshop-service/internal/inventory/usecase"
	"github.com/fekuna/omnipos-workshop-service/internal/jobcard"
	jobcarddto "github.com/fekuna/omnipos-workshop-service/internal/jobcard/dto"
	jobcardrepo "github.com/fekuna/omnipos-workshop-service/internal/jobcard/repository"
	jobcarduc "github.com/fekuna/omnipos-workshop-service/internal/jobcard/usecase"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/internal/salesreturn"
	returndto "github.com/fekuna/omnipos-workshop-service/internal/salesreturn/dto"
	returnrepo "github.com/fekuna/omnipos-workshop-service/internal/salesreturn/repository"
	returnuc "github.com/fekuna/omnipos-workshop-service/internal/salesreturn/usecase"
	"github.com/fekuna/omnipos-workshop-service/internal/testingrecord"
	testingdto "github.com/fekuna/omnipos-workshop-service/internal/testingrecord/dto"
	testingrepo "github.com/fekuna/omnipos-workshop-service/internal/testingrecord/repository"
	testinguc "github.com/fekuna/omnipos-workshop-service/internal/testingrecord/usecase"
	"github.com/fekuna/omnipos-workshop-service/internal/testutil"
	"github.com/fekuna/omnipos-workshop-service/pkg/apperror"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/fekuna/omnipos-workshop-service/pkg/outbox"
	"github.com/fekuna/omnipos-workshop-service/pkg/txn"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"
)

type workshopTestContext struct {
	t *testing.T

	db        *sqlx.DB
	inventory inventory.UseCase
	jobCards  jobcard.UseCase
	materials jobcard.MaterialsLedger
	returns   salesreturn.UseCase
	records   testingrecord.UseCase

	items    map[string]int64
	card     *model.JobCardDetail
	lastLine *model.JobCardMaterial
	salesRet *model.SalesReturn
	err      error
}

func (c *workshopTestContext) reset() {
	db := testutil.NewSQLite(c.t)
	txm := txn.NewManager(db)
	store := outbox.NewSQLStore(db)
	log := logger.NewNop()
	rec := activityuc.NewRecorder(activityrepo.NewPGRepository(db), log)
	inv := inventoryuc.NewInventoryUseCase(txm, inventoryrepo.NewPGRepository(db), rec, store, log)
	cards := jobcardrepo.NewPGRepository(db)
	records := testinguc.NewTestingRecordUseCase(txm, testingrepo.NewPGRepository(db), cards, log)

	c.db = db
	c.inventory = inv
	c.jobCards, c.materials = jobcarduc.NewJobCardUseCase(jobcarduc.Dependencies{
		TxManager:      txm,
		Cards:          cards,
		Materials:      jobcardrepo.NewMaterialPGRepository(db),
		Ledger:         inv,
		Recorder:       rec,
		Customers:      customeruc.NewCustomerUseCase(txm, customerrepo.NewPGRepository(db), log),
		TestingRecords: records,
		Publisher:      store,
		Logger:         log,
	}, jobcarduc.Config{})
	c.returns = returnuc.NewSalesReturnUseCase(txm, returnrepo.NewPGRepository(db), inv, rec, store, "SR", log)
	c.records = records

	c.items = map[string]int64{}
	c.card = nil
	c.lastLine = nil
	c.salesRet = nil
	c.err = nil
}

func (c *workshopTestContext) itemID(name string) (int64, error) {
	id, ok := c.items[name]
	if !ok {
		return 0, fmt.Errorf("unknown item %q", name)
	}
	return id, nil
}

func (c *workshopTestContext) anInventoryItemWithStockAndMinimumLevel(name string, stock, minLevel int) error {
	c.items[name] = testutil.SeedItem(c.t, c.db, testutil.ItemFixture{Name: name, Stock: stock, MinStock: minLevel, SalesPrice: "10"})
	return nil
}

func (c *workshopTestContext) anInventoryItemWithStock(name string, stock int) error {
	return c.anInventoryItemWithStockAndMinimumLevel(name, stock, 0)
}

func (c *workshopTestContext) aJobCardInStatus(status string) error {
	card, err := c.jobCards.CreateJobCard(context.Background(), &jobcarddto.CreateJobCardInput{
		CustomerName: "Ravi Motors",
		VehicleType:  "Truck",
		JobType:      "Injector service",
		Brand:        "Bosch",
		Status:       status,
	})
	if err != nil {
		return err
	}
	c.card = card
	return nil
}

func (c *workshopTestContext) addMaterial(qty int, name string, deferred bool) error {
	id, err := c.itemID(name)
	if err != nil {
		return err
	}
	line, err := c.materials.AddMaterial(context.Background(), &jobcarddto.AddMaterialInput{
		JobCardID:       c.card.ID,
		InventoryItemID: &id,
		Quantity:        qty,
		Deferred:        deferred,
	})
	if err != nil {
		return err
	}
	c.lastLine = line
	return nil
}

func (c *workshopTestContext) iAddOfToTheJobCard(qty int, name string) error {
	return c.addMaterial(qty, name, false)
}

func (c *workshopTestContext) ofIsPlannedOnTheJobCard(qty int, name string) error {
	return c.addMaterial(qty, name, true)
}

func (c *workshopTestContext) iMoveTheJobCardTo(status string) error {
	_, c.err = c.jobCards.UpdateStatus(context.Background(), c.card.ID, status)
	return nil
}

func (c *workshopTestContext) iRemoveTheLastMaterialLine() error {
	if c.lastLine == nil {
		return errors.New("no material line was added")
	}
	return c.materials.RemoveMaterial(context.Background(), c.card.ID, c.lastLine.ID)
}

func (c *workshopTestContext) theJobCardHasATestingRecord() error {
	_, err := c.records.CreateRecord(context.Background(), &testingdto.CreateRecordInput{JobCardID: c.card.ID})
	return err
}

func (c *workshopTestContext) iDeleteTheJobCard() error {
	c.err = c.jobCards.DeleteJobCard(context.Background(), c.card.ID)
	return nil
}

func (c *workshopTestContext) aPendingSalesReturnForOf(qty int, name string) error {
	id, err := c.itemID(name)
	if err != nil {
		return err
	}
	sr, err := c.returns.CreateReturn(context.Background(), &returndto.CreateReturnInput{
		InvoiceID:    1,
		InvoiceNo:    "INV-001",
		ReturnDate:   time.Now().UTC(),
		ReturnAmount: decimal.NewFromInt(int64(qty) * 10),
		Items:        []returndto.ReturnItemInput{{InventoryItemID: &id, Quantity: qty, UnitPrice: decimal.NewFromInt(10)}},
	})
	if err != nil {
		return err
	}
	c.salesRet = sr
	return nil
}

func (c *workshopTestContext) iApproveTheSalesReturn() error {
	sr, err := c.returns.UpdateStatus(context.Background(), c.salesRet.ID, model.ReturnStatusApproved)
	if err != nil {
		return err
	}
	c.salesRet = sr
	return nil
}

func (c *workshopTestContext) theStockOfIs(name string, want int) error {
	id, err := c.itemID(name)
	if err != nil {
		return err
	}
	if got := testutil.Stock(c.t, c.db, id); got != want {
		return fmt.Errorf("expected stock %d for %s, got %d", want, name, got)
	}
	return nil
}

func (c *workshopTestContext) theStockStatusOfIs(name, want string) error {
	id, err := c.itemID(name)
	if err != nil {
		return err
	}
	item, err := c.inventory.GetItem(context.Background(), id)
	if err != nil {
		return err
	}
	if got := string(item.Status()); got != want {
		return fmt.Errorf("expected status %s for %s, got %s", want, name, got)
	}
	return nil
}

func (c *workshopTestContext) theLastMaterialLineIsDeducted() error {
	if c.lastLine == nil || !c.lastLine.StockDeducted {
		return errors.New("expected the last material line to be deducted")
	}
	return nil
}

func (c *workshopTestContext) theOperationFailsWithInsufficientStock() error {
	if !apperror.IsInsufficientStock(c.err) {
		return fmt.Errorf("expected insufficient stock, got %v", c.err)
	}
	return nil
}

func (c *workshopTestContext) theOperationFailsWithAConflict() error {
	if !apperror.IsConflict(c.err) {
		return fmt.Errorf("expected conflict, got %v", c.err)
	}
	return nil
}

func (c *workshopTestContext) theJobCardStatusIs(want string) error {
	card, err := c.jobCards.GetJobCard(context.Background(), c.card.ID)
	if err != nil {
		return err
	}
	if card.Status != want {
		return fmt.Errorf("expected job card status %s, got %s", want, card.Status)
	}
	return nil
}

func (c *workshopTestContext) theSalesReturnIsMarkedStockUpdated() error {
	if !c.salesRet.StockUpdated {
		return errors.New("expected the sales return to be marked stock updated")
	}
	return nil
}

func (c *workshopTestContext) stockTransactionsFor(want int, txType, name string) error {
	id, err := c.itemID(name)
	if err != nil {
		return err
	}
	got := testutil.Count(c.t, c.db, "stock_transactions", "inventory_item_id = ? AND transaction_type = ?", id, txType)
	if got != want {
		return fmt.Errorf("expected %d %q transactions for %s, got %d", want, txType, name, got)
	}
	return nil
}

func (c *workshopTestContext) activitiesFor(want int, activityType, name string) error {
	id, err := c.itemID(name)
	if err != nil {
		return err
	}
	got := testutil.Count(c.t, c.db, "item_activity", "inventory_item_id = ? AND activity_type = ?", id, activityType)
	if got != want {
		return fmt.Errorf("expected %d %q activities for %s, got %d", want, activityType, name, got)
	}
	return nil
}

func initializeScenario(t *testing.T) func(*godog.ScenarioContext) {
	return func(ctx *godog.ScenarioContext) {
		tc := &workshopTestContext{t: t}

		ctx.Before(func(ctx context.Context, sc *godog.Scenario) (context.Context, error) {
			tc.reset()
			return ctx, nil
		})

		// Given steps
		ctx.Step(`^an inventory item "([^"]*)" with stock (\d+) and minimum level (\d+)$`, tc.anInventoryItemWithStockAndMinimumLevel)
		ctx.Step(`^an inventory item "([^"]*)" with stock (\d+)$`, tc.anInventoryItemWithStock)
		ctx.Step(`^a job card in status "([^"]*)"$`, tc.aJobCardInStatus)
		ctx.Step(`^(\d+) of "([^"]*)" is planned on the job card$`, tc.ofIsPlannedOnTheJobCard)
		ctx.Step(`^the job card has a testing record$`, tc.theJobCardHasATestingRecord)
		ctx.Step(`^a pending sales return for (\d+) of "([^"]*)"$`, tc.aPendingSalesReturnForOf)

		// When steps
		ctx.Step(`^I add (\d+) of "([^"]*)" to the job card$`, tc.iAddOfToTheJobCard)
		ctx.Step(`^I move the job card to "([^"]*)"$`, tc.iMoveTheJobCardTo)
		ctx.Step(`^I remove the last material line$`, tc.iRemoveTheLastMaterialLine)
		ctx.Step(`^I delete the job card$`, tc.iDeleteTheJobCard)
		ctx.Step(`^I approve the sales return$`, tc.iApproveTheSalesReturn)

		// Then steps
		ctx.Step(`^the stock of "([^"]*)" is (\d+)$`, tc.theStockOfIs)
		ctx.Step(`^the stock status of "([^"]*)" is "([^"]*)"$`, tc.theStockStatusOfIs)
		ctx.Step(`^the last material line is deducted$`, tc.theLastMaterialLineIsDeducted)
		ctx.Step(`^the operation fails with insufficient stock$`, tc.theOperationFailsWithInsufficientStock)
		ctx.Step(`^the operation fails with a conflict$`, tc.theOperationFailsWithAConflict)
		ctx.Step(`^the job card status is "([^"]*)"$`, tc.theJobCardStatusIs)
		ctx.Step(`^the sales return is marked stock updated$`, tc.theSalesReturnIsMarkedStockUpdated)
		ctx.Step(`^there (?:is|are) (\d+) "([^"]*)" stock transactions? for "([^"]*)"$`, tc.stockTransactionsFor)
		ctx.Step(`^there (?:is|are) (\d+) "([^"]*)" activit(?:y|ies) for "([^"]*)"$`, tc.activitiesFor)
	}
}

func TestFeatures(t *testing.T) {
	suite := godog.TestSuite{
		ScenarioInitializer: initializeScenario(t),
		Options: &godog.Options{
			Format:   "pretty",
			Paths:    []string{"workshop.feature"},
			TestingT: t,
		},
	}

	if suite.Run() != 0 {
		t.Fatal("non-zero status returned, failed to run feature tests")
	}
}
