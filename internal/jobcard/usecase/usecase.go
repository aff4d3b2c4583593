package usecase

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/fekuna/omnipos-workshop-service/internal/activity"
	"github.com/fekuna/omnipos-workshop-service/internal/customer"
	customerdto "github.com/fekuna/omnipos-workshop-service/internal/customer/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/inventory"
	"github.com/fekuna/omnipos-workshop-service/internal/jobcard"
	"github.com/fekuna/omnipos-workshop-service/internal/jobcard/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/pkg/apperror"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/fekuna/omnipos-workshop-service/pkg/outbox"
	"github.com/fekuna/omnipos-workshop-service/pkg/txn"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const (
	EventStatusChanged = "jobcard.status_changed"

	aggregateJobCard = "job_card"
)

type Config struct {
	JobNumberPrefix string
	// DeductionStatus is the status whose entry triggers the deduction sweep.
	DeductionStatus string
}

func (c Config) withDefaults() Config {
	if c.JobNumberPrefix == "" {
		c.JobNumberPrefix = "JC"
	}
	if c.DeductionStatus == "" {
		c.DeductionStatus = model.JobStatusUnderRepair
	}
	return c
}

type StatusChangedEvent struct {
	JobCardID     int64  `json:"jobCardId"`
	JobNo         string `json:"jobNo"`
	From          string `json:"from"`
	To            string `json:"to"`
	DeductedLines int    `json:"deductedLines"`
}

type Dependencies struct {
	TxManager      *txn.Manager
	Cards          jobcard.Repository
	Materials      jobcard.MaterialRepository
	Ledger         inventory.Ledger
	Recorder       activity.Recorder
	Customers      customer.UseCase
	TestingRecords jobcard.TestingRecordCounter
	Publisher      outbox.Publisher
	Logger         logger.ZapLogger
}

type jobCardUseCase struct {
	txm       *txn.Manager
	cards     jobcard.Repository
	materials *materialsLedger
	customers customer.UseCase
	testing   jobcard.TestingRecordCounter
	publisher outbox.Publisher
	cfg       Config
	logger    logger.ZapLogger
	now       func() time.Time
}

// NewJobCardUseCase returns the state machine together with the materials
// ledger it shares locks and logging with.
func NewJobCardUseCase(deps Dependencies, cfg Config) (jobcard.UseCase, jobcard.MaterialsLedger) {
	cfg = cfg.withDefaults()
	publisher := deps.Publisher
	if publisher == nil {
		publisher = outbox.Discard{}
	}
	materials := newMaterialsLedger(deps.TxManager, deps.Cards, deps.Materials, deps.Ledger, deps.Recorder, cfg, deps.Logger)
	uc := &jobCardUseCase{
		txm:       deps.TxManager,
		cards:     deps.Cards,
		materials: materials,
		customers: deps.Customers,
		testing:   deps.TestingRecords,
		publisher: publisher,
		cfg:       cfg,
		logger:    deps.Logger,
		now:       func() time.Time { return time.Now().UTC() },
	}
	return uc, materials
}

func (uc *jobCardUseCase) CreateJobCard(ctx context.Context, input *dto.CreateJobCardInput) (*model.JobCardDetail, error) {
	required := []struct{ field, value string }{
		{"customerName", input.CustomerName},
		{"vehicleType", input.VehicleType},
		{"jobType", input.JobType},
		{"brand", input.Brand},
	}
	for _, r := range required {
		if strings.TrimSpace(r.value) == "" {
			return nil, apperror.Validation(r.field, "is required")
		}
	}
	for _, m := range input.Materials {
		if m.InventoryItemID <= 0 || m.Quantity <= 0 {
			return nil, apperror.Validation("materials", "each line needs an inventory item and a positive quantity")
		}
	}

	status := strings.TrimSpace(input.Status)
	if status == "" {
		status = model.JobStatusReceived
	}
	now := uc.now()
	received := input.ReceivedDate
	if received == nil {
		today := now.Truncate(24 * time.Hour)
		received = &today
	}

	var id int64
	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		cust, err := uc.customers.FindOrCreate(ctx, input.CustomerName, input.CustomerPhone, input.CompanyName)
		if err != nil {
			return err
		}

		card := &model.JobCard{
			BaseModel:            model.BaseModel{CreatedAt: now, UpdatedAt: now},
			JobNo:                uuid.NewString(),
			CustomerID:           &cust.ID,
			TechnicianID:         input.TechnicianID,
			VehicleType:          optional(input.VehicleType),
			VehicleNumber:        optional(input.VehicleNumber),
			EngineModel:          optional(input.EngineModel),
			JobType:              optional(input.JobType),
			Brand:                optional(input.Brand),
			ReceivedDate:         received,
			ExpectedDeliveryDate: input.ExpectedDeliveryDate,
			Description:          optional(input.Description),
			QuotationAmount:      input.QuotationAmount,
			FinalAmount:          input.FinalAmount,
			LabourCost:           input.LabourCost,
		}
		if err := uc.cards.Create(ctx, card); err != nil {
			return apperror.Storage("create job card", err)
		}
		card.JobNo = fmt.Sprintf("%s-%03d", uc.cfg.JobNumberPrefix, card.ID)
		if err := uc.cards.SetJobNo(ctx, card.ID, card.JobNo); err != nil {
			return apperror.Storage("assign job number", err)
		}
		card.CustomerName = &cust.Name

		for _, m := range input.Materials {
			itemID := m.InventoryItemID
			if _, err := uc.materials.add(ctx, card, &dto.AddMaterialInput{
				JobCardID:       card.ID,
				InventoryItemID: &itemID,
				Quantity:        m.Quantity,
				Deferred:        true,
			}); err != nil {
				return err
			}
		}

		// A card opened straight into repair sweeps its planned lines.
		if err := uc.transition(ctx, card, status); err != nil {
			return err
		}
		id = card.ID
		return nil
	})
	if err != nil {
		return nil, err
	}

	uc.logger.Info("job card created", zap.Int64("job_card_id", id), zap.String("status", status))
	return uc.GetJobCard(ctx, id)
}

func (uc *jobCardUseCase) GetJobCard(ctx context.Context, id int64) (*model.JobCardDetail, error) {
	card, err := uc.cards.FindByID(ctx, id)
	if err != nil {
		return nil, apperror.Storage("get job card", err)
	}
	if card == nil {
		return nil, apperror.NotFound("job card", id)
	}
	lines, err := uc.materials.ListMaterials(ctx, id)
	if err != nil {
		return nil, err
	}
	return &model.JobCardDetail{
		JobCard:        *card,
		Materials:      lines,
		MaterialTotals: model.SumMaterials(lines),
	}, nil
}

func (uc *jobCardUseCase) ListJobCards(ctx context.Context, filters *dto.JobCardFilters) ([]model.JobCard, int, error) {
	if filters == nil {
		filters = &dto.JobCardFilters{}
	}
	cards, count, err := uc.cards.FindAll(ctx, filters)
	if err != nil {
		return nil, 0, apperror.Storage("list job cards", err)
	}
	return cards, count, nil
}

func (uc *jobCardUseCase) UpdateJobCard(ctx context.Context, id int64, patch *dto.JobCardPatch) (*model.JobCardDetail, error) {
	if patch == nil || patch.Empty() {
		return nil, apperror.Validation("", "no fields to update")
	}
	if patch.Status != nil && strings.TrimSpace(*patch.Status) == "" {
		return nil, apperror.Validation("status", "must not be empty")
	}
	for _, amount := range []*decimal.Decimal{patch.QuotationAmount, patch.FinalAmount, patch.LabourCost} {
		if amount != nil && amount.IsNegative() {
			return nil, apperror.Validation("amount", "must not be negative")
		}
	}

	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		card, err := uc.materials.lockCard(ctx, id)
		if err != nil {
			return err
		}

		p := *patch
		if p.CustomerName != nil || p.CustomerPhone != nil || p.CompanyName != nil {
			if err := uc.updateCustomer(ctx, card, &p); err != nil {
				return err
			}
		}
		if err := uc.cards.Update(ctx, id, &p, uc.now()); err != nil {
			return apperror.Storage("update job card", err)
		}
		if patch.Status != nil {
			return uc.transition(ctx, card, strings.TrimSpace(*patch.Status))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return uc.GetJobCard(ctx, id)
}

// updateCustomer edits the card's customer in place. A card without a customer
// gets one by name, phone and company.
func (uc *jobCardUseCase) updateCustomer(ctx context.Context, card *model.JobCard, p *dto.JobCardPatch) error {
	if card.CustomerID == nil {
		if p.CustomerName == nil {
			return apperror.Validation("customerName", "is required to attach a customer")
		}
		cust, err := uc.customers.FindOrCreate(ctx, *p.CustomerName, deref(p.CustomerPhone), deref(p.CompanyName))
		if err != nil {
			return err
		}
		p.CustomerID = &cust.ID
		card.CustomerID = &cust.ID
		card.CustomerName = &cust.Name
		return nil
	}

	cust, err := uc.customers.UpdateDetails(ctx, *card.CustomerID, &customerdto.CustomerPatch{
		Name:        p.CustomerName,
		Phone:       p.CustomerPhone,
		CompanyName: p.CompanyName,
	})
	if err != nil {
		return err
	}
	card.CustomerName = &cust.Name
	return nil
}

func (uc *jobCardUseCase) UpdateStatus(ctx context.Context, id int64, status string) (*model.JobCard, error) {
	status = strings.TrimSpace(status)
	if status == "" {
		return nil, apperror.Validation("status", "is required")
	}

	var card *model.JobCard
	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		var err error
		if card, err = uc.materials.lockCard(ctx, id); err != nil {
			return err
		}
		return uc.transition(ctx, card, status)
	})
	if err != nil {
		return nil, err
	}
	return card, nil
}

// transition persists the new status on a locked card and sweeps undeducted
// lines when the card enters the deduction status.
func (uc *jobCardUseCase) transition(ctx context.Context, card *model.JobCard, status string) error {
	from := card.Status
	if from == status {
		return nil
	}

	now := uc.now()
	if err := uc.cards.UpdateStatus(ctx, card.ID, status, now); err != nil {
		return apperror.Storage("update job card status", err)
	}
	card.Status = status
	card.UpdatedAt = now

	deducted := 0
	if status == uc.cfg.DeductionStatus {
		var err error
		if deducted, err = uc.sweep(ctx, card); err != nil {
			return err
		}
	}

	if from != "" {
		err := uc.publisher.Publish(ctx, aggregateJobCard, strconv.FormatInt(card.ID, 10), EventStatusChanged, StatusChangedEvent{
			JobCardID:     card.ID,
			JobNo:         card.JobNo,
			From:          from,
			To:            status,
			DeductedLines: deducted,
		})
		if err != nil {
			return apperror.Storage("publish status event", err)
		}
	}

	uc.logger.Info("job card status changed",
		zap.Int64("job_card_id", card.ID),
		zap.String("from", from),
		zap.String("to", status),
		zap.Int("deducted_lines", deducted),
	)
	return nil
}

// sweep deducts every line not yet deducted. Lines come back in item id order
// so concurrent sweeps take item locks in the same order. Any shortfall fails
// the sweep and the caller's transaction rolls back all of it.
func (uc *jobCardUseCase) sweep(ctx context.Context, card *model.JobCard) (int, error) {
	lines, err := uc.materials.materials.ListUndeducted(ctx, card.ID)
	if err != nil {
		return 0, apperror.Storage("list undeducted materials", err)
	}
	for i := range lines {
		line := &lines[i]
		if err := uc.materials.deduct(ctx, card, line, nil); err != nil {
			return 0, err
		}
		marked, err := uc.materials.materials.MarkDeducted(ctx, line.ID)
		if err != nil {
			return 0, apperror.Storage("mark material deducted", err)
		}
		if !marked {
			return 0, apperror.Conflict("Material line %d was deducted concurrently", line.ID)
		}
	}
	return len(lines), nil
}

func (uc *jobCardUseCase) DeleteJobCard(ctx context.Context, id int64) error {
	var restored int
	err := uc.txm.WithinTx(ctx, func(ctx context.Context) error {
		card, err := uc.materials.lockCard(ctx, id)
		if err != nil {
			return err
		}

		records, err := uc.testing.CountByJobCard(ctx, id)
		if err != nil {
			return apperror.Storage("count testing records", err)
		}
		if records > 0 {
			return apperror.Conflict("Cannot delete job card %s: it has %d testing record(s)", card.JobNo, records)
		}

		lines, err := uc.materials.materials.ListDeducted(ctx, id)
		if err != nil {
			return apperror.Storage("list deducted materials", err)
		}
		for i := range lines {
			if err := uc.materials.restore(ctx, card, &lines[i], nil); err != nil {
				return err
			}
		}
		restored = len(lines)

		if err := uc.cards.Delete(ctx, id); err != nil {
			return apperror.Storage("delete job card", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	uc.logger.Info("job card deleted", zap.Int64("job_card_id", id), zap.Int("restored_lines", restored))
	return nil
}

func optional(s string) *string {
	if s = strings.TrimSpace(s); s == "" {
		return nil
	}
	return &s
}
