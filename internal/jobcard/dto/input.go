package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type JobCardFilters struct {
	Status       string
	Search       string
	TechnicianID *int64
	Page         int
	PageSize     int
}

type CreateJobCardInput struct {
	CustomerName         string
	CustomerPhone        string
	CompanyName          string
	TechnicianID         *int64
	VehicleType          string
	VehicleNumber        string
	EngineModel          string
	JobType              string
	Brand                string
	Status               string // empty means Received
	ReceivedDate         *time.Time
	ExpectedDeliveryDate *time.Time
	Description          string
	QuotationAmount      decimal.Decimal
	FinalAmount          decimal.Decimal
	LabourCost           decimal.Decimal

	// Planned parts, deducted by the sweep on entering repair.
	Materials []PlannedMaterial
}

type PlannedMaterial struct {
	InventoryItemID int64
	Quantity        int
}

// JobCardPatch is a partial update: nil fields are left untouched. Customer
// fields are resolved to a customer id before the update is applied.
type JobCardPatch struct {
	CustomerName         *string
	CustomerPhone        *string
	CompanyName          *string
	TechnicianID         *int64
	VehicleType          *string
	VehicleNumber        *string
	EngineModel          *string
	JobType              *string
	Brand                *string
	Status               *string
	ReceivedDate         *time.Time
	ExpectedDeliveryDate *time.Time
	Description          *string
	QuotationAmount      *decimal.Decimal
	FinalAmount          *decimal.Decimal
	LabourCost           *decimal.Decimal

	CustomerID *int64
}

func (p *JobCardPatch) Empty() bool {
	return p.CustomerName == nil && p.CustomerPhone == nil && p.CompanyName == nil &&
		p.TechnicianID == nil && p.VehicleType == nil && p.VehicleNumber == nil &&
		p.EngineModel == nil && p.JobType == nil && p.Brand == nil && p.Status == nil &&
		p.ReceivedDate == nil && p.ExpectedDeliveryDate == nil && p.Description == nil &&
		p.QuotationAmount == nil && p.FinalAmount == nil && p.LabourCost == nil && p.CustomerID == nil
}

// AddMaterialInput names either an inventory item or a free-text material.
type AddMaterialInput struct {
	JobCardID       int64
	InventoryItemID *int64
	MaterialName    string
	Quantity        int
	UnitPrice       *decimal.Decimal // free-text lines only
	UnitCost        *decimal.Decimal // free-text lines only
	// Deferred leaves stock untouched; the next deduction sweep takes it.
	Deferred  bool
	CreatedBy *int64
}
