package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	JobStatusReceived    = "Received"
	JobStatusUnderRepair = "Under Repair"
	JobStatusTesting     = "Testing"
	JobStatusCompleted   = "Completed"
	JobStatusDelivered   = "Delivered"
)

type JobCard struct {
	BaseModel
	JobNo                string          `db:"job_no" json:"jobNo"`
	CustomerID           *int64          `db:"customer_id" json:"customerId"`
	TechnicianID         *int64          `db:"technician_id" json:"technicianId"`
	VehicleType          *string         `db:"vehicle_type" json:"vehicleType"`
	VehicleNumber        *string         `db:"vehicle_number" json:"vehicleNumber"`
	EngineModel          *string         `db:"engine_model" json:"engineModel"`
	JobType              *string         `db:"job_type" json:"jobType"`
	Brand                *string         `db:"brand" json:"brand"`
	Status               string          `db:"status" json:"status"`
	ReceivedDate         *time.Time      `db:"received_date" json:"receivedDate"`
	ExpectedDeliveryDate *time.Time      `db:"expected_delivery_date" json:"expectedDeliveryDate"`
	Description          *string         `db:"description" json:"description"`
	QuotationAmount      decimal.Decimal `db:"quotation_amount" json:"quotationAmount"`
	FinalAmount          decimal.Decimal `db:"final_amount" json:"finalAmount"`
	LabourCost           decimal.Decimal `db:"labour_cost" json:"labourCost"`

	// Joined, read-only.
	CustomerName *string `db:"customer_name" json:"customerName"`
}

// JobCardMaterial binds a job card to an inventory item or a free-text material.
// StockDeducted is the only record of whether the line has touched inventory.
type JobCardMaterial struct {
	ID              int64           `db:"id" json:"id"`
	JobCardID       int64           `db:"job_card_id" json:"jobCardId"`
	InventoryItemID *int64          `db:"inventory_item_id" json:"inventoryItemId"`
	MaterialName    string          `db:"material_name" json:"materialName"`
	Quantity        int             `db:"quantity" json:"quantity"`
	UnitPrice       decimal.Decimal `db:"unit_price" json:"unitPrice"`
	UnitCost        decimal.Decimal `db:"unit_cost" json:"unitCost"`
	TotalPrice      decimal.Decimal `db:"total_price" json:"totalPrice"`
	TotalCost       decimal.Decimal `db:"total_cost" json:"totalCost"`
	StockDeducted   bool            `db:"stock_deducted" json:"stockDeducted"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`

	// Live inventory snapshot, filled by list queries only.
	PartCode       *string `db:"part_code" json:"partCode,omitempty"`
	AvailableStock *int    `db:"available_stock" json:"availableStock,omitempty"`
}

// Totals recomputes the line totals from quantity and unit values.
func (m *JobCardMaterial) Totals() {
	qty := decimal.NewFromInt(int64(m.Quantity))
	m.TotalPrice = m.UnitPrice.Mul(qty)
	m.TotalCost = m.UnitCost.Mul(qty)
}

type MaterialTotals struct {
	TotalPrice decimal.Decimal `json:"totalPrice"`
	TotalCost  decimal.Decimal `json:"totalCost"`
}

func SumMaterials(lines []JobCardMaterial) MaterialTotals {
	t := MaterialTotals{TotalPrice: decimal.Zero, TotalCost: decimal.Zero}
	for _, l := range lines {
		t.TotalPrice = t.TotalPrice.Add(l.TotalPrice)
		t.TotalCost = t.TotalCost.Add(l.TotalCost)
	}
	return t
}

type JobCardDetail struct {
	JobCard
	Materials      []JobCardMaterial `json:"materials"`
	MaterialTotals MaterialTotals    `json:"materialTotals"`
}
