package model

import (
	"time"

	"github.com/shopspring/decimal"
)

const (
	ReturnStatusPending  = "Pending"
	ReturnStatusApproved = "Approved"
	ReturnStatusRejected = "Rejected"
)

func ValidReturnStatus(s string) bool {
	switch s {
	case ReturnStatusPending, ReturnStatusApproved, ReturnStatusRejected:
		return true
	}
	return false
}

type SalesReturn struct {
	BaseModel
	ReturnNo     string          `db:"return_no" json:"returnNo"`
	InvoiceID    int64           `db:"invoice_id" json:"invoiceId"`
	InvoiceNo    *string         `db:"invoice_no" json:"invoiceNo"`
	JobCardID    *int64          `db:"job_card_id" json:"jobCardId"`
	ReturnDate   time.Time       `db:"return_date" json:"returnDate"`
	ReturnAmount decimal.Decimal `db:"return_amount" json:"returnAmount"`
	Reason       *string         `db:"reason" json:"reason"`
	Status       string          `db:"status" json:"status"`
	StockUpdated bool            `db:"stock_updated" json:"stockUpdated"`
	CreatedBy    *int64          `db:"created_by" json:"createdBy"`

	// Joined, read-only.
	JobNo        *string `db:"job_no" json:"jobNo"`
	CustomerName *string `db:"customer_name" json:"customerName"`

	Items []SalesReturnItem `db:"-" json:"items,omitempty"`
}

// Terminal reports whether the return can no longer change status.
func (r *SalesReturn) Terminal() bool {
	return r.Status == ReturnStatusApproved || r.Status == ReturnStatusRejected
}

type SalesReturnItem struct {
	ID              int64           `db:"id" json:"id"`
	SalesReturnID   int64           `db:"sales_return_id" json:"salesReturnId"`
	InventoryItemID *int64          `db:"inventory_item_id" json:"inventoryItemId"`
	Quantity        int             `db:"quantity" json:"quantity"`
	UnitPrice       decimal.Decimal `db:"unit_price" json:"unitPrice"`
	TotalPrice      decimal.Decimal `db:"total_price" json:"totalPrice"`

	// Joined, read-only.
	PartName *string `db:"part_name" json:"partName,omitempty"`
}
