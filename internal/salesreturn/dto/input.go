package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type ReturnFilters struct {
	Status string // empty or "all" lists every status
}

type ReturnItemInput struct {
	InventoryItemID *int64
	Quantity        int
	UnitPrice       decimal.Decimal
}

type CreateReturnInput struct {
	InvoiceID    int64
	InvoiceNo    string
	JobCardID    *int64
	ReturnDate   time.Time
	ReturnAmount decimal.Decimal
	Reason       string
	Items        []ReturnItemInput
	CreatedBy    *int64
}

// ReturnPatch changes the status, the reason, or both.
type ReturnPatch struct {
	Status *string
	Reason *string
}

func (p *ReturnPatch) Empty() bool {
	return p.Status == nil && p.Reason == nil
}
