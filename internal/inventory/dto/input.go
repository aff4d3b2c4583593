package dto

import (
	"time"

	"github.com/shopspring/decimal"
)

type CreateItemInput struct {
	PartName       string
	PartCode       string
	Barcode        string
	Category       string
	Supplier       string
	AvailableStock int
	MinStockLevel  int
	UnitPrice      decimal.Decimal
	WholesalePrice decimal.Decimal
	SalesPrice     decimal.Decimal
	PurchasePrice  decimal.Decimal
}

// ItemPatch is a partial update: nil fields are left untouched. Stock is not
// patchable; it only moves through the ledger.
type ItemPatch struct {
	PartName       *string
	PartCode       *string
	Barcode        *string
	Category       *string
	Supplier       *string
	MinStockLevel  *int
	UnitPrice      *decimal.Decimal
	WholesalePrice *decimal.Decimal
	SalesPrice     *decimal.Decimal
	PurchasePrice  *decimal.Decimal
}

func (p *ItemPatch) Empty() bool {
	return p.PartName == nil && p.PartCode == nil && p.Barcode == nil && p.Category == nil &&
		p.Supplier == nil && p.MinStockLevel == nil && p.UnitPrice == nil && p.WholesalePrice == nil &&
		p.SalesPrice == nil && p.PurchasePrice == nil
}

type StockInInput struct {
	ItemID       int64
	Quantity     int
	BillNo       string
	SupplierName string
	PurchaseDate *time.Time
	UnitPrice    *decimal.Decimal
	Notes        string
	CreatedBy    *int64
}

type StockOutInput struct {
	ItemID    int64
	Quantity  int
	Notes     string
	CreatedBy *int64
}

type SaleInput struct {
	ItemID       int64
	Quantity     int
	UnitPrice    decimal.Decimal
	InvoiceNo    string
	CustomerName string
}
