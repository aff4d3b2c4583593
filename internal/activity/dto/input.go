package dto

import (
	"time"

	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/shopspring/decimal"
)

type StockTransactionInput struct {
	InventoryItemID int64
	Type            model.TransactionType
	Quantity        int
	Before          int
	After           int
	ReferenceNo     string
	Notes           string
	BillNo          string
	SupplierName    string
	PurchaseDate    *time.Time
	UnitPrice       *decimal.Decimal
	CreatedBy       *int64
}

type ItemActivityInput struct {
	InventoryItemID int64
	Type            model.ActivityType
	Date            time.Time // zero means today
	Quantity        int
	UnitPrice       decimal.Decimal
	ReferenceType   string
	ReferenceID     *int64
	ReferenceNo     string
	CustomerName    string
	SupplierName    string
	Notes           string
	CreatedBy       *int64
}
