package model

import (
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionStockIn  TransactionType = "Stock In"
	TransactionStockOut TransactionType = "Stock Out"
)

type ActivityType string

const (
	ActivityPurchase ActivityType = "Purchase"
	ActivityStockIn  ActivityType = "Stock In"
	ActivityStockOut ActivityType = "Stock Out"
	ActivityJobUsage ActivityType = "Job Usage"
	ActivitySale     ActivityType = "Sale"
	ActivityReturn   ActivityType = "Return"
)

const (
	ReferencePurchaseBill = "Purchase Bill"
	ReferenceJobCard      = "Job Card"
	ReferenceSalesReturn  = "Sales Return"
	ReferenceInvoice      = "Invoice"
)

// StockTransaction is append-only.
type StockTransaction struct {
	ID              int64               `db:"id" json:"id"`
	InventoryItemID int64               `db:"inventory_item_id" json:"inventoryItemId"`
	TransactionType TransactionType     `db:"transaction_type" json:"transactionType"`
	Quantity        int                 `db:"quantity" json:"quantity"`
	PreviousStock   int                 `db:"previous_stock" json:"previousStock"`
	NewStock        int                 `db:"new_stock" json:"newStock"`
	ReferenceNo     *string             `db:"reference_no" json:"referenceNo"`
	Notes           *string             `db:"notes" json:"notes"`
	BillNo          *string             `db:"bill_no" json:"billNo"`
	SupplierName    *string             `db:"supplier_name" json:"supplierName"`
	PurchaseDate    *time.Time          `db:"purchase_date" json:"purchaseDate"`
	UnitPrice       decimal.NullDecimal `db:"unit_price" json:"unitPrice"`
	CreatedBy       *int64              `db:"created_by" json:"createdBy"`
	CreatedAt       time.Time           `db:"created_at" json:"createdAt"`
}

// ItemActivity is append-only.
type ItemActivity struct {
	ID              int64           `db:"id" json:"id"`
	InventoryItemID int64           `db:"inventory_item_id" json:"inventoryItemId"`
	ActivityType    ActivityType    `db:"activity_type" json:"activityType"`
	ActivityDate    time.Time       `db:"activity_date" json:"activityDate"`
	Quantity        int             `db:"quantity" json:"quantity"`
	UnitPrice       decimal.Decimal `db:"unit_price" json:"unitPrice"`
	TotalPrice      decimal.Decimal `db:"total_price" json:"totalPrice"`
	ReferenceType   *string         `db:"reference_type" json:"referenceType"`
	ReferenceID     *int64          `db:"reference_id" json:"referenceId"`
	ReferenceNo     *string         `db:"reference_no" json:"referenceNo"`
	CustomerName    *string         `db:"customer_name" json:"customerName"`
	SupplierName    *string         `db:"supplier_name" json:"supplierName"`
	Notes           *string         `db:"notes" json:"notes"`
	CreatedBy       *int64          `db:"created_by" json:"createdBy"`
	CreatedAt       time.Time       `db:"created_at" json:"createdAt"`
}

type ActivitySummary struct {
	TotalPurchased int           `json:"totalPurchased"`
	TotalSold      int           `json:"totalSold"`
	TotalReturned  int           `json:"totalReturned"`
	AvailableStock int           `json:"availableStock"`
	LastPurchase   *ItemActivity `json:"lastPurchase"`
}
