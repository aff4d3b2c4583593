package model

import (
	"github.com/shopspring/decimal"
)

type StockStatus string

const (
	StockStatusLow StockStatus = "Low"
	StockStatusOK  StockStatus = "OK"
)

type InventoryItem struct {
	BaseModel
	PartName       string          `db:"part_name" json:"partName"`
	PartCode       *string         `db:"part_code" json:"partCode"`
	Barcode        *string         `db:"barcode" json:"barcode"`
	Category       *string         `db:"category" json:"category"`
	Supplier       *string         `db:"supplier" json:"supplier"`
	AvailableStock int             `db:"available_stock" json:"availableStock"`
	MinStockLevel  int             `db:"min_stock_level" json:"minStockLevel"`
	UnitPrice      decimal.Decimal `db:"unit_price" json:"unitPrice"`
	WholesalePrice decimal.Decimal `db:"wholesale_price" json:"wholesalePrice"`
	SalesPrice     decimal.Decimal `db:"sales_price" json:"salesPrice"`
	PurchasePrice  decimal.Decimal `db:"purchase_price" json:"purchasePrice"`
}

// Status is derived from stock on every read and never stored.
func (i *InventoryItem) Status() StockStatus {
	return DeriveStockStatus(i.AvailableStock, i.MinStockLevel)
}

func DeriveStockStatus(available, minLevel int) StockStatus {
	if available <= minLevel {
		return StockStatusLow
	}
	return StockStatusOK
}

// SellingPrice prefers the sales price and falls back to the unit price.
func (i *InventoryItem) SellingPrice() decimal.Decimal {
	if i.SalesPrice.IsPositive() {
		return i.SalesPrice
	}
	if i.UnitPrice.IsPositive() {
		return i.UnitPrice
	}
	return decimal.Zero
}
