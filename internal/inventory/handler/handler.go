package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fekuna/omnipos-workshop-service/internal/auth"
	"github.com/fekuna/omnipos-workshop-service/internal/inventory"
	"github.com/fekuna/omnipos-workshop-service/internal/inventory/dto"
	"github.com/fekuna/omnipos-workshop-service/internal/model"
	"github.com/fekuna/omnipos-workshop-service/pkg/httpx"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type InventoryHandler struct {
	uc     inventory.UseCase
	logger logger.ZapLogger
}

func NewInventoryHandler(uc inventory.UseCase, log logger.ZapLogger) *InventoryHandler {
	return &InventoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *InventoryHandler) Routes(r chi.Router) {
	r.Get("/", h.ListItems)
	r.Post("/", h.CreateItem)
	r.Route("/{id}", func(r chi.Router) {
		r.Get("/", h.GetItem)
		r.Put("/", h.UpdateItem)
		r.Delete("/", h.DeleteItem)
		r.Post("/stock-in", h.StockIn)
		r.Post("/stock-out", h.StockOut)
		r.Get("/transactions", h.ListTransactions)
		r.Get("/activity", h.ItemActivity)
	})
}

type createItemRequest struct {
	PartName       string          `json:"partName" validate:"required"`
	PartCode       string          `json:"partCode"`
	Barcode        string          `json:"barcode"`
	Category       string          `json:"category"`
	Supplier       string          `json:"supplier"`
	AvailableStock int             `json:"availableStock" validate:"gte=0"`
	MinStockLevel  int             `json:"minStockLevel" validate:"gte=0"`
	UnitPrice      decimal.Decimal `json:"unitPrice"`
	WholesalePrice decimal.Decimal `json:"wholesalePrice"`
	SalesPrice     decimal.Decimal `json:"salesPrice"`
	PurchasePrice  decimal.Decimal `json:"purchasePrice"`
}

type updateItemRequest struct {
	PartName       *string          `json:"partName"`
	PartCode       *string          `json:"partCode"`
	Barcode        *string          `json:"barcode"`
	Category       *string          `json:"category"`
	Supplier       *string          `json:"supplier"`
	MinStockLevel  *int             `json:"minStockLevel" validate:"omitnil,gte=0"`
	UnitPrice      *decimal.Decimal `json:"unitPrice"`
	WholesalePrice *decimal.Decimal `json:"wholesalePrice"`
	SalesPrice     *decimal.Decimal `json:"salesPrice"`
	PurchasePrice  *decimal.Decimal `json:"purchasePrice"`
}

type stockInRequest struct {
	Quantity     int              `json:"quantity" validate:"gt=0"`
	BillNo       string           `json:"billNo"`
	SupplierName string           `json:"supplierName"`
	PurchaseDate *time.Time       `json:"purchaseDate"`
	UnitPrice    *decimal.Decimal `json:"unitPrice"`
	Notes        string           `json:"notes"`
}

type stockOutRequest struct {
	Quantity int    `json:"quantity" validate:"gt=0"`
	Notes    string `json:"notes"`
}

// itemView hides cost prices from everyone but admins.
type itemView struct {
	ID             int64             `json:"id"`
	PartName       string            `json:"partName"`
	PartCode       *string           `json:"partCode"`
	Barcode        *string           `json:"barcode"`
	Category       *string           `json:"category"`
	Supplier       *string           `json:"supplier"`
	AvailableStock int               `json:"availableStock"`
	MinStockLevel  int               `json:"minStockLevel"`
	Status         model.StockStatus `json:"status"`
	UnitPrice      decimal.Decimal   `json:"unitPrice"`
	SalesPrice     decimal.Decimal   `json:"salesPrice"`
	WholesalePrice *decimal.Decimal  `json:"wholesalePrice,omitempty"`
	PurchasePrice  *decimal.Decimal  `json:"purchasePrice,omitempty"`
	CreatedAt      time.Time         `json:"createdAt"`
	UpdatedAt      time.Time         `json:"updatedAt"`
}

func toView(item *model.InventoryItem, admin bool) itemView {
	v := itemView{
		ID:             item.ID,
		PartName:       item.PartName,
		PartCode:       item.PartCode,
		Barcode:        item.Barcode,
		Category:       item.Category,
		Supplier:       item.Supplier,
		AvailableStock: item.AvailableStock,
		MinStockLevel:  item.MinStockLevel,
		Status:         item.Status(),
		UnitPrice:      item.UnitPrice,
		SalesPrice:     item.SalesPrice,
		CreatedAt:      item.CreatedAt,
		UpdatedAt:      item.UpdatedAt,
	}
	if admin {
		wholesale, purchase := item.WholesalePrice, item.PurchasePrice
		v.WholesalePrice = &wholesale
		v.PurchasePrice = &purchase
	}
	return v
}

type stockChangeView struct {
	Item   itemView `json:"item"`
	Before int      `json:"previousStock"`
	After  int      `json:"newStock"`
}

func (h *InventoryHandler) ListItems(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	filters := &dto.ItemFilters{
		Search:   q.Get("search"),
		Category: q.Get("category"),
		Status:   model.StockStatus(q.Get("status")),
		Page:     page,
		PageSize: pageSize,
	}
	if filters.Status != "" && filters.Status != model.StockStatusLow && filters.Status != model.StockStatusOK {
		httpx.Fail(w, http.StatusBadRequest, "status must be Low or OK")
		return
	}

	items, count, err := h.uc.ListItems(r.Context(), filters)
	if err != nil {
		httpx.Error(w, h.logger, err, "Error fetching inventory")
		return
	}

	admin := auth.FromContext(r.Context()).IsAdmin()
	views := make([]itemView, 0, len(items))
	for i := range items {
		views = append(views, toView(&items[i], admin))
	}
	httpx.List(w, views, count)
}

func (h *InventoryHandler) GetItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	item, err := h.uc.GetItem(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.logger, err, "Error fetching inventory item")
		return
	}
	httpx.OK(w, toView(item, auth.FromContext(r.Context()).IsAdmin()))
}

func (h *InventoryHandler) CreateItem(w http.ResponseWriter, r *http.Request) {
	var req createItemRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	item, err := h.uc.CreateItem(r.Context(), &dto.CreateItemInput{
		PartName:       req.PartName,
		PartCode:       req.PartCode,
		Barcode:        req.Barcode,
		Category:       req.Category,
		Supplier:       req.Supplier,
		AvailableStock: req.AvailableStock,
		MinStockLevel:  req.MinStockLevel,
		UnitPrice:      req.UnitPrice,
		WholesalePrice: req.WholesalePrice,
		SalesPrice:     req.SalesPrice,
		PurchasePrice:  req.PurchasePrice,
	})
	if err != nil {
		httpx.Error(w, h.logger, err, "Error creating inventory item")
		return
	}
	httpx.Created(w, "Inventory item created successfully", toView(item, auth.FromContext(r.Context()).IsAdmin()))
}

func (h *InventoryHandler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	var req updateItemRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	item, err := h.uc.UpdateItem(r.Context(), id, &dto.ItemPatch{
		PartName:       req.PartName,
		PartCode:       req.PartCode,
		Barcode:        req.Barcode,
		Category:       req.Category,
		Supplier:       req.Supplier,
		MinStockLevel:  req.MinStockLevel,
		UnitPrice:      req.UnitPrice,
		WholesalePrice: req.WholesalePrice,
		SalesPrice:     req.SalesPrice,
		PurchasePrice:  req.PurchasePrice,
	})
	if err != nil {
		httpx.Error(w, h.logger, err, "Error updating inventory item")
		return
	}
	httpx.Message(w, "Inventory item updated successfully", toView(item, auth.FromContext(r.Context()).IsAdmin()))
}

func (h *InventoryHandler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	if err := h.uc.DeleteItem(r.Context(), id); err != nil {
		httpx.Error(w, h.logger, err, "Error deleting inventory item")
		return
	}
	httpx.Message(w, "Inventory item deleted successfully", nil)
}

func (h *InventoryHandler) StockIn(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	var req stockInRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	user := auth.FromContext(r.Context())
	change, err := h.uc.StockIn(r.Context(), &dto.StockInInput{
		ItemID:       id,
		Quantity:     req.Quantity,
		BillNo:       req.BillNo,
		SupplierName: req.SupplierName,
		PurchaseDate: req.PurchaseDate,
		UnitPrice:    req.UnitPrice,
		Notes:        req.Notes,
		CreatedBy:    user.IDPtr(),
	})
	if err != nil {
		httpx.Error(w, h.logger, err, "Error recording stock in")
		return
	}
	httpx.Message(w, "Stock added successfully", stockChangeView{
		Item:   toView(&change.Item, user.IsAdmin()),
		Before: change.Before,
		After:  change.After,
	})
}

func (h *InventoryHandler) StockOut(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	var req stockOutRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	user := auth.FromContext(r.Context())
	change, err := h.uc.StockOut(r.Context(), &dto.StockOutInput{
		ItemID:    id,
		Quantity:  req.Quantity,
		Notes:     req.Notes,
		CreatedBy: user.IDPtr(),
	})
	if err != nil {
		httpx.Error(w, h.logger, err, "Error recording stock out")
		return
	}
	httpx.Message(w, "Stock removed successfully", stockChangeView{
		Item:   toView(&change.Item, user.IsAdmin()),
		Before: change.Before,
		After:  change.After,
	})
}

func (h *InventoryHandler) ListTransactions(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	txns, err := h.uc.ListTransactions(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.logger, err, "Error fetching stock transactions")
		return
	}
	httpx.List(w, txns, len(txns))
}

func (h *InventoryHandler) ItemActivity(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	report, err := h.uc.ItemActivity(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.logger, err, "Error fetching item activity")
		return
	}
	httpx.OK(w, map[string]any{
		"item":       toView(report.Item, auth.FromContext(r.Context()).IsAdmin()),
		"activities": report.Activities,
		"summary":    report.Summary,
	})
}
