package handler

import (
	"net/http"
	"time"

	"github.com/fekuna/omnipos-workshop-service/internal/auth"
	"github.com/fekuna/omnipos-workshop-service/internal/salesreturn"
	"github.com/fekuna/omnipos-workshop-service/internal/salesreturn/dto"
	"github.com/fekuna/omnipos-workshop-service/pkg/httpx"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type SalesReturnHandler struct {
	uc     salesreturn.UseCase
	logger logger.ZapLogger
}

func NewSalesReturnHandler(uc salesreturn.UseCase, log logger.ZapLogger) *SalesReturnHandler {
	return &SalesReturnHandler{
		uc:     uc,
		logger: log,
	}
}

// Routes registers reads on r and writes on w.
func (h *SalesReturnHandler) Routes(r chi.Router, w chi.Router) {
	r.Get("/", h.ListReturns)
	r.Get("/{id}", h.GetReturn)

	w.Post("/", h.CreateReturn)
	w.Put("/{id}", h.UpdateReturn)
	w.Delete("/{id}", h.DeleteReturn)
}

type returnItemRequest struct {
	InventoryItemID *int64          `json:"inventoryItemId" validate:"omitnil,gt=0"`
	Quantity        int             `json:"quantity" validate:"gt=0"`
	UnitPrice       decimal.Decimal `json:"unitPrice"`
}

type createReturnRequest struct {
	InvoiceID    int64               `json:"invoiceId" validate:"gt=0"`
	InvoiceNo    string              `json:"invoiceNo"`
	JobCardID    *int64              `json:"jobCardId" validate:"omitnil,gt=0"`
	ReturnDate   time.Time           `json:"returnDate" validate:"required"`
	ReturnAmount decimal.Decimal     `json:"returnAmount"`
	Reason       string              `json:"reason"`
	Items        []returnItemRequest `json:"items" validate:"dive"`
}

type updateReturnRequest struct {
	Status *string `json:"status"`
	Reason *string `json:"reason"`
}

func (h *SalesReturnHandler) ListReturns(w http.ResponseWriter, r *http.Request) {
	returns, err := h.uc.ListReturns(r.Context(), &dto.ReturnFilters{Status: r.URL.Query().Get("status")})
	if err != nil {
		httpx.Error(w, h.logger, err, "Failed to fetch sales returns")
		return
	}
	httpx.List(w, returns, len(returns))
}

func (h *SalesReturnHandler) GetReturn(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	sr, err := h.uc.GetReturn(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.logger, err, "Failed to fetch sales return")
		return
	}
	httpx.OK(w, sr)
}

func (h *SalesReturnHandler) CreateReturn(w http.ResponseWriter, r *http.Request) {
	var req createReturnRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	input := &dto.CreateReturnInput{
		InvoiceID:    req.InvoiceID,
		InvoiceNo:    req.InvoiceNo,
		JobCardID:    req.JobCardID,
		ReturnDate:   req.ReturnDate,
		ReturnAmount: req.ReturnAmount,
		Reason:       req.Reason,
		CreatedBy:    auth.FromContext(r.Context()).IDPtr(),
	}
	for _, it := range req.Items {
		input.Items = append(input.Items, dto.ReturnItemInput{
			InventoryItemID: it.InventoryItemID,
			Quantity:        it.Quantity,
			UnitPrice:       it.UnitPrice,
		})
	}

	sr, err := h.uc.CreateReturn(r.Context(), input)
	if err != nil {
		httpx.Error(w, h.logger, err, "Failed to create sales return")
		return
	}
	httpx.Created(w, "Sales return created successfully", sr)
}

func (h *SalesReturnHandler) UpdateReturn(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	var req updateReturnRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	sr, err := h.uc.UpdateReturn(r.Context(), id, &dto.ReturnPatch{Status: req.Status, Reason: req.Reason})
	if err != nil {
		httpx.Error(w, h.logger, err, "Failed to update sales return")
		return
	}
	httpx.Message(w, "Sales return updated successfully", sr)
}

func (h *SalesReturnHandler) DeleteReturn(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	if err := h.uc.DeleteReturn(r.Context(), id); err != nil {
		httpx.Error(w, h.logger, err, "Failed to delete sales return")
		return
	}
	httpx.Message(w, "Sales return deleted successfully", nil)
}
