package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/fekuna/omnipos-workshop-service/internal/auth"
	"github.com/fekuna/omnipos-workshop-service/internal/jobcard"
	"github.com/fekuna/omnipos-workshop-service/internal/jobcard/dto"
	"github.com/fekuna/omnipos-workshop-service/pkg/httpx"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
)

type JobCardHandler struct {
	uc        jobcard.UseCase
	materials jobcard.MaterialsLedger
	logger    logger.ZapLogger
}

func NewJobCardHandler(uc jobcard.UseCase, materials jobcard.MaterialsLedger, log logger.ZapLogger) *JobCardHandler {
	return &JobCardHandler{
		uc:        uc,
		materials: materials,
		logger:    log,
	}
}

// Routes registers reads on r and writes on w, which carries the idempotency check.
func (h *JobCardHandler) Routes(r chi.Router, w chi.Router) {
	r.Get("/", h.ListJobCards)
	r.Get("/{id}", h.GetJobCard)
	r.Get("/{id}/materials", h.ListMaterials)

	w.Post("/", h.CreateJobCard)
	w.Put("/{id}", h.UpdateJobCard)
	w.Delete("/{id}", h.DeleteJobCard)
	w.Post("/{id}/materials", h.AddMaterial)
	w.Delete("/{id}/materials/{materialId}", h.RemoveMaterial)
}

type plannedMaterialRequest struct {
	InventoryItemID int64 `json:"inventoryItemId" validate:"gt=0"`
	Quantity        int   `json:"quantity" validate:"gt=0"`
}

type createJobCardRequest struct {
	CustomerName         string                   `json:"customerName" validate:"required"`
	CustomerPhone        string                   `json:"customerPhone"`
	CompanyName          string                   `json:"companyName"`
	TechnicianID         *int64                   `json:"technicianId"`
	VehicleType          string                   `json:"vehicleType" validate:"required"`
	VehicleNumber        string                   `json:"vehicleNumber"`
	EngineModel          string                   `json:"engineModel"`
	JobType              string                   `json:"jobType" validate:"required"`
	Brand                string                   `json:"brand" validate:"required"`
	Status               string                   `json:"status"`
	ReceivedDate         *time.Time               `json:"receivedDate"`
	ExpectedDeliveryDate *time.Time               `json:"expectedDeliveryDate"`
	Description          string                   `json:"description"`
	QuotationAmount      decimal.Decimal          `json:"quotationAmount"`
	FinalAmount          decimal.Decimal          `json:"finalAmount"`
	LabourCost           decimal.Decimal          `json:"labourCost"`
	Materials            []plannedMaterialRequest `json:"materials" validate:"dive"`
}

type updateJobCardRequest struct {
	CustomerName         *string          `json:"customerName"`
	CustomerPhone        *string          `json:"customerPhone"`
	CompanyName          *string          `json:"companyName"`
	TechnicianID         *int64           `json:"technicianId"`
	VehicleType          *string          `json:"vehicleType"`
	VehicleNumber        *string          `json:"vehicleNumber"`
	EngineModel          *string          `json:"engineModel"`
	JobType              *string          `json:"jobType"`
	Brand                *string          `json:"brand"`
	Status               *string          `json:"status"`
	ReceivedDate         *time.Time       `json:"receivedDate"`
	ExpectedDeliveryDate *time.Time       `json:"expectedDeliveryDate"`
	Description          *string          `json:"description"`
	QuotationAmount      *decimal.Decimal `json:"quotationAmount"`
	FinalAmount          *decimal.Decimal `json:"finalAmount"`
	LabourCost           *decimal.Decimal `json:"labourCost"`
}

type addMaterialRequest struct {
	InventoryItemID *int64           `json:"inventoryItemId" validate:"omitnil,gt=0"`
	MaterialName    string           `json:"materialName" validate:"required_without=InventoryItemID"`
	Quantity        int              `json:"quantity" validate:"gt=0"`
	UnitPrice       *decimal.Decimal `json:"unitPrice"`
	UnitCost        *decimal.Decimal `json:"unitCost"`
	Deferred        bool             `json:"deferred"`
}

func (h *JobCardHandler) ListJobCards(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	filters := &dto.JobCardFilters{
		Status:   q.Get("status"),
		Search:   q.Get("search"),
		Page:     page,
		PageSize: pageSize,
	}
	if raw := q.Get("technicianId"); raw != "" {
		tid, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			httpx.Fail(w, http.StatusBadRequest, "technicianId must be an integer")
			return
		}
		filters.TechnicianID = &tid
	}

	cards, count, err := h.uc.ListJobCards(r.Context(), filters)
	if err != nil {
		httpx.Error(w, h.logger, err, "Failed to fetch job cards")
		return
	}
	httpx.List(w, cards, count)
}

func (h *JobCardHandler) GetJobCard(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	detail, err := h.uc.GetJobCard(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.logger, err, "Failed to fetch job card")
		return
	}
	httpx.OK(w, detail)
}

func (h *JobCardHandler) CreateJobCard(w http.ResponseWriter, r *http.Request) {
	var req createJobCardRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	input := &dto.CreateJobCardInput{
		CustomerName:         req.CustomerName,
		CustomerPhone:        req.CustomerPhone,
		CompanyName:          req.CompanyName,
		TechnicianID:         req.TechnicianID,
		VehicleType:          req.VehicleType,
		VehicleNumber:        req.VehicleNumber,
		EngineModel:          req.EngineModel,
		JobType:              req.JobType,
		Brand:                req.Brand,
		Status:               req.Status,
		ReceivedDate:         req.ReceivedDate,
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		Description:          req.Description,
		QuotationAmount:      req.QuotationAmount,
		FinalAmount:          req.FinalAmount,
		LabourCost:           req.LabourCost,
	}
	for _, m := range req.Materials {
		input.Materials = append(input.Materials, dto.PlannedMaterial{InventoryItemID: m.InventoryItemID, Quantity: m.Quantity})
	}

	detail, err := h.uc.CreateJobCard(r.Context(), input)
	if err != nil {
		httpx.Error(w, h.logger, err, "Failed to create job card")
		return
	}
	httpx.Created(w, "Job card created successfully", detail)
}

func (h *JobCardHandler) UpdateJobCard(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	var req updateJobCardRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	detail, err := h.uc.UpdateJobCard(r.Context(), id, &dto.JobCardPatch{
		CustomerName:         req.CustomerName,
		CustomerPhone:        req.CustomerPhone,
		CompanyName:          req.CompanyName,
		TechnicianID:         req.TechnicianID,
		VehicleType:          req.VehicleType,
		VehicleNumber:        req.VehicleNumber,
		EngineModel:          req.EngineModel,
		JobType:              req.JobType,
		Brand:                req.Brand,
		Status:               req.Status,
		ReceivedDate:         req.ReceivedDate,
		ExpectedDeliveryDate: req.ExpectedDeliveryDate,
		Description:          req.Description,
		QuotationAmount:      req.QuotationAmount,
		FinalAmount:          req.FinalAmount,
		LabourCost:           req.LabourCost,
	})
	if err != nil {
		httpx.Error(w, h.logger, err, "Failed to update job card")
		return
	}
	httpx.Message(w, "Job card updated successfully", detail)
}

func (h *JobCardHandler) DeleteJobCard(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	if err := h.uc.DeleteJobCard(r.Context(), id); err != nil {
		httpx.Error(w, h.logger, err, "Failed to delete job card")
		return
	}
	httpx.Message(w, "Job card deleted successfully", nil)
}

func (h *JobCardHandler) ListMaterials(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	lines, err := h.materials.ListMaterials(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.logger, err, "Failed to fetch materials")
		return
	}
	httpx.List(w, lines, len(lines))
}

func (h *JobCardHandler) AddMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	var req addMaterialRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	line, err := h.materials.AddMaterial(r.Context(), &dto.AddMaterialInput{
		JobCardID:       id,
		InventoryItemID: req.InventoryItemID,
		MaterialName:    req.MaterialName,
		Quantity:        req.Quantity,
		UnitPrice:       req.UnitPrice,
		UnitCost:        req.UnitCost,
		Deferred:        req.Deferred,
		CreatedBy:       auth.FromContext(r.Context()).IDPtr(),
	})
	if err != nil {
		httpx.Error(w, h.logger, err, "Failed to add material")
		return
	}
	httpx.Created(w, "Material added successfully", line)
}

func (h *JobCardHandler) RemoveMaterial(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	materialID, err := httpx.IDParam(r, "materialId")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	if err := h.materials.RemoveMaterial(r.Context(), id, materialID); err != nil {
		httpx.Error(w, h.logger, err, "Failed to remove material")
		return
	}
	httpx.Message(w, "Material removed successfully", nil)
}
