package handler

import (
	"net/http"
	"time"

	"github.com/fekuna/omnipos-workshop-service/internal/testingrecord"
	"github.com/fekuna/omnipos-workshop-service/internal/testingrecord/dto"
	"github.com/fekuna/omnipos-workshop-service/pkg/httpx"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type TestingRecordHandler struct {
	uc     testingrecord.UseCase
	logger logger.ZapLogger
}

func NewTestingRecordHandler(uc testingrecord.UseCase, log logger.ZapLogger) *TestingRecordHandler {
	return &TestingRecordHandler{
		uc:     uc,
		logger: log,
	}
}

// Routes registers reads on r and writes on w.
func (h *TestingRecordHandler) Routes(r chi.Router, w chi.Router) {
	r.Get("/{id}", h.GetRecord)

	w.Post("/", h.CreateRecord)
	w.Delete("/{id}", h.DeleteRecord)
}

type repairReadings struct {
	Pressure    *string `json:"pressure"`
	Leak        *string `json:"leak"`
	Calibration *string `json:"calibration"`
	PassFail    *string `json:"passFail"`
}

type createRecordRequest struct {
	JobCardID    int64           `json:"jobCardId" validate:"gt=0"`
	TestDate     *time.Time      `json:"testDate"`
	CategoryType string          `json:"categoryType"`
	TestedBy     string          `json:"testedBy"`
	ApprovedBy   string          `json:"approvedBy"`
	ApprovalDate *time.Time      `json:"approvalDate"`
	BeforeRepair *repairReadings `json:"beforeRepair"`
	AfterRepair  *repairReadings `json:"afterRepair"`
	BeforeData   map[string]any  `json:"beforeData"`
	AfterData    map[string]any  `json:"afterData"`
}

func side(flat *repairReadings, data map[string]any) dto.ReadingsInput {
	in := dto.ReadingsInput{Data: data}
	if flat != nil {
		in.Pressure = flat.Pressure
		in.Leak = flat.Leak
		in.Calibration = flat.Calibration
		in.PassFail = flat.PassFail
	}
	return in
}

func (h *TestingRecordHandler) CreateRecord(w http.ResponseWriter, r *http.Request) {
	var req createRecordRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	rec, err := h.uc.CreateRecord(r.Context(), &dto.CreateRecordInput{
		JobCardID:    req.JobCardID,
		TestDate:     req.TestDate,
		CategoryType: req.CategoryType,
		TestedBy:     req.TestedBy,
		ApprovedBy:   req.ApprovedBy,
		ApprovalDate: req.ApprovalDate,
		Before:       side(req.BeforeRepair, req.BeforeData),
		After:        side(req.AfterRepair, req.AfterData),
	})
	if err != nil {
		httpx.Error(w, h.logger, err, "Failed to create testing record")
		return
	}
	httpx.Created(w, "Testing record created successfully", rec)
}

func (h *TestingRecordHandler) GetRecord(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	rec, err := h.uc.GetRecord(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.logger, err, "Failed to fetch testing record")
		return
	}
	httpx.OK(w, rec)
}

// ListByJobCard serves /job-cards/{id}/testing-records.
func (h *TestingRecordHandler) ListByJobCard(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	records, err := h.uc.ListByJobCard(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.logger, err, "Failed to fetch testing records")
		return
	}
	httpx.List(w, records, len(records))
}

func (h *TestingRecordHandler) DeleteRecord(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	if err := h.uc.DeleteRecord(r.Context(), id); err != nil {
		httpx.Error(w, h.logger, err, "Failed to delete testing record")
		return
	}
	httpx.Message(w, "Testing record deleted successfully", nil)
}
