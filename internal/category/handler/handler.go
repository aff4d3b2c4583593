package handler

import (
	"net/http"
	"strconv"

	"github.com/fekuna/omnipos-workshop-service/internal/category"
	"github.com/fekuna/omnipos-workshop-service/internal/category/dto"
	"github.com/fekuna/omnipos-workshop-service/pkg/httpx"
	"github.com/fekuna/omnipos-workshop-service/pkg/logger"
	"github.com/go-chi/chi/v5"
)

type CategoryHandler struct {
	uc     category.UseCase
	logger logger.ZapLogger
}

func NewCategoryHandler(uc category.UseCase, log logger.ZapLogger) *CategoryHandler {
	return &CategoryHandler{
		uc:     uc,
		logger: log,
	}
}

func (h *CategoryHandler) Routes(r chi.Router) {
	r.Get("/", h.ListCategories)
	r.Post("/", h.CreateCategory)
	r.Get("/{id}", h.GetCategory)
}

type createCategoryRequest struct {
	Name        string `json:"name" validate:"required,max=100"`
	Description string `json:"description"`
}

func (h *CategoryHandler) CreateCategory(w http.ResponseWriter, r *http.Request) {
	var req createCategoryRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	cat, err := h.uc.CreateCategory(r.Context(), &dto.CreateCategoryInput{
		Name:        req.Name,
		Description: req.Description,
	})
	if err != nil {
		httpx.Error(w, h.logger, err, "Error creating category")
		return
	}
	httpx.Created(w, "Category created successfully", cat)
}

func (h *CategoryHandler) GetCategory(w http.ResponseWriter, r *http.Request) {
	id, err := httpx.IDParam(r, "id")
	if err != nil {
		httpx.Error(w, h.logger, err, "")
		return
	}
	cat, err := h.uc.GetCategory(r.Context(), id)
	if err != nil {
		httpx.Error(w, h.logger, err, "Error fetching category")
		return
	}
	httpx.OK(w, cat)
}

func (h *CategoryHandler) ListCategories(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, _ := strconv.Atoi(q.Get("page"))
	pageSize, _ := strconv.Atoi(q.Get("pageSize"))
	cats, count, err := h.uc.ListCategories(r.Context(), &dto.CategoryFilters{
		Search:   q.Get("search"),
		Page:     page,
		PageSize: pageSize,
	})
	if err != nil {
		httpx.Error(w, h.logger, err, "Error fetching categories")
		return
	}
	httpx.List(w, cats, count)
}
