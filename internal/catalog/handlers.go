package catalog

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openkassa/backend-kassa/internal/common"
)

// Handler exposes catalog endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /api/v1/products.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, h.service.defaultLimit)
	result, err := h.service.List(r.Context(), page, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONList(w, result.Items, common.NewPagination(result.Page, result.Limit, result.Total))
}

// Get handles GET /api/v1/products/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// LookupBarcode handles GET /api/v1/products/barcode/{code}.
func (h *Handler) LookupBarcode(w http.ResponseWriter, r *http.Request) {
	item, err := h.service.LookupBarcode(r.Context(), chi.URLParam(r, "code"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

// Create handles POST /api/v1/products.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input CreateInput
	if !common.DecodeJSON(w, r, &input) {
		return
	}
	if !common.ValidateStruct(w, input) {
		return
	}
	item, err := h.service.Create(r.Context(), input)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": item})
}

type updatePriceInput struct {
	PriceCents int64 `json:"priceCents" validate:"required,gt=0"`
}

// UpdatePrice handles PATCH /api/v1/products/{id}/price.
func (h *Handler) UpdatePrice(w http.ResponseWriter, r *http.Request) {
	var input updatePriceInput
	if !common.DecodeJSON(w, r, &input) {
		return
	}
	if !common.ValidateStruct(w, input) {
		return
	}
	item, err := h.service.UpdatePrice(r.Context(), chi.URLParam(r, "id"), input.PriceCents)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrProductNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "product not found", nil)
		return
	}
	common.WriteDomainError(w, err)
}
