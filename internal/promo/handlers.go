package promo

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openkassa/backend-kassa/internal/common"
)

// Handler exposes back-office promo code management.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /api/v1/promos.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, 20)
	items, err := h.service.List(r.Context(), page, limit)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": items})
}

// Create handles POST /api/v1/promos.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input Definition
	if !common.DecodeJSON(w, r, &input) {
		return
	}
	if !common.ValidateStruct(w, input) {
		return
	}
	item, err := h.service.Create(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": item})
}

// Update handles PUT /api/v1/promos/{code}.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	var input Definition
	if !common.DecodeJSON(w, r, &input) {
		return
	}
	input.Code = chi.URLParam(r, "code")
	if !common.ValidateStruct(w, input) {
		return
	}
	item, err := h.service.Update(r.Context(), input)
	if err != nil {
		writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": item})
}

func writeError(w http.ResponseWriter, err error) {
	if errors.Is(err, ErrNotFound) {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", "promo code not found", nil)
		return
	}
	common.WriteDomainError(w, err)
}
