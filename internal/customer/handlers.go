package customer

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openkassa/backend-kassa/internal/common"
)

// Handler exposes customer endpoints.
type Handler struct {
	Service      *Service
	DefaultLimit int
}

type createInput struct {
	Name  string `json:"name" validate:"required,min=1,max=120"`
	Email string `json:"email" validate:"omitempty,email"`
}

// Create registers a loyalty customer.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in createInput
	if !common.DecodeJSON(w, r, &in) {
		return
	}
	if !common.ValidateStruct(w, in) {
		return
	}
	c, err := h.Service.Create(r.Context(), in.Name, in.Email)
	if err != nil {
		common.WriteDomainError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, c)
}

// Get loads one customer.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.Service.Get(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, c)
}

// List returns a page of customers.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, h.DefaultLimit)
	customers, err := h.Service.List(r.Context(), page, limit)
	if err != nil {
		common.WriteDomainError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"customers": customers})
}

// Points reports the loyalty balance.
func (h *Handler) Points(w http.ResponseWriter, r *http.Request) {
	balance, err := h.Service.PointsBalance(r.Context(), chi.URLParam(r, "customerID"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, balance)
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	if err == ErrNotFound {
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
		return
	}
	common.WriteDomainError(w, err)
}
