package sale

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openkassa/backend-kassa/internal/common"
)

// Handler exposes the sale record endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// List handles GET /api/v1/sales.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	page, limit := common.ParsePagination(r, 20)
	items, total, err := h.service.List(r.Context(), page, limit)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSONList(w, items, common.NewPagination(page, limit, total))
}

// Get handles GET /api/v1/sales/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	record, err := h.service.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": record})
}

// Receipt handles GET /api/v1/sales/{id}/receipt.
func (h *Handler) Receipt(w http.ResponseWriter, r *http.Request) {
	doc, err := h.service.Receipt(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": doc})
}

type cancelInput struct {
	Reason string `json:"reason" validate:"required,min=3,max=500"`
}

// Cancel handles POST /api/v1/sales/{id}/cancel. Routed behind the manager role.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	var input cancelInput
	if !common.DecodeJSON(w, r, &input) {
		return
	}
	if !common.ValidateStruct(w, input) {
		return
	}
	actorID, _ := common.CashierID(r.Context())
	record, err := h.service.Cancel(r.Context(), chi.URLParam(r, "id"), actorID, input.Reason)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": record})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrAlreadyCancelled):
		common.JSONError(w, http.StatusConflict, "ALREADY_CANCELLED", err.Error(), nil)
	default:
		common.WriteDomainError(w, err)
	}
}
