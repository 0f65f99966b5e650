package cart

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/openkassa/backend-kassa/internal/common"
	"github.com/openkassa/backend-kassa/internal/db"
	"github.com/openkassa/backend-kassa/internal/pricing"
	"github.com/openkassa/backend-kassa/internal/promo"
)

// Handler exposes the register cart endpoints.
type Handler struct {
	service *Service
}

// NewHandler constructs a Handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type openInput struct {
	RegisterCode string `json:"registerCode" validate:"omitempty,max=32"`
}

// Open handles POST /api/v1/carts.
func (h *Handler) Open(w http.ResponseWriter, r *http.Request) {
	var input openInput
	if r.ContentLength > 0 && !common.DecodeJSON(w, r, &input) {
		return
	}
	if !common.ValidateStruct(w, input) {
		return
	}
	cashierID, _ := common.CashierID(r.Context())
	cart, err := h.service.Open(r.Context(), input.RegisterCode, cashierID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	view, err := h.service.View(r.Context(), db.UUIDString(cart.ID))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": view})
}

// Get handles GET /api/v1/carts/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	view, err := h.service.View(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusOK, map[string]any{"data": view})
}

type addLineInput struct {
	ProductID string `json:"productId" validate:"omitempty,uuid"`
	Barcode   string `json:"barcode" validate:"omitempty,min=4,max=64"`
	QtyMilli  int64  `json:"qtyMilli" validate:"required,gt=0"`
}

// AddLine handles POST /api/v1/carts/{id}/lines. The product is identified by
// either its id or a scanned barcode.
func (h *Handler) AddLine(w http.ResponseWriter, r *http.Request) {
	var input addLineInput
	if !common.DecodeJSON(w, r, &input) {
		return
	}
	if !common.ValidateStruct(w, input) {
		return
	}
	if (input.ProductID == "") == (input.Barcode == "") {
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", "provide exactly one of productId or barcode", nil)
		return
	}
	cartID := chi.URLParam(r, "id")
	var err error
	if input.ProductID != "" {
		_, err = h.service.AddProduct(r.Context(), cartID, input.ProductID, input.QtyMilli)
	} else {
		_, err = h.service.AddBarcode(r.Context(), cartID, input.Barcode, input.QtyMilli)
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, cartID, http.StatusOK)
}

type updateQtyInput struct {
	QtyMilli int64 `json:"qtyMilli" validate:"required,gt=0"`
}

// UpdateQty handles PATCH /api/v1/carts/{id}/lines/{lineID}.
func (h *Handler) UpdateQty(w http.ResponseWriter, r *http.Request) {
	var input updateQtyInput
	if !common.DecodeJSON(w, r, &input) {
		return
	}
	if !common.ValidateStruct(w, input) {
		return
	}
	cartID := chi.URLParam(r, "id")
	if err := h.service.UpdateQty(r.Context(), cartID, chi.URLParam(r, "lineID"), input.QtyMilli); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, cartID, http.StatusOK)
}

type discountInput struct {
	Kind  string `json:"kind" validate:"required,oneof=percent fixed_amount"`
	Value int64  `json:"value" validate:"gte=0"`
}

func (in *discountInput) discount() *pricing.Discount {
	return &pricing.Discount{Kind: pricing.DiscountKind(in.Kind), Value: in.Value}
}

// SetLineDiscount handles PUT /api/v1/carts/{id}/lines/{lineID}/discount.
func (h *Handler) SetLineDiscount(w http.ResponseWriter, r *http.Request) {
	var input discountInput
	if !common.DecodeJSON(w, r, &input) {
		return
	}
	if !common.ValidateStruct(w, input) {
		return
	}
	cartID := chi.URLParam(r, "id")
	if err := h.service.SetLineDiscount(r.Context(), cartID, chi.URLParam(r, "lineID"), input.discount()); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, cartID, http.StatusOK)
}

// ClearLineDiscount handles DELETE /api/v1/carts/{id}/lines/{lineID}/discount.
func (h *Handler) ClearLineDiscount(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")
	if err := h.service.SetLineDiscount(r.Context(), cartID, chi.URLParam(r, "lineID"), nil); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, cartID, http.StatusOK)
}

type overridePriceInput struct {
	UnitPriceCents int64 `json:"unitPriceCents" validate:"required,gt=0"`
}

// OverridePrice handles PUT /api/v1/carts/{id}/lines/{lineID}/price. Routed
// behind the manager role.
func (h *Handler) OverridePrice(w http.ResponseWriter, r *http.Request) {
	var input overridePriceInput
	if !common.DecodeJSON(w, r, &input) {
		return
	}
	if !common.ValidateStruct(w, input) {
		return
	}
	cartID := chi.URLParam(r, "id")
	if err := h.service.OverrideLinePrice(r.Context(), cartID, chi.URLParam(r, "lineID"), input.UnitPriceCents); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, cartID, http.StatusOK)
}

// RemoveLine handles DELETE /api/v1/carts/{id}/lines/{lineID}.
func (h *Handler) RemoveLine(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")
	if err := h.service.RemoveLine(r.Context(), cartID, chi.URLParam(r, "lineID")); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, cartID, http.StatusOK)
}

// Clear handles DELETE /api/v1/carts/{id}/lines.
func (h *Handler) Clear(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")
	if err := h.service.Clear(r.Context(), cartID); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, cartID, http.StatusOK)
}

// SetOrderDiscount handles PUT /api/v1/carts/{id}/discount.
func (h *Handler) SetOrderDiscount(w http.ResponseWriter, r *http.Request) {
	var input discountInput
	if !common.DecodeJSON(w, r, &input) {
		return
	}
	if !common.ValidateStruct(w, input) {
		return
	}
	cartID := chi.URLParam(r, "id")
	if err := h.service.SetOrderDiscount(r.Context(), cartID, input.discount()); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, cartID, http.StatusOK)
}

// ClearOrderDiscount handles DELETE /api/v1/carts/{id}/discount.
func (h *Handler) ClearOrderDiscount(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")
	if err := h.service.SetOrderDiscount(r.Context(), cartID, nil); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, cartID, http.StatusOK)
}

type applyPromoInput struct {
	Code string `json:"code" validate:"required,min=2,max=32"`
}

// ApplyPromo handles POST /api/v1/carts/{id}/promo.
func (h *Handler) ApplyPromo(w http.ResponseWriter, r *http.Request) {
	var input applyPromoInput
	if !common.DecodeJSON(w, r, &input) {
		return
	}
	if !common.ValidateStruct(w, input) {
		return
	}
	cartID := chi.URLParam(r, "id")
	if err := h.service.ApplyPromo(r.Context(), cartID, input.Code); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, cartID, http.StatusOK)
}

// RemovePromo handles DELETE /api/v1/carts/{id}/promo.
func (h *Handler) RemovePromo(w http.ResponseWriter, r *http.Request) {
	cartID := chi.URLParam(r, "id")
	if err := h.service.RemovePromo(r.Context(), cartID); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, cartID, http.StatusOK)
}

type setCustomerInput struct {
	CustomerID string `json:"customerId" validate:"omitempty,uuid"`
}

// SetCustomer handles PUT /api/v1/carts/{id}/customer. An empty customerId
// detaches the customer.
func (h *Handler) SetCustomer(w http.ResponseWriter, r *http.Request) {
	var input setCustomerInput
	if !common.DecodeJSON(w, r, &input) {
		return
	}
	if !common.ValidateStruct(w, input) {
		return
	}
	cartID := chi.URLParam(r, "id")
	if err := h.service.SetCustomer(r.Context(), cartID, input.CustomerID); err != nil {
		h.writeError(w, err)
		return
	}
	h.respondView(w, r, cartID, http.StatusOK)
}

func (h *Handler) respondView(w http.ResponseWriter, r *http.Request, cartID string, status int) {
	view, err := h.service.View(r.Context(), cartID)
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, status, map[string]any{"data": view})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrLineNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrProductNotFound):
		common.JSONError(w, http.StatusNotFound, "PRODUCT_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, ErrCartClosed):
		common.JSONError(w, http.StatusConflict, "CART_CLOSED", err.Error(), nil)
	case errors.Is(err, ErrProductInactive):
		common.JSONError(w, http.StatusUnprocessableEntity, "PRODUCT_INACTIVE", err.Error(), nil)
	case errors.Is(err, promo.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "PROMO_NOT_FOUND", err.Error(), nil)
	case errors.Is(err, promo.ErrInactive),
		errors.Is(err, promo.ErrNotStarted),
		errors.Is(err, promo.ErrExpired),
		errors.Is(err, promo.ErrExhausted),
		errors.Is(err, promo.ErrMinSpendNotMet):
		common.JSONError(w, http.StatusUnprocessableEntity, "PROMO_REJECTED", err.Error(), nil)
	default:
		common.WriteDomainError(w, err)
	}
}
