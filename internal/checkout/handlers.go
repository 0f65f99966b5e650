package checkout

import (
	"context"
	"errors"
	"net/http"

	"github.com/openkassa/backend-kassa/internal/cart"
	"github.com/openkassa/backend-kassa/internal/common"
	"github.com/openkassa/backend-kassa/internal/lock"
)

// Handler exposes POST /api/v1/checkout.
type Handler struct {
	service *Service
	locker  *lock.CartLocker
}

// NewHandler constructs a Handler. The locker is optional; without one
// concurrent finalization of the same cart falls through to the cart
// status check inside the transaction.
func NewHandler(service *Service, locker *lock.CartLocker) *Handler {
	return &Handler{service: service, locker: locker}
}

// Create finalizes a cart into a sale.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var input Input
	if !common.DecodeJSON(w, r, &input) {
		return
	}
	if !common.ValidateStruct(w, input) {
		return
	}
	cashierID, _ := common.CashierID(r.Context())

	var out Output
	run := func(ctx context.Context) error {
		var err error
		out, err = h.service.Create(ctx, cashierID, input)
		return err
	}
	var err error
	if h.locker != nil {
		err = h.locker.WithCart(r.Context(), input.CartID, run)
	} else {
		err = run(r.Context())
	}
	if err != nil {
		h.writeError(w, err)
		return
	}
	common.JSON(w, http.StatusCreated, map[string]any{"data": out})
}

func (h *Handler) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, cart.ErrNotFound):
		common.JSONError(w, http.StatusNotFound, "NOT_FOUND", err.Error(), nil)
	case errors.Is(err, cart.ErrCartClosed):
		common.JSONError(w, http.StatusConflict, "CART_CLOSED", err.Error(), nil)
	case errors.Is(err, lock.ErrBusy):
		common.JSONError(w, http.StatusConflict, "REGISTER_BUSY", err.Error(), nil)
	case errors.Is(err, ErrTenderRequired), errors.Is(err, ErrUnknownPayment):
		common.JSONError(w, http.StatusBadRequest, "VALIDATION", err.Error(), nil)
	default:
		common.WriteDomainError(w, err)
	}
}
