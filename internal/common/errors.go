package common

import (
	"errors"
	"net/http"

	"github.com/openkassa/backend-kassa/internal/loyalty"
	"github.com/openkassa/backend-kassa/internal/pricing"
	"github.com/openkassa/backend-kassa/internal/settlement"
)

// AppError represents an error with an attached code and HTTP status.
type AppError struct {
	Code       string
	Message    string
	HTTPStatus int
	Err        error
	Details    any
}

// Error implements the error interface.
func (e *AppError) Error() string {
	if e == nil {
		return ""
	}
	if e.Err != nil {
		return e.Err.Error()
	}
	return e.Message
}

// Unwrap allows errors.Is/As to inspect the underlying error.
func (e *AppError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// NewAppError constructs an AppError.
func NewAppError(code, message string, status int, err error) *AppError {
	return &AppError{Code: code, Message: message, HTTPStatus: status, Err: err}
}

// domainStatus maps the engine's validation errors onto stable API codes.
// All of them are caller-facing and recoverable; the register re-prompts.
var domainStatus = []struct {
	err    error
	code   string
	status int
}{
	{pricing.ErrInvalidQuantity, "INVALID_QUANTITY", http.StatusUnprocessableEntity},
	{pricing.ErrInvalidDiscount, "INVALID_DISCOUNT", http.StatusUnprocessableEntity},
	{pricing.ErrEmptyCart, "EMPTY_CART", http.StatusUnprocessableEntity},
	{loyalty.ErrInvalidRedemption, "INVALID_REDEMPTION", http.StatusUnprocessableEntity},
	{loyalty.ErrLoyaltyDisabled, "LOYALTY_DISABLED", http.StatusUnprocessableEntity},
	{settlement.ErrInsufficientPayment, "INSUFFICIENT_PAYMENT", http.StatusUnprocessableEntity},
}

// WriteDomainError renders a computation-engine failure with its canonical
// code, falling back to a generic 500 for anything unrecognised.
func WriteDomainError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		JSONError(w, appErr.HTTPStatus, appErr.Code, appErr.Message, appErr.Details)
		return
	}
	for _, m := range domainStatus {
		if errors.Is(err, m.err) {
			JSONError(w, m.status, m.code, m.err.Error(), nil)
			return
		}
	}
	JSONError(w, http.StatusInternalServerError, "INTERNAL", "internal error", nil)
}
