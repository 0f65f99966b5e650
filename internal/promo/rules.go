package promo

import (
	"errors"
	"time"

	"github.com/openkassa/backend-kassa/internal/db"
	"github.com/openkassa/backend-kassa/internal/pricing"
)

// Rule evaluation failures. All map to a rejected application, never a
// partial discount.
var (
	ErrNotFound       = errors.New("promo code not found")
	ErrInactive       = errors.New("promo code is not active")
	ErrNotStarted     = errors.New("promo code is not valid yet")
	ErrExpired        = errors.New("promo code has expired")
	ErrExhausted      = errors.New("promo code usage limit reached")
	ErrMinSpendNotMet = errors.New("cart total below promo minimum spend")
)

// Evaluate checks a promo code's rules against the cart subtotal at the given
// instant and returns the discount it grants. The returned discount is the
// definition only; clamping against the running total happens during
// aggregation.
func Evaluate(pc db.PromoCode, now time.Time, subtotal pricing.Money) (pricing.Discount, error) {
	if !pc.Active {
		return pricing.Discount{}, ErrInactive
	}
	if pc.ValidFrom.Valid && now.Before(pc.ValidFrom.Time) {
		return pricing.Discount{}, ErrNotStarted
	}
	if pc.ValidTo.Valid && now.After(pc.ValidTo.Time) {
		return pricing.Discount{}, ErrExpired
	}
	if pc.UsageLimit.Valid && pc.UsedCount >= pc.UsageLimit.Int32 {
		return pricing.Discount{}, ErrExhausted
	}
	if subtotal < pc.MinSpendCents {
		return pricing.Discount{}, ErrMinSpendNotMet
	}
	d, err := Discount(pc)
	if err != nil {
		return pricing.Discount{}, err
	}
	return d, nil
}

// Discount converts the stored promo definition into the engine's discount
// value object.
func Discount(pc db.PromoCode) (pricing.Discount, error) {
	var kind pricing.DiscountKind
	switch pc.Kind {
	case "percent":
		kind = pricing.DiscountPercent
	case "fixed":
		kind = pricing.DiscountFixed
	default:
		return pricing.Discount{}, pricing.ErrInvalidDiscount
	}
	d := pricing.Discount{Kind: kind, Value: pc.Value}
	if err := d.Validate(); err != nil {
		return pricing.Discount{}, err
	}
	return d, nil
}
