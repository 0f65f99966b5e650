// Package settlement implements the statutory Belgian cash rounding of sale
// totals to the nearest 5 cents, plus change computation for cash payments.
package settlement

import (
	"errors"

	"github.com/openkassa/backend-kassa/internal/pricing"
)

// ErrInsufficientPayment is returned when the tendered amount does not cover
// the rounded total.
var ErrInsufficientPayment = errors.New("insufficient payment")

// Settlement records the outcome of applying cash rounding to a total. The
// difference (rounded minus original) is a statutory disclosure and must be
// printed on the receipt.
type Settlement struct {
	Original   pricing.Money
	Rounded    pricing.Money
	Difference pricing.Money
}

// RoundForCash rounds the total to the nearest multiple of 5 cents with ties
// resolving away from zero. It applies only to cash payments; card and mobile
// payments settle at the exact total.
func RoundForCash(total pricing.Money) Settlement {
	rounded := roundToFive(total)
	return Settlement{
		Original:   total,
		Rounded:    rounded,
		Difference: rounded - total,
	}
}

// Change computes the change due from the tendered amount against the rounded
// total.
func Change(rounded, tendered pricing.Money) (pricing.Money, error) {
	if tendered < rounded {
		return 0, ErrInsufficientPayment
	}
	return tendered - rounded, nil
}

func roundToFive(n pricing.Money) pricing.Money {
	if n < 0 {
		return -roundToFive(-n)
	}
	return (n + 2) / 5 * 5
}
