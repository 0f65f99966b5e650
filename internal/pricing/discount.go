package pricing

import "errors"

// ErrInvalidDiscount is returned for a negative magnitude or an unknown
// discount kind.
var ErrInvalidDiscount = errors.New("invalid discount")

// DiscountKind enumerates the supported discount variants.
type DiscountKind string

const (
	// DiscountPercent reduces an amount by a fraction expressed in basis points.
	DiscountPercent DiscountKind = "percent"
	// DiscountFixed reduces an amount by a fixed number of cents, clamped at the amount itself.
	DiscountFixed DiscountKind = "fixed_amount"
)

// Discount is a tagged value applied either to a single line or to the whole
// cart. Percent magnitudes are basis points (2100 = 21%); fixed magnitudes are
// cents.
type Discount struct {
	Kind  DiscountKind `json:"kind"`
	Value int64        `json:"value"`
}

// Validate reports whether the discount is well formed.
func (d Discount) Validate() error {
	if d.Value < 0 {
		return ErrInvalidDiscount
	}
	switch d.Kind {
	case DiscountPercent, DiscountFixed:
		// Oversized magnitudes are legal; Amount clamps the reduction at the
		// gross amount, so the result floors at zero.
		return nil
	default:
		return ErrInvalidDiscount
	}
}

// Amount computes the reduction the discount yields against the provided
// amount. The result never exceeds the amount and is never negative.
func (d Discount) Amount(amount Money) (Money, error) {
	if err := d.Validate(); err != nil {
		return 0, err
	}
	if amount <= 0 {
		return 0, nil
	}
	var reduction Money
	switch d.Kind {
	case DiscountPercent:
		reduction = divRound(amount*d.Value, 10000)
	case DiscountFixed:
		reduction = d.Value
	}
	if reduction > amount {
		reduction = amount
	}
	return reduction, nil
}
