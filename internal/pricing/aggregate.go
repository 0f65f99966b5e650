package pricing

import "errors"

// ErrEmptyCart is returned when checkout is attempted on a cart without lines.
// Aggregating an empty line set itself is legal and yields zeroed totals.
var ErrEmptyCart = errors.New("cart is empty")

// Summary aggregates priced lines plus cart-level reductions into the figures
// printed on a receipt. Subtotal + TotalVAT == Total always holds.
type Summary struct {
	Subtotal      Money `json:"subtotalCents"`
	TotalVAT      Money `json:"vatCents"`
	TotalDiscount Money `json:"discountCents"`
	Total         Money `json:"totalCents"`
}

// Aggregate folds priced lines and applies the cart-level discounts. The
// order-level discount is applied first, the promo code second, each computed
// on the running total after the prior reduction. VAT is rescaled
// proportionally after the reductions so the receipt identity stays exact.
func Aggregate(lines []LineTotals, orderDiscount, promoDiscount *Discount) (Summary, error) {
	var s Summary
	for _, l := range lines {
		s.Subtotal += l.Subtotal
		s.TotalVAT += l.VATAmount
		s.TotalDiscount += l.DiscountAmount
		s.Total += l.Total
	}

	before := s.Total
	running := s.Total
	for _, d := range []*Discount{orderDiscount, promoDiscount} {
		if d == nil {
			continue
		}
		amount, err := d.Amount(running)
		if err != nil {
			return Summary{}, err
		}
		running -= amount
		s.TotalDiscount += amount
	}
	if running < 0 {
		running = 0
	}

	if running != before {
		// Rescale the extracted VAT to the reduced total; the ex-VAT subtotal
		// absorbs the rounding remainder so Subtotal + TotalVAT == Total.
		if before > 0 {
			s.TotalVAT = divRound(s.TotalVAT*running, before)
		} else {
			s.TotalVAT = 0
		}
		s.Total = running
		s.Subtotal = running - s.TotalVAT
	}
	return s, nil
}
