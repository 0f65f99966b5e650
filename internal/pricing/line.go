package pricing

import "errors"

// ErrInvalidQuantity is returned for non-positive quantities or a fractional
// quantity on a unit-mode line.
var ErrInvalidQuantity = errors.New("invalid quantity")

// Line is the input for pricing a single cart entry. UnitPrice is the
// VAT-inclusive shelf price; Qty is in thousandths of the product's unit.
type Line struct {
	UnitPrice Money
	Qty       int64
	Mode      Mode
	VATBps    int64
	Discount  *Discount
}

// LineTotals carries the monetary breakdown of a priced line. Total is the
// VAT-inclusive amount actually owed; Subtotal is the ex-VAT net, so
// Subtotal + VATAmount == Total by construction.
type LineTotals struct {
	Gross          Money `json:"grossCents"`
	DiscountAmount Money `json:"discountCents"`
	Subtotal       Money `json:"subtotalCents"`
	VATAmount      Money `json:"vatCents"`
	Total          Money `json:"totalCents"`
}

// PriceLine computes the subtotal, VAT amount and total for one line. Prices
// are tax inclusive: VAT is extracted from the post-discount amount, never
// added on top.
func PriceLine(l Line) (LineTotals, error) {
	if l.Qty <= 0 {
		return LineTotals{}, ErrInvalidQuantity
	}
	if l.Mode == ModeUnit && l.Qty%QuantityScale != 0 {
		return LineTotals{}, ErrInvalidQuantity
	}
	if l.Discount != nil {
		if err := l.Discount.Validate(); err != nil {
			return LineTotals{}, err
		}
	}

	gross := divRound(l.UnitPrice*l.Qty, QuantityScale)
	if gross < 0 {
		gross = 0
	}

	var discounted Money
	if l.Discount != nil {
		amount, err := l.Discount.Amount(gross)
		if err != nil {
			return LineTotals{}, err
		}
		discounted = amount
	}
	net := gross - discounted

	vat := net - divRound(net*10000, 10000+l.VATBps)
	return LineTotals{
		Gross:          gross,
		DiscountAmount: discounted,
		Subtotal:       net - vat,
		VATAmount:      vat,
		Total:          net,
	}, nil
}
