package pricing

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceLineUnitInclusiveVAT(t *testing.T) {
	// 3 pieces at 10.00 EUR, 21% VAT included in the shelf price.
	got, err := PriceLine(Line{UnitPrice: 1000, Qty: 3 * QuantityScale, Mode: ModeUnit, VATBps: 2100})
	require.NoError(t, err)
	assert.Equal(t, Money(3000), got.Total)
	assert.Equal(t, Money(521), got.VATAmount)
	assert.Equal(t, Money(2479), got.Subtotal)
	assert.Equal(t, got.Total, got.Subtotal+got.VATAmount)
}

func TestPriceLineWeight(t *testing.T) {
	// 1.250 kg at 4.80 EUR/kg.
	got, err := PriceLine(Line{UnitPrice: 480, Qty: 1250, Mode: ModeWeight, VATBps: 600})
	require.NoError(t, err)
	assert.Equal(t, Money(600), got.Gross)
	assert.Equal(t, got.Total, got.Subtotal+got.VATAmount)
}

func TestPriceLineQuantityValidation(t *testing.T) {
	cases := []struct {
		name string
		line Line
	}{
		{"zero qty", Line{UnitPrice: 100, Qty: 0, Mode: ModeUnit, VATBps: 2100}},
		{"negative qty", Line{UnitPrice: 100, Qty: -QuantityScale, Mode: ModeWeight, VATBps: 2100}},
		{"fractional unit qty", Line{UnitPrice: 100, Qty: 1500, Mode: ModeUnit, VATBps: 2100}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := PriceLine(tc.line)
			assert.ErrorIs(t, err, ErrInvalidQuantity)
		})
	}
}

func TestPriceLineDiscounts(t *testing.T) {
	cases := []struct {
		name      string
		discount  Discount
		wantTotal Money
		wantOff   Money
	}{
		{"ten percent", Discount{Kind: DiscountPercent, Value: 1000}, 1800, 200},
		{"fixed below gross", Discount{Kind: DiscountFixed, Value: 500}, 1500, 500},
		{"fixed above gross clamps", Discount{Kind: DiscountFixed, Value: 5000}, 0, 2000},
		{"percent above hundred clamps", Discount{Kind: DiscountPercent, Value: 15000}, 0, 2000},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := PriceLine(Line{UnitPrice: 1000, Qty: 2 * QuantityScale, Mode: ModeUnit, VATBps: 2100, Discount: &tc.discount})
			require.NoError(t, err)
			assert.Equal(t, tc.wantTotal, got.Total)
			assert.Equal(t, tc.wantOff, got.DiscountAmount)
			assert.Equal(t, got.Total, got.Subtotal+got.VATAmount)
		})
	}
}

func TestPriceLineInvalidDiscount(t *testing.T) {
	d := Discount{Kind: DiscountPercent, Value: -1}
	_, err := PriceLine(Line{UnitPrice: 1000, Qty: QuantityScale, Mode: ModeUnit, VATBps: 2100, Discount: &d})
	assert.ErrorIs(t, err, ErrInvalidDiscount)

	d = Discount{Kind: "buy_one_get_one", Value: 1}
	_, err = PriceLine(Line{UnitPrice: 1000, Qty: QuantityScale, Mode: ModeUnit, VATBps: 2100, Discount: &d})
	assert.ErrorIs(t, err, ErrInvalidDiscount)
}

func TestPriceLineDiscountMonotonic(t *testing.T) {
	prev := Money(1 << 40)
	for bps := int64(0); bps <= 10000; bps += 250 {
		d := Discount{Kind: DiscountPercent, Value: bps}
		got, err := PriceLine(Line{UnitPrice: 1999, Qty: 3 * QuantityScale, Mode: ModeUnit, VATBps: 2100, Discount: &d})
		require.NoError(t, err)
		if got.Total > prev {
			t.Fatalf("total increased from %d to %d at %d bps", prev, got.Total, bps)
		}
		prev = got.Total
	}
}

func TestPriceLineVATIdentitySweep(t *testing.T) {
	for _, price := range []Money{1, 99, 1000, 12345} {
		for _, qty := range []int64{QuantityScale, 2 * QuantityScale, 7 * QuantityScale} {
			for _, vat := range []int64{0, 600, 1200, 2100} {
				got, err := PriceLine(Line{UnitPrice: price, Qty: qty, Mode: ModeUnit, VATBps: vat})
				require.NoError(t, err)
				if got.Subtotal+got.VATAmount != got.Total {
					t.Fatalf("identity broken for price=%d qty=%d vat=%d: %+v", price, qty, vat, got)
				}
			}
		}
	}
}
