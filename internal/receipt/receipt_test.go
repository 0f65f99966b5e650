package receipt

import (
	"testing"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkassa/backend-kassa/internal/db"
)

func TestBuildCashReceipt(t *testing.T) {
	sale := db.Sale{
		SaleNumber:        42,
		SubtotalCents:     1027,
		VatCents:          216,
		TotalCents:        1243,
		PaymentMethod:     "cash",
		RoundedTotalCents: pgtype.Int8{Int64: 1245, Valid: true},
		RoundingDiffCents: pgtype.Int8{Int64: 2, Valid: true},
		TenderedCents:     pgtype.Int8{Int64: 2000, Valid: true},
		ChangeCents:       pgtype.Int8{Int64: 755, Valid: true},
	}
	lines := []db.SaleLine{
		{
			Name:           "Wijn",
			UnitPriceCents: 1243,
			QtyMilli:       1000,
			PricingMode:    "unit",
			VatBps:         2100,
			SubtotalCents:  1027,
			VatAmountCents: 216,
			TotalCents:     1243,
		},
	}

	doc := Build(sale, lines)
	assert.Equal(t, int64(42), doc.SaleNumber)
	assert.Equal(t, "12.43", doc.Total)
	assert.Equal(t, "12.45", doc.AmountDue)
	assert.Equal(t, "+0.02", doc.RoundingNote)
	assert.Equal(t, "20.00", doc.Tendered)
	assert.Equal(t, "7.55", doc.Change)
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, "1 x", doc.Lines[0].Qty)

	require.Len(t, doc.VATBreakdown, 1)
	assert.Equal(t, "21.00%", doc.VATBreakdown[0].Rate)
	assert.Equal(t, "10.27", doc.VATBreakdown[0].Net)
	assert.Equal(t, "2.16", doc.VATBreakdown[0].VAT)
}

func TestBuildVATBreakdownGroupsRates(t *testing.T) {
	sale := db.Sale{SubtotalCents: 2000, VatCents: 300, TotalCents: 2300, PaymentMethod: "card"}
	lines := []db.SaleLine{
		{Name: "Brood", QtyMilli: 1000, PricingMode: "unit", VatBps: 600, SubtotalCents: 235, VatAmountCents: 14, TotalCents: 249},
		{Name: "Melk", QtyMilli: 2000, PricingMode: "unit", VatBps: 600, SubtotalCents: 243, VatAmountCents: 15, TotalCents: 258},
		{Name: "Wijn", QtyMilli: 1000, PricingMode: "unit", VatBps: 2100, SubtotalCents: 826, VatAmountCents: 174, TotalCents: 1000},
	}

	doc := Build(sale, lines)
	require.Len(t, doc.VATBreakdown, 2)
	assert.Equal(t, int32(600), doc.VATBreakdown[0].RateBps)
	assert.Equal(t, "4.78", doc.VATBreakdown[0].Net) // 235 + 243
	assert.Equal(t, int32(2100), doc.VATBreakdown[1].RateBps)
	assert.Empty(t, doc.RoundingNote, "card sales have no rounding line")
}

func TestBuildWeightLineAndRedemption(t *testing.T) {
	sale := db.Sale{
		SubtotalCents:  566,
		VatCents:       34,
		TotalCents:     600,
		RedeemedCents:  200,
		RedeemedPoints: 200,
		PaymentMethod:  "card",
	}
	lines := []db.SaleLine{
		{Name: "Appels", UnitPriceCents: 480, QtyMilli: 1250, PricingMode: "weight", VatBps: 600, SubtotalCents: 566, VatAmountCents: 34, TotalCents: 600},
	}

	doc := Build(sale, lines)
	require.Len(t, doc.Lines, 1)
	assert.Equal(t, "1.250 kg", doc.Lines[0].Qty)
	assert.Equal(t, "-2.00", doc.RedeemedNote)
	assert.Equal(t, "4.00", doc.AmountDue)
}
