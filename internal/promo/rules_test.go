package promo

import (
	"testing"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkassa/backend-kassa/internal/db"
	"github.com/openkassa/backend-kassa/internal/pricing"
)

func promoFixture(mutate func(*db.PromoCode)) db.PromoCode {
	pc := db.PromoCode{
		Code:          "ZOMER10",
		Kind:          "percent",
		Value:         1000,
		MinSpendCents: 0,
		Active:        true,
	}
	if mutate != nil {
		mutate(&pc)
	}
	return pc
}

func TestEvaluateGrantsPercentDiscount(t *testing.T) {
	d, err := Evaluate(promoFixture(nil), time.Now(), 5000)
	require.NoError(t, err)
	assert.Equal(t, pricing.DiscountPercent, d.Kind)
	assert.Equal(t, int64(1000), d.Value)
}

func TestEvaluateGrantsFixedDiscount(t *testing.T) {
	pc := promoFixture(func(pc *db.PromoCode) {
		pc.Kind = "fixed"
		pc.Value = 500
	})
	d, err := Evaluate(pc, time.Now(), 5000)
	require.NoError(t, err)
	assert.Equal(t, pricing.DiscountFixed, d.Kind)
	assert.Equal(t, int64(500), d.Value)
}

func TestEvaluateRules(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	cases := []struct {
		name     string
		mutate   func(*db.PromoCode)
		subtotal pricing.Money
		wantErr  error
	}{
		{
			name:    "inactive",
			mutate:  func(pc *db.PromoCode) { pc.Active = false },
			wantErr: ErrInactive,
		},
		{
			name: "not started",
			mutate: func(pc *db.PromoCode) {
				pc.ValidFrom = pgtype.Timestamptz{Time: now.Add(time.Hour), Valid: true}
			},
			wantErr: ErrNotStarted,
		},
		{
			name: "expired",
			mutate: func(pc *db.PromoCode) {
				pc.ValidTo = pgtype.Timestamptz{Time: now.Add(-time.Hour), Valid: true}
			},
			wantErr: ErrExpired,
		},
		{
			name: "exhausted",
			mutate: func(pc *db.PromoCode) {
				pc.UsageLimit = pgtype.Int4{Int32: 100, Valid: true}
				pc.UsedCount = 100
			},
			wantErr: ErrExhausted,
		},
		{
			name:     "below minimum spend",
			mutate:   func(pc *db.PromoCode) { pc.MinSpendCents = 2500 },
			subtotal: 2499,
			wantErr:  ErrMinSpendNotMet,
		},
		{
			name:    "unknown kind",
			mutate:  func(pc *db.PromoCode) { pc.Kind = "bogo" },
			wantErr: pricing.ErrInvalidDiscount,
		},
		{
			name:    "percent above 100",
			mutate:  func(pc *db.PromoCode) { pc.Value = 10001 },
			wantErr: pricing.ErrInvalidDiscount,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			subtotal := tc.subtotal
			if subtotal == 0 {
				subtotal = 5000
			}
			_, err := Evaluate(promoFixture(tc.mutate), now, subtotal)
			assert.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestEvaluateWindowBoundaries(t *testing.T) {
	now := time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)
	pc := promoFixture(func(pc *db.PromoCode) {
		pc.ValidFrom = pgtype.Timestamptz{Time: now, Valid: true}
		pc.ValidTo = pgtype.Timestamptz{Time: now, Valid: true}
	})
	// both bounds are inclusive
	_, err := Evaluate(pc, now, 5000)
	assert.NoError(t, err)
}

func TestEvaluateMinSpendExactlyMet(t *testing.T) {
	pc := promoFixture(func(pc *db.PromoCode) { pc.MinSpendCents = 2500 })
	_, err := Evaluate(pc, time.Now(), 2500)
	assert.NoError(t, err)
}
