package settlement

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/openkassa/backend-kassa/internal/pricing"
)

func TestRoundForCashTable(t *testing.T) {
	// Canonical mapping from the Belgian rounding rule.
	cases := []struct {
		total   pricing.Money
		rounded pricing.Money
	}{
		{1241, 1240},
		{1242, 1240},
		{1243, 1245},
		{1244, 1245},
		{1245, 1245},
		{1246, 1245},
		{1247, 1245},
		{1248, 1250},
		{1250, 1250},
		{0, 0},
	}
	for _, tc := range cases {
		got := RoundForCash(tc.total)
		assert.Equal(t, tc.rounded, got.Rounded, "total %d", tc.total)
		assert.Equal(t, tc.rounded-tc.total, got.Difference, "total %d", tc.total)
		assert.Equal(t, tc.total, got.Original)
	}
}

func TestRoundForCashAlwaysMultipleOfFive(t *testing.T) {
	for total := pricing.Money(0); total < 5000; total++ {
		got := RoundForCash(total)
		if got.Rounded%5 != 0 {
			t.Fatalf("rounded %d is not a multiple of 5 (total %d)", got.Rounded, total)
		}
		if diff := got.Rounded - total; diff < -2 || diff > 2 {
			t.Fatalf("rounding moved total %d by %d cents", total, diff)
		}
	}
}

func TestChange(t *testing.T) {
	s := RoundForCash(1243)
	assert.Equal(t, pricing.Money(1245), s.Rounded)

	change, err := Change(s.Rounded, 2000)
	assert.NoError(t, err)
	assert.Equal(t, pricing.Money(755), change)

	_, err = Change(s.Rounded, 1240)
	assert.ErrorIs(t, err, ErrInsufficientPayment)

	change, err = Change(s.Rounded, 1245)
	assert.NoError(t, err)
	assert.Equal(t, pricing.Money(0), change)
}
