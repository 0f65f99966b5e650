package loyalty

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openkassa/backend-kassa/internal/pricing"
)

func programConfig() Config {
	return Config{
		Enabled:              true,
		PointsPerEuro:        10,
		CentsPerPoint:        1,
		MinRedeemPoints:      100,
		MaxRedemptionPercent: 50,
	}
}

func TestMaxRedeemableCapped(t *testing.T) {
	cfg := programConfig()
	// 1000 points, cart 20.00 EUR: half the sale may be covered, one cent per
	// point, so exactly the full balance is redeemable.
	assert.Equal(t, int64(1000), MaxRedeemable(cfg, 1000, 2000))
	// A smaller balance limits first.
	assert.Equal(t, int64(400), MaxRedeemable(cfg, 400, 2000))
	// A smaller cart limits instead.
	assert.Equal(t, int64(250), MaxRedeemable(cfg, 1000, 500))
}

func TestRedeemHappyPath(t *testing.T) {
	cfg := programConfig()
	got, err := Redeem(cfg, 1000, 1000, 2000)
	require.NoError(t, err)
	assert.Equal(t, int64(1000), got.Points)
	assert.Equal(t, pricing.Money(1000), got.Discount)
	assert.Equal(t, pricing.Money(1000), got.NewTotal)
}

func TestRedeemValidation(t *testing.T) {
	cfg := programConfig()

	_, err := Redeem(cfg, 50, 1000, 2000)
	assert.ErrorIs(t, err, ErrInvalidRedemption, "below minimum")

	_, err = Redeem(cfg, 1001, 1000, 2000)
	assert.ErrorIs(t, err, ErrInvalidRedemption, "beyond balance")

	_, err = Redeem(cfg, 600, 1000, 1000)
	assert.ErrorIs(t, err, ErrInvalidRedemption, "beyond percentage cap")
}

func TestRedeemDisabledProgram(t *testing.T) {
	cfg := programConfig()
	cfg.Enabled = false
	_, err := Redeem(cfg, 1000, 1000, 2000)
	assert.ErrorIs(t, err, ErrLoyaltyDisabled)
	assert.Equal(t, int64(0), MaxRedeemable(cfg, 1000, 2000))
}

func TestPointsEarnedFloors(t *testing.T) {
	cfg := programConfig()
	assert.Equal(t, int64(200), PointsEarned(cfg, 2000))
	assert.Equal(t, int64(199), PointsEarned(cfg, 1999))
	assert.Equal(t, int64(0), PointsEarned(cfg, 9))
	assert.Equal(t, int64(0), PointsEarned(cfg, 0))

	cfg.Enabled = false
	assert.Equal(t, int64(0), PointsEarned(cfg, 2000))
}
