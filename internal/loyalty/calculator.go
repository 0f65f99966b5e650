// Package loyalty implements the points program: how many points a sale earns,
// how many a customer may redeem against a total, and the resulting discount.
package loyalty

import (
	"errors"

	"github.com/openkassa/backend-kassa/internal/pricing"
)

var (
	// ErrLoyaltyDisabled is returned when redemption is attempted while the
	// program is switched off.
	ErrLoyaltyDisabled = errors.New("loyalty program disabled")
	// ErrInvalidRedemption is returned when the requested points fall outside
	// the redeemable window for the customer and total.
	ErrInvalidRedemption = errors.New("invalid loyalty redemption")
)

// Config holds the program parameters. It is loaded once by the caller and
// threaded as a value; the calculator never reads ambient state.
type Config struct {
	Enabled bool
	// PointsPerEuro is the number of points earned per whole euro spent.
	PointsPerEuro int64
	// CentsPerPoint is the redemption value of a single point.
	CentsPerPoint pricing.Money
	// MinRedeemPoints is the smallest redemption accepted in one transaction.
	MinRedeemPoints int64
	// MaxRedemptionPercent caps how much of a sale's total points may cover (0-100).
	MaxRedemptionPercent int64
}

// Redemption is the computed, ephemeral result of converting points into a
// discount against a cart total.
type Redemption struct {
	Points   int64
	Discount pricing.Money
	NewTotal pricing.Money
}

// MaxRedeemable returns the largest number of points the customer may redeem
// against the given total under the program rules.
func MaxRedeemable(cfg Config, balance int64, total pricing.Money) int64 {
	if !cfg.Enabled || cfg.CentsPerPoint <= 0 || balance <= 0 || total <= 0 {
		return 0
	}
	capCents := total * cfg.MaxRedemptionPercent / 100
	maxPoints := capCents / cfg.CentsPerPoint
	if balance < maxPoints {
		return balance
	}
	return maxPoints
}

// Redeem validates a redemption request and computes the discount and the
// reduced total.
func Redeem(cfg Config, points, balance int64, total pricing.Money) (Redemption, error) {
	if !cfg.Enabled {
		return Redemption{}, ErrLoyaltyDisabled
	}
	if points < cfg.MinRedeemPoints || points > MaxRedeemable(cfg, balance, total) {
		return Redemption{}, ErrInvalidRedemption
	}
	discount := pricing.Money(points) * cfg.CentsPerPoint
	newTotal := total - discount
	if newTotal < 0 {
		newTotal = 0
	}
	return Redemption{Points: points, Discount: discount, NewTotal: newTotal}, nil
}

// PointsEarned computes the points accrued by a completed sale. Quotes, draft
// carts and cancelled sales never earn points; the caller enforces that.
func PointsEarned(cfg Config, total pricing.Money) int64 {
	if !cfg.Enabled || total <= 0 {
		return 0
	}
	return total * cfg.PointsPerEuro / 100
}
