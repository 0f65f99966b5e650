package pricing

// Money represents a monetary value stored in minor units (euro cents).
type Money = int64

// QuantityScale is the fixed denominator for line quantities. Quantities are
// carried in thousandths so that weight-based products can express up to three
// decimal places of a kilogram without floating point.
const QuantityScale = 1000

// Mode describes how a product is quantified at the register.
type Mode string

const (
	// ModeUnit sells whole pieces; quantities must be an integral number of units.
	ModeUnit Mode = "unit"
	// ModeWeight sells by weight; quantities are kilograms with milligram resolution.
	ModeWeight Mode = "weight"
)

// divRound divides a by b rounding half up. Inputs are expected to be
// non-negative; every caller in this package guarantees that.
func divRound(a, b int64) int64 {
	if b == 0 {
		return 0
	}
	return (a + b/2) / b
}
