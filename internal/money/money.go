// Package money holds the fixed-point currency helpers shared by pricing and
// discount math. All amounts are shopspring decimals; nothing in this package
// touches floats.
package money

import "github.com/shopspring/decimal"

// Tolerance is the maximum absolute difference between two amounts that still
// counts as equal. It absorbs client-side rounding of two-decimal values,
// nothing more.
var Tolerance = decimal.NewFromFloat(0.01)

// Within reports whether a and b differ by at most Tolerance.
func Within(a, b decimal.Decimal) bool {
	return a.Sub(b).Abs().LessThanOrEqual(Tolerance)
}

// Clamp bounds v to the closed interval [lo, hi].
func Clamp(v, lo, hi decimal.Decimal) decimal.Decimal {
	if v.LessThan(lo) {
		return lo
	}
	if v.GreaterThan(hi) {
		return hi
	}
	return v
}

// Percent returns pct percent of base.
func Percent(base, pct decimal.Decimal) decimal.Decimal {
	return base.Mul(pct).Div(decimal.NewFromInt(100))
}

// Round normalizes an amount to two-decimal currency precision.
func Round(v decimal.Decimal) decimal.Decimal {
	return v.Round(2)
}

// NonNegative floors v at zero.
func NonNegative(v decimal.Decimal) decimal.Decimal {
	if v.IsNegative() {
		return decimal.Zero
	}
	return v
}
