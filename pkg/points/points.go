// Package points provides a fixed-point representation of fantasy points.
// Projections arrive as decimals with two significant places; storing them
// as integer hundredths keeps solver weights and deltas exact.
package points

import (
	"github.com/shopspring/decimal"
)

// Points is a fantasy point value in hundredths (12.34 points == 1234).
type Points int64

var hundred = decimal.NewFromInt(100)

// FromDecimal converts a decimal point value to fixed-point hundredths,
// rounding half away from zero.
func FromDecimal(d decimal.Decimal) Points {
	return Points(d.Mul(hundred).Round(0).IntPart())
}

// FromFloat converts a float point value to fixed-point hundredths.
func FromFloat(f float64) Points {
	return FromDecimal(decimal.NewFromFloat(f))
}

// Decimal returns the exact decimal representation.
func (p Points) Decimal() decimal.Decimal {
	return decimal.New(int64(p), -2)
}

// Float returns the value as a float64. Use for display only.
func (p Points) Float() float64 {
	f, _ := p.Decimal().Float64()
	return f
}

// String formats with two decimal places, e.g. "12.34".
func (p Points) String() string {
	return p.Decimal().StringFixed(2)
}
