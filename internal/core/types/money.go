// Package types provides common value types.
package types

import (
	"github.com/shopspring/decimal"
)

// Money represents a monetary value with full precision.
// Uses decimal.Decimal to avoid floating-point errors.
type Money = decimal.Decimal

// MinorUnits represents a monetary value in minor currency units (cents, kopecks).
// Storage: int64 - sufficient for ±922 trillion minor units.
// Example: 123.45 EUR → 12345 (cents)
type MinorUnits int64

// DefaultExponent is the number of decimal places of most currencies.
const DefaultExponent int32 = 2

// ToMoney converts minor units to a decimal amount in major units for display.
func (m MinorUnits) ToMoney(exponent int32) Money {
	return decimal.New(int64(m), -exponent)
}

// String formats the amount with the default exponent, e.g. 1050 → "10.50".
func (m MinorUnits) String() string {
	return m.ToMoney(DefaultExponent).StringFixed(DefaultExponent)
}

// DivRound divides m by n rounding half away from zero, so 5/2 → 3 and -5/2 → -3.
// n must be positive.
func (m MinorUnits) DivRound(n int64) MinorUnits {
	q := int64(m) / n
	r := int64(m) % n
	if r < 0 {
		r = -r
	}
	if 2*r >= n {
		if m < 0 {
			q--
		} else {
			q++
		}
	}
	return MinorUnits(q)
}
