// Package types provides common types used across Provenance.
package types

import (
	"fmt"
	"math"
	"strconv"
)

// Amount is a monetary value in the smallest platform unit.
// All arithmetic is unsigned integer-only — no floating point, and no
// silent wraparound: operations that can overflow or underflow return an
// explicit ok flag the caller must check.
type Amount uint64

// MaxAmount is the largest representable Amount.
const MaxAmount = Amount(math.MaxUint64)

// BpsDenominator is the divisor for basis-point fee rates.
const BpsDenominator = 10_000

// Add returns a+b and reports whether the sum is representable.
func (a Amount) Add(b Amount) (Amount, bool) {
	sum := a + b
	if sum < a {
		return 0, false
	}
	return sum, true
}

// Sub returns a-b and reports whether a >= b.
func (a Amount) Sub(b Amount) (Amount, bool) {
	if b > a {
		return 0, false
	}
	return a - b, true
}

// Mul returns a*qty and reports whether the product is representable.
func (a Amount) Mul(qty uint64) (Amount, bool) {
	if a == 0 || qty == 0 {
		return 0, true
	}
	product := a * Amount(qty)
	if product/Amount(qty) != a {
		return 0, false
	}
	return product, true
}

// SplitFee divides a gross amount into the net counterpart credit and the
// platform fee at the given basis-point rate. net+fee == a always holds.
func (a Amount) SplitFee(feeBps uint32) (net, fee Amount) {
	fee = a / BpsDenominator * Amount(feeBps)
	rem := a % BpsDenominator * Amount(feeBps) / BpsDenominator
	fee += rem
	return a - fee, fee
}

// IsZero reports whether the amount is zero.
func (a Amount) IsZero() bool { return a == 0 }

// String returns the decimal representation.
func (a Amount) String() string { return strconv.FormatUint(uint64(a), 10) }

// ParseAmount parses a decimal string into an Amount.
func ParseAmount(s string) (Amount, error) {
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("types: parse amount %q: %w", s, err)
	}
	return Amount(v), nil
}
