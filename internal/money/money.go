// Package money holds the rounding policy for every monetary value in
// the storefront. Amounts cross Round exactly once at each component
// boundary; rounding is idempotent so double-rounding is harmless.
package money

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// Round rounds to 2 decimal places, half up.
func Round(d decimal.Decimal) decimal.Decimal {
	return d.Round(2)
}

// FromString parses a monetary amount and rounds it. An empty string is
// treated as zero, matching how blank form fields arrive.
func FromString(s string) (decimal.Decimal, error) {
	if s == "" {
		return decimal.Zero, nil
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Zero, fmt.Errorf("money: invalid amount %q: %w", s, err)
	}
	return Round(d), nil
}

// Line multiplies a unit price by a quantity and rounds the result.
func Line(unitPrice decimal.Decimal, quantity int) decimal.Decimal {
	return Round(unitPrice.Mul(decimal.NewFromInt(int64(quantity))))
}
