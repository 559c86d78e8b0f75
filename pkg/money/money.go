// Package money fixes the currency display policy: amounts stay exact
// decimals through every computation and are rounded to two places only
// when formatted.
package money

import "github.com/shopspring/decimal"

// Format renders an amount as a dollar string rounded to two places.
func Format(amount decimal.Decimal) string {
	return "$" + amount.StringFixed(2)
}

// FormatDeduction renders a discount-style amount with a leading minus.
func FormatDeduction(amount decimal.Decimal) string {
	return "-" + Format(amount)
}

// FromFloat converts an API float amount into an exact decimal.
func FromFloat(value float64) decimal.Decimal {
	return decimal.NewFromFloat(value)
}
