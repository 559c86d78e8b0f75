// Package pricing derives totals from cart state and discount input.
// Tax is computed on the pre-discount subtotal. That ordering is a fixed
// business rule, not an accident of implementation.
package pricing

import (
	"github.com/shopspring/decimal"

	"github.com/oaramirez/grocerpos/pkg/enums"
	pkgerrors "github.com/oaramirez/grocerpos/pkg/errors"
)

// DefaultTaxRate applies when configuration does not override it.
var DefaultTaxRate = decimal.RequireFromString("0.05")

var oneHundred = decimal.NewFromInt(100)

// Discount is the session-scoped reduction applied to the subtotal.
type Discount struct {
	Type  enums.DiscountType
	Value decimal.Decimal
}

// None is the zero discount.
func None() Discount {
	return Discount{Type: enums.DiscountTypeNone}
}

// Validate enforces the bounds the backend applies on commit: percentage
// in [0,100], fixed strictly positive.
func (d Discount) Validate() error {
	switch d.Type {
	case enums.DiscountTypeNone:
		return nil
	case enums.DiscountTypePercentage:
		if d.Value.IsNegative() || d.Value.GreaterThan(oneHundred) {
			return pkgerrors.New(pkgerrors.CodeValidation, "percentage discount must be between 0 and 100")
		}
		return nil
	case enums.DiscountTypeFixed:
		if !d.Value.IsPositive() {
			return pkgerrors.New(pkgerrors.CodeValidation, "fixed discount must be greater than zero")
		}
		return nil
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, "unknown discount type")
	}
}

// Amount computes the discount against a subtotal. A fixed discount is
// clamped to the subtotal so the discounted amount can never go negative.
func (d Discount) Amount(subtotal decimal.Decimal) decimal.Decimal {
	switch d.Type {
	case enums.DiscountTypePercentage:
		return subtotal.Mul(d.Value.Div(oneHundred))
	case enums.DiscountTypeFixed:
		if d.Value.GreaterThan(subtotal) {
			return subtotal
		}
		return d.Value
	default:
		return decimal.Zero
	}
}

// Totals is the derived pricing breakdown for the current session.
type Totals struct {
	Subtotal       decimal.Decimal
	Tax            decimal.Decimal
	DiscountAmount decimal.Decimal
	Total          decimal.Decimal
}

// Compute is a pure function of its inputs. No rounding happens here;
// amounts stay exact until formatted for display.
func Compute(subtotal decimal.Decimal, discount Discount, taxRate decimal.Decimal) Totals {
	tax := subtotal.Mul(taxRate)
	discountAmount := discount.Amount(subtotal)
	return Totals{
		Subtotal:       subtotal,
		Tax:            tax,
		DiscountAmount: discountAmount,
		Total:          subtotal.Add(tax).Sub(discountAmount),
	}
}
