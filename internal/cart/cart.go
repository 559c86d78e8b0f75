// Package cart holds the mutable line items of the in-progress sale.
// Line prices are snapshots taken at add time; later catalog price
// changes within the same session never reprice an existing line.
package cart

import (
	"github.com/shopspring/decimal"

	"github.com/oaramirez/grocerpos/internal/catalog"
)

// Line is one cart entry. One line exists per distinct product id.
type Line struct {
	ProductID int64
	Name      string
	UnitPrice decimal.Decimal
	Quantity  int
}

// LineTotal derives the line amount from the stored snapshot.
func (l Line) LineTotal() decimal.Decimal {
	return l.UnitPrice.Mul(decimal.NewFromInt(int64(l.Quantity)))
}

// Cart is the ordered line collection. It is not safe for concurrent use;
// the checkout session serializes access.
type Cart struct {
	lines []Line
}

// New returns an empty cart.
func New() *Cart {
	return &Cart{}
}

// Add increments the line for the product or appends a new line with
// quantity 1, snapshotting the product's current unit price.
func (c *Cart) Add(product catalog.Product) {
	for i := range c.lines {
		if c.lines[i].ProductID == product.ID {
			c.lines[i].Quantity++
			return
		}
	}
	c.lines = append(c.lines, Line{
		ProductID: product.ID,
		Name:      product.Name,
		UnitPrice: product.SellingPrice,
		Quantity:  1,
	})
}

// UpdateQuantity applies a delta with a floor of 1. Removal is a separate
// explicit action, never a side effect of decrementing.
func (c *Cart) UpdateQuantity(productID int64, delta int) bool {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			next := c.lines[i].Quantity + delta
			if next < 1 {
				next = 1
			}
			c.lines[i].Quantity = next
			return true
		}
	}
	return false
}

// Remove deletes the line unconditionally.
func (c *Cart) Remove(productID int64) bool {
	for i := range c.lines {
		if c.lines[i].ProductID == productID {
			c.lines = append(c.lines[:i], c.lines[i+1:]...)
			return true
		}
	}
	return false
}

// Clear empties all lines.
func (c *Cart) Clear() {
	c.lines = nil
}

// Quantity reports the current quantity for a product id, zero when absent.
func (c *Cart) Quantity(productID int64) int {
	for _, line := range c.lines {
		if line.ProductID == productID {
			return line.Quantity
		}
	}
	return 0
}

// Subtotal re-derives the sum of unit price times quantity from the stored
// lines on every call; nothing is cached.
func (c *Cart) Subtotal() decimal.Decimal {
	subtotal := decimal.Zero
	for _, line := range c.lines {
		subtotal = subtotal.Add(line.LineTotal())
	}
	return subtotal
}

// Lines returns a copy of the ordered line items.
func (c *Cart) Lines() []Line {
	out := make([]Line, len(c.lines))
	copy(out, c.lines)
	return out
}

// IsEmpty reports whether the cart has no lines.
func (c *Cart) IsEmpty() bool {
	return len(c.lines) == 0
}

// Len reports the number of distinct lines.
func (c *Cart) Len() int {
	return len(c.lines)
}
