// Package receipt formats a committed sale into a printable document.
// Rendering is deterministic and pure; the on-screen preview and the
// print sink share this one code path so the output never diverges.
package receipt

import (
	"strconv"
	"strings"

	"github.com/oaramirez/grocerpos/pkg/money"
	"github.com/oaramirez/grocerpos/pkg/posapi"
)

const (
	defaultWidth  = 40
	minWidth      = 24
	timeLayout    = "2006-01-02 15:04"
	courtesyLine1 = "Thank you for your business!"
	courtesyLine2 = "Please come again!"
)

// Document is the rendered receipt, one display line per entry.
type Document struct {
	lines []string
}

// Lines returns the rendered lines in order.
func (d Document) Lines() []string {
	out := make([]string, len(d.lines))
	copy(out, d.lines)
	return out
}

// String joins the document for raw text sinks.
func (d Document) String() string {
	return strings.Join(d.lines, "\n") + "\n"
}

// Renderer renders receipts at a fixed character width.
type Renderer struct {
	width int
}

// NewRenderer builds a renderer; widths below the minimum fall back to
// the default.
func NewRenderer(width int) *Renderer {
	if width < minWidth {
		width = defaultWidth
	}
	return &Renderer{width: width}
}

// Render lays out the full receipt: store identity, sale metadata,
// itemized lines, totals, payment method, and the courtesy footer. The
// discount line appears only when the discount amount is positive.
func (r *Renderer) Render(receipt posapi.Receipt) Document {
	var lines []string

	lines = append(lines, r.center(strings.ToUpper(receipt.StoreName)))
	if receipt.StoreAddress != "" {
		lines = append(lines, r.center(receipt.StoreAddress))
	}
	if receipt.StorePhone != "" {
		lines = append(lines, r.center(receipt.StorePhone))
	}
	lines = append(lines, r.divider())

	lines = append(lines, "Date: "+receipt.TransactionDate.Format(timeLayout))
	lines = append(lines, "Transaction #"+strconv.FormatInt(receipt.TransactionID, 10))
	if receipt.CustomerName != nil && *receipt.CustomerName != "" {
		lines = append(lines, "Customer: "+*receipt.CustomerName)
	}
	if receipt.CashierName != nil && *receipt.CashierName != "" {
		lines = append(lines, "Cashier: "+*receipt.CashierName)
	}
	lines = append(lines, r.divider())

	for _, item := range receipt.Items {
		label := item.ProductName + " x" + strconv.Itoa(item.Quantity)
		lines = append(lines, r.row(label, money.Format(money.FromFloat(item.TotalPrice))))
	}
	lines = append(lines, r.divider())

	lines = append(lines, r.row("Subtotal", money.Format(money.FromFloat(receipt.Subtotal))))
	discount := money.FromFloat(receipt.DiscountAmount)
	if discount.IsPositive() {
		lines = append(lines, r.row("Discount", money.FormatDeduction(discount)))
	}
	lines = append(lines, r.row("Tax", money.Format(money.FromFloat(receipt.Tax))))
	lines = append(lines, r.row("TOTAL", money.Format(money.FromFloat(receipt.TotalAmount))))
	lines = append(lines, "Payment: "+strings.ToUpper(receipt.PaymentMethod))
	lines = append(lines, r.divider())

	lines = append(lines, r.center(courtesyLine1))
	lines = append(lines, r.center(courtesyLine2))

	return Document{lines: lines}
}

func (r *Renderer) divider() string {
	return strings.Repeat("-", r.width)
}

func (r *Renderer) center(text string) string {
	if len(text) >= r.width {
		return text
	}
	pad := (r.width - len(text)) / 2
	return strings.Repeat(" ", pad) + text
}

func (r *Renderer) row(label, amount string) string {
	gap := r.width - len(label) - len(amount)
	if gap < 1 {
		keep := r.width - len(amount) - 1
		if keep < 1 {
			keep = 1
		}
		label = label[:keep]
		gap = 1
	}
	return label + strings.Repeat(" ", gap) + amount
}
