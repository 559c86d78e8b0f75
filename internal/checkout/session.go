// Package checkout owns the in-progress sale: the session aggregate
// (cart, discount, customer) and the submit state machine.
package checkout

import (
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/oaramirez/grocerpos/internal/cart"
	"github.com/oaramirez/grocerpos/internal/catalog"
	"github.com/oaramirez/grocerpos/internal/customers"
	"github.com/oaramirez/grocerpos/internal/pricing"
	"github.com/oaramirez/grocerpos/pkg/enums"
	pkgerrors "github.com/oaramirez/grocerpos/pkg/errors"
	"github.com/oaramirez/grocerpos/pkg/posapi"
)

// ErrStaleResult marks an async result that raced a completed checkout.
// Callers discard it silently; the session it belonged to no longer exists.
var ErrStaleResult = errors.New("result belongs to a cleared session")

// Session is the aggregate for one sale, from first scan to commit or
// cancel. Cart, discount, and customer are cleared together; the epoch
// fences async results produced against a previous generation.
type Session struct {
	mu       sync.Mutex
	id       string
	epoch    uint64
	cart     *cart.Cart
	discount pricing.Discount
	customer *customers.Customer
	taxRate  decimal.Decimal
}

// NewSession builds an empty session with the given tax rate.
func NewSession(taxRate decimal.Decimal) *Session {
	return &Session{
		id:       uuid.NewString(),
		cart:     cart.New(),
		discount: pricing.None(),
		taxRate:  taxRate,
	}
}

// ID identifies the session for logging.
func (s *Session) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Epoch returns the fencing token to pair with async lookups.
func (s *Session) Epoch() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.epoch
}

// AddProduct applies the advisory stock check and adds the product. The
// check uses the possibly-stale cached stock quantity; the backend remains
// the authority at commit time. epoch must be the value observed when the
// lookup began, so results racing a completed checkout are dropped.
func (s *Session) AddProduct(epoch uint64, product catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if epoch != s.epoch {
		return ErrStaleResult
	}

	if product.StockQuantity <= 0 {
		return pkgerrors.New(pkgerrors.CodeStockConflict, fmt.Sprintf("%s is out of stock", product.Name))
	}
	if s.cart.Quantity(product.ID)+1 > product.StockQuantity {
		return pkgerrors.New(
			pkgerrors.CodeStockConflict,
			fmt.Sprintf("only %d units of %s available", product.StockQuantity, product.Name),
		).WithDetails(map[string]any{"product_id": product.ID, "stock": product.StockQuantity})
	}

	s.cart.Add(product)
	return nil
}

// UpdateQuantity adjusts a line quantity with the floor of one.
func (s *Session) UpdateQuantity(productID int64, delta int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.UpdateQuantity(productID, delta)
}

// Remove deletes a line.
func (s *Session) Remove(productID int64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Remove(productID)
}

// SetDiscount validates and applies the session discount.
func (s *Session) SetDiscount(discount pricing.Discount) error {
	if err := discount.Validate(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.discount = discount
	return nil
}

// Discount returns the current discount.
func (s *Session) Discount() pricing.Discount {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.discount
}

// SetCustomer attaches or detaches the loyalty customer.
func (s *Session) SetCustomer(customer *customers.Customer) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.customer = customer
}

// Customer returns the attached customer, nil when none.
func (s *Session) Customer() *customers.Customer {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.customer
}

// Lines returns the current cart lines.
func (s *Session) Lines() []cart.Line {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.Lines()
}

// IsEmpty reports whether the cart has no lines.
func (s *Session) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cart.IsEmpty()
}

// Totals derives the pricing breakdown from current state. Pure with
// respect to the session: calling it never mutates anything, so the
// presentation layer may invoke it after every mutation.
func (s *Session) Totals() pricing.Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return pricing.Compute(s.cart.Subtotal(), s.discount, s.taxRate)
}

// Reset clears cart, discount, and customer atomically and advances the
// epoch so in-flight lookups from the previous sale cannot land.
func (s *Session) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cart.Clear()
	s.discount = pricing.None()
	s.customer = nil
	s.epoch++
	s.id = uuid.NewString()
}

// BuildPending assembles the checkout payload from current state. The
// payload is constructed fresh per attempt and never persisted.
func (s *Session) BuildPending(method enums.PaymentMethod) posapi.PendingTransaction {
	s.mu.Lock()
	defer s.mu.Unlock()

	lines := s.cart.Lines()
	items := make([]posapi.TransactionItem, 0, len(lines))
	for _, line := range lines {
		items = append(items, posapi.TransactionItem{
			ProductID:   line.ProductID,
			ProductName: line.Name,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice.InexactFloat64(),
		})
	}

	payload := posapi.PendingTransaction{
		Items:         items,
		PaymentMethod: method.String(),
	}
	if s.customer != nil {
		id := s.customer.ID
		payload.CustomerID = &id
	}
	if s.discount.Type != enums.DiscountTypeNone {
		discountType := s.discount.Type.String()
		discountValue := s.discount.Value.InexactFloat64()
		payload.DiscountType = &discountType
		payload.DiscountValue = &discountValue
	}
	return payload
}
