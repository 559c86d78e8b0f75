package posapi

import "time"

// Product is the catalog record served by GET /products.
type Product struct {
	ID            int64   `json:"id"`
	Name          string  `json:"name"`
	Barcode       *string `json:"barcode,omitempty"`
	SellingPrice  float64 `json:"selling_price"`
	StockQuantity int     `json:"stock_quantity"`
}

// Customer is the optional loyalty reference attached to a sale.
type Customer struct {
	ID            int64  `json:"id"`
	Name          string `json:"name"`
	LoyaltyPoints int    `json:"loyalty_points"`
}

// TransactionItem is one line of the checkout payload.
type TransactionItem struct {
	ProductID   int64   `json:"product_id" validate:"required"`
	ProductName string  `json:"product_name" validate:"required"`
	Quantity    int     `json:"quantity" validate:"required,min=1"`
	UnitPrice   float64 `json:"unit_price" validate:"required,gt=0"`
}

// PendingTransaction is the payload for POST /transactions/create. It is
// built fresh per checkout attempt and never persisted locally.
type PendingTransaction struct {
	Items         []TransactionItem `json:"items" validate:"required,min=1,dive"`
	PaymentMethod string            `json:"payment_method" validate:"required,oneof=cash card"`
	CustomerID    *int64            `json:"customer_id"`
	DiscountType  *string           `json:"discount_type" validate:"omitempty,oneof=percentage fixed"`
	DiscountValue *float64          `json:"discount_value" validate:"omitempty,gt=0"`
}

// TransactionCreated is the acknowledged sale returned by the create call.
type TransactionCreated struct {
	ID int64 `json:"id"`
}

// ReceiptItem is a confirmed line on a committed sale.
type ReceiptItem struct {
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}

// Receipt is the server-confirmed record of a committed sale. Immutable
// once received; held only for display and print.
type Receipt struct {
	TransactionID   int64         `json:"transaction_id"`
	StoreName       string        `json:"store_name"`
	StoreAddress    string        `json:"store_address"`
	StorePhone      string        `json:"store_phone"`
	TransactionDate time.Time     `json:"transaction_date"`
	Items           []ReceiptItem `json:"items"`
	Subtotal        float64       `json:"subtotal"`
	DiscountAmount  float64       `json:"discount_amount"`
	Tax             float64       `json:"tax"`
	TotalAmount     float64       `json:"total_amount"`
	PaymentMethod   string        `json:"payment_method"`
	CustomerName    *string       `json:"customer_name,omitempty"`
	CashierName     *string       `json:"cashier_name,omitempty"`
}
