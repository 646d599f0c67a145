package sales

import (
	"errors"
	"fmt"
	"time"
)

// OrderStatus tracks the order lifecycle.
type OrderStatus string

const (
	// StatusDraft is an editable cart or quotation.
	StatusDraft OrderStatus = "draft"
	// StatusConfirmed means stock was committed and fulfilment started.
	StatusConfirmed OrderStatus = "confirmed"
	// StatusCancelled is a terminal state for abandoned drafts.
	StatusCancelled OrderStatus = "cancelled"
)

// CustomerType distinguishes retail from wholesale pricing.
type CustomerType string

const (
	CustomerB2C CustomerType = "b2c"
	CustomerB2B CustomerType = "b2b"
)

// ValidCustomerType reports whether ct is a known customer type.
func ValidCustomerType(ct string) bool {
	return ct == string(CustomerB2C) || ct == string(CustomerB2B)
}

// DeliveryMethod enumerates shipping options.
type DeliveryMethod string

const (
	DeliveryStandard DeliveryMethod = "standard"
	DeliveryExpress  DeliveryMethod = "express"
	DeliveryPickup   DeliveryMethod = "pickup"
)

// ValidDeliveryMethod reports whether dm is a known delivery method.
func ValidDeliveryMethod(dm string) bool {
	switch DeliveryMethod(dm) {
	case DeliveryStandard, DeliveryExpress, DeliveryPickup:
		return true
	}
	return false
}

// PaymentTerms follow the customer type: retail pays immediately, wholesale
// on 30-day invoice.
type PaymentTerms string

const (
	TermsImmediate PaymentTerms = "immediate"
	Terms30Days    PaymentTerms = "30_days"
)

// TermsFor returns the payment terms implied by a customer type.
func TermsFor(ct CustomerType) PaymentTerms {
	if ct == CustomerB2B {
		return Terms30Days
	}
	return TermsImmediate
}

// Order is a sale order. A draft order bound to a session acts as the cart.
type Order struct {
	ID             int64          `json:"id"`
	DocNumber      string         `json:"doc_number"`
	CustomerID     int64          `json:"customer_id"`
	SessionKey     string         `json:"-"`
	CustomerType   CustomerType   `json:"customer_type"`
	Status         OrderStatus    `json:"status"`
	DeliveryMethod DeliveryMethod `json:"delivery_method"`
	PaymentTerms   PaymentTerms   `json:"payment_terms"`
	TrackingNumber string         `json:"tracking_number"`
	WebsiteOrder   bool           `json:"website_order"`
	TotalAmount    float64        `json:"total_amount"`
	ConfirmedAt    *time.Time     `json:"confirmed_at,omitempty"`
	CreatedAt      time.Time      `json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
}

// OrderLine is one product position on an order.
type OrderLine struct {
	ID          int64   `json:"id"`
	OrderID     int64   `json:"order_id"`
	ProductID   int64   `json:"product_id"`
	ProductName string  `json:"product_name"`
	Quantity    float64 `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	LineTotal   float64 `json:"line_total"`
}

// ProductPricing carries the price fields repricing needs.
type ProductPricing struct {
	ProductID  int64
	Name       string
	Price      float64
	B2BPrice   float64
	IsSaleable bool
}

// UnitPriceFor picks the line price for a customer type. The wholesale price
// applies only when one is configured.
func (p ProductPricing) UnitPriceFor(ct CustomerType) float64 {
	if ct == CustomerB2B && p.B2BPrice > 0 {
		return p.B2BPrice
	}
	return p.Price
}

var (
	// ErrEmptyOrder rejects confirming an order with no lines.
	ErrEmptyOrder = errors.New("sales: order has no lines")
	// ErrOrderNotDraft rejects state changes on non-draft orders.
	ErrOrderNotDraft = errors.New("sales: order is not draft")
	// ErrInvalidQuantity rejects negative cart quantities.
	ErrInvalidQuantity = errors.New("sales: quantity must not be negative")
)

// StockShortageError reports the first order line whose quantity exceeds
// current availability. Confirmation and cart updates stop at the first
// shortage so the customer sees one actionable message.
type StockShortageError struct {
	ProductID   int64
	ProductName string
	Requested   float64
	Available   float64
}

func (e *StockShortageError) Error() string {
	return fmt.Sprintf("sales: insufficient stock for %s: requested %.0f, available %.0f",
		e.ProductName, e.Requested, e.Available)
}
