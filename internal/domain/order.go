package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderStatus string

const (
	OrderStatusAnonymous OrderStatus = "ANONYMOUS"
	OrderStatusAssigned  OrderStatus = "ASSIGNED"
	OrderStatusPending   OrderStatus = "PENDING"
	OrderStatusPaid      OrderStatus = "PAID"
	OrderStatusExpired   OrderStatus = "EXPIRED"
	OrderStatusCancelled OrderStatus = "CANCELLED"
	OrderStatusError     OrderStatus = "ERROR"
	OrderStatusRejected  OrderStatus = "REJECTED"
	// OrderStatusReservation marks a staff-created hold that bypasses payment.
	OrderStatusReservation OrderStatus = "RESERVATION"
)

// Terminal reports whether the status closes the order. Closed orders reject
// every further transition.
func (s OrderStatus) Terminal() bool {
	switch s {
	case OrderStatusPaid, OrderStatusExpired, OrderStatusCancelled, OrderStatusError, OrderStatusRejected:
		return true
	}
	return false
}

var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusAnonymous: {OrderStatusAssigned, OrderStatusReservation, OrderStatusRejected},
	OrderStatusAssigned: {
		OrderStatusPending,
		// Cash and pin sales skip PENDING and settle immediately.
		OrderStatusPaid,
		OrderStatusRejected,
	},
	OrderStatusPending: {
		OrderStatusPaid,
		OrderStatusExpired,
		OrderStatusCancelled,
		OrderStatusError,
		OrderStatusRejected,
	},
	OrderStatusReservation: {OrderStatusPaid, OrderStatusRejected},
}

// CanTransitionTo reports whether the status change is allowed.
func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == to {
			return true
		}
	}
	return false
}

type PaymentMethod string

const (
	PaymentMethodIdeal PaymentMethod = "IDEAL"
	PaymentMethodCash  PaymentMethod = "CASH"
	PaymentMethodPin   PaymentMethod = "PIN"
)

// Offline reports whether the method settles at the desk without the payment
// provider.
func (m PaymentMethod) Offline() bool {
	return m == PaymentMethodCash || m == PaymentMethodPin
}

// Valid reports whether the method is one of the supported payment methods.
func (m PaymentMethod) Valid() bool {
	switch m {
	case PaymentMethodIdeal, PaymentMethodCash, PaymentMethodPin:
		return true
	}
	return false
}

// Order is the purchase aggregate. PublicReference is the opaque
// customer-facing identifier; ProviderReference is the payment provider's own
// identifier, set once provider initiation succeeds.
type Order struct {
	ID                string
	PublicReference   string
	Status            OrderStatus
	Amount            decimal.Decimal
	CustomerID        string
	PaymentMethod     PaymentMethod
	ProviderReference string
	CreatedBy         string
	CreatedAt         time.Time
	PaidAt            *time.Time
	Products          []OrderProduct
}

// OrderProduct is a line item carrying a snapshot of the product at purchase
// time, so later price changes never touch completed orders.
type OrderProduct struct {
	ID         string
	OrderID    string
	ProductID  string
	ProductKey string
	Title      string
	Price      decimal.Decimal
	VATRate    VATRate
	Quantity   int
	VATAmount  decimal.Decimal
}

// LineTotal is Price times Quantity.
func (p OrderProduct) LineTotal() decimal.Decimal {
	return p.Price.Mul(decimal.NewFromInt(int64(p.Quantity)))
}

// LineVAT computes the VAT portion included in a VAT-inclusive gross amount,
// rounded to cents.
func LineVAT(gross decimal.Decimal, rate VATRate) decimal.Decimal {
	pct := rate.Percentage()
	if pct.IsZero() {
		return decimal.Zero.Round(2)
	}
	return gross.Mul(pct).Div(pct.Add(decimal.NewFromInt(100))).Round(2)
}
