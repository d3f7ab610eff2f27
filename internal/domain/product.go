package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type VATRate string

const (
	VATRateZero VATRate = "ZERO"
	VATRateLow  VATRate = "LOW"
	VATRateHigh VATRate = "HIGH"
)

// Percentage returns the VAT percentage for the rate.
func (r VATRate) Percentage() decimal.Decimal {
	switch r {
	case VATRateLow:
		return decimal.NewFromInt(9)
	case VATRateHigh:
		return decimal.NewFromInt(21)
	default:
		return decimal.Zero
	}
}

// Valid reports whether the rate is one of the known VAT rates.
func (r VATRate) Valid() bool {
	switch r {
	case VATRateZero, VATRateLow, VATRateHigh:
		return true
	}
	return false
}

// Product is a sellable ticket type. Sold is the committed unit count; it only
// grows, and only through a reservation commit. Reserved units live in the
// reservation ledger and are not stored on the product row.
type Product struct {
	ID    string
	Key   string
	Title string
	// Group is the organizing group the product belongs to, used for webhook
	// authorization scoping.
	Group   string
	Cost    decimal.Decimal
	VATRate VATRate
	Sold    int
	// MaxSold is the global sale ceiling; nil means unlimited.
	MaxSold *int
	// MaxSoldPerCustomer caps how many units a single customer may buy across
	// all non-cancelled orders; nil means unlimited.
	MaxSoldPerCustomer *int
	SellStart          time.Time
	SellEnd            time.Time
	CreatedAt          time.Time
}

// OnSale reports whether now falls inside the half-open sell window
// [SellStart, SellEnd). The window gates availability independently of any
// count limit.
func (p Product) OnSale(now time.Time) bool {
	return !now.Before(p.SellStart) && now.Before(p.SellEnd)
}

// OwningGroup implements the webhook subject scope.
func (p Product) OwningGroup() string {
	return p.Group
}

type ReservationStatus string

const (
	ReservationStatusActive    ReservationStatus = "active"
	ReservationStatusCommitted ReservationStatus = "committed"
	ReservationStatusReleased  ReservationStatus = "released"
)

// Reservation is a ledger entry holding units of a product for an order until
// the hold is committed into Sold or released back to the pool.
type Reservation struct {
	ID         string
	ProductID  string
	OrderID    string
	CustomerID string
	Quantity   int
	Status     ReservationStatus
	CreatedAt  time.Time
}
