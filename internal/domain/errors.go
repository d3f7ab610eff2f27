package domain

import (
	"errors"
	"fmt"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrOrderNotFound       = errors.New("order not found")
	ErrCustomerNotFound    = errors.New("customer not found")
	ErrWebhookNotFound     = errors.New("webhook not found")
	ErrWebhookTaskNotFound = errors.New("webhook task not found")
	ErrReservationNotFound = errors.New("reservation not found")

	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrEmptyOrder        = errors.New("order requires at least one product")
	ErrProductNotOnSale  = errors.New("product not on sale")
	ErrCustomerInvalid   = errors.New("customer requires name and email")
	ErrOrderUnassigned   = errors.New("order has no customer")
	ErrInvalidMethod     = errors.New("invalid payment method")
	ErrInvalidID         = errors.New("invalid id")
	ErrDuplicateProduct  = errors.New("product key already exists")
	ErrDuplicateCustomer = errors.New("customer already exists")
	ErrDuplicateWebhook  = errors.New("webhook key already exists")

	// ErrNoProviderReference means reconciliation was requested for an order
	// that never went through provider initiation. That is a caller bug, not a
	// retryable provider condition.
	ErrNoProviderReference = errors.New("order has no provider reference")

	// ErrReservationCommitted means a release was attempted on inventory that
	// has already been sold.
	ErrReservationCommitted = errors.New("reservation already committed")

	// ErrReservationReleased means a commit was attempted on a hold that was
	// already returned to the pool.
	ErrReservationReleased = errors.New("reservation already released")
)

// LimitExceededError is returned when a reservation would push a product past
// its global sale ceiling. Remaining is how many units are still available.
type LimitExceededError struct {
	ProductKey string
	Remaining  int
}

func (e *LimitExceededError) Error() string {
	return fmt.Sprintf("product %s sold out: %d left", e.ProductKey, e.Remaining)
}

// CustomerLimitError is returned when a reservation would push a customer past
// the per-customer ceiling for a product. Remaining is the customer's
// remaining allowance for it.
type CustomerLimitError struct {
	ProductKey string
	Remaining  int
}

func (e *CustomerLimitError) Error() string {
	return fmt.Sprintf("customer limit for product %s reached: %d left", e.ProductKey, e.Remaining)
}

// InvalidTransitionError is returned for any disallowed order status change,
// including every attempt to move an order out of a terminal status.
type InvalidTransitionError struct {
	From OrderStatus
	To   OrderStatus
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("order status %s cannot transition to %s", e.From, e.To)
}

// UnknownPaymentStatusError is returned when the payment provider reports a
// status outside the fixed vocabulary. The raw status is preserved for
// diagnosis and the reconciliation attempt is aborted; it is never coerced to
// a success or failure default.
type UnknownPaymentStatusError struct {
	Status string
}

func (e *UnknownPaymentStatusError) Error() string {
	return fmt.Sprintf("unknown payment provider status %q", e.Status)
}

// ProviderError is the connection-kind failure: the provider was unreachable,
// timed out, or answered with a non-success HTTP status. Message carries the
// provider's own error text when present so callers can tell "provider said
// no" apart from "provider is down".
type ProviderError struct {
	Message string
	Err     error
}

func (e *ProviderError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("payment provider: %s: %v", e.Message, e.Err)
	}
	return fmt.Sprintf("payment provider: %s", e.Message)
}

func (e *ProviderError) Unwrap() error {
	return e.Err
}
