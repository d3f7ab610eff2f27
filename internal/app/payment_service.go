package app

import (
	"context"

	"github.com/cimillas/ticket-office/internal/clock"
	"github.com/cimillas/ticket-office/internal/domain"
	"github.com/cimillas/ticket-office/internal/monitoring"
	"github.com/cimillas/ticket-office/internal/payment"
)

// providerStatuses is the fixed provider status vocabulary. Anything outside
// it aborts the reconciliation attempt.
var providerStatuses = map[string]domain.OrderStatus{
	"WAITING":   domain.OrderStatusPending,
	"PAID":      domain.OrderStatusPaid,
	"CANCELLED": domain.OrderStatusCancelled,
	"EXPIRED":   domain.OrderStatusExpired,
}

// PaymentService bridges the order lifecycle to the payment provider: it
// initiates provider payments at checkout and reconciles local order state
// with the provider's asynchronous status.
type PaymentService struct {
	repo      OrderRepository
	customers CustomerRepository
	inventory *InventoryService
	provider  payment.Provider
	returnURL string
	clock     clock.Clock
}

func NewPaymentService(repo OrderRepository, customers CustomerRepository, inventory *InventoryService, provider payment.Provider, returnURL string, clk clock.Clock) *PaymentService {
	return &PaymentService{
		repo:      repo,
		customers: customers,
		inventory: inventory,
		provider:  provider,
		returnURL: returnURL,
		clock:     clk,
	}
}

type CheckoutResult struct {
	Order domain.Order
	// RedirectURL is where the customer completes payment. Empty for offline
	// methods.
	RedirectURL string
}

// Checkout applies the chosen payment method to an ASSIGNED order. Offline
// methods (cash, pin) settle immediately; provider methods initiate a payment
// and move the order to PENDING only after the provider accepted the request,
// so a failed or timed-out provider call leaves the order in its pre-call
// state.
func (s *PaymentService) Checkout(ctx context.Context, publicRef string, method domain.PaymentMethod) (CheckoutResult, error) {
	if !method.Valid() {
		return CheckoutResult{}, domain.ErrInvalidMethod
	}

	order, err := s.repo.GetOrderByPublicReference(ctx, publicRef)
	if err != nil {
		return CheckoutResult{}, err
	}
	if order.CustomerID == "" {
		return CheckoutResult{}, domain.ErrOrderUnassigned
	}

	if method.Offline() {
		if err := s.settle(ctx, order, method); err != nil {
			return CheckoutResult{}, err
		}
		order.Status = domain.OrderStatusPaid
		return CheckoutResult{Order: order}, nil
	}

	if !order.Status.CanTransitionTo(domain.OrderStatusPending) {
		return CheckoutResult{}, &domain.InvalidTransitionError{From: order.Status, To: domain.OrderStatusPending}
	}

	customer, err := s.customers.GetCustomer(ctx, order.CustomerID)
	if err != nil {
		return CheckoutResult{}, err
	}

	// The provider call is blocking I/O and runs before any row is touched.
	created, err := s.provider.CreateOrder(ctx, payment.OrderRequest{
		Name:        customer.Name,
		Email:       customer.Email,
		ReturnURL:   s.returnURL + "/" + order.PublicReference,
		ProductKeys: expandProductKeys(order.Products),
	})
	if err != nil {
		return CheckoutResult{}, err
	}

	err = s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.SetOrderPayment(txCtx, order.ID, method, created.PublicReference); err != nil {
			return err
		}
		ok, err := s.repo.UpdateOrderStatus(txCtx, order.ID, order.Status, domain.OrderStatusPending)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.InvalidTransitionError{From: order.Status, To: domain.OrderStatusPending}
		}
		return nil
	})
	if err != nil {
		return CheckoutResult{}, err
	}

	monitoring.TrackOrderTransition(string(order.Status), string(domain.OrderStatusPending))
	order.Status = domain.OrderStatusPending
	order.PaymentMethod = method
	order.ProviderReference = created.PublicReference
	return CheckoutResult{Order: order, RedirectURL: created.URL}, nil
}

// expandProductKeys repeats every line's product key once per purchased unit.
func expandProductKeys(lines []domain.OrderProduct) []string {
	var keys []string
	for _, line := range lines {
		for i := 0; i < line.Quantity; i++ {
			keys = append(keys, line.ProductKey)
		}
	}
	return keys
}

// Reconcile fetches the provider's current status for the order and applies
// the mapped transition. Re-invoking it with an unchanged provider status is
// a no-op: no duplicate inventory commit, no second transition.
func (s *PaymentService) Reconcile(ctx context.Context, publicRef string) (domain.Order, error) {
	order, err := s.repo.GetOrderByPublicReference(ctx, publicRef)
	if err != nil {
		return domain.Order{}, err
	}
	return s.reconcileOrder(ctx, order)
}

// ReconcileByProviderReference is the entry point for the provider's own
// status callback.
func (s *PaymentService) ReconcileByProviderReference(ctx context.Context, providerRef string) (domain.Order, error) {
	order, err := s.repo.GetOrderByProviderReference(ctx, providerRef)
	if err != nil {
		return domain.Order{}, err
	}
	return s.reconcileOrder(ctx, order)
}

func (s *PaymentService) reconcileOrder(ctx context.Context, order domain.Order) (domain.Order, error) {
	if order.ProviderReference == "" {
		return domain.Order{}, domain.ErrNoProviderReference
	}

	// Blocking provider I/O happens before any lock is taken.
	raw, err := s.provider.OrderStatus(ctx, order.ProviderReference)
	if err != nil {
		return domain.Order{}, err
	}

	target, known := providerStatuses[raw]
	if !known {
		return domain.Order{}, &domain.UnknownPaymentStatusError{Status: raw}
	}

	if target == order.Status {
		return order, nil
	}
	if !order.Status.CanTransitionTo(target) {
		return domain.Order{}, &domain.InvalidTransitionError{From: order.Status, To: target}
	}

	switch target {
	case domain.OrderStatusPaid:
		if err := s.settle(ctx, order, order.PaymentMethod); err != nil {
			return domain.Order{}, err
		}
	default:
		if err := s.close(ctx, order, target); err != nil {
			return domain.Order{}, err
		}
	}

	order.Status = target
	return order, nil
}

// settle marks the order PAID and commits its reservations, exactly once.
// When a concurrent flow already advanced the order the guarded status update
// matches no row and the settle is a no-op.
func (s *PaymentService) settle(ctx context.Context, order domain.Order, method domain.PaymentMethod) error {
	if !order.Status.CanTransitionTo(domain.OrderStatusPaid) {
		return &domain.InvalidTransitionError{From: order.Status, To: domain.OrderStatusPaid}
	}
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		ok, err := s.repo.UpdateOrderStatus(txCtx, order.ID, order.Status, domain.OrderStatusPaid)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := s.repo.SetOrderPaid(txCtx, order.ID, method, s.clock.Now()); err != nil {
			return err
		}
		if err := s.inventory.CommitOrder(txCtx, order.ID); err != nil {
			return err
		}
		monitoring.TrackOrderTransition(string(order.Status), string(domain.OrderStatusPaid))
		return nil
	})
}

// close applies a terminal non-success status and returns the order's held
// inventory to the pool.
func (s *PaymentService) close(ctx context.Context, order domain.Order, target domain.OrderStatus) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		ok, err := s.repo.UpdateOrderStatus(txCtx, order.ID, order.Status, target)
		if err != nil {
			return err
		}
		if !ok {
			return nil
		}
		if err := s.inventory.ReleaseOrder(txCtx, order.ID); err != nil {
			return err
		}
		monitoring.TrackOrderTransition(string(order.Status), string(target))
		return nil
	})
}
