package app

import (
	"context"
	"time"

	"github.com/cimillas/ticket-office/internal/clock"
	"github.com/cimillas/ticket-office/internal/domain"
	"github.com/cimillas/ticket-office/internal/monitoring"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type OrderRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetProductByKey(ctx context.Context, key string) (domain.Product, error)
	CreateOrder(ctx context.Context, order domain.Order) error
	CreateOrderProduct(ctx context.Context, line domain.OrderProduct) error
	SetOrderAmount(ctx context.Context, orderID string, amount decimal.Decimal) error
	GetOrderByPublicReference(ctx context.Context, publicRef string) (domain.Order, error)
	GetOrderByProviderReference(ctx context.Context, providerRef string) (domain.Order, error)
	GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error)
	// UpdateOrderStatus applies the change only when the order still holds the
	// from status, and reports whether a row was updated. A false return means
	// a concurrent flow advanced the order first.
	UpdateOrderStatus(ctx context.Context, orderID string, from, to domain.OrderStatus) (bool, error)
	SetOrderCustomer(ctx context.Context, orderID, customerID string) error
	// SetOrderPayment stamps the chosen method and the provider's reference
	// once provider initiation succeeded.
	SetOrderPayment(ctx context.Context, orderID string, method domain.PaymentMethod, providerRef string) error
	SetOrderPaid(ctx context.Context, orderID string, method domain.PaymentMethod, paidAt time.Time) error
}

type CustomerRepository interface {
	GetCustomer(ctx context.Context, customerID string) (domain.Customer, error)
	FindCustomerByRFID(ctx context.Context, token string) (*domain.Customer, error)
	FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error)
	CreateCustomer(ctx context.Context, customer domain.Customer) error
}

// OrderService owns the order aggregate and its state machine.
type OrderService struct {
	repo      OrderRepository
	customers CustomerRepository
	inventory *InventoryService
	clock     clock.Clock
}

func NewOrderService(repo OrderRepository, customers CustomerRepository, inventory *InventoryService, clk clock.Clock) *OrderService {
	return &OrderService{
		repo:      repo,
		customers: customers,
		inventory: inventory,
		clock:     clk,
	}
}

type OrderLineInput struct {
	ProductKey string
	Quantity   int
}

type CreateOrderInput struct {
	Lines     []OrderLineInput
	CreatedBy string
}

// CreateOrder reserves every requested line in full and persists the order in
// ANONYMOUS status. The whole order runs in one transaction: a failed line
// rolls back every reservation made for the others.
func (s *OrderService) CreateOrder(ctx context.Context, in CreateOrderInput) (domain.Order, error) {
	if len(in.Lines) == 0 {
		return domain.Order{}, domain.ErrEmptyOrder
	}
	for _, line := range in.Lines {
		if line.Quantity <= 0 {
			return domain.Order{}, domain.ErrInvalidQuantity
		}
	}

	now := s.clock.Now()
	order := domain.Order{
		ID:              uuid.NewString(),
		PublicReference: uuid.NewString(),
		Status:          domain.OrderStatusAnonymous,
		Amount:          decimal.Zero.Round(2),
		CreatedBy:       in.CreatedBy,
		CreatedAt:       now,
	}

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		if err := s.repo.CreateOrder(txCtx, order); err != nil {
			return err
		}

		amount := decimal.Zero
		for _, line := range in.Lines {
			if _, err := s.inventory.Reserve(txCtx, ReserveInput{
				ProductKey: line.ProductKey,
				OrderID:    order.ID,
				Quantity:   line.Quantity,
			}); err != nil {
				return err
			}

			product, err := s.repo.GetProductByKey(txCtx, line.ProductKey)
			if err != nil {
				return err
			}

			lineTotal := product.Cost.Mul(decimal.NewFromInt(int64(line.Quantity)))
			orderProduct := domain.OrderProduct{
				ID:         uuid.NewString(),
				OrderID:    order.ID,
				ProductID:  product.ID,
				ProductKey: product.Key,
				Title:      product.Title,
				Price:      product.Cost,
				VATRate:    product.VATRate,
				Quantity:   line.Quantity,
				VATAmount:  domain.LineVAT(lineTotal, product.VATRate),
			}
			if err := s.repo.CreateOrderProduct(txCtx, orderProduct); err != nil {
				return err
			}
			order.Products = append(order.Products, orderProduct)
			amount = amount.Add(lineTotal)
		}

		order.Amount = amount.Round(2)
		return s.repo.SetOrderAmount(txCtx, order.ID, order.Amount)
	})
	if err != nil {
		return domain.Order{}, err
	}

	monitoring.TrackOrderCreated()
	return order, nil
}

type AssignInput struct {
	// RFIDToken looks up an existing customer by card token.
	RFIDToken string
	// Email looks up an existing customer by address.
	Email string
	// NewCustomer creates the customer when no lookup field is given.
	NewCustomer *domain.Customer
}

// AssignCustomer attaches a customer to an ANONYMOUS order, re-verifying
// per-customer ceilings. Lookup or validation failures leave the order
// untouched.
func (s *OrderService) AssignCustomer(ctx context.Context, publicRef string, in AssignInput) (domain.Order, error) {
	var result domain.Order

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderByPublicReference(txCtx, publicRef)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(domain.OrderStatusAssigned) {
			return &domain.InvalidTransitionError{From: order.Status, To: domain.OrderStatusAssigned}
		}

		customer, err := s.resolveCustomer(txCtx, in)
		if err != nil {
			return err
		}

		if err := s.inventory.AssignCustomer(txCtx, order.ID, customer.ID); err != nil {
			return err
		}
		if err := s.repo.SetOrderCustomer(txCtx, order.ID, customer.ID); err != nil {
			return err
		}
		ok, err := s.repo.UpdateOrderStatus(txCtx, order.ID, order.Status, domain.OrderStatusAssigned)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.InvalidTransitionError{From: order.Status, To: domain.OrderStatusAssigned}
		}

		monitoring.TrackOrderTransition(string(order.Status), string(domain.OrderStatusAssigned))
		order.Status = domain.OrderStatusAssigned
		order.CustomerID = customer.ID
		result = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return result, nil
}

func (s *OrderService) resolveCustomer(ctx context.Context, in AssignInput) (domain.Customer, error) {
	switch {
	case in.RFIDToken != "":
		customer, err := s.customers.FindCustomerByRFID(ctx, in.RFIDToken)
		if err != nil {
			return domain.Customer{}, err
		}
		if customer == nil {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return *customer, nil

	case in.Email != "":
		customer, err := s.customers.FindCustomerByEmail(ctx, in.Email)
		if err != nil {
			return domain.Customer{}, err
		}
		if customer == nil {
			return domain.Customer{}, domain.ErrCustomerNotFound
		}
		return *customer, nil

	case in.NewCustomer != nil:
		customer := *in.NewCustomer
		if !customer.Valid() {
			return domain.Customer{}, domain.ErrCustomerInvalid
		}
		customer.ID = uuid.NewString()
		customer.Key = uuid.NewString()
		customer.CreatedAt = s.clock.Now()
		if err := s.customers.CreateCustomer(ctx, customer); err != nil {
			return domain.Customer{}, err
		}
		return customer, nil
	}

	return domain.Customer{}, domain.ErrCustomerNotFound
}

// GetByPublicReference is the status surface for controllers: current status,
// amount and line items.
func (s *OrderService) GetByPublicReference(ctx context.Context, publicRef string) (domain.Order, error) {
	return s.repo.GetOrderByPublicReference(ctx, publicRef)
}

// Reject administratively closes an order from any non-terminal state and
// returns its held inventory to the pool.
func (s *OrderService) Reject(ctx context.Context, publicRef string) (domain.Order, error) {
	var result domain.Order

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		order, err := s.repo.GetOrderByPublicReference(txCtx, publicRef)
		if err != nil {
			return err
		}
		if !order.Status.CanTransitionTo(domain.OrderStatusRejected) {
			return &domain.InvalidTransitionError{From: order.Status, To: domain.OrderStatusRejected}
		}
		ok, err := s.repo.UpdateOrderStatus(txCtx, order.ID, order.Status, domain.OrderStatusRejected)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.InvalidTransitionError{From: order.Status, To: domain.OrderStatusRejected}
		}
		if err := s.inventory.ReleaseOrder(txCtx, order.ID); err != nil {
			return err
		}

		monitoring.TrackOrderTransition(string(order.Status), string(domain.OrderStatusRejected))
		order.Status = domain.OrderStatusRejected
		result = order
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return result, nil
}

// CreateReservationOrder creates a staff hold that bypasses payment: the
// order starts in RESERVATION status with its inventory held, and only leaves
// it through an offline settle or a reject.
func (s *OrderService) CreateReservationOrder(ctx context.Context, in CreateOrderInput, customerEmail string) (domain.Order, error) {
	var order domain.Order
	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		created, err := s.CreateOrder(txCtx, in)
		if err != nil {
			return err
		}
		order = created

		if customerEmail != "" {
			customer, err := s.customers.FindCustomerByEmail(txCtx, customerEmail)
			if err != nil {
				return err
			}
			if customer == nil {
				return domain.ErrCustomerNotFound
			}
			if err := s.inventory.AssignCustomer(txCtx, order.ID, customer.ID); err != nil {
				return err
			}
			if err := s.repo.SetOrderCustomer(txCtx, order.ID, customer.ID); err != nil {
				return err
			}
			order.CustomerID = customer.ID
		}

		ok, err := s.repo.UpdateOrderStatus(txCtx, order.ID, domain.OrderStatusAnonymous, domain.OrderStatusReservation)
		if err != nil {
			return err
		}
		if !ok {
			return &domain.InvalidTransitionError{From: order.Status, To: domain.OrderStatusReservation}
		}
		order.Status = domain.OrderStatusReservation
		return nil
	})
	if err != nil {
		return domain.Order{}, err
	}
	return order, nil
}
