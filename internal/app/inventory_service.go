package app

import (
	"context"

	"github.com/cimillas/ticket-office/internal/clock"
	"github.com/cimillas/ticket-office/internal/domain"
	"github.com/google/uuid"
)

type InventoryRepository interface {
	WithTx(ctx context.Context, fn func(ctx context.Context) error) error
	GetProductByKeyForUpdate(ctx context.Context, key string) (domain.Product, error)
	GetProductForUpdate(ctx context.Context, productID string) (domain.Product, error)
	SumActiveReservations(ctx context.Context, productID string) (int, error)
	SumCustomerUnits(ctx context.Context, productID, customerID, excludeOrderID string) (int, error)
	CreateReservation(ctx context.Context, r domain.Reservation) error
	GetReservationForUpdate(ctx context.Context, reservationID string) (domain.Reservation, error)
	SetReservationStatus(ctx context.Context, reservationID string, from, to domain.ReservationStatus) (bool, error)
	SetReservationCustomer(ctx context.Context, orderID, customerID string) error
	ListReservationsByOrder(ctx context.Context, orderID string) ([]domain.Reservation, error)
	AddSold(ctx context.Context, productID string, quantity int) error
}

// InventoryService is the reservation ledger around product counters. All
// counter reads and writes happen under the product row lock, so concurrent
// purchase attempts for the same product are serialized and can never both
// consume the last unit.
type InventoryService struct {
	repo  InventoryRepository
	clock clock.Clock
}

func NewInventoryService(repo InventoryRepository, clk clock.Clock) *InventoryService {
	return &InventoryService{
		repo:  repo,
		clock: clk,
	}
}

type ReserveInput struct {
	ProductKey string
	OrderID    string
	CustomerID string
	Quantity   int
}

// Reserve places a provisional hold against the product's remaining
// inventory. It joins the caller's transaction when the context carries one.
func (s *InventoryService) Reserve(ctx context.Context, in ReserveInput) (domain.Reservation, error) {
	if in.Quantity <= 0 {
		return domain.Reservation{}, domain.ErrInvalidQuantity
	}

	now := s.clock.Now()
	var result domain.Reservation

	err := s.repo.WithTx(ctx, func(txCtx context.Context) error {
		product, err := s.repo.GetProductByKeyForUpdate(txCtx, in.ProductKey)
		if err != nil {
			return err
		}

		// The sell window gates availability entirely apart from counts.
		if !product.OnSale(now) {
			return domain.ErrProductNotOnSale
		}

		if product.MaxSold != nil {
			active, err := s.repo.SumActiveReservations(txCtx, product.ID)
			if err != nil {
				return err
			}
			remaining := *product.MaxSold - product.Sold - active
			if in.Quantity > remaining {
				if remaining < 0 {
					remaining = 0
				}
				return &domain.LimitExceededError{ProductKey: product.Key, Remaining: remaining}
			}
		}

		if product.MaxSoldPerCustomer != nil && in.CustomerID != "" {
			owned, err := s.repo.SumCustomerUnits(txCtx, product.ID, in.CustomerID, in.OrderID)
			if err != nil {
				return err
			}
			allowance := *product.MaxSoldPerCustomer - owned
			if in.Quantity > allowance {
				if allowance < 0 {
					allowance = 0
				}
				return &domain.CustomerLimitError{ProductKey: product.Key, Remaining: allowance}
			}
		}

		reservation := domain.Reservation{
			ID:         uuid.NewString(),
			ProductID:  product.ID,
			OrderID:    in.OrderID,
			CustomerID: in.CustomerID,
			Quantity:   in.Quantity,
			Status:     domain.ReservationStatusActive,
			CreatedAt:  now,
		}
		if err := s.repo.CreateReservation(txCtx, reservation); err != nil {
			return err
		}

		result = reservation
		return nil
	})
	if err != nil {
		return domain.Reservation{}, err
	}
	return result, nil
}

// Commit moves the reserved units into the product's sold counter. Committing
// an already committed reservation is a no-op, so the counter can never be
// bumped twice for the same hold.
func (s *InventoryService) Commit(ctx context.Context, reservationID string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		reservation, err := s.repo.GetReservationForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}
		switch reservation.Status {
		case domain.ReservationStatusCommitted:
			return nil
		case domain.ReservationStatusReleased:
			return domain.ErrReservationReleased
		}

		// Serialize the counter update against concurrent reserves.
		if _, err := s.repo.GetProductForUpdate(txCtx, reservation.ProductID); err != nil {
			return err
		}
		flipped, err := s.repo.SetReservationStatus(txCtx, reservationID,
			domain.ReservationStatusActive, domain.ReservationStatusCommitted)
		if err != nil {
			return err
		}
		if !flipped {
			return nil
		}
		return s.repo.AddSold(txCtx, reservation.ProductID, reservation.Quantity)
	})
}

// Release returns the reserved units to the pool. Releasing twice is a no-op;
// releasing committed inventory fails with ErrReservationCommitted.
func (s *InventoryService) Release(ctx context.Context, reservationID string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		reservation, err := s.repo.GetReservationForUpdate(txCtx, reservationID)
		if err != nil {
			return err
		}
		switch reservation.Status {
		case domain.ReservationStatusReleased:
			return nil
		case domain.ReservationStatusCommitted:
			return domain.ErrReservationCommitted
		}

		_, err = s.repo.SetReservationStatus(txCtx, reservationID,
			domain.ReservationStatusActive, domain.ReservationStatusReleased)
		return err
	})
}

// CommitOrder commits every reservation held by the order.
func (s *InventoryService) CommitOrder(ctx context.Context, orderID string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		reservations, err := s.repo.ListReservationsByOrder(txCtx, orderID)
		if err != nil {
			return err
		}
		for _, r := range reservations {
			if err := s.Commit(txCtx, r.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// ReleaseOrder releases every still-active reservation held by the order.
func (s *InventoryService) ReleaseOrder(ctx context.Context, orderID string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		reservations, err := s.repo.ListReservationsByOrder(txCtx, orderID)
		if err != nil {
			return err
		}
		for _, r := range reservations {
			if r.Status != domain.ReservationStatusActive {
				continue
			}
			if err := s.Release(txCtx, r.ID); err != nil {
				return err
			}
		}
		return nil
	})
}

// AssignCustomer re-verifies per-customer ceilings for every product held by
// the order and stamps the customer onto the order's reservations.
func (s *InventoryService) AssignCustomer(ctx context.Context, orderID, customerID string) error {
	return s.repo.WithTx(ctx, func(txCtx context.Context) error {
		reservations, err := s.repo.ListReservationsByOrder(txCtx, orderID)
		if err != nil {
			return err
		}
		for _, r := range reservations {
			if r.Status != domain.ReservationStatusActive {
				continue
			}
			product, err := s.repo.GetProductForUpdate(txCtx, r.ProductID)
			if err != nil {
				return err
			}
			if product.MaxSoldPerCustomer == nil {
				continue
			}
			owned, err := s.repo.SumCustomerUnits(txCtx, r.ProductID, customerID, orderID)
			if err != nil {
				return err
			}
			allowance := *product.MaxSoldPerCustomer - owned
			if r.Quantity > allowance {
				if allowance < 0 {
					allowance = 0
				}
				return &domain.CustomerLimitError{ProductKey: product.Key, Remaining: allowance}
			}
		}
		return s.repo.SetReservationCustomer(txCtx, orderID, customerID)
	})
}
