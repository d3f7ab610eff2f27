package app

import (
	"context"
	"fmt"
	"time"

	"github.com/shopspring/decimal"

	"github.com/cimillas/ticket-office/internal/domain"
)

// fakeStore is an in-memory stand-in for the postgres repositories. It backs
// the inventory, order and customer repository interfaces at once so services
// that share a transaction in production share state here too.
type fakeStore struct {
	products     []domain.Product
	reservations []domain.Reservation
	orders       []domain.Order
	lines        []domain.OrderProduct
	customers    []domain.Customer
}

func newFakeStore(products ...domain.Product) *fakeStore {
	return &fakeStore{products: append([]domain.Product{}, products...)}
}

func (f *fakeStore) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

func (f *fakeStore) GetProductByKeyForUpdate(_ context.Context, key string) (domain.Product, error) {
	for _, p := range f.products {
		if p.Key == key {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrProductNotFound
}

func (f *fakeStore) GetProductByKey(ctx context.Context, key string) (domain.Product, error) {
	return f.GetProductByKeyForUpdate(ctx, key)
}

func (f *fakeStore) GetProductForUpdate(_ context.Context, productID string) (domain.Product, error) {
	for _, p := range f.products {
		if p.ID == productID {
			return p, nil
		}
	}
	return domain.Product{}, domain.ErrProductNotFound
}

func (f *fakeStore) SumActiveReservations(_ context.Context, productID string) (int, error) {
	total := 0
	for _, r := range f.reservations {
		if r.ProductID == productID && r.Status == domain.ReservationStatusActive {
			total += r.Quantity
		}
	}
	return total, nil
}

func (f *fakeStore) SumCustomerUnits(_ context.Context, productID, customerID, excludeOrderID string) (int, error) {
	total := 0
	for _, r := range f.reservations {
		if r.ProductID != productID || r.CustomerID != customerID {
			continue
		}
		if r.OrderID == excludeOrderID || r.Status == domain.ReservationStatusReleased {
			continue
		}
		total += r.Quantity
	}
	return total, nil
}

func (f *fakeStore) CreateReservation(_ context.Context, r domain.Reservation) error {
	f.reservations = append(f.reservations, r)
	return nil
}

func (f *fakeStore) GetReservationForUpdate(_ context.Context, reservationID string) (domain.Reservation, error) {
	for _, r := range f.reservations {
		if r.ID == reservationID {
			return r, nil
		}
	}
	return domain.Reservation{}, domain.ErrReservationNotFound
}

func (f *fakeStore) SetReservationStatus(_ context.Context, reservationID string, from, to domain.ReservationStatus) (bool, error) {
	for i := range f.reservations {
		if f.reservations[i].ID == reservationID && f.reservations[i].Status == from {
			f.reservations[i].Status = to
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) SetReservationCustomer(_ context.Context, orderID, customerID string) error {
	for i := range f.reservations {
		if f.reservations[i].OrderID == orderID {
			f.reservations[i].CustomerID = customerID
		}
	}
	return nil
}

func (f *fakeStore) ListReservationsByOrder(_ context.Context, orderID string) ([]domain.Reservation, error) {
	var out []domain.Reservation
	for _, r := range f.reservations {
		if r.OrderID == orderID {
			out = append(out, r)
		}
	}
	return out, nil
}

func (f *fakeStore) AddSold(_ context.Context, productID string, quantity int) error {
	for i := range f.products {
		if f.products[i].ID == productID {
			f.products[i].Sold += quantity
			return nil
		}
	}
	return domain.ErrProductNotFound
}

func (f *fakeStore) CreateProduct(_ context.Context, product domain.Product) error {
	f.products = append(f.products, product)
	return nil
}

func (f *fakeStore) UpdateProduct(_ context.Context, product domain.Product) error {
	for i := range f.products {
		if f.products[i].ID == product.ID {
			f.products[i] = product
			return nil
		}
	}
	return domain.ErrProductNotFound
}

func (f *fakeStore) DeleteProductByKey(_ context.Context, key string) error {
	for i := range f.products {
		if f.products[i].Key == key {
			f.products = append(f.products[:i], f.products[i+1:]...)
			return nil
		}
	}
	return domain.ErrProductNotFound
}

func (f *fakeStore) ListProducts(_ context.Context) ([]domain.Product, error) {
	return append([]domain.Product{}, f.products...), nil
}

func (f *fakeStore) CreateOrder(_ context.Context, order domain.Order) error {
	f.orders = append(f.orders, order)
	return nil
}

func (f *fakeStore) CreateOrderProduct(_ context.Context, line domain.OrderProduct) error {
	f.lines = append(f.lines, line)
	return nil
}

func (f *fakeStore) SetOrderAmount(_ context.Context, orderID string, amount decimal.Decimal) error {
	for i := range f.orders {
		if f.orders[i].ID == orderID {
			f.orders[i].Amount = amount
			return nil
		}
	}
	return domain.ErrOrderNotFound
}

func (f *fakeStore) GetOrderByPublicReference(_ context.Context, publicRef string) (domain.Order, error) {
	for _, o := range f.orders {
		if o.PublicReference == publicRef {
			return f.withLines(o), nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

func (f *fakeStore) GetOrderByProviderReference(_ context.Context, providerRef string) (domain.Order, error) {
	for _, o := range f.orders {
		if o.ProviderReference != "" && o.ProviderReference == providerRef {
			return f.withLines(o), nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

func (f *fakeStore) GetOrderForUpdate(_ context.Context, orderID string) (domain.Order, error) {
	for _, o := range f.orders {
		if o.ID == orderID {
			return f.withLines(o), nil
		}
	}
	return domain.Order{}, domain.ErrOrderNotFound
}

func (f *fakeStore) withLines(order domain.Order) domain.Order {
	order.Products = nil
	for _, line := range f.lines {
		if line.OrderID == order.ID {
			order.Products = append(order.Products, line)
		}
	}
	return order
}

func (f *fakeStore) UpdateOrderStatus(_ context.Context, orderID string, from, to domain.OrderStatus) (bool, error) {
	for i := range f.orders {
		if f.orders[i].ID == orderID && f.orders[i].Status == from {
			f.orders[i].Status = to
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) SetOrderCustomer(_ context.Context, orderID, customerID string) error {
	for i := range f.orders {
		if f.orders[i].ID == orderID {
			f.orders[i].CustomerID = customerID
			return nil
		}
	}
	return domain.ErrOrderNotFound
}

func (f *fakeStore) SetOrderPayment(_ context.Context, orderID string, method domain.PaymentMethod, providerRef string) error {
	for i := range f.orders {
		if f.orders[i].ID == orderID {
			f.orders[i].PaymentMethod = method
			f.orders[i].ProviderReference = providerRef
			return nil
		}
	}
	return domain.ErrOrderNotFound
}

func (f *fakeStore) SetOrderPaid(_ context.Context, orderID string, method domain.PaymentMethod, paidAt time.Time) error {
	for i := range f.orders {
		if f.orders[i].ID == orderID {
			f.orders[i].PaymentMethod = method
			at := paidAt
			f.orders[i].PaidAt = &at
			return nil
		}
	}
	return domain.ErrOrderNotFound
}

func (f *fakeStore) GetCustomer(_ context.Context, customerID string) (domain.Customer, error) {
	for _, c := range f.customers {
		if c.ID == customerID {
			return c, nil
		}
	}
	return domain.Customer{}, domain.ErrCustomerNotFound
}

func (f *fakeStore) FindCustomerByRFID(_ context.Context, token string) (*domain.Customer, error) {
	for _, c := range f.customers {
		if c.RFIDToken != "" && c.RFIDToken == token {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) FindCustomerByEmail(_ context.Context, email string) (*domain.Customer, error) {
	for _, c := range f.customers {
		if c.Email == email {
			out := c
			return &out, nil
		}
	}
	return nil, nil
}

func (f *fakeStore) CreateCustomer(_ context.Context, customer domain.Customer) error {
	for _, c := range f.customers {
		if c.Email == customer.Email {
			return domain.ErrDuplicateCustomer
		}
	}
	f.customers = append(f.customers, customer)
	return nil
}

// order returns the stored order by id, failing loudly in assertions when the
// id is unknown.
func (f *fakeStore) order(orderID string) domain.Order {
	for _, o := range f.orders {
		if o.ID == orderID {
			return f.withLines(o)
		}
	}
	panic(fmt.Sprintf("unknown order %s", orderID))
}

func (f *fakeStore) product(productID string) domain.Product {
	for _, p := range f.products {
		if p.ID == productID {
			return p
		}
	}
	panic(fmt.Sprintf("unknown product %s", productID))
}

type fakeWebhookRepo struct {
	hooks   []domain.Webhook
	tasks   []domain.WebhookTask
	listErr error
}

func (f *fakeWebhookRepo) ListActiveWebhooksByTrigger(_ context.Context, trigger domain.WebhookTrigger) ([]domain.Webhook, error) {
	if f.listErr != nil {
		return nil, f.listErr
	}
	var out []domain.Webhook
	for _, hook := range f.hooks {
		if hook.Active && hook.SubscribesTo(trigger) {
			out = append(out, hook)
		}
	}
	return out, nil
}

func (f *fakeWebhookRepo) CreateWebhookTask(_ context.Context, task domain.WebhookTask) error {
	f.tasks = append(f.tasks, task)
	return nil
}

func (f *fakeWebhookRepo) CreateWebhook(_ context.Context, hook domain.Webhook) error {
	f.hooks = append(f.hooks, hook)
	return nil
}

func (f *fakeWebhookRepo) ListWebhooks(_ context.Context) ([]domain.Webhook, error) {
	return append([]domain.Webhook{}, f.hooks...), nil
}

func (f *fakeWebhookRepo) DeleteWebhookByKey(_ context.Context, key string) error {
	for i, hook := range f.hooks {
		if hook.Key == key {
			f.hooks = append(f.hooks[:i], f.hooks[i+1:]...)
			return nil
		}
	}
	return domain.ErrWebhookNotFound
}
