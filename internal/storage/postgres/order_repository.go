package postgres

import (
	"context"
	"fmt"
	"time"

	"github.com/cimillas/ticket-office/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

const orderColumns = `id, public_reference, status, amount, customer_id, payment_method, provider_reference, created_by, created_at, paid_at`

type OrderRepository struct {
	pool *pgxpool.Pool
}

func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

func (r *OrderRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func (r *OrderRepository) GetProductByKey(ctx context.Context, key string) (domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE key = $1`
	return scanProduct(r.queryRow(ctx, query, key))
}

func (r *OrderRepository) CreateOrder(ctx context.Context, order domain.Order) error {
	const stmt = `
INSERT INTO orders (id, public_reference, status, amount, customer_id, payment_method, provider_reference, created_by, created_at, paid_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`

	_, err := r.exec(ctx, stmt,
		order.ID,
		order.PublicReference,
		order.Status,
		order.Amount,
		nullString(order.CustomerID),
		nullString(string(order.PaymentMethod)),
		nullString(order.ProviderReference),
		order.CreatedBy,
		order.CreatedAt,
		order.PaidAt,
	)
	if err != nil {
		return fmt.Errorf("create order: %w", err)
	}
	return nil
}

func (r *OrderRepository) CreateOrderProduct(ctx context.Context, line domain.OrderProduct) error {
	const stmt = `
INSERT INTO order_products (id, order_id, product_id, product_key, title, price, vat_rate, quantity, vat_amount)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`

	_, err := r.exec(ctx, stmt,
		line.ID, line.OrderID, line.ProductID, line.ProductKey,
		line.Title, line.Price, line.VATRate, line.Quantity, line.VATAmount,
	)
	if err != nil {
		return fmt.Errorf("create order product: %w", err)
	}
	return nil
}

func (r *OrderRepository) SetOrderAmount(ctx context.Context, orderID string, amount decimal.Decimal) error {
	const stmt = `UPDATE orders SET amount = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, orderID, amount)
	if err != nil {
		return fmt.Errorf("set order amount: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) GetOrderByPublicReference(ctx context.Context, publicRef string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE public_reference = $1`
	return r.getOrder(ctx, query, publicRef)
}

func (r *OrderRepository) GetOrderByProviderReference(ctx context.Context, providerRef string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE provider_reference = $1`
	return r.getOrder(ctx, query, providerRef)
}

func (r *OrderRepository) GetOrderForUpdate(ctx context.Context, orderID string) (domain.Order, error) {
	query := `SELECT ` + orderColumns + ` FROM orders WHERE id = $1 FOR UPDATE`
	return r.getOrder(ctx, query, orderID)
}

func (r *OrderRepository) getOrder(ctx context.Context, query, arg string) (domain.Order, error) {
	var o domain.Order
	var customerID, method, providerRef *string
	err := r.queryRow(ctx, query, arg).Scan(
		&o.ID, &o.PublicReference, &o.Status, &o.Amount,
		&customerID, &method, &providerRef,
		&o.CreatedBy, &o.CreatedAt, &o.PaidAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Order{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Order{}, domain.ErrOrderNotFound
		}
		return domain.Order{}, fmt.Errorf("get order: %w", err)
	}
	if customerID != nil {
		o.CustomerID = *customerID
	}
	if method != nil {
		o.PaymentMethod = domain.PaymentMethod(*method)
	}
	if providerRef != nil {
		o.ProviderReference = *providerRef
	}

	products, err := r.listOrderProducts(ctx, o.ID)
	if err != nil {
		return domain.Order{}, err
	}
	o.Products = products
	return o, nil
}

func (r *OrderRepository) listOrderProducts(ctx context.Context, orderID string) ([]domain.OrderProduct, error) {
	const query = `
SELECT id, order_id, product_id, product_key, title, price, vat_rate, quantity, vat_amount
FROM order_products
WHERE order_id = $1
ORDER BY title`

	rows, err := r.query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list order products: %w", err)
	}
	defer rows.Close()

	var lines []domain.OrderProduct
	for rows.Next() {
		var line domain.OrderProduct
		if err := rows.Scan(
			&line.ID, &line.OrderID, &line.ProductID, &line.ProductKey,
			&line.Title, &line.Price, &line.VATRate, &line.Quantity, &line.VATAmount,
		); err != nil {
			return nil, fmt.Errorf("scan order product: %w", err)
		}
		lines = append(lines, line)
	}
	return lines, rows.Err()
}

func (r *OrderRepository) UpdateOrderStatus(ctx context.Context, orderID string, from, to domain.OrderStatus) (bool, error) {
	const stmt = `UPDATE orders SET status = $3 WHERE id = $1 AND status = $2`

	tag, err := r.exec(ctx, stmt, orderID, from, to)
	if err != nil {
		return false, fmt.Errorf("update order status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *OrderRepository) SetOrderCustomer(ctx context.Context, orderID, customerID string) error {
	const stmt = `UPDATE orders SET customer_id = $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, orderID, customerID)
	if err != nil {
		return fmt.Errorf("set order customer: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) SetOrderPayment(ctx context.Context, orderID string, method domain.PaymentMethod, providerRef string) error {
	const stmt = `UPDATE orders SET payment_method = $2, provider_reference = $3 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, orderID, method, nullString(providerRef))
	if err != nil {
		return fmt.Errorf("set order payment: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) SetOrderPaid(ctx context.Context, orderID string, method domain.PaymentMethod, paidAt time.Time) error {
	const stmt = `UPDATE orders SET payment_method = $2, paid_at = $3 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, orderID, nullString(string(method)), paidAt)
	if err != nil {
		return fmt.Errorf("set order paid: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrOrderNotFound
	}
	return nil
}

func (r *OrderRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *OrderRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *OrderRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}
