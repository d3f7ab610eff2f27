package postgres

import (
	"context"
	"fmt"

	"github.com/cimillas/ticket-office/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const productColumns = `id, key, title, group_name, cost, vat_rate, sold, max_sold, max_sold_per_customer, sell_start, sell_end, created_at`

// ProductRepository persists products and the reservation ledger. It backs
// both the inventory service and the product admin surface.
type ProductRepository struct {
	pool *pgxpool.Pool
}

func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

func (r *ProductRepository) WithTx(ctx context.Context, fn func(ctx context.Context) error) error {
	return withTx(ctx, r.pool, fn)
}

func scanProduct(row pgx.Row) (domain.Product, error) {
	var p domain.Product
	err := row.Scan(
		&p.ID, &p.Key, &p.Title, &p.Group, &p.Cost, &p.VATRate,
		&p.Sold, &p.MaxSold, &p.MaxSoldPerCustomer,
		&p.SellStart, &p.SellEnd, &p.CreatedAt,
	)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Product{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Product{}, domain.ErrProductNotFound
		}
		return domain.Product{}, fmt.Errorf("scan product: %w", err)
	}
	return p, nil
}

func (r *ProductRepository) GetProductByKey(ctx context.Context, key string) (domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE key = $1`
	return scanProduct(r.queryRow(ctx, query, key))
}

func (r *ProductRepository) GetProductByKeyForUpdate(ctx context.Context, key string) (domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE key = $1 FOR UPDATE`
	return scanProduct(r.queryRow(ctx, query, key))
}

func (r *ProductRepository) GetProductForUpdate(ctx context.Context, productID string) (domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products WHERE id = $1 FOR UPDATE`
	return scanProduct(r.queryRow(ctx, query, productID))
}

func (r *ProductRepository) SumActiveReservations(ctx context.Context, productID string) (int, error) {
	const query = `
SELECT COALESCE(SUM(quantity), 0)
FROM reservations
WHERE product_id = $1 AND status = 'active'`

	var total int
	if err := r.queryRow(ctx, query, productID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum active reservations: %w", err)
	}
	return total, nil
}

// SumCustomerUnits counts the customer's active and committed units for the
// product across all orders that are not cancelled, excluding the order being
// checked.
func (r *ProductRepository) SumCustomerUnits(ctx context.Context, productID, customerID, excludeOrderID string) (int, error) {
	const query = `
SELECT COALESCE(SUM(r.quantity), 0)
FROM reservations r
JOIN orders o ON o.id = r.order_id
WHERE r.product_id = $1
  AND r.customer_id = $2
  AND r.order_id <> $3
  AND r.status IN ('active', 'committed')
  AND o.status NOT IN ('CANCELLED', 'EXPIRED', 'REJECTED')`

	var total int
	if err := r.queryRow(ctx, query, productID, customerID, excludeOrderID).Scan(&total); err != nil {
		return 0, fmt.Errorf("sum customer units: %w", err)
	}
	return total, nil
}

func (r *ProductRepository) CreateReservation(ctx context.Context, reservation domain.Reservation) error {
	const stmt = `
INSERT INTO reservations (id, product_id, order_id, customer_id, quantity, status, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt,
		reservation.ID,
		reservation.ProductID,
		reservation.OrderID,
		nullString(reservation.CustomerID),
		reservation.Quantity,
		reservation.Status,
		reservation.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("create reservation: %w", err)
	}
	return nil
}

func (r *ProductRepository) GetReservationForUpdate(ctx context.Context, reservationID string) (domain.Reservation, error) {
	const query = `
SELECT id, product_id, order_id, customer_id, quantity, status, created_at
FROM reservations
WHERE id = $1
FOR UPDATE`

	var res domain.Reservation
	var customerID *string
	err := r.queryRow(ctx, query, reservationID).
		Scan(&res.ID, &res.ProductID, &res.OrderID, &customerID, &res.Quantity, &res.Status, &res.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return domain.Reservation{}, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return domain.Reservation{}, domain.ErrReservationNotFound
		}
		return domain.Reservation{}, fmt.Errorf("get reservation: %w", err)
	}
	if customerID != nil {
		res.CustomerID = *customerID
	}
	return res, nil
}

func (r *ProductRepository) SetReservationStatus(ctx context.Context, reservationID string, from, to domain.ReservationStatus) (bool, error) {
	const stmt = `UPDATE reservations SET status = $3 WHERE id = $1 AND status = $2`

	tag, err := r.exec(ctx, stmt, reservationID, from, to)
	if err != nil {
		return false, fmt.Errorf("set reservation status: %w", err)
	}
	return tag.RowsAffected() > 0, nil
}

func (r *ProductRepository) SetReservationCustomer(ctx context.Context, orderID, customerID string) error {
	const stmt = `UPDATE reservations SET customer_id = $2 WHERE order_id = $1`

	if _, err := r.exec(ctx, stmt, orderID, customerID); err != nil {
		return fmt.Errorf("set reservation customer: %w", err)
	}
	return nil
}

func (r *ProductRepository) ListReservationsByOrder(ctx context.Context, orderID string) ([]domain.Reservation, error) {
	const query = `
SELECT id, product_id, order_id, customer_id, quantity, status, created_at
FROM reservations
WHERE order_id = $1
ORDER BY created_at`

	rows, err := r.query(ctx, query, orderID)
	if err != nil {
		return nil, fmt.Errorf("list reservations: %w", err)
	}
	defer rows.Close()

	var reservations []domain.Reservation
	for rows.Next() {
		var res domain.Reservation
		var customerID *string
		if err := rows.Scan(&res.ID, &res.ProductID, &res.OrderID, &customerID, &res.Quantity, &res.Status, &res.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan reservation: %w", err)
		}
		if customerID != nil {
			res.CustomerID = *customerID
		}
		reservations = append(reservations, res)
	}
	return reservations, rows.Err()
}

func (r *ProductRepository) AddSold(ctx context.Context, productID string, quantity int) error {
	const stmt = `UPDATE products SET sold = sold + $2 WHERE id = $1`

	tag, err := r.exec(ctx, stmt, productID, quantity)
	if err != nil {
		return fmt.Errorf("add sold: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) CreateProduct(ctx context.Context, p domain.Product) error {
	const stmt = `
INSERT INTO products (id, key, title, group_name, cost, vat_rate, sold, max_sold, max_sold_per_customer, sell_start, sell_end, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12)`

	_, err := r.exec(ctx, stmt,
		p.ID, p.Key, p.Title, p.Group, p.Cost, p.VATRate,
		p.Sold, p.MaxSold, p.MaxSoldPerCustomer,
		p.SellStart, p.SellEnd, p.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateProduct
		}
		return fmt.Errorf("create product: %w", err)
	}
	return nil
}

func (r *ProductRepository) UpdateProduct(ctx context.Context, p domain.Product) error {
	const stmt = `
UPDATE products
SET title = $2, group_name = $3, cost = $4, vat_rate = $5,
    max_sold = $6, max_sold_per_customer = $7, sell_start = $8, sell_end = $9
WHERE key = $1`

	tag, err := r.exec(ctx, stmt,
		p.Key, p.Title, p.Group, p.Cost, p.VATRate,
		p.MaxSold, p.MaxSoldPerCustomer, p.SellStart, p.SellEnd,
	)
	if err != nil {
		return fmt.Errorf("update product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) DeleteProductByKey(ctx context.Context, key string) error {
	const stmt = `DELETE FROM products WHERE key = $1`

	tag, err := r.exec(ctx, stmt, key)
	if err != nil {
		return fmt.Errorf("delete product: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrProductNotFound
	}
	return nil
}

func (r *ProductRepository) ListProducts(ctx context.Context) ([]domain.Product, error) {
	query := `SELECT ` + productColumns + ` FROM products ORDER BY created_at`

	rows, err := r.query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list products: %w", err)
	}
	defer rows.Close()

	var products []domain.Product
	for rows.Next() {
		var p domain.Product
		if err := rows.Scan(
			&p.ID, &p.Key, &p.Title, &p.Group, &p.Cost, &p.VATRate,
			&p.Sold, &p.MaxSold, &p.MaxSoldPerCustomer,
			&p.SellStart, &p.SellEnd, &p.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("scan product: %w", err)
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

func (r *ProductRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *ProductRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}

func (r *ProductRepository) query(ctx context.Context, sql string, args ...any) (pgx.Rows, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Query(ctx, sql, args...)
	}
	return r.pool.Query(ctx, sql, args...)
}

func nullString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
