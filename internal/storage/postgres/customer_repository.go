package postgres

import (
	"context"
	"fmt"

	"github.com/cimillas/ticket-office/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const customerColumns = `id, key, name, email, sub, rfid_token, created_at`

type CustomerRepository struct {
	pool *pgxpool.Pool
}

func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

func (r *CustomerRepository) GetCustomer(ctx context.Context, customerID string) (domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE id = $1`

	customer, err := r.scanCustomer(r.queryRow(ctx, query, customerID))
	if err != nil {
		return domain.Customer{}, err
	}
	if customer == nil {
		return domain.Customer{}, domain.ErrCustomerNotFound
	}
	return *customer, nil
}

func (r *CustomerRepository) FindCustomerByRFID(ctx context.Context, token string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE rfid_token = $1`
	return r.scanCustomer(r.queryRow(ctx, query, token))
}

func (r *CustomerRepository) FindCustomerByEmail(ctx context.Context, email string) (*domain.Customer, error) {
	query := `SELECT ` + customerColumns + ` FROM customers WHERE email = $1`
	return r.scanCustomer(r.queryRow(ctx, query, email))
}

func (r *CustomerRepository) scanCustomer(row pgx.Row) (*domain.Customer, error) {
	var c domain.Customer
	var sub, rfid *string
	err := row.Scan(&c.ID, &c.Key, &c.Name, &c.Email, &sub, &rfid, &c.CreatedAt)
	if err != nil {
		if isInvalidUUID(err) {
			return nil, domain.ErrInvalidID
		}
		if err == pgx.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("scan customer: %w", err)
	}
	if sub != nil {
		c.Sub = *sub
	}
	if rfid != nil {
		c.RFIDToken = *rfid
	}
	return &c, nil
}

func (r *CustomerRepository) CreateCustomer(ctx context.Context, customer domain.Customer) error {
	const stmt = `
INSERT INTO customers (id, key, name, email, sub, rfid_token, created_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`

	_, err := r.exec(ctx, stmt,
		customer.ID,
		customer.Key,
		customer.Name,
		customer.Email,
		nullString(customer.Sub),
		nullString(customer.RFIDToken),
		customer.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return domain.ErrDuplicateCustomer
		}
		return fmt.Errorf("create customer: %w", err)
	}
	return nil
}

func (r *CustomerRepository) exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	if tx := txFromContext(ctx); tx != nil {
		return tx.Exec(ctx, sql, args...)
	}
	return r.pool.Exec(ctx, sql, args...)
}

func (r *CustomerRepository) queryRow(ctx context.Context, sql string, args ...any) pgx.Row {
	if tx := txFromContext(ctx); tx != nil {
		return tx.QueryRow(ctx, sql, args...)
	}
	return r.pool.QueryRow(ctx, sql, args...)
}
