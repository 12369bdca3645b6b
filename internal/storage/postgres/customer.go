package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storeframe/orderd/internal/domain/customer"
)

var _ customer.Repository = (*CustomerRepository)(nil)

// CustomerRepository implements customer.Repository backed by PostgreSQL.
type CustomerRepository struct {
	pool *pgxpool.Pool
}

// NewCustomerRepository returns a CustomerRepository that uses the given pool.
func NewCustomerRepository(pool *pgxpool.Pool) *CustomerRepository {
	return &CustomerRepository{pool: pool}
}

const customerColumns = `id, email, first_name, last_name, phone, address, is_active, created_at, updated_at`

// Create inserts a new customer. Duplicate emails map to customer.ErrEmailTaken.
func (r *CustomerRepository) Create(ctx context.Context, c *customer.Customer) error {
	_, err := from(ctx, r.pool).Exec(ctx, `
		INSERT INTO customers (id, email, first_name, last_name, phone, address, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		c.ID, c.Email, c.FirstName, c.LastName, c.Phone, c.Address, c.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return customer.ErrEmailTaken
		}
		return fmt.Errorf("creating customer %q: %w", c.ID, err)
	}
	return nil
}

// GetByID returns a single customer, or customer.ErrNotFound.
func (r *CustomerRepository) GetByID(ctx context.Context, id string) (*customer.Customer, error) {
	row := from(ctx, r.pool).QueryRow(ctx,
		`SELECT `+customerColumns+` FROM customers WHERE id = $1`, id)

	c, err := scanCustomer(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, customer.ErrNotFound
		}
		return nil, fmt.Errorf("getting customer %q: %w", id, err)
	}
	return &c, nil
}

// List returns a page of customers ordered by creation time.
func (r *CustomerRepository) List(ctx context.Context, limit, offset int) ([]customer.Customer, error) {
	rows, err := from(ctx, r.pool).Query(ctx,
		`SELECT `+customerColumns+` FROM customers ORDER BY created_at DESC LIMIT $1 OFFSET $2`,
		limit, offset)
	if err != nil {
		return nil, fmt.Errorf("listing customers: %w", err)
	}
	defer rows.Close()

	var customers []customer.Customer
	for rows.Next() {
		c, err := scanCustomer(rows)
		if err != nil {
			return nil, err
		}
		customers = append(customers, c)
	}
	return customers, rows.Err()
}

// Update overwrites the mutable customer fields.
func (r *CustomerRepository) Update(ctx context.Context, c *customer.Customer) error {
	tag, err := from(ctx, r.pool).Exec(ctx, `
		UPDATE customers
		SET email = $2, first_name = $3, last_name = $4, phone = $5, address = $6,
		    is_active = $7, updated_at = now()
		WHERE id = $1`,
		c.ID, c.Email, c.FirstName, c.LastName, c.Phone, c.Address, c.Active)
	if err != nil {
		if isUniqueViolation(err) {
			return customer.ErrEmailTaken
		}
		return fmt.Errorf("updating customer %q: %w", c.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}

// Delete removes a customer.
func (r *CustomerRepository) Delete(ctx context.Context, id string) error {
	tag, err := from(ctx, r.pool).Exec(ctx, `DELETE FROM customers WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting customer %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return customer.ErrNotFound
	}
	return nil
}

func scanCustomer(row pgx.Row) (customer.Customer, error) {
	var c customer.Customer
	err := row.Scan(&c.ID, &c.Email, &c.FirstName, &c.LastName, &c.Phone,
		&c.Address, &c.Active, &c.CreatedAt, &c.UpdatedAt)
	return c, err
}
