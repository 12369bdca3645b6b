package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/storeframe/orderd/internal/domain/product"
)

var _ product.Store = (*ProductStore)(nil)

// ProductStore implements product.Store backed by PostgreSQL.
type ProductStore struct {
	pool *pgxpool.Pool
}

// NewProductStore returns a ProductStore that uses the given pool.
func NewProductStore(pool *pgxpool.Pool) *ProductStore {
	return &ProductStore{pool: pool}
}

const productColumns = `id, name, description, price, inventory, sku, image_url, is_active, created_at, updated_at`

// List returns all active products ordered by name.
func (s *ProductStore) List(ctx context.Context) ([]product.Product, error) {
	rows, err := from(ctx, s.pool).Query(ctx,
		`SELECT `+productColumns+` FROM products WHERE is_active ORDER BY name`)
	if err != nil {
		return nil, fmt.Errorf("listing products: %w", err)
	}
	defer rows.Close()

	var products []product.Product
	for rows.Next() {
		p, err := scanProduct(rows)
		if err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// GetByID returns a single product by its identifier, or product.ErrNotFound.
func (s *ProductStore) GetByID(ctx context.Context, id string) (*product.Product, error) {
	row := from(ctx, s.pool).QueryRow(ctx,
		`SELECT `+productColumns+` FROM products WHERE id = $1`, id)

	p, err := scanProduct(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, fmt.Errorf("getting product %q: %w", id, err)
	}
	return &p, nil
}

// Create inserts a new catalog row.
func (s *ProductStore) Create(ctx context.Context, p *product.Product) error {
	_, err := from(ctx, s.pool).Exec(ctx, `
		INSERT INTO products (id, name, description, price, inventory, sku, image_url, is_active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		p.ID, p.Name, p.Description, p.Price, p.Inventory, p.SKU, p.ImageURL, p.Active)
	if err != nil {
		return fmt.Errorf("creating product %q: %w", p.ID, err)
	}
	return nil
}

// Update overwrites the mutable catalog fields. Inventory is not written
// here; all stock changes go through AdjustInventory.
func (s *ProductStore) Update(ctx context.Context, p *product.Product) error {
	tag, err := from(ctx, s.pool).Exec(ctx, `
		UPDATE products
		SET name = $2, description = $3, price = $4, sku = $5, image_url = $6,
		    is_active = $7, updated_at = now()
		WHERE id = $1`,
		p.ID, p.Name, p.Description, p.Price, p.SKU, p.ImageURL, p.Active)
	if err != nil {
		return fmt.Errorf("updating product %q: %w", p.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Delete removes a catalog row.
func (s *ProductStore) Delete(ctx context.Context, id string) error {
	tag, err := from(ctx, s.pool).Exec(ctx, `DELETE FROM products WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("deleting product %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// AdjustInventory applies inventory += delta as one conditional update. The
// WHERE guard keeps the count non-negative and the row lock taken by the
// UPDATE serializes concurrent reservations of the same product.
func (s *ProductStore) AdjustInventory(ctx context.Context, id string, delta int) error {
	q := from(ctx, s.pool)

	tag, err := q.Exec(ctx, `
		UPDATE products
		SET inventory = inventory + $2, updated_at = now()
		WHERE id = $1 AND inventory + $2 >= 0`,
		id, delta)
	if err != nil {
		return fmt.Errorf("adjusting inventory for %q: %w", id, err)
	}
	if tag.RowsAffected() > 0 {
		return nil
	}

	// Zero rows: either the product is gone or the floor guard rejected the
	// delta. Tell the two apart for the caller.
	var exists bool
	if err := q.QueryRow(ctx, `SELECT EXISTS (SELECT 1 FROM products WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("checking product %q: %w", id, err)
	}
	if !exists {
		return product.ErrNotFound
	}
	return product.ErrInsufficientInventory
}

func scanProduct(row pgx.Row) (product.Product, error) {
	var p product.Product
	err := row.Scan(&p.ID, &p.Name, &p.Description, &p.Price, &p.Inventory,
		&p.SKU, &p.ImageURL, &p.Active, &p.CreatedAt, &p.UpdatedAt)
	return p, err
}
