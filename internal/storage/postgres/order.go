package postgres

import (
	"context"
	"fmt"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"github.com/storeframe/orderd/internal/domain/order"
	"github.com/storeframe/orderd/internal/domain/product"
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL. All write
// methods join the unit of work carried by the context when one is active.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Create inserts the order row. Items are inserted separately via InsertItems.
func (r *OrderRepository) Create(ctx context.Context, o *order.Order) error {
	_, err := from(ctx, r.pool).Exec(ctx, `
		INSERT INTO orders (id, user_id, total_amount, status, shipping_address, billing_address)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		o.ID, o.UserID, o.TotalAmount, string(o.Status), o.ShippingAddress, o.BillingAddress)
	if err != nil {
		return fmt.Errorf("creating order %q: %w", o.ID, err)
	}
	return nil
}

// InsertItems persists all line items of one order in a single batch,
// numbering them so reads preserve the submitted ordering.
func (r *OrderRepository) InsertItems(ctx context.Context, items []order.Item) error {
	batch := &pgx.Batch{}
	for i, item := range items {
		batch.Queue(`
			INSERT INTO order_items (id, order_id, product_id, position, quantity, price, subtotal)
			VALUES ($1, $2, $3, $4, $5, $6, $7)`,
			item.ID, item.OrderID, item.ProductID, i, item.Quantity, item.Price, item.Subtotal)
	}

	res := from(ctx, r.pool).SendBatch(ctx, batch)
	defer res.Close()
	for range items {
		if _, err := res.Exec(); err != nil {
			return fmt.Errorf("inserting order items: %w", err)
		}
	}
	return res.Close()
}

// SetTotal writes the computed total of an order.
func (r *OrderRepository) SetTotal(ctx context.Context, id string, total decimal.Decimal) error {
	tag, err := from(ctx, r.pool).Exec(ctx,
		`UPDATE orders SET total_amount = $2, updated_at = now() WHERE id = $1`, id, total)
	if err != nil {
		return fmt.Errorf("setting total for order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// SetStatus overwrites the status of an order.
func (r *OrderRepository) SetStatus(ctx context.Context, id string, status order.Status) error {
	tag, err := from(ctx, r.pool).Exec(ctx,
		`UPDATE orders SET status = $2, updated_at = now() WHERE id = $1`, id, string(status))
	if err != nil {
		return fmt.Errorf("setting status for order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// SetAddresses overwrites both address fields of an order.
func (r *OrderRepository) SetAddresses(ctx context.Context, id, shipping, billing string) error {
	tag, err := from(ctx, r.pool).Exec(ctx, `
		UPDATE orders SET shipping_address = $2, billing_address = $3, updated_at = now()
		WHERE id = $1`, id, shipping, billing)
	if err != nil {
		return fmt.Errorf("setting addresses for order %q: %w", id, err)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

const orderColumns = `id, user_id, total_amount, status, shipping_address, billing_address, created_at, updated_at`

// GetByID returns the order with its items and referenced products resolved,
// or order.ErrNotFound.
func (r *OrderRepository) GetByID(ctx context.Context, id string) (*order.Order, error) {
	q := from(ctx, r.pool)

	row := q.QueryRow(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)
	o, err := scanOrder(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, fmt.Errorf("getting order %q: %w", id, err)
	}

	itemsByOrder, err := r.loadItems(ctx, q, []string{id})
	if err != nil {
		return nil, err
	}
	o.Items = itemsByOrder[id]
	return &o, nil
}

// List returns hydrated orders newest-first, restricted to one owner when
// userID is non-empty.
func (r *OrderRepository) List(ctx context.Context, userID string) ([]order.Order, error) {
	q := from(ctx, r.pool)

	query := `SELECT ` + orderColumns + ` FROM orders ORDER BY created_at DESC`
	args := []any{}
	if userID != "" {
		query = `SELECT ` + orderColumns + ` FROM orders WHERE user_id = $1 ORDER BY created_at DESC`
		args = append(args, userID)
	}

	rows, err := q.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing orders: %w", err)
	}
	defer rows.Close()

	var orders []order.Order
	var ids []string
	for rows.Next() {
		o, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		orders = append(orders, o)
		ids = append(ids, o.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	itemsByOrder, err := r.loadItems(ctx, q, ids)
	if err != nil {
		return nil, err
	}
	for i := range orders {
		orders[i].Items = itemsByOrder[orders[i].ID]
	}
	return orders, nil
}

// loadItems fetches the items of the given orders joined with their products,
// grouped by order id and sorted by line position.
func (r *OrderRepository) loadItems(ctx context.Context, q querier, orderIDs []string) (map[string][]order.Item, error) {
	rows, err := q.Query(ctx, `
		SELECT i.id, i.order_id, i.product_id, i.quantity, i.price, i.subtotal,
		       p.id, p.name, p.description, p.price, p.inventory, p.sku, p.image_url, p.is_active,
		       p.created_at, p.updated_at
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = ANY($1)
		ORDER BY i.order_id, i.position`,
		orderIDs)
	if err != nil {
		return nil, fmt.Errorf("loading order items: %w", err)
	}
	defer rows.Close()

	items := make(map[string][]order.Item)
	for rows.Next() {
		var it order.Item
		var p product.Product
		err := rows.Scan(&it.ID, &it.OrderID, &it.ProductID, &it.Quantity, &it.Price, &it.Subtotal,
			&p.ID, &p.Name, &p.Description, &p.Price, &p.Inventory, &p.SKU, &p.ImageURL, &p.Active,
			&p.CreatedAt, &p.UpdatedAt)
		if err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}
		it.Product = &p
		items[it.OrderID] = append(items[it.OrderID], it)
	}
	return items, rows.Err()
}

func scanOrder(row pgx.Row) (order.Order, error) {
	var o order.Order
	var status string
	err := row.Scan(&o.ID, &o.UserID, &o.TotalAmount, &status,
		&o.ShippingAddress, &o.BillingAddress, &o.CreatedAt, &o.UpdatedAt)
	o.Status = order.Status(status)
	return o, err
}
