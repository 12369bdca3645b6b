package order

import (
	"context"
	"time"

	"github.com/shopspring/decimal"

	"github.com/storeframe/orderd/internal/domain/product"
)

// Status is the lifecycle state of an order.
type Status string

// Order statuses. Only the cancellation transition is guarded (pending only);
// the remaining transition graph is deliberately left open, see Service.UpdateStatus.
const (
	StatusPending   Status = "pending"
	StatusPaid      Status = "paid"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

// ParseStatus validates a raw status value against the known set.
func ParseStatus(s string) (Status, error) {
	switch st := Status(s); st {
	case StatusPending, StatusPaid, StatusShipped, StatusDelivered, StatusCancelled:
		return st, nil
	default:
		return "", &UnknownStatusError{Value: s}
	}
}

// Order is a customer order with its line items.
type Order struct {
	ID              string
	UserID          string
	TotalAmount     decimal.Decimal
	Status          Status
	ShippingAddress string
	BillingAddress  string
	Items           []Item
	CreatedAt       time.Time
	UpdatedAt       time.Time
}

// Item is a single order line. Price is the unit price snapshotted at order
// creation time; later catalog price changes do not affect it.
type Item struct {
	ID        string
	OrderID   string
	ProductID string
	Quantity  int
	Price     decimal.Decimal
	Subtotal  decimal.Decimal

	// Product carries the referenced catalog row when the item was loaded
	// through a hydrating read. Nil on writes.
	Product *product.Product
}

// Repository defines persistence operations for orders and their items.
// Write methods participate in the caller's unit of work when one is active
// on the context.
type Repository interface {
	Create(ctx context.Context, o *Order) error
	InsertItems(ctx context.Context, items []Item) error
	SetTotal(ctx context.Context, id string, total decimal.Decimal) error
	SetStatus(ctx context.Context, id string, status Status) error
	SetAddresses(ctx context.Context, id, shipping, billing string) error

	// GetByID returns the order with items and referenced products resolved.
	// It returns ErrNotFound when the id does not exist.
	GetByID(ctx context.Context, id string) (*Order, error)

	// List returns hydrated orders, restricted to one owner when userID is
	// non-empty.
	List(ctx context.Context, userID string) ([]Order, error)
}

// TxRunner scopes a function to a single storage transaction. The
// implementation must commit when fn returns nil and roll back every write
// when fn returns an error or panics, releasing the transaction on every
// exit path.
type TxRunner interface {
	WithinTx(ctx context.Context, fn func(ctx context.Context) error) error
}
