package customer

import (
	"context"
	"time"

	"github.com/go-faster/errors"
)

// Sentinel errors for customer lookup and creation.
var (
	ErrNotFound   = errors.New("customer not found")
	ErrEmailTaken = errors.New("customer with this email already exists")
)

// Customer is a CRM record, distinct from a login account.
type Customer struct {
	ID        string
	Email     string
	FirstName string
	LastName  string
	Phone     string
	Address   string
	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Repository defines persistence operations for customers. List pages with
// limit/offset.
type Repository interface {
	Create(ctx context.Context, c *Customer) error
	GetByID(ctx context.Context, id string) (*Customer, error)
	List(ctx context.Context, limit, offset int) ([]Customer, error)
	Update(ctx context.Context, c *Customer) error
	Delete(ctx context.Context, id string) error
}
