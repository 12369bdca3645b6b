package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist.
var ErrNotFound = errors.New("product not found")

// ErrInsufficientInventory is returned by Store.AdjustInventory when a
// negative delta would drive the inventory count below zero. The storage
// engine enforces the floor as part of the same conditional update, so the
// count never goes negative even under concurrent adjustments.
var ErrInsufficientInventory = errors.New("insufficient inventory")

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string
	Name        string
	Description string
	Price       decimal.Decimal
	Inventory   int
	SKU         string
	ImageURL    string
	Active      bool
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// Store defines catalog persistence plus the atomic inventory primitive used
// by order placement (negative delta) and cancellation or restock (positive
// delta).
type Store interface {
	List(ctx context.Context) ([]Product, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Create(ctx context.Context, p *Product) error
	Update(ctx context.Context, p *Product) error
	Delete(ctx context.Context, id string) error

	// AdjustInventory applies inventory += delta as a single conditional
	// update guarded by inventory + delta >= 0. It returns ErrNotFound when
	// the product does not exist and ErrInsufficientInventory when the guard
	// rejects the delta. When called inside a unit of work it participates
	// in the caller's transaction.
	AdjustInventory(ctx context.Context, id string, delta int) error
}
