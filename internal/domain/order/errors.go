package order

import (
	"fmt"

	"github.com/go-faster/errors"
)

// Sentinel errors for order validation and lookup.
var (
	ErrNotFound   = errors.New("order not found")
	ErrEmptyItems = errors.New("items required")
)

// ProductNotFoundError indicates a line item references a product that does
// not exist.
type ProductNotFoundError struct {
	ProductID string
}

func (e *ProductNotFoundError) Error() string {
	return fmt.Sprintf("product %s not found", e.ProductID)
}

// InvalidQuantityError indicates a line item has a non-positive quantity.
type InvalidQuantityError struct {
	ProductID string
}

func (e *InvalidQuantityError) Error() string {
	return fmt.Sprintf("quantity must be greater than 0 for product %s", e.ProductID)
}

// InsufficientInventoryError indicates a reservation asked for more units
// than the product has in stock. Available reflects the stock as observed
// inside the failing unit of work, including reservations made by earlier
// items of the same order.
type InsufficientInventoryError struct {
	ProductID string
	Requested int
	Available int
}

func (e *InsufficientInventoryError) Error() string {
	return fmt.Sprintf("insufficient inventory for product %s: requested %d, available %d",
		e.ProductID, e.Requested, e.Available)
}

// InvalidTransitionError indicates a cancellation was attempted on an order
// that is no longer pending.
type InvalidTransitionError struct {
	From Status
}

func (e *InvalidTransitionError) Error() string {
	return fmt.Sprintf("only pending orders can be cancelled (status is %s)", e.From)
}

// UnknownStatusError indicates a status value outside the known set.
type UnknownStatusError struct {
	Value string
}

func (e *UnknownStatusError) Error() string {
	return fmt.Sprintf("unknown order status %q", e.Value)
}
