package order

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storeframe/orderd/internal/domain/product"
)

// Line is one (product, quantity) pair of a creation request.
type Line struct {
	ProductID string
	Quantity  int
}

// CreateRequest holds the input for placing an order. BillingAddress defaults
// to ShippingAddress when empty.
type CreateRequest struct {
	UserID          string
	Items           []Line
	ShippingAddress string
	BillingAddress  string
}

// UpdatePatch is a partial order update. A patch carrying only a status
// delegates to UpdateStatus; otherwise only the address fields present are
// applied and any status value is ignored. Items are never mutable through
// updates.
type UpdatePatch struct {
	Status          *Status
	ShippingAddress *string
	BillingAddress  *string
}

// Service orchestrates order placement, status transitions, and compensating
// cancellation against the product store and the order repository. Create and
// Cancel each run inside exactly one unit of work.
type Service struct {
	products product.Store
	orders   Repository
	tx       TxRunner
}

// NewService creates an order Service with the required dependencies.
func NewService(products product.Store, orders Repository, tx TxRunner) *Service {
	return &Service{
		products: products,
		orders:   orders,
		tx:       tx,
	}
}

// Create places an order: it reserves inventory for every line item, snapshots
// unit prices, and persists the order with its items atomically. Either the
// order and every inventory decrement are applied together, or none are.
//
// Inventory checks are sequential within the transaction, so two lines
// referencing the same product see the cumulative reservation.
func (s *Service) Create(ctx context.Context, req CreateRequest) (*Order, error) {
	if len(req.Items) == 0 {
		return nil, ErrEmptyItems
	}
	for _, line := range req.Items {
		if line.Quantity <= 0 {
			return nil, &InvalidQuantityError{ProductID: line.ProductID}
		}
	}

	billing := req.BillingAddress
	if billing == "" {
		billing = req.ShippingAddress
	}

	o := &Order{
		ID:              uuid.New().String(),
		UserID:          req.UserID,
		TotalAmount:     decimal.Zero,
		Status:          StatusPending,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  billing,
	}

	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		if err := s.orders.Create(ctx, o); err != nil {
			return errors.Wrap(err, "create order")
		}

		items := make([]Item, 0, len(req.Items))
		total := decimal.Zero

		for _, line := range req.Items {
			p, err := s.products.GetByID(ctx, line.ProductID)
			if err != nil {
				if errors.Is(err, product.ErrNotFound) {
					return &ProductNotFoundError{ProductID: line.ProductID}
				}
				return errors.Wrap(err, "get product")
			}

			// Reserve stock with the conditional decrement; the guard in the
			// store is what keeps inventory non-negative under concurrency.
			if err := s.products.AdjustInventory(ctx, p.ID, -line.Quantity); err != nil {
				if errors.Is(err, product.ErrInsufficientInventory) {
					return &InsufficientInventoryError{
						ProductID: p.ID,
						Requested: line.Quantity,
						Available: p.Inventory,
					}
				}
				if errors.Is(err, product.ErrNotFound) {
					return &ProductNotFoundError{ProductID: line.ProductID}
				}
				return errors.Wrap(err, "reserve inventory")
			}

			qty := decimal.NewFromInt(int64(line.Quantity))
			item := Item{
				ID:        uuid.New().String(),
				OrderID:   o.ID,
				ProductID: p.ID,
				Quantity:  line.Quantity,
				Price:     p.Price,
				Subtotal:  p.Price.Mul(qty),
			}
			items = append(items, item)
			total = total.Add(item.Subtotal)
		}

		if err := s.orders.InsertItems(ctx, items); err != nil {
			return errors.Wrap(err, "insert items")
		}
		if err := s.orders.SetTotal(ctx, o.ID, total); err != nil {
			return errors.Wrap(err, "set total")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	// Re-read after commit so the caller gets the hydrated order.
	return s.Get(ctx, o.ID)
}

// Get returns a single hydrated order or ErrNotFound.
func (s *Service) Get(ctx context.Context, id string) (*Order, error) {
	return s.orders.GetByID(ctx, id)
}

// List returns hydrated orders, restricted to one owner when userID is
// non-empty. Authorization is the gateway's concern, not the engine's.
func (s *Service) List(ctx context.Context, userID string) ([]Order, error) {
	return s.orders.List(ctx, userID)
}

// UpdateStatus overwrites the status of an order. No transition table is
// enforced here; the only guarded transition is cancellation, which goes
// through Cancel.
func (s *Service) UpdateStatus(ctx context.Context, id string, status Status) (*Order, error) {
	if _, err := s.orders.GetByID(ctx, id); err != nil {
		return nil, err
	}
	if err := s.orders.SetStatus(ctx, id, status); err != nil {
		return nil, errors.Wrap(err, "set status")
	}
	return s.Get(ctx, id)
}

// Update applies a partial update. A status-only patch delegates to
// UpdateStatus; any other patch applies just the address edits present.
func (s *Service) Update(ctx context.Context, id string, patch UpdatePatch) (*Order, error) {
	if patch.Status != nil && patch.ShippingAddress == nil && patch.BillingAddress == nil {
		return s.UpdateStatus(ctx, id, *patch.Status)
	}

	o, err := s.orders.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	shipping := o.ShippingAddress
	billing := o.BillingAddress
	if patch.ShippingAddress != nil {
		shipping = *patch.ShippingAddress
	}
	if patch.BillingAddress != nil {
		billing = *patch.BillingAddress
	}

	if err := s.orders.SetAddresses(ctx, id, shipping, billing); err != nil {
		return nil, errors.Wrap(err, "set addresses")
	}
	return s.Get(ctx, id)
}

// Cancel cancels a pending order and restores exactly the quantities it
// reserved. The status flip and every inventory increment commit together or
// not at all. Cancelling a non-pending order fails with InvalidTransitionError
// and changes nothing.
func (s *Service) Cancel(ctx context.Context, id string) (*Order, error) {
	err := s.tx.WithinTx(ctx, func(ctx context.Context) error {
		o, err := s.orders.GetByID(ctx, id)
		if err != nil {
			return err
		}
		if o.Status != StatusPending {
			return &InvalidTransitionError{From: o.Status}
		}

		for _, item := range o.Items {
			if err := s.products.AdjustInventory(ctx, item.ProductID, item.Quantity); err != nil {
				return errors.Wrap(err, "restore inventory")
			}
		}

		if err := s.orders.SetStatus(ctx, id, StatusCancelled); err != nil {
			return errors.Wrap(err, "set status")
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	return s.Get(ctx, id)
}
