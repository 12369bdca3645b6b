package handler

import (
	"net/http"
	"time"

	"github.com/go-faster/errors"

	"github.com/storeframe/orderd/internal/auth"
	"github.com/storeframe/orderd/internal/domain/order"
)

type orderLineRequest struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type createOrderRequest struct {
	Items           []orderLineRequest `json:"items"`
	ShippingAddress string             `json:"shippingAddress"`
	BillingAddress  string             `json:"billingAddress,omitempty"`
}

type updateStatusRequest struct {
	Status string `json:"status"`
}

type updateOrderRequest struct {
	Status          *string `json:"status,omitempty"`
	ShippingAddress *string `json:"shippingAddress,omitempty"`
	BillingAddress  *string `json:"billingAddress,omitempty"`
}

type orderItemResponse struct {
	ID          string  `json:"id"`
	ProductID   string  `json:"productId"`
	ProductName string  `json:"productName,omitempty"`
	Quantity    int     `json:"quantity"`
	Price       float64 `json:"price"`
	Subtotal    float64 `json:"subtotal"`
}

type orderResponse struct {
	ID              string              `json:"id"`
	UserID          string              `json:"userId"`
	TotalAmount     float64             `json:"totalAmount"`
	Status          string              `json:"status"`
	ShippingAddress string              `json:"shippingAddress"`
	BillingAddress  string              `json:"billingAddress"`
	Items           []orderItemResponse `json:"items"`
	CreatedAt       time.Time           `json:"createdAt"`
	UpdatedAt       time.Time           `json:"updatedAt"`
}

func toOrderResponse(o *order.Order) orderResponse {
	items := make([]orderItemResponse, len(o.Items))
	for i, it := range o.Items {
		items[i] = orderItemResponse{
			ID:        it.ID,
			ProductID: it.ProductID,
			Quantity:  it.Quantity,
			Price:     it.Price.InexactFloat64(),
			Subtotal:  it.Subtotal.InexactFloat64(),
		}
		if it.Product != nil {
			items[i].ProductName = it.Product.Name
		}
	}
	return orderResponse{
		ID:              o.ID,
		UserID:          o.UserID,
		TotalAmount:     o.TotalAmount.InexactFloat64(),
		Status:          string(o.Status),
		ShippingAddress: o.ShippingAddress,
		BillingAddress:  o.BillingAddress,
		Items:           items,
		CreatedAt:       o.CreatedAt,
		UpdatedAt:       o.UpdatedAt,
	}
}

func (h *Handler) createOrder(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	var req createOrderRequest
	if !decode(w, r, &req) {
		return
	}

	lines := make([]order.Line, len(req.Items))
	for i, it := range req.Items {
		lines[i] = order.Line{ProductID: it.ProductID, Quantity: it.Quantity}
	}

	o, err := h.orders.Create(r.Context(), order.CreateRequest{
		UserID:          id.UserID,
		Items:           lines,
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
	})
	if err != nil {
		h.mapOrderError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, toOrderResponse(o))
}

func (h *Handler) listOrders(w http.ResponseWriter, r *http.Request) {
	orders, err := h.orders.List(r.Context(), "")
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	h.respondOrders(w, orders)
}

func (h *Handler) listMyOrders(w http.ResponseWriter, r *http.Request) {
	id, _ := identityFrom(r.Context())

	orders, err := h.orders.List(r.Context(), id.UserID)
	if err != nil {
		respondInternal(w, r, err)
		return
	}
	h.respondOrders(w, orders)
}

func (h *Handler) respondOrders(w http.ResponseWriter, orders []order.Order) {
	resp := make([]orderResponse, len(orders))
	for i := range orders {
		resp[i] = toOrderResponse(&orders[i])
	}
	respondJSON(w, http.StatusOK, resp)
}

// loadOwnedOrder fetches the order and applies the ownership predicate.
// It writes the error response and returns nil when access is denied or the
// order does not exist.
func (h *Handler) loadOwnedOrder(w http.ResponseWriter, r *http.Request) *order.Order {
	id, _ := identityFrom(r.Context())

	o, err := h.orders.Get(r.Context(), r.PathValue("id"))
	if err != nil {
		h.mapOrderError(w, r, err)
		return nil
	}
	if !auth.CanAccessOrder(id, o.UserID) {
		respondError(w, http.StatusForbidden, "you do not have access to this order")
		return nil
	}
	return o
}

func (h *Handler) getOrder(w http.ResponseWriter, r *http.Request) {
	o := h.loadOwnedOrder(w, r)
	if o == nil {
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(o))
}

func (h *Handler) updateOrderStatus(w http.ResponseWriter, r *http.Request) {
	o := h.loadOwnedOrder(w, r)
	if o == nil {
		return
	}

	var req updateStatusRequest
	if !decode(w, r, &req) {
		return
	}
	status, err := order.ParseStatus(req.Status)
	if err != nil {
		h.mapOrderError(w, r, err)
		return
	}

	updated, err := h.orders.UpdateStatus(r.Context(), o.ID, status)
	if err != nil {
		h.mapOrderError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(updated))
}

func (h *Handler) updateOrder(w http.ResponseWriter, r *http.Request) {
	o := h.loadOwnedOrder(w, r)
	if o == nil {
		return
	}

	var req updateOrderRequest
	if !decode(w, r, &req) {
		return
	}

	patch := order.UpdatePatch{
		ShippingAddress: req.ShippingAddress,
		BillingAddress:  req.BillingAddress,
	}
	if req.Status != nil {
		status, err := order.ParseStatus(*req.Status)
		if err != nil {
			h.mapOrderError(w, r, err)
			return
		}
		patch.Status = &status
	}

	updated, err := h.orders.Update(r.Context(), o.ID, patch)
	if err != nil {
		h.mapOrderError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(updated))
}

func (h *Handler) cancelOrder(w http.ResponseWriter, r *http.Request) {
	o := h.loadOwnedOrder(w, r)
	if o == nil {
		return
	}

	cancelled, err := h.orders.Cancel(r.Context(), o.ID)
	if err != nil {
		h.mapOrderError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toOrderResponse(cancelled))
}

// mapOrderError translates engine errors into client-visible failures.
func (h *Handler) mapOrderError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		iqErr  *order.InvalidQuantityError
		pnfErr *order.ProductNotFoundError
		iiErr  *order.InsufficientInventoryError
		itErr  *order.InvalidTransitionError
		usErr  *order.UnknownStatusError
	)

	switch {
	case errors.Is(err, order.ErrEmptyItems):
		respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, order.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.As(err, &iqErr), errors.As(err, &usErr):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &pnfErr):
		respondError(w, http.StatusUnprocessableEntity, err.Error())
	case errors.As(err, &iiErr), errors.As(err, &itErr):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondInternal(w, r, err)
	}
}
