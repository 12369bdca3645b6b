// Package handler exposes the service over HTTP: JSON request decoding,
// route registration, error mapping, and the authentication/authorization
// gate in front of the order engine.
package handler

import (
	"encoding/json"
	"net/http"

	"github.com/go-faster/sdk/zctx"
	"go.uber.org/zap"

	"github.com/storeframe/orderd/internal/auth"
	"github.com/storeframe/orderd/internal/domain/customer"
	"github.com/storeframe/orderd/internal/domain/order"
	"github.com/storeframe/orderd/internal/domain/product"
)

// Handler routes API requests to the domain services.
type Handler struct {
	orders    *order.Service
	products  product.Store
	customers customer.Repository
	auth      *auth.Service
}

// NewHandler constructs a Handler with the required domain dependencies.
func NewHandler(
	orders *order.Service,
	products product.Store,
	customers customer.Repository,
	authSvc *auth.Service,
) *Handler {
	return &Handler{
		orders:    orders,
		products:  products,
		customers: customers,
		auth:      authSvc,
	}
}

// Register adds all API routes to mux under /api. Routes that require a
// caller identity are wrapped with the authentication gate; admin routes
// additionally require the admin role.
func (h *Handler) Register(mux *http.ServeMux) {
	authed := h.authenticate
	admin := func(fn http.HandlerFunc) http.HandlerFunc { return h.authenticate(h.requireAdmin(fn)) }

	mux.HandleFunc("POST /api/auth/register", h.register)
	mux.HandleFunc("POST /api/auth/login", h.login)

	mux.HandleFunc("GET /api/products", h.listProducts)
	mux.HandleFunc("GET /api/products/{id}", h.getProduct)
	mux.HandleFunc("POST /api/products", admin(h.createProduct))
	mux.HandleFunc("PATCH /api/products/{id}", admin(h.updateProduct))
	mux.HandleFunc("DELETE /api/products/{id}", admin(h.deleteProduct))
	mux.HandleFunc("POST /api/products/{id}/inventory", admin(h.adjustInventory))

	mux.HandleFunc("POST /api/orders", authed(h.createOrder))
	mux.HandleFunc("GET /api/orders", admin(h.listOrders))
	mux.HandleFunc("GET /api/orders/mine", authed(h.listMyOrders))
	mux.HandleFunc("GET /api/orders/{id}", authed(h.getOrder))
	mux.HandleFunc("PATCH /api/orders/{id}/status", authed(h.updateOrderStatus))
	mux.HandleFunc("PATCH /api/orders/{id}", authed(h.updateOrder))
	mux.HandleFunc("POST /api/orders/{id}/cancel", authed(h.cancelOrder))

	mux.HandleFunc("POST /api/customers", admin(h.createCustomer))
	mux.HandleFunc("GET /api/customers", admin(h.listCustomers))
	mux.HandleFunc("GET /api/customers/{id}", admin(h.getCustomer))
	mux.HandleFunc("PATCH /api/customers/{id}", admin(h.updateCustomer))
	mux.HandleFunc("DELETE /api/customers/{id}", admin(h.deleteCustomer))
}

// errorResponse is the JSON error envelope for every non-2xx response.
type errorResponse struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, errorResponse{Code: status, Message: message})
}

// respondInternal logs the error and hides its detail from the client.
func respondInternal(w http.ResponseWriter, r *http.Request, err error) {
	zctx.From(r.Context()).Error("request failed", zap.Error(err))
	respondError(w, http.StatusInternalServerError, "internal server error")
}

// decode parses a JSON request body into dst, responding 400 on failure.
func decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return false
	}
	return true
}
