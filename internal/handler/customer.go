package handler

import (
	"net/http"
	"strconv"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/storeframe/orderd/internal/domain/customer"
)

type createCustomerRequest struct {
	Email     string `json:"email"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
}

type updateCustomerRequest struct {
	Email     *string `json:"email,omitempty"`
	FirstName *string `json:"firstName,omitempty"`
	LastName  *string `json:"lastName,omitempty"`
	Phone     *string `json:"phone,omitempty"`
	Address   *string `json:"address,omitempty"`
	Active    *bool   `json:"isActive,omitempty"`
}

type customerResponse struct {
	ID        string `json:"id"`
	Email     string `json:"email"`
	FirstName string `json:"firstName"`
	LastName  string `json:"lastName"`
	Phone     string `json:"phone,omitempty"`
	Address   string `json:"address,omitempty"`
	Active    bool   `json:"isActive"`
}

func toCustomerResponse(c *customer.Customer) customerResponse {
	return customerResponse{
		ID:        c.ID,
		Email:     c.Email,
		FirstName: c.FirstName,
		LastName:  c.LastName,
		Phone:     c.Phone,
		Address:   c.Address,
		Active:    c.Active,
	}
}

func (h *Handler) createCustomer(w http.ResponseWriter, r *http.Request) {
	var req createCustomerRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Email == "" {
		respondError(w, http.StatusBadRequest, "email required")
		return
	}

	c := &customer.Customer{
		ID:        uuid.New().String(),
		Email:     req.Email,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Phone:     req.Phone,
		Address:   req.Address,
		Active:    true,
	}
	if err := h.customers.Create(r.Context(), c); err != nil {
		h.mapCustomerError(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toCustomerResponse(c))
}

func (h *Handler) getCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.customers.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.mapCustomerError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCustomerResponse(c))
}

func (h *Handler) listCustomers(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	offset := queryInt(r, "offset", 0)
	if limit <= 0 || limit > 200 || offset < 0 {
		respondError(w, http.StatusBadRequest, "invalid pagination parameters")
		return
	}

	customers, err := h.customers.List(r.Context(), limit, offset)
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	resp := make([]customerResponse, len(customers))
	for i := range customers {
		resp[i] = toCustomerResponse(&customers[i])
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) updateCustomer(w http.ResponseWriter, r *http.Request) {
	c, err := h.customers.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.mapCustomerError(w, r, err)
		return
	}

	var req updateCustomerRequest
	if !decode(w, r, &req) {
		return
	}

	if req.Email != nil {
		c.Email = *req.Email
	}
	if req.FirstName != nil {
		c.FirstName = *req.FirstName
	}
	if req.LastName != nil {
		c.LastName = *req.LastName
	}
	if req.Phone != nil {
		c.Phone = *req.Phone
	}
	if req.Address != nil {
		c.Address = *req.Address
	}
	if req.Active != nil {
		c.Active = *req.Active
	}

	if err := h.customers.Update(r.Context(), c); err != nil {
		h.mapCustomerError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toCustomerResponse(c))
}

func (h *Handler) deleteCustomer(w http.ResponseWriter, r *http.Request) {
	if err := h.customers.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.mapCustomerError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) mapCustomerError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, customer.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, customer.ErrEmailTaken):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondInternal(w, r, err)
	}
}

func queryInt(r *http.Request, key string, def int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return -1
	}
	return n
}
