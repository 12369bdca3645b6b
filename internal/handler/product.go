package handler

import (
	"net/http"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storeframe/orderd/internal/domain/product"
)

type createProductRequest struct {
	Name        string  `json:"name"`
	Description string  `json:"description,omitempty"`
	Price       string  `json:"price"`
	Inventory   int     `json:"inventory,omitempty"`
	SKU         string  `json:"sku,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Active      *bool   `json:"isActive,omitempty"`
}

type updateProductRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	Price       *string `json:"price,omitempty"`
	SKU         *string `json:"sku,omitempty"`
	ImageURL    *string `json:"imageUrl,omitempty"`
	Active      *bool   `json:"isActive,omitempty"`
}

type adjustInventoryRequest struct {
	Delta int `json:"delta"`
}

type productResponse struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Inventory   int     `json:"inventory"`
	SKU         string  `json:"sku,omitempty"`
	ImageURL    string  `json:"imageUrl,omitempty"`
	Active      bool    `json:"isActive"`
}

func toProductResponse(p *product.Product) productResponse {
	return productResponse{
		ID:          p.ID,
		Name:        p.Name,
		Description: p.Description,
		Price:       p.Price.InexactFloat64(),
		Inventory:   p.Inventory,
		SKU:         p.SKU,
		ImageURL:    p.ImageURL,
		Active:      p.Active,
	}
}

func (h *Handler) listProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.products.List(r.Context())
	if err != nil {
		respondInternal(w, r, err)
		return
	}

	resp := make([]productResponse, len(products))
	for i := range products {
		resp[i] = toProductResponse(&products[i])
	}
	respondJSON(w, http.StatusOK, resp)
}

func (h *Handler) getProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.mapProductError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) createProduct(w http.ResponseWriter, r *http.Request) {
	var req createProductRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name required")
		return
	}
	price, err := decimal.NewFromString(req.Price)
	if err != nil || price.IsNegative() {
		respondError(w, http.StatusBadRequest, "price must be a non-negative decimal")
		return
	}
	if req.Inventory < 0 {
		respondError(w, http.StatusBadRequest, "inventory must not be negative")
		return
	}

	p := &product.Product{
		ID:          uuid.New().String(),
		Name:        req.Name,
		Description: req.Description,
		Price:       price,
		Inventory:   req.Inventory,
		SKU:         req.SKU,
		ImageURL:    req.ImageURL,
		Active:      true,
	}
	if req.Active != nil {
		p.Active = *req.Active
	}

	if err := h.products.Create(r.Context(), p); err != nil {
		respondInternal(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, toProductResponse(p))
}

func (h *Handler) updateProduct(w http.ResponseWriter, r *http.Request) {
	p, err := h.products.GetByID(r.Context(), r.PathValue("id"))
	if err != nil {
		h.mapProductError(w, r, err)
		return
	}

	var req updateProductRequest
	if !decode(w, r, &req) {
		return
	}

	if req.Name != nil {
		p.Name = *req.Name
	}
	if req.Description != nil {
		p.Description = *req.Description
	}
	if req.Price != nil {
		// A price change never touches existing orders; their items keep the
		// snapshotted price.
		price, err := decimal.NewFromString(*req.Price)
		if err != nil || price.IsNegative() {
			respondError(w, http.StatusBadRequest, "price must be a non-negative decimal")
			return
		}
		p.Price = price
	}
	if req.SKU != nil {
		p.SKU = *req.SKU
	}
	if req.ImageURL != nil {
		p.ImageURL = *req.ImageURL
	}
	if req.Active != nil {
		p.Active = *req.Active
	}

	if err := h.products.Update(r.Context(), p); err != nil {
		h.mapProductError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) deleteProduct(w http.ResponseWriter, r *http.Request) {
	if err := h.products.Delete(r.Context(), r.PathValue("id")); err != nil {
		h.mapProductError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// adjustInventory restocks (positive delta) or writes off (negative delta)
// stock through the same conditional primitive order placement uses.
func (h *Handler) adjustInventory(w http.ResponseWriter, r *http.Request) {
	var req adjustInventoryRequest
	if !decode(w, r, &req) {
		return
	}
	if req.Delta == 0 {
		respondError(w, http.StatusBadRequest, "delta must not be zero")
		return
	}

	id := r.PathValue("id")
	if err := h.products.AdjustInventory(r.Context(), id, req.Delta); err != nil {
		h.mapProductError(w, r, err)
		return
	}

	p, err := h.products.GetByID(r.Context(), id)
	if err != nil {
		h.mapProductError(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, toProductResponse(p))
}

func (h *Handler) mapProductError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, product.ErrNotFound):
		respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, product.ErrInsufficientInventory):
		respondError(w, http.StatusConflict, err.Error())
	default:
		respondInternal(w, r, err)
	}
}
