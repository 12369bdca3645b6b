package handler

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOrderRoutes_RequireToken(t *testing.T) {
	env := newTestEnv(t)

	for _, tc := range []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/api/orders"},
		{http.MethodGet, "/api/orders"},
		{http.MethodGet, "/api/orders/mine"},
		{http.MethodGet, "/api/orders/abc"},
		{http.MethodPatch, "/api/orders/abc/status"},
		{http.MethodPatch, "/api/orders/abc"},
		{http.MethodPost, "/api/orders/abc/cancel"},
	} {
		rec := env.do(t, tc.method, tc.path, "", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s", tc.method, tc.path)

		rec = env.do(t, tc.method, tc.path, "not-a-valid-token", nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code, "%s %s with bad token", tc.method, tc.path)
	}
}

func TestCreateOrderRoute(t *testing.T) {
	env := newTestEnv(t)
	userID, token := env.registerUser(t, "buyer@example.com")
	env.addProduct(t, "p1", "Widget", "10.00", 5)

	rec := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"items":           []map[string]any{{"productId": "p1", "quantity": 3}},
		"shippingAddress": "1 Main St",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	resp := decodeBody[orderResponse](t, rec)
	assert.Equal(t, userID, resp.UserID)
	assert.Equal(t, "pending", resp.Status)
	assert.InDelta(t, 30.00, resp.TotalAmount, 0.001)
	assert.Equal(t, "1 Main St", resp.ShippingAddress)
	assert.Equal(t, "1 Main St", resp.BillingAddress)
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Widget", resp.Items[0].ProductName)
	assert.InDelta(t, 10.00, resp.Items[0].Price, 0.001)
}

func TestCreateOrderRoute_Failures(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "buyer@example.com")
	env.addProduct(t, "p1", "Widget", "10.00", 2)

	t.Run("empty items", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
			"items": []map[string]any{},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unknown body field", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
			"items":   []map[string]any{{"productId": "p1", "quantity": 1}},
			"surpise": true,
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("zero quantity", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
			"items": []map[string]any{{"productId": "p1", "quantity": 0}},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("unknown product", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
			"items": []map[string]any{{"productId": "ghost", "quantity": 1}},
		})
		assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	})

	t.Run("insufficient inventory", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
			"items": []map[string]any{{"productId": "p1", "quantity": 3}},
		})
		assert.Equal(t, http.StatusConflict, rec.Code)

		body := decodeBody[errorResponse](t, rec)
		assert.Equal(t, http.StatusConflict, body.Code)
		assert.NotEmpty(t, body.Message)
	})
}

func TestOrderOwnership(t *testing.T) {
	env := newTestEnv(t)
	_, ownerToken := env.registerUser(t, "owner@example.com")
	_, strangerToken := env.registerUser(t, "stranger@example.com")
	adminToken := env.registerAdmin(t, "admin@example.com")
	env.addProduct(t, "p1", "Widget", "10.00", 10)

	rec := env.do(t, http.MethodPost, "/api/orders", ownerToken, map[string]any{
		"items": []map[string]any{{"productId": "p1", "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	orderID := decodeBody[orderResponse](t, rec).ID

	t.Run("owner reads own order", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/orders/"+orderID, ownerToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("stranger gets 403", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/orders/"+orderID, strangerToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("stranger cannot cancel", func(t *testing.T) {
		rec := env.do(t, http.MethodPost, "/api/orders/"+orderID+"/cancel", strangerToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("admin reads any order", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/orders/"+orderID, adminToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("listing all orders is admin only", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/orders", ownerToken, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = env.do(t, http.MethodGet, "/api/orders", adminToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody[[]orderResponse](t, rec), 1)
	})

	t.Run("mine lists only own orders", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/orders/mine", ownerToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Len(t, decodeBody[[]orderResponse](t, rec), 1)

		rec = env.do(t, http.MethodGet, "/api/orders/mine", strangerToken, nil)
		assert.Equal(t, http.StatusOK, rec.Code)
		assert.Empty(t, decodeBody[[]orderResponse](t, rec))
	})

	t.Run("missing order is 404", func(t *testing.T) {
		rec := env.do(t, http.MethodGet, "/api/orders/does-not-exist", ownerToken, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}

func TestUpdateOrderStatusRoute(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "buyer@example.com")
	env.addProduct(t, "p1", "Widget", "10.00", 5)

	rec := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"items": []map[string]any{{"productId": "p1", "quantity": 1}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	orderID := decodeBody[orderResponse](t, rec).ID

	rec = env.do(t, http.MethodPatch, "/api/orders/"+orderID+"/status", token, map[string]any{
		"status": "paid",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "paid", decodeBody[orderResponse](t, rec).Status)

	rec = env.do(t, http.MethodPatch, "/api/orders/"+orderID+"/status", token, map[string]any{
		"status": "teleported",
	})
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
}

func TestUpdateOrderRoute(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "buyer@example.com")
	env.addProduct(t, "p1", "Widget", "10.00", 5)

	rec := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"items":           []map[string]any{{"productId": "p1", "quantity": 1}},
		"shippingAddress": "1 Main St",
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	orderID := decodeBody[orderResponse](t, rec).ID

	rec = env.do(t, http.MethodPatch, "/api/orders/"+orderID, token, map[string]any{
		"shippingAddress": "9 New Rd",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decodeBody[orderResponse](t, rec)
	assert.Equal(t, "9 New Rd", resp.ShippingAddress)
	assert.Equal(t, "1 Main St", resp.BillingAddress)
}

func TestCancelOrderRoute(t *testing.T) {
	env := newTestEnv(t)
	_, token := env.registerUser(t, "buyer@example.com")
	env.addProduct(t, "p1", "Widget", "10.00", 5)

	rec := env.do(t, http.MethodPost, "/api/orders", token, map[string]any{
		"items": []map[string]any{{"productId": "p1", "quantity": 3}},
	})
	require.Equal(t, http.StatusCreated, rec.Code)
	orderID := decodeBody[orderResponse](t, rec).ID

	rec = env.do(t, http.MethodPost, "/api/orders/"+orderID+"/cancel", token, nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "cancelled", decodeBody[orderResponse](t, rec).Status)

	// Stock is back and a second cancel conflicts.
	p, err := env.backend.GetByID(context.Background(), "p1")
	require.NoError(t, err)
	assert.Equal(t, 5, p.Inventory)

	rec = env.do(t, http.MethodPost, "/api/orders/"+orderID+"/cancel", token, nil)
	assert.Equal(t, http.StatusConflict, rec.Code)
}
