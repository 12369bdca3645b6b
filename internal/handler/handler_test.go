package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/storeframe/orderd/internal/auth"
	"github.com/storeframe/orderd/internal/domain/customer"
	"github.com/storeframe/orderd/internal/domain/order"
	"github.com/storeframe/orderd/internal/domain/product"
	"github.com/storeframe/orderd/internal/domain/user"
)

// Shared in-memory backend for gateway tests. One mutex-guarded state bag
// implements product.Store, order.Repository, order.TxRunner (snapshot
// rollback), user.Repository, and customer.Repository.

type memBackend struct {
	mu        sync.Mutex
	products  map[string]*product.Product
	orders    map[string]*order.Order
	items     map[string][]order.Item
	users     map[string]*user.User
	customers map[string]*customer.Customer
}

type memTxKey struct{}

func newMemBackend() *memBackend {
	return &memBackend{
		products:  make(map[string]*product.Product),
		orders:    make(map[string]*order.Order),
		items:     make(map[string][]order.Item),
		users:     make(map[string]*user.User),
		customers: make(map[string]*customer.Customer),
	}
}

func (b *memBackend) lock(ctx context.Context) func() {
	if ctx.Value(memTxKey{}) != nil {
		return func() {}
	}
	b.mu.Lock()
	return b.mu.Unlock
}

func (b *memBackend) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	snapProducts := make(map[string]*product.Product, len(b.products))
	for id, p := range b.products {
		cp := *p
		snapProducts[id] = &cp
	}
	snapOrders := make(map[string]*order.Order, len(b.orders))
	for id, o := range b.orders {
		co := *o
		snapOrders[id] = &co
	}
	snapItems := make(map[string][]order.Item, len(b.items))
	for id, items := range b.items {
		snapItems[id] = append([]order.Item(nil), items...)
	}

	if err := fn(context.WithValue(ctx, memTxKey{}, true)); err != nil {
		b.products = snapProducts
		b.orders = snapOrders
		b.items = snapItems
		return err
	}
	return nil
}

// product.Store

func (b *memBackend) List(ctx context.Context) ([]product.Product, error) {
	defer b.lock(ctx)()
	var out []product.Product
	for _, p := range b.products {
		if p.Active {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (b *memBackend) GetByID(ctx context.Context, id string) (*product.Product, error) {
	defer b.lock(ctx)()
	p, ok := b.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	cp := *p
	return &cp, nil
}

func (b *memBackend) Create(ctx context.Context, p *product.Product) error {
	defer b.lock(ctx)()
	cp := *p
	b.products[p.ID] = &cp
	return nil
}

func (b *memBackend) Update(ctx context.Context, p *product.Product) error {
	defer b.lock(ctx)()
	if _, ok := b.products[p.ID]; !ok {
		return product.ErrNotFound
	}
	cp := *p
	b.products[p.ID] = &cp
	return nil
}

func (b *memBackend) Delete(ctx context.Context, id string) error {
	defer b.lock(ctx)()
	if _, ok := b.products[id]; !ok {
		return product.ErrNotFound
	}
	delete(b.products, id)
	return nil
}

func (b *memBackend) AdjustInventory(ctx context.Context, id string, delta int) error {
	defer b.lock(ctx)()
	p, ok := b.products[id]
	if !ok {
		return product.ErrNotFound
	}
	if p.Inventory+delta < 0 {
		return product.ErrInsufficientInventory
	}
	p.Inventory += delta
	return nil
}

// order.Repository

type memOrders struct{ *memBackend }

func (b *memBackend) orderRepo() order.Repository { return memOrders{b} }

func (r memOrders) Create(ctx context.Context, o *order.Order) error {
	defer r.lock(ctx)()
	co := *o
	r.orders[o.ID] = &co
	return nil
}

func (r memOrders) InsertItems(ctx context.Context, items []order.Item) error {
	defer r.lock(ctx)()
	for _, it := range items {
		r.items[it.OrderID] = append(r.items[it.OrderID], it)
	}
	return nil
}

func (r memOrders) SetTotal(ctx context.Context, id string, total decimal.Decimal) error {
	defer r.lock(ctx)()
	o, ok := r.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.TotalAmount = total
	return nil
}

func (r memOrders) SetStatus(ctx context.Context, id string, status order.Status) error {
	defer r.lock(ctx)()
	o, ok := r.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.Status = status
	return nil
}

func (r memOrders) SetAddresses(ctx context.Context, id, shipping, billing string) error {
	defer r.lock(ctx)()
	o, ok := r.orders[id]
	if !ok {
		return order.ErrNotFound
	}
	o.ShippingAddress = shipping
	o.BillingAddress = billing
	return nil
}

func (r memOrders) GetByID(ctx context.Context, id string) (*order.Order, error) {
	defer r.lock(ctx)()
	return r.hydrate(id)
}

func (r memOrders) List(ctx context.Context, userID string) ([]order.Order, error) {
	defer r.lock(ctx)()
	var out []order.Order
	for id, o := range r.orders {
		if userID != "" && o.UserID != userID {
			continue
		}
		h, _ := r.hydrate(id)
		out = append(out, *h)
	}
	return out, nil
}

func (r memOrders) hydrate(id string) (*order.Order, error) {
	o, ok := r.orders[id]
	if !ok {
		return nil, order.ErrNotFound
	}
	co := *o
	for _, it := range r.items[id] {
		if p, ok := r.products[it.ProductID]; ok {
			cp := *p
			it.Product = &cp
		}
		co.Items = append(co.Items, it)
	}
	return &co, nil
}

// user.Repository

type memUsers struct{ *memBackend }

func (b *memBackend) userRepo() user.Repository { return memUsers{b} }

func (r memUsers) Create(ctx context.Context, u *user.User) error {
	defer r.lock(ctx)()
	for _, existing := range r.users {
		if existing.Email == u.Email {
			return user.ErrEmailTaken
		}
	}
	cu := *u
	r.users[u.ID] = &cu
	return nil
}

func (r memUsers) GetByEmail(ctx context.Context, email string) (*user.User, error) {
	defer r.lock(ctx)()
	for _, u := range r.users {
		if u.Email == email {
			cu := *u
			return &cu, nil
		}
	}
	return nil, user.ErrNotFound
}

func (r memUsers) GetByID(ctx context.Context, id string) (*user.User, error) {
	defer r.lock(ctx)()
	u, ok := r.users[id]
	if !ok {
		return nil, user.ErrNotFound
	}
	cu := *u
	return &cu, nil
}

// customer.Repository

type memCustomers struct{ *memBackend }

func (b *memBackend) customerRepo() customer.Repository { return memCustomers{b} }

func (r memCustomers) Create(ctx context.Context, c *customer.Customer) error {
	defer r.lock(ctx)()
	for _, existing := range r.customers {
		if existing.Email == c.Email {
			return customer.ErrEmailTaken
		}
	}
	cc := *c
	r.customers[c.ID] = &cc
	return nil
}

func (r memCustomers) GetByID(ctx context.Context, id string) (*customer.Customer, error) {
	defer r.lock(ctx)()
	c, ok := r.customers[id]
	if !ok {
		return nil, customer.ErrNotFound
	}
	cc := *c
	return &cc, nil
}

func (r memCustomers) List(ctx context.Context, limit, offset int) ([]customer.Customer, error) {
	defer r.lock(ctx)()
	var out []customer.Customer
	for _, c := range r.customers {
		out = append(out, *c)
	}
	if offset >= len(out) {
		return nil, nil
	}
	out = out[offset:]
	if limit < len(out) {
		out = out[:limit]
	}
	return out, nil
}

func (r memCustomers) Update(ctx context.Context, c *customer.Customer) error {
	defer r.lock(ctx)()
	if _, ok := r.customers[c.ID]; !ok {
		return customer.ErrNotFound
	}
	cc := *c
	r.customers[c.ID] = &cc
	return nil
}

func (r memCustomers) Delete(ctx context.Context, id string) error {
	defer r.lock(ctx)()
	if _, ok := r.customers[id]; !ok {
		return customer.ErrNotFound
	}
	delete(r.customers, id)
	return nil
}

// --- Test harness ---

type testEnv struct {
	mux     *http.ServeMux
	backend *memBackend
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	backend := newMemBackend()
	authSvc := auth.NewService(backend.userRepo(), []byte("test-secret"), time.Hour)
	orderSvc := order.NewService(backend, backend.orderRepo(), backend)

	h := NewHandler(orderSvc, backend, backend.customerRepo(), authSvc)
	mux := http.NewServeMux()
	h.Register(mux)

	return &testEnv{mux: mux, backend: backend}
}

// registerUser creates an account through the API and returns its id and token.
func (e *testEnv) registerUser(t *testing.T, email string) (string, string) {
	t.Helper()

	rec := e.do(t, http.MethodPost, "/api/auth/register", "", map[string]any{
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var resp struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.User.ID, resp.AccessToken
}

// registerAdmin registers a user and grants it the admin role directly in the
// backend, then logs in again so the token carries the new role set.
func (e *testEnv) registerAdmin(t *testing.T, email string) string {
	t.Helper()

	id, _ := e.registerUser(t, email)
	e.backend.mu.Lock()
	e.backend.users[id].Roles = []string{user.RoleUser, user.RoleAdmin}
	e.backend.mu.Unlock()

	rec := e.do(t, http.MethodPost, "/api/auth/login", "", map[string]any{
		"email":    email,
		"password": "secret123",
	})
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var resp struct {
		AccessToken string `json:"accessToken"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	return resp.AccessToken
}

func (e *testEnv) addProduct(t *testing.T, id, name, price string, inventory int) {
	t.Helper()
	err := e.backend.Create(context.Background(), &product.Product{
		ID:        id,
		Name:      name,
		Price:     decimal.RequireFromString(price),
		Inventory: inventory,
		Active:    true,
	})
	require.NoError(t, err)
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(buf)
	}

	req := httptest.NewRequest(method, path, reader)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	e.mux.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}
