package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sushovancpp/urmart/internal/domain/auth"
	"github.com/sushovancpp/urmart/internal/domain/cart"
	"github.com/sushovancpp/urmart/internal/domain/coupon"
	"github.com/sushovancpp/urmart/internal/domain/order"
	"github.com/sushovancpp/urmart/internal/domain/product"
	"github.com/sushovancpp/urmart/internal/domain/review"
)

// --- Fakes ---

type fakeTokens map[string]auth.Identity

func (f fakeTokens) Verify(token string) (auth.Identity, error) {
	if token == "expired" {
		return auth.Identity{}, auth.ErrTokenExpired
	}
	id, ok := f[token]
	if !ok {
		return auth.Identity{}, auth.ErrTokenInvalid
	}
	return id, nil
}

var testTokens = fakeTokens{
	"user":  {UserID: "u1", Role: auth.RoleUser},
	"admin": {UserID: "a1", Role: auth.RoleAdmin},
}

type fakeCarts struct {
	addErr   error
	added    []string
	synced   []cart.GuestItem
	view     *cart.View
	clearErr error
}

func (f *fakeCarts) View(context.Context, string) (*cart.View, error) { return f.view, nil }

func (f *fakeCarts) AddItem(_ context.Context, userID, productID string, qty int) error {
	if f.addErr != nil {
		return f.addErr
	}
	f.added = append(f.added, userID+":"+productID+":"+strconv.Itoa(qty))
	return nil
}

func (f *fakeCarts) SetQuantity(context.Context, string, string, int) error { return nil }

func (f *fakeCarts) Remove(context.Context, string, string) error { return cart.ErrLineNotFound }

func (f *fakeCarts) Clear(context.Context, string) error { return f.clearErr }

func (f *fakeCarts) SyncGuestCart(_ context.Context, _ string, items []cart.GuestItem) (*cart.SyncResult, error) {
	f.synced = items
	return &cart.SyncResult{Merged: len(items)}, nil
}

type fakeCatalog struct {
	products map[string]*product.Product
	filter   product.Filter
}

func (f *fakeCatalog) List(_ context.Context, flt product.Filter) (*product.Page, error) {
	f.filter = flt
	var out []product.Product
	for _, p := range f.products {
		out = append(out, *p)
	}
	return &product.Page{Items: out, Total: 42}, nil
}

func (f *fakeCatalog) GetByID(_ context.Context, id string) (*product.Product, error) {
	p, ok := f.products[id]
	if !ok {
		return nil, product.ErrNotFound
	}
	return p, nil
}

func (f *fakeCatalog) Featured(context.Context, int) ([]product.Product, error) { return nil, nil }
func (f *fakeCatalog) Trending(context.Context, int) ([]product.Product, error) { return nil, nil }

func (f *fakeCatalog) Categories(context.Context) ([]product.Category, error) {
	return []product.Category{{ID: "dairy", Name: "Dairy"}}, nil
}

func (f *fakeCatalog) GetCategory(_ context.Context, id string) (*product.Category, error) {
	return &product.Category{ID: id, Name: "Dairy"}, nil
}

type fakeReviews struct{}

func (fakeReviews) Add(_ context.Context, userID, productID string, rating int, comment string) (*review.Review, error) {
	if rating < 1 || rating > 5 {
		return nil, &review.ValidationError{Message: "Rating must be 1-5"}
	}
	return &review.Review{ID: "r1", ProductID: productID, UserID: userID, Rating: rating, Comment: comment}, nil
}

func (fakeReviews) Recent(context.Context, string) ([]review.Review, error) {
	return []review.Review{{ID: "r0", Rating: 5, Comment: "fresh"}}, nil
}

type couponRepo map[string]*coupon.Coupon

func (m couponRepo) FindByCode(_ context.Context, code string) (*coupon.Coupon, error) {
	c, ok := m[code]
	if !ok {
		return nil, coupon.ErrNotFound
	}
	return c, nil
}

type fakeOrders struct {
	placeErr error
	got      order.PlaceOrderRequest
}

func (f *fakeOrders) PlaceOrder(_ context.Context, id auth.Identity, req order.PlaceOrderRequest) (*order.Order, error) {
	f.got = req
	if f.placeErr != nil {
		return nil, f.placeErr
	}
	return &order.Order{
		ID:       "ORDABCDEF12",
		UserID:   id.UserID,
		Subtotal: decimal.NewFromInt(250),
		Total:    decimal.NewFromInt(286),
		Status:   order.StatusConfirmed,
	}, nil
}

func (f *fakeOrders) GetOrder(context.Context, auth.Identity, string) (*order.Order, error) {
	return nil, auth.ErrForbidden
}

func (f *fakeOrders) ListOrders(context.Context, auth.Identity) ([]order.Order, error) { return nil, nil }

func (f *fakeOrders) ListAll(context.Context, auth.Identity, string) ([]order.Order, error) {
	return nil, nil
}

func (f *fakeOrders) UpdateStatus(context.Context, auth.Identity, string, string) error { return nil }

func (f *fakeOrders) Stats(context.Context, auth.Identity) (*order.Stats, error) {
	return &order.Stats{Users: 3}, nil
}

// --- Helpers ---

type testEnv struct {
	carts   *fakeCarts
	catalog *fakeCatalog
	orders  *fakeOrders
	router  http.Handler
}

func newEnv(t *testing.T) *testEnv {
	t.Helper()
	env := &testEnv{
		carts: &fakeCarts{},
		catalog: &fakeCatalog{products: map[string]*product.Product{
			"p1": {ID: "p1", Name: "Milk", CategoryID: "dairy", Price: decimal.RequireFromString("62.50"), Stock: 3},
		}},
		orders: &fakeOrders{},
	}
	h := New(Deps{
		Tokens:  testTokens,
		Catalog: env.catalog,
		Carts:   env.carts,
		Coupons: coupon.NewRepoValidator(couponRepo{
			"SAVE50":    {ID: "c2", Code: "SAVE50", Type: coupon.TypeFlat, Value: decimal.NewFromInt(50), MinOrder: decimal.NewFromInt(299), Active: true},
			"WELCOME10": {ID: "c1", Code: "WELCOME10", Type: coupon.TypePercent, Value: decimal.NewFromInt(10), Active: true},
		}),
		Orders:  env.orders,
		Reviews: fakeReviews{},
	})
	env.router = h.Routes()
	return env
}

type envelope struct {
	Success   bool            `json:"success"`
	Message   string          `json:"message"`
	Data      json.RawMessage `json:"data"`
	Total     int             `json:"total"`
	Page      int             `json:"page"`
	PerPage   int             `json:"per_page"`
	Available int             `json:"available"`
	Reason    string          `json:"reason"`
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) (int, envelope) {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)

	assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env), w.Body.String())
	return w.Code, env
}

// --- Tests ---

func TestAuthentication(t *testing.T) {
	env := newEnv(t)

	for _, tt := range []struct {
		name    string
		token   string
		status  int
		message string
	}{
		{"Missing", "", http.StatusUnauthorized, "Missing token"},
		{"Expired", "expired", http.StatusUnauthorized, "Token expired"},
		{"Invalid", "garbage", http.StatusUnauthorized, "Invalid token"},
	} {
		t.Run(tt.name, func(t *testing.T) {
			code, resp := env.do(t, http.MethodGet, "/api/cart", tt.token, "")
			assert.Equal(t, tt.status, code)
			assert.False(t, resp.Success)
			assert.Equal(t, tt.message, resp.Message)
		})
	}
}

func TestAdminRoutesRequireAdmin(t *testing.T) {
	env := newEnv(t)

	code, resp := env.do(t, http.MethodGet, "/api/admin/stats", "user", "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Forbidden", resp.Message)

	code, resp = env.do(t, http.MethodGet, "/api/admin/stats", "admin", "")
	assert.Equal(t, http.StatusOK, code)
	assert.True(t, resp.Success)
	assert.JSONEq(t, `{"users":3,"orders":0,"revenue":0,"products":0,"recent_orders":null,"top_products":null,"orders_by_status":null}`, string(resp.Data))
}

func TestAddToCart(t *testing.T) {
	t.Run("Success", func(t *testing.T) {
		env := newEnv(t)
		code, resp := env.do(t, http.MethodPost, "/api/cart", "user", `{"product_id":"p1","qty":2}`)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, "Added to cart", resp.Message)
		assert.Equal(t, []string{"u1:p1:2"}, env.carts.added)
	})
	t.Run("DefaultQty", func(t *testing.T) {
		env := newEnv(t)
		code, _ := env.do(t, http.MethodPost, "/api/cart", "user", `{"product_id":"p1"}`)
		assert.Equal(t, http.StatusOK, code)
		assert.Equal(t, []string{"u1:p1:1"}, env.carts.added)
	})
	t.Run("StockExceeded", func(t *testing.T) {
		env := newEnv(t)
		env.carts.addErr = &cart.StockExceededError{ProductID: "p1", Available: 3}
		code, resp := env.do(t, http.MethodPost, "/api/cart", "user", `{"product_id":"p1","qty":5}`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Only 3 in stock", resp.Message)
		assert.Equal(t, 3, resp.Available)
	})
	t.Run("ProductNotFound", func(t *testing.T) {
		env := newEnv(t)
		env.carts.addErr = errors.Wrap(product.ErrNotFound, "lookup")
		code, resp := env.do(t, http.MethodPost, "/api/cart", "user", `{"product_id":"nope"}`)
		assert.Equal(t, http.StatusNotFound, code)
		assert.Equal(t, "Product not found", resp.Message)
	})
	t.Run("MalformedBody", func(t *testing.T) {
		env := newEnv(t)
		code, resp := env.do(t, http.MethodPost, "/api/cart", "user", `{"product_id":`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Invalid request body", resp.Message)
	})
}

func TestCartLineNotFound(t *testing.T) {
	env := newEnv(t)
	code, resp := env.do(t, http.MethodDelete, "/api/cart/line-9", "user", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Cart item not found", resp.Message)
}

func TestSyncCart_SkipsMalformedEntries(t *testing.T) {
	env := newEnv(t)
	body := `{"items":[{"product_id":"p1","qty":2},{"product_id":"p2","qty":"x"},"junk",{"qty":1},{"product_id":"p3","qty":"4"}]}`

	code, resp := env.do(t, http.MethodPost, "/api/cart/sync", "user", body)
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, "Cart synced", resp.Message)
	assert.Equal(t, []cart.GuestItem{
		{ProductID: "p1", Qty: 2},
		{ProductID: "p2", Qty: 0},
		{},
		{Qty: 1},
		{ProductID: "p3", Qty: 4},
	}, env.carts.synced)
}

func TestClearCart_InternalError(t *testing.T) {
	env := newEnv(t)
	env.carts.clearErr = errors.New("pool closed")

	code, resp := env.do(t, http.MethodDelete, "/api/cart/clear", "user", "")
	assert.Equal(t, http.StatusInternalServerError, code)
	assert.Equal(t, "Internal server error", resp.Message)
}

func TestApplyCoupon(t *testing.T) {
	env := newEnv(t)

	t.Run("BelowMinimum", func(t *testing.T) {
		code, resp := env.do(t, http.MethodPost, "/api/coupons/apply", "user", `{"code":"save50","subtotal":200}`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Minimum order 299 required.", resp.Message)
		assert.Equal(t, "below_minimum", resp.Reason)
	})
	t.Run("Unknown", func(t *testing.T) {
		code, resp := env.do(t, http.MethodPost, "/api/coupons/apply", "user", `{"code":"NOPE","subtotal":500}`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Invalid or expired coupon", resp.Message)
	})
	t.Run("CodeRequired", func(t *testing.T) {
		code, resp := env.do(t, http.MethodPost, "/api/coupons/apply", "user", `{"subtotal":500}`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Coupon code required", resp.Message)
	})
	t.Run("Applied", func(t *testing.T) {
		code, resp := env.do(t, http.MethodPost, "/api/coupons/apply", "user", `{"code":"WELCOME10","subtotal":"300"}`)
		require.Equal(t, http.StatusOK, code)

		var data struct {
			Discount float64 `json:"discount"`
			Coupon   struct {
				Code string `json:"code"`
			} `json:"coupon"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &data))
		assert.Equal(t, 30.0, data.Discount)
		assert.Equal(t, "WELCOME10", data.Coupon.Code)
	})
}

func TestPlaceOrder(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		env := newEnv(t)
		body := `{"address":{"line1":"12 MG Road","city":"Pune","pincode":"411001","phone":"9999999999"},"payment_method":"upi","coupon_code":"WELCOME10","notes":"ring twice"}`

		code, resp := env.do(t, http.MethodPost, "/api/orders", "user", body)
		require.Equal(t, http.StatusCreated, code)
		assert.Equal(t, "Order placed", resp.Message)
		assert.Equal(t, order.PlaceOrderRequest{
			Address:       order.Address{Line1: "12 MG Road", City: "Pune", Pincode: "411001", Phone: "9999999999"},
			PaymentMethod: "upi",
			CouponCode:    "WELCOME10",
			Notes:         "ring twice",
		}, env.orders.got)

		var o struct {
			ID    string  `json:"id"`
			Total float64 `json:"total"`
		}
		require.NoError(t, json.Unmarshal(resp.Data, &o))
		assert.Equal(t, "ORDABCDEF12", o.ID)
		assert.Equal(t, 286.0, o.Total)
	})
	t.Run("StockExceeded", func(t *testing.T) {
		env := newEnv(t)
		env.orders.placeErr = &order.StockExceededError{ProductID: "p1", Name: "Milk", Available: 3}

		code, resp := env.do(t, http.MethodPost, "/api/orders", "user", `{}`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Only 3 units of Milk available", resp.Message)
		assert.Equal(t, 3, resp.Available)
	})
	t.Run("CartEmpty", func(t *testing.T) {
		env := newEnv(t)
		env.orders.placeErr = order.ErrCartEmpty

		code, resp := env.do(t, http.MethodPost, "/api/orders", "user", `{}`)
		assert.Equal(t, http.StatusBadRequest, code)
		assert.Equal(t, "Cart is empty", resp.Message)
	})
}

func TestGetOrder_Forbidden(t *testing.T) {
	env := newEnv(t)
	code, resp := env.do(t, http.MethodGet, "/api/orders/ORD00000000", "user", "")
	assert.Equal(t, http.StatusForbidden, code)
	assert.Equal(t, "Forbidden", resp.Message)
}

func TestListProducts_Pagination(t *testing.T) {
	env := newEnv(t)

	code, resp := env.do(t, http.MethodGet, "/api/products?category=dairy&sort=price_desc&page=2&per_page=10", "", "")
	require.Equal(t, http.StatusOK, code)
	assert.Equal(t, 42, resp.Total)
	assert.Equal(t, 2, resp.Page)
	assert.Equal(t, 10, resp.PerPage)
	assert.Equal(t, product.Filter{CategoryID: "dairy", Sort: product.SortPriceDesc, Page: 2, PerPage: 10}, env.catalog.filter)

	var items []struct {
		Price float64 `json:"price"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &items))
	require.Len(t, items, 1)
	assert.Equal(t, 62.5, items[0].Price)
}

func TestListProducts_Defaults(t *testing.T) {
	env := newEnv(t)

	_, resp := env.do(t, http.MethodGet, "/api/products?sort=bogus&page=-1", "", "")
	assert.Equal(t, 1, resp.Page)
	assert.Equal(t, 50, resp.PerPage)
	assert.Equal(t, product.SortDefault, env.catalog.filter.Sort)
}

func TestGetProduct(t *testing.T) {
	env := newEnv(t)

	code, resp := env.do(t, http.MethodGet, "/api/products/p1", "", "")
	require.Equal(t, http.StatusOK, code)

	var detail struct {
		ID       string `json:"id"`
		Category struct {
			Name string `json:"name"`
		} `json:"category"`
		Reviews []review.Review `json:"reviews"`
	}
	require.NoError(t, json.Unmarshal(resp.Data, &detail))
	assert.Equal(t, "p1", detail.ID)
	assert.Equal(t, "Dairy", detail.Category.Name)
	require.Len(t, detail.Reviews, 1)

	code, resp = env.do(t, http.MethodGet, "/api/products/missing", "", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Product not found", resp.Message)
}

func TestAddReview_Validation(t *testing.T) {
	env := newEnv(t)

	code, resp := env.do(t, http.MethodPost, "/api/products/p1/reviews", "user", `{"rating":7,"comment":"meh"}`)
	assert.Equal(t, http.StatusBadRequest, code)
	assert.Equal(t, "Rating must be 1-5", resp.Message)

	code, _ = env.do(t, http.MethodPost, "/api/products/p1/reviews", "user", `{"rating":4,"comment":"good"}`)
	assert.Equal(t, http.StatusCreated, code)
}

func TestUnknownRoute(t *testing.T) {
	env := newEnv(t)
	code, resp := env.do(t, http.MethodGet, "/api/nowhere", "", "")
	assert.Equal(t, http.StatusNotFound, code)
	assert.Equal(t, "Route not found", resp.Message)
}

func TestDecimalRenderedAsNumber(t *testing.T) {
	w := httptest.NewRecorder()
	require.NoError(t, writeEnvelope(w, http.StatusOK, true, "OK", struct {
		At    time.Time       `json:"at"`
		Price decimal.Decimal `json:"price"`
	}{time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC), decimal.RequireFromString("12.5")}, nil))

	assert.JSONEq(t, `{"success":true,"message":"OK","data":{"at":"2026-01-02T03:04:05Z","price":12.5}}`, w.Body.String())
}
