// Package handler exposes the storefront over HTTP using chi.
//
// Every response is the JSON envelope {"success", "message", "data"}; domain
// errors are mapped to statuses in one place (writeError).
package handler

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/sushovancpp/urmart/internal/domain/address"
	"github.com/sushovancpp/urmart/internal/domain/auth"
	"github.com/sushovancpp/urmart/internal/domain/cart"
	"github.com/sushovancpp/urmart/internal/domain/coupon"
	"github.com/sushovancpp/urmart/internal/domain/order"
	"github.com/sushovancpp/urmart/internal/domain/product"
	"github.com/sushovancpp/urmart/internal/domain/review"
	"github.com/sushovancpp/urmart/internal/domain/wishlist"
)

// Accounts is the account service used by the auth and admin routes.
type Accounts interface {
	Register(ctx context.Context, req auth.RegisterRequest) (*auth.Session, error)
	Login(ctx context.Context, email, password string) (*auth.Session, error)
	Me(ctx context.Context, id auth.Identity) (*auth.User, error)
	UpdateProfile(ctx context.Context, id auth.Identity, name, phone string) (*auth.User, error)
	ChangePassword(ctx context.Context, id auth.Identity, oldPassword, newPassword string) error
	ListUsers(ctx context.Context) ([]auth.User, error)
}

// TokenVerifier resolves bearer tokens to identities.
type TokenVerifier interface {
	Verify(token string) (auth.Identity, error)
}

// Carts is the cart ledger.
type Carts interface {
	View(ctx context.Context, userID string) (*cart.View, error)
	AddItem(ctx context.Context, userID, productID string, qty int) error
	SetQuantity(ctx context.Context, userID, lineID string, qty int) error
	Remove(ctx context.Context, userID, lineID string) error
	Clear(ctx context.Context, userID string) error
	SyncGuestCart(ctx context.Context, userID string, items []cart.GuestItem) (*cart.SyncResult, error)
}

// CouponPreviewer checks a coupon against a subtotal without redeeming it.
type CouponPreviewer interface {
	Preview(ctx context.Context, code string, subtotal decimal.Decimal) (*coupon.Preview, error)
}

// Orders is checkout plus order queries.
type Orders interface {
	PlaceOrder(ctx context.Context, id auth.Identity, req order.PlaceOrderRequest) (*order.Order, error)
	GetOrder(ctx context.Context, id auth.Identity, orderID string) (*order.Order, error)
	ListOrders(ctx context.Context, id auth.Identity) ([]order.Order, error)
	ListAll(ctx context.Context, id auth.Identity, status string) ([]order.Order, error)
	UpdateStatus(ctx context.Context, id auth.Identity, orderID, status string) error
	Stats(ctx context.Context, id auth.Identity) (*order.Stats, error)
}

// CatalogAdmin manages products from the admin console.
type CatalogAdmin interface {
	List(ctx context.Context) ([]product.Product, error)
	Create(ctx context.Context, d product.Draft) (*product.Product, error)
	Update(ctx context.Context, id string, d product.Draft) (*product.Product, error)
	Deactivate(ctx context.Context, id string) error
}

// Addresses is the address book.
type Addresses interface {
	List(ctx context.Context, userID string) ([]address.Address, error)
	Add(ctx context.Context, userID string, d address.Draft) (*address.Address, error)
	Delete(ctx context.Context, userID, id string) error
	SetDefault(ctx context.Context, userID, id string) error
}

// Wishlists toggles saved products.
type Wishlists interface {
	List(ctx context.Context, userID string) ([]wishlist.Item, error)
	Toggle(ctx context.Context, userID, productID string) (bool, error)
}

// Reviews stores product reviews.
type Reviews interface {
	Add(ctx context.Context, userID, productID string, rating int, comment string) (*review.Review, error)
	Recent(ctx context.Context, productID string) ([]review.Review, error)
}

// Deps are the services the handler delegates to.
type Deps struct {
	Accounts  Accounts
	Tokens    TokenVerifier
	Catalog   product.Repository
	Admin     CatalogAdmin
	Carts     Carts
	Coupons   CouponPreviewer
	Orders    Orders
	Addresses Addresses
	Wishlists Wishlists
	Reviews   Reviews
}

// Handler serves the /api routes.
type Handler struct {
	Deps
}

// New creates a Handler.
func New(deps Deps) *Handler {
	return &Handler{Deps: deps}
}
