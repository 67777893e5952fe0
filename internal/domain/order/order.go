package order

import (
	"context"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/sushovancpp/urmart/internal/domain/coupon"
)

// Status is the fulfilment state of an order.
type Status string

const (
	StatusConfirmed      Status = "confirmed"
	StatusPacked         Status = "packed"
	StatusOutForDelivery Status = "out_for_delivery"
	StatusDelivered      Status = "delivered"
	StatusCancelled      Status = "cancelled"
)

// Statuses lists every valid status in lifecycle order.
var Statuses = []Status{
	StatusConfirmed, StatusPacked, StatusOutForDelivery, StatusDelivered, StatusCancelled,
}

// Valid reports whether s is a known status.
func (s Status) Valid() bool {
	for _, v := range Statuses {
		if s == v {
			return true
		}
	}
	return false
}

// PaymentCOD is cash on delivery. Every other method is recorded as paid.
const PaymentCOD = "cod"

// Payment statuses.
const (
	PaymentPending = "pending"
	PaymentPaid    = "paid"
)

// Address is the delivery address snapshotted onto an order.
type Address struct {
	Line1   string `json:"line1"`
	City    string `json:"city"`
	Pincode string `json:"pincode"`
	Phone   string `json:"phone"`
}

// Validate requires every field, reporting the first missing one.
func (a Address) Validate() error {
	fields := []struct {
		name  string
		value string
	}{
		{"line1", a.Line1},
		{"city", a.City},
		{"pincode", a.Pincode},
		{"phone", a.Phone},
	}
	for _, f := range fields {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Message: "Address " + f.name + " is required"}
		}
	}
	return nil
}

// Order is a placed order. Only Status and UpdatedAt change after creation.
type Order struct {
	ID            string          `json:"id"`
	UserID        string          `json:"user_id"`
	AddressLine   string          `json:"address_line"`
	City          string          `json:"city"`
	Pincode       string          `json:"pincode"`
	Phone         string          `json:"phone"`
	Subtotal      decimal.Decimal `json:"subtotal"`
	DeliveryFee   decimal.Decimal `json:"delivery_fee"`
	Discount      decimal.Decimal `json:"discount"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod string          `json:"payment_method"`
	PaymentStatus string          `json:"payment_status"`
	Status        Status          `json:"status"`
	Notes         string          `json:"notes"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
	Items         []Item          `json:"items"`

	// Populated on admin listings only.
	UserName  string `json:"user_name,omitempty"`
	UserEmail string `json:"user_email,omitempty"`
}

// Item is an order line with product display fields frozen at purchase time.
type Item struct {
	ID        string          `json:"id"`
	OrderID   string          `json:"order_id"`
	ProductID string          `json:"product_id"`
	Name      string          `json:"name"`
	Emoji     string          `json:"emoji"`
	Weight    string          `json:"weight"`
	Price     decimal.Decimal `json:"price"`
	Qty       int             `json:"qty"`
}

// Line is a cart line joined with live product state, read under lock during
// checkout.
type Line struct {
	ProductID string
	Name      string
	Emoji     string
	Weight    string
	Price     decimal.Decimal
	Stock     int
	Qty       int
}

// Stats summarizes the store for the admin dashboard.
type Stats struct {
	Users          int             `json:"users"`
	Orders         int             `json:"orders"`
	Revenue        decimal.Decimal `json:"revenue"`
	Products       int             `json:"products"`
	RecentOrders   []Order         `json:"recent_orders"`
	TopProducts    []TopProduct    `json:"top_products"`
	OrdersByStatus []StatusCount   `json:"orders_by_status"`
}

// TopProduct is a best seller by units.
type TopProduct struct {
	Name  string `json:"name"`
	Emoji string `json:"emoji"`
	Sold  int    `json:"sold"`
}

// StatusCount is the number of orders in a status.
type StatusCount struct {
	Status Status `json:"status"`
	Count  int    `json:"count"`
}

// Tx is the set of writes a checkout performs inside one transaction.
type Tx interface {
	// CartSnapshot returns the user's cart joined with product state and
	// locks the product rows until the transaction ends.
	CartSnapshot(ctx context.Context, userID string) ([]Line, error)
	// LockCoupon returns the active coupon for code, locked, or
	// coupon.ErrNotFound.
	LockCoupon(ctx context.Context, code string) (*coupon.Coupon, error)
	// RedeemCoupon increments used_count unless max_uses is reached.
	RedeemCoupon(ctx context.Context, couponID string) (bool, error)
	// InsertOrder stores the order header and all its items.
	InsertOrder(ctx context.Context, o *Order) error
	// DecrementStock subtracts qty unless it would drive stock negative.
	DecrementStock(ctx context.Context, productID string, qty int) (bool, error)
	ClearCart(ctx context.Context, userID string) error
}

// Store runs fn in a transaction, committing when it returns nil and rolling
// back otherwise.
type Store interface {
	Checkout(ctx context.Context, fn func(ctx context.Context, tx Tx) error) error
}

// Repository is the read side of orders plus the admin status transition.
type Repository interface {
	Get(ctx context.Context, id string) (*Order, error)
	ListByUser(ctx context.Context, userID string) ([]Order, error)
	ListAll(ctx context.Context, status Status) ([]Order, error)
	UpdateStatus(ctx context.Context, id string, status Status, at time.Time) error
	Stats(ctx context.Context) (*Stats, error)
}
