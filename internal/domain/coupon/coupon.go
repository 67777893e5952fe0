package coupon

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// Type enumerates the supported coupon discount strategies.
type Type string

const (
	// TypePercent takes a whole-unit rounded percentage of the subtotal.
	TypePercent Type = "percent"
	// TypeFlat takes a fixed amount. It is not capped by the subtotal.
	TypeFlat Type = "flat"
)

// Valid reports whether t is a known discount type.
func (t Type) Valid() bool {
	return t == TypePercent || t == TypeFlat
}

// ErrNotFound is returned by repositories when no active coupon matches a code.
var ErrNotFound = errors.New("coupon not found")

// Reason describes why a coupon could not be redeemed.
type Reason string

const (
	ReasonNotFound     Reason = "not_found"
	ReasonExpired      Reason = "expired"
	ReasonBelowMinimum Reason = "below_minimum"
	ReasonExhausted    Reason = "exhausted"
)

// RejectedError is the distinguishable outcome of evaluating a coupon that
// cannot be applied. Callers decide whether it is fatal.
type RejectedError struct {
	Code     string
	Reason   Reason
	MinOrder decimal.Decimal
}

func (e *RejectedError) Error() string {
	switch e.Reason {
	case ReasonBelowMinimum:
		return fmt.Sprintf("Minimum order %s required.", e.MinOrder.String())
	case ReasonExhausted:
		return "Coupon usage limit reached"
	default:
		return "Invalid or expired coupon"
	}
}

// Coupon is a redeemable discount code.
type Coupon struct {
	ID        string          `json:"id"`
	Code      string          `json:"code"`
	Type      Type            `json:"type"`
	Value     decimal.Decimal `json:"value"`
	MinOrder  decimal.Decimal `json:"min_order"`
	MaxUses   int             `json:"max_uses"`
	UsedCount int             `json:"used_count"`
	ExpiresAt *time.Time      `json:"expires_at,omitempty"`
	Active    bool            `json:"is_active"`
}

// Check returns a *RejectedError when c cannot be redeemed against subtotal at
// the given instant, or nil when it can.
func (c *Coupon) Check(subtotal decimal.Decimal, now time.Time) error {
	if !c.Active {
		return &RejectedError{Code: c.Code, Reason: ReasonNotFound}
	}
	if c.ExpiresAt != nil && !now.Before(*c.ExpiresAt) {
		return &RejectedError{Code: c.Code, Reason: ReasonExpired}
	}
	if subtotal.LessThan(c.MinOrder) {
		return &RejectedError{Code: c.Code, Reason: ReasonBelowMinimum, MinOrder: c.MinOrder}
	}
	if c.Exhausted() {
		return &RejectedError{Code: c.Code, Reason: ReasonExhausted}
	}
	return nil
}

// Exhausted reports whether the usage limit has been reached. A non-positive
// MaxUses means unlimited.
func (c *Coupon) Exhausted() bool {
	return c.MaxUses > 0 && c.UsedCount >= c.MaxUses
}

// Discount computes the raw discount for subtotal without any eligibility
// checks. Percent discounts are rounded half away from zero to whole units.
func (c *Coupon) Discount(subtotal decimal.Decimal) decimal.Decimal {
	switch c.Type {
	case TypePercent:
		return subtotal.Mul(c.Value).Div(decimal.NewFromInt(100)).Round(0)
	case TypeFlat:
		return c.Value
	default:
		return decimal.Zero
	}
}

// NormalizeCode canonicalizes user-entered codes for lookup.
func NormalizeCode(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// Repository provides lookup of coupons.
type Repository interface {
	// FindByCode returns the active coupon with the given normalized code or
	// ErrNotFound.
	FindByCode(ctx context.Context, code string) (*Coupon, error)
}
