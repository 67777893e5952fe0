// Package pricing computes cart and order totals.
//
// All amounts are whole currency units carried as decimals. Percentages are
// rounded half away from zero to the nearest unit, so 12.5 becomes 13.
package pricing

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/sushovancpp/urmart/internal/domain/coupon"
)

// Policy holds the storefront fee and loyalty constants.
type Policy struct {
	// FreeDeliveryThreshold is the subtotal at or above which delivery is free.
	FreeDeliveryThreshold decimal.Decimal
	// DeliveryFee is charged when the subtotal is below the threshold.
	DeliveryFee decimal.Decimal
	// LoyaltyRate is the fraction of the subtotal returned as loyalty discount.
	LoyaltyRate decimal.Decimal
}

// DefaultPolicy returns the storefront defaults: free delivery from 299,
// otherwise 49, and a 5% loyalty discount.
func DefaultPolicy() Policy {
	return Policy{
		FreeDeliveryThreshold: decimal.NewFromInt(299),
		DeliveryFee:           decimal.NewFromInt(49),
		LoyaltyRate:           decimal.RequireFromString("0.05"),
	}
}

// Line is a priced cart line.
type Line struct {
	Price decimal.Decimal
	Qty   int
}

// Totals is the breakdown of a priced cart.
type Totals struct {
	Subtotal        decimal.Decimal
	DeliveryFee     decimal.Decimal
	LoyaltyDiscount decimal.Decimal
	CouponDiscount  decimal.Decimal
	Total           decimal.Decimal

	// Coupon is set when a coupon was applied.
	Coupon *coupon.Coupon
	// CouponErr is a *coupon.RejectedError when a coupon was requested but
	// could not be applied.
	CouponErr error
}

// Discount is the sum of loyalty and coupon discounts, as stored on orders.
func (t Totals) Discount() decimal.Decimal {
	return t.LoyaltyDiscount.Add(t.CouponDiscount)
}

// CouponApplied reports whether a coupon contributed to the totals.
func (t Totals) CouponApplied() bool {
	return t.Coupon != nil
}

// Subtotal sums price times quantity over lines.
func Subtotal(lines []Line) decimal.Decimal {
	sum := decimal.Zero
	for _, l := range lines {
		sum = sum.Add(l.Price.Mul(decimal.NewFromInt(int64(l.Qty))))
	}
	return sum
}

// Compute prices lines. code is the coupon code the customer supplied (may be
// empty) and c is the coupon resolved for it, nil when none matched. A coupon
// whose code differs from code counts as not found. Compute has no side
// effects.
func (p Policy) Compute(lines []Line, code string, c *coupon.Coupon, now time.Time) Totals {
	t := Totals{
		Subtotal:       Subtotal(lines),
		CouponDiscount: decimal.Zero,
	}

	t.DeliveryFee = decimal.Zero
	if t.Subtotal.LessThan(p.FreeDeliveryThreshold) {
		t.DeliveryFee = p.DeliveryFee
	}
	t.LoyaltyDiscount = t.Subtotal.Mul(p.LoyaltyRate).Round(0)

	code = coupon.NormalizeCode(code)
	switch {
	case code == "":
	case c == nil || coupon.NormalizeCode(c.Code) != code:
		t.CouponErr = &coupon.RejectedError{Code: code, Reason: coupon.ReasonNotFound}
	default:
		if err := c.Check(t.Subtotal, now); err != nil {
			t.CouponErr = err
			break
		}
		t.Coupon = c
		t.CouponDiscount = c.Discount(t.Subtotal)
	}

	t.Total = t.Subtotal.Add(t.DeliveryFee).Sub(t.LoyaltyDiscount).Sub(t.CouponDiscount)
	return t
}
