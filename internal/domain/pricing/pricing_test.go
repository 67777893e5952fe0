package pricing

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sushovancpp/urmart/internal/domain/coupon"
)

var fixedNow = time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func assertAmount(t *testing.T, want int64, got decimal.Decimal, field string) {
	t.Helper()
	assert.True(t, d(want).Equal(got), "%s: expected %d, got %s", field, want, got)
}

func welcome10() *coupon.Coupon {
	return &coupon.Coupon{
		ID: "c1", Code: "WELCOME10", Type: coupon.TypePercent, Value: d(10),
		MinOrder: d(0), MaxUses: 1000, Active: true,
	}
}

func save50() *coupon.Coupon {
	return &coupon.Coupon{
		ID: "c2", Code: "SAVE50", Type: coupon.TypeFlat, Value: d(50),
		MinOrder: d(299), MaxUses: 500, Active: true,
	}
}

func TestCompute_NoCouponBelowThreshold(t *testing.T) {
	lines := []Line{{Price: d(100), Qty: 2}, {Price: d(50), Qty: 1}}

	got := DefaultPolicy().Compute(lines, "", nil, fixedNow)

	assertAmount(t, 250, got.Subtotal, "subtotal")
	assertAmount(t, 49, got.DeliveryFee, "delivery_fee")
	assertAmount(t, 13, got.LoyaltyDiscount, "loyalty_discount")
	assertAmount(t, 0, got.CouponDiscount, "coupon_discount")
	assertAmount(t, 286, got.Total, "total")
	assert.NoError(t, got.CouponErr)
	assert.False(t, got.CouponApplied())
}

func TestCompute_PercentCouponAtThreshold(t *testing.T) {
	lines := []Line{{Price: d(150), Qty: 2}}

	got := DefaultPolicy().Compute(lines, "welcome10", welcome10(), fixedNow)

	assertAmount(t, 300, got.Subtotal, "subtotal")
	assertAmount(t, 0, got.DeliveryFee, "delivery_fee")
	assertAmount(t, 15, got.LoyaltyDiscount, "loyalty_discount")
	assertAmount(t, 30, got.CouponDiscount, "coupon_discount")
	assertAmount(t, 255, got.Total, "total")
	assertAmount(t, 45, got.Discount(), "discount")
	require.True(t, got.CouponApplied())
	assert.Equal(t, "WELCOME10", got.Coupon.Code)
}

func TestCompute_DeliveryThresholdBoundary(t *testing.T) {
	tests := []struct {
		subtotal int64
		wantFee  int64
	}{
		{subtotal: 298, wantFee: 49},
		{subtotal: 299, wantFee: 0},
		{subtotal: 0, wantFee: 49},
	}
	for _, tt := range tests {
		got := DefaultPolicy().Compute([]Line{{Price: d(tt.subtotal), Qty: 1}}, "", nil, fixedNow)
		assertAmount(t, tt.wantFee, got.DeliveryFee, "delivery_fee")
	}
}

func TestCompute_BelowMinimumIsRejectedNotFatal(t *testing.T) {
	got := DefaultPolicy().Compute([]Line{{Price: d(200), Qty: 1}}, "SAVE50", save50(), fixedNow)

	var rej *coupon.RejectedError
	require.ErrorAs(t, got.CouponErr, &rej)
	assert.Equal(t, coupon.ReasonBelowMinimum, rej.Reason)
	assert.Equal(t, "Minimum order 299 required.", rej.Error())
	assertAmount(t, 0, got.CouponDiscount, "coupon_discount")
	assertAmount(t, 200+49-10, got.Total, "total")
}

func TestCompute_UnknownCode(t *testing.T) {
	got := DefaultPolicy().Compute([]Line{{Price: d(100), Qty: 1}}, "nope", nil, fixedNow)

	var rej *coupon.RejectedError
	require.ErrorAs(t, got.CouponErr, &rej)
	assert.Equal(t, coupon.ReasonNotFound, rej.Reason)
	assert.Equal(t, "NOPE", rej.Code)
}

func TestCompute_CouponForAnotherCode(t *testing.T) {
	got := DefaultPolicy().Compute([]Line{{Price: d(150), Qty: 2}}, "other", welcome10(), fixedNow)

	var rej *coupon.RejectedError
	require.ErrorAs(t, got.CouponErr, &rej)
	assert.Equal(t, coupon.ReasonNotFound, rej.Reason)
	assert.Equal(t, "OTHER", rej.Code)
	assert.False(t, got.CouponApplied())
	assertAmount(t, 0, got.CouponDiscount, "coupon_discount")
	assertAmount(t, 300-15, got.Total, "total")
}

func TestCompute_ExhaustedCoupon(t *testing.T) {
	c := welcome10()
	c.UsedCount = c.MaxUses

	got := DefaultPolicy().Compute([]Line{{Price: d(400), Qty: 1}}, "WELCOME10", c, fixedNow)

	var rej *coupon.RejectedError
	require.ErrorAs(t, got.CouponErr, &rej)
	assert.Equal(t, coupon.ReasonExhausted, rej.Reason)
	assertAmount(t, 400-20, got.Total, "total")
}

func TestCompute_FlatCouponCanDriveTotalNegative(t *testing.T) {
	big := &coupon.Coupon{
		Code: "MEGA", Type: coupon.TypeFlat, Value: d(1000), MinOrder: d(0), Active: true,
	}

	got := DefaultPolicy().Compute([]Line{{Price: d(300), Qty: 1}}, "MEGA", big, fixedNow)

	assertAmount(t, 1000, got.CouponDiscount, "coupon_discount")
	assertAmount(t, 300+0-15-1000, got.Total, "total")
	assert.True(t, got.Total.IsNegative())
}

func TestCompute_Deterministic(t *testing.T) {
	lines := []Line{{Price: decimal.RequireFromString("33.30"), Qty: 3}, {Price: d(7), Qty: 5}}
	p := DefaultPolicy()

	a := p.Compute(lines, "WELCOME10", welcome10(), fixedNow)
	b := p.Compute(lines, "WELCOME10", welcome10(), fixedNow)

	assert.True(t, a.Total.Equal(b.Total))
	assert.True(t, a.LoyaltyDiscount.Equal(b.LoyaltyDiscount))
	assert.True(t, a.CouponDiscount.Equal(b.CouponDiscount))
	// 134.9 * 0.05 = 6.745 -> 7; 134.9 * 10% = 13.49 -> 13
	assertAmount(t, 7, a.LoyaltyDiscount, "loyalty_discount")
	assertAmount(t, 13, a.CouponDiscount, "coupon_discount")
}

func TestCompute_CustomPolicy(t *testing.T) {
	p := Policy{
		FreeDeliveryThreshold: d(500),
		DeliveryFee:           d(30),
		LoyaltyRate:           decimal.Zero,
	}

	got := p.Compute([]Line{{Price: d(400), Qty: 1}}, "", nil, fixedNow)

	assertAmount(t, 30, got.DeliveryFee, "delivery_fee")
	assertAmount(t, 0, got.LoyaltyDiscount, "loyalty_discount")
	assertAmount(t, 430, got.Total, "total")
}
