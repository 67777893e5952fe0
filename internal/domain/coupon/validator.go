package coupon

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrCodeRequired is returned when an empty code is previewed.
var ErrCodeRequired = errors.New("Coupon code required")

// Preview is the result of a successful coupon application preview.
type Preview struct {
	Discount decimal.Decimal
	Coupon   *Coupon
}

// RepoValidator previews coupons stored in a Repository. It never mutates
// usage counters; redemption happens only inside checkout.
type RepoValidator struct {
	repo Repository
	now  func() time.Time
}

// NewRepoValidator creates a RepoValidator backed by the given Repository.
func NewRepoValidator(repo Repository) *RepoValidator {
	return &RepoValidator{repo: repo, now: time.Now}
}

// Preview looks up code and checks it against subtotal. Rejections are
// returned as *RejectedError.
func (v *RepoValidator) Preview(ctx context.Context, code string, subtotal decimal.Decimal) (*Preview, error) {
	code = NormalizeCode(code)
	if code == "" {
		return nil, ErrCodeRequired
	}

	c, err := v.repo.FindByCode(ctx, code)
	if err != nil {
		if errors.Is(err, ErrNotFound) {
			return nil, &RejectedError{Code: code, Reason: ReasonNotFound}
		}
		return nil, errors.Wrap(err, "lookup coupon")
	}

	if err := c.Check(subtotal, v.now()); err != nil {
		return nil, err
	}

	return &Preview{Discount: c.Discount(subtotal), Coupon: c}, nil
}
