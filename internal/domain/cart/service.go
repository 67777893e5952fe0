package cart

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/sushovancpp/urmart/internal/domain/pricing"
	"github.com/sushovancpp/urmart/internal/domain/product"
)

// Products is the slice of the catalog the ledger needs: live, uncached
// stock of active products.
type Products interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
}

// GuestItem is one entry of a cart held client-side before login.
type GuestItem struct {
	ProductID string
	Qty       int
}

// SyncResult reports how a guest cart merge went.
type SyncResult struct {
	Merged  int `json:"merged"`
	Skipped int `json:"skipped"`
}

// View is a priced cart.
type View struct {
	Items           []Line          `json:"items"`
	Subtotal        decimal.Decimal `json:"subtotal"`
	DeliveryFee     decimal.Decimal `json:"delivery_fee"`
	LoyaltyDiscount decimal.Decimal `json:"loyalty_discount"`
	Total           decimal.Decimal `json:"total"`
	Count           int             `json:"count"`
}

// Service implements the cart ledger.
type Service struct {
	lines    Repository
	products Products
	policy   pricing.Policy
	now      func() time.Time
}

// NewService creates a cart Service.
func NewService(lines Repository, products Products, policy pricing.Policy) *Service {
	return &Service{lines: lines, products: products, policy: policy, now: time.Now}
}

// View returns the user's cart priced without a coupon.
func (s *Service) View(ctx context.Context, userID string) (*View, error) {
	lines, err := s.lines.Lines(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart")
	}

	priced := make([]pricing.Line, len(lines))
	count := 0
	for i, l := range lines {
		priced[i] = pricing.Line{Price: l.Price, Qty: l.Qty}
		count += l.Qty
	}
	t := s.policy.Compute(priced, "", nil, s.now())

	if lines == nil {
		lines = []Line{}
	}
	return &View{
		Items:           lines,
		Subtotal:        t.Subtotal,
		DeliveryFee:     t.DeliveryFee,
		LoyaltyDiscount: t.LoyaltyDiscount,
		Total:           t.Total,
		Count:           count,
	}, nil
}

// AddItem creates or increments the user's line for productID. The resulting
// quantity never exceeds the product's stock.
func (s *Service) AddItem(ctx context.Context, userID, productID string, qty int) error {
	productID = strings.TrimSpace(productID)
	if productID == "" {
		return &ValidationError{Message: "product_id required"}
	}
	if qty < 1 {
		return &ValidationError{Message: "qty must be >= 1"}
	}

	p, err := s.products.GetByID(ctx, productID)
	if err != nil {
		return err
	}
	if qty > p.Stock {
		return &StockExceededError{ProductID: p.ID, Available: p.Stock}
	}

	_, ok, err := s.lines.Add(ctx, AddParams{
		LineID:    uuid.NewString(),
		UserID:    userID,
		ProductID: p.ID,
		Qty:       qty,
		Limit:     p.Stock,
		AddedAt:   s.now().UTC(),
	})
	if err != nil {
		return errors.Wrap(err, "add cart line")
	}
	if !ok {
		return &StockExceededError{ProductID: p.ID, Available: p.Stock}
	}
	return nil
}

// SetQuantity replaces the quantity of one of the user's lines.
func (s *Service) SetQuantity(ctx context.Context, userID, lineID string, qty int) error {
	if qty < 1 {
		return &ValidationError{Message: "qty must be >= 1"}
	}
	line, err := s.lines.Line(ctx, userID, lineID)
	if err != nil {
		return err
	}
	if qty > line.Stock {
		return &StockExceededError{ProductID: line.ProductID, Available: line.Stock}
	}
	return s.lines.SetQty(ctx, userID, lineID, qty)
}

// Remove deletes one of the user's lines.
func (s *Service) Remove(ctx context.Context, userID, lineID string) error {
	return s.lines.Remove(ctx, userID, lineID)
}

// Clear empties the user's cart.
func (s *Service) Clear(ctx context.Context, userID string) error {
	return s.lines.Clear(ctx, userID)
}

// SyncGuestCart merges a client-held cart into the user's ledger. Malformed
// entries and unknown products are skipped; merged quantities are clamped to
// stock.
func (s *Service) SyncGuestCart(ctx context.Context, userID string, items []GuestItem) (*SyncResult, error) {
	lg := zctx.From(ctx)
	res := &SyncResult{}

	existing, err := s.lines.Lines(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart")
	}
	held := make(map[string]int, len(existing))
	for _, l := range existing {
		held[l.ProductID] = l.Qty
	}

	for _, item := range items {
		pid := strings.TrimSpace(item.ProductID)
		if pid == "" || item.Qty < 1 {
			res.Skipped++
			continue
		}

		p, err := s.products.GetByID(ctx, pid)
		if err != nil {
			if errors.Is(err, product.ErrNotFound) {
				res.Skipped++
				continue
			}
			return nil, err
		}

		room := p.Stock - held[pid]
		qty := min(item.Qty, room)
		if qty < 1 {
			res.Skipped++
			continue
		}

		newQty, ok, err := s.lines.Add(ctx, AddParams{
			LineID:    uuid.NewString(),
			UserID:    userID,
			ProductID: pid,
			Qty:       qty,
			Limit:     p.Stock,
			AddedAt:   s.now().UTC(),
		})
		if err != nil {
			return nil, errors.Wrap(err, "merge cart line")
		}
		if !ok {
			res.Skipped++
			continue
		}
		held[pid] = newQty
		res.Merged++
	}

	lg.Debug("Guest cart synced",
		zap.String("user_id", userID),
		zap.Int("merged", res.Merged),
		zap.Int("skipped", res.Skipped),
	)
	return res, nil
}
