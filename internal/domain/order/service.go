package order

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
	"go.uber.org/zap"

	"github.com/sushovancpp/urmart/internal/domain/auth"
	"github.com/sushovancpp/urmart/internal/domain/coupon"
	"github.com/sushovancpp/urmart/internal/domain/pricing"
	"github.com/sushovancpp/urmart/internal/domain/product"
	"github.com/sushovancpp/urmart/internal/events"
)

// PlaceOrderRequest holds checkout input.
type PlaceOrderRequest struct {
	Address       Address
	PaymentMethod string
	CouponCode    string
	Notes         string
}

// ServiceConfig holds checkout tuning.
type ServiceConfig struct {
	Policy pricing.Policy
	// CheckoutTimeout bounds the whole checkout transaction.
	CheckoutTimeout time.Duration
}

// Option customizes a Service.
type Option func(*Service)

// WithPublisher sets the order event publisher.
func WithPublisher(p events.Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithInvalidator sets the catalog cache to evict after stock changes.
func WithInvalidator(c product.Invalidator) Option {
	return func(s *Service) { s.cache = c }
}

// WithTelemetry sets the meter and tracer providers.
func WithTelemetry(mp metric.MeterProvider, tp trace.TracerProvider) Option {
	return func(s *Service) {
		s.meter = mp.Meter("github.com/sushovancpp/urmart/internal/domain/order")
		s.tracer = tp.Tracer("github.com/sushovancpp/urmart/internal/domain/order")
	}
}

// Service implements checkout and order queries.
type Service struct {
	store   Store
	orders  Repository
	policy  pricing.Policy
	timeout time.Duration
	events  events.Publisher
	cache   product.Invalidator
	meter   metric.Meter
	tracer  trace.Tracer
	now     func() time.Time
	newID   func() string

	placed   metric.Int64Counter
	rejected metric.Int64Counter
}

// NewService creates an order Service.
func NewService(store Store, orders Repository, cfg ServiceConfig, opts ...Option) (*Service, error) {
	s := &Service{
		store:   store,
		orders:  orders,
		policy:  cfg.Policy,
		timeout: cfg.CheckoutTimeout,
		events:  events.Nop{},
		cache:   product.NopInvalidator{},
		meter:   metricnoop.NewMeterProvider().Meter(""),
		tracer:  tracenoop.NewTracerProvider().Tracer(""),
		now:     time.Now,
		newID:   newOrderID,
	}
	if s.timeout <= 0 {
		s.timeout = 10 * time.Second
	}
	for _, o := range opts {
		o(s)
	}

	var err error
	if s.placed, err = s.meter.Int64Counter("urmart.orders.placed",
		metric.WithDescription("Orders committed by checkout"),
	); err != nil {
		return nil, errors.Wrap(err, "orders placed counter")
	}
	if s.rejected, err = s.meter.Int64Counter("urmart.checkout.rejected",
		metric.WithDescription("Checkouts aborted before commit"),
	); err != nil {
		return nil, errors.Wrap(err, "checkout rejected counter")
	}
	return s, nil
}

// PlaceOrder converts the caller's cart into an order. Stock gate, coupon
// redemption, order insert, stock decrement and cart clear commit together or
// not at all.
func (s *Service) PlaceOrder(ctx context.Context, id auth.Identity, req PlaceOrderRequest) (*Order, error) {
	if err := req.Address.Validate(); err != nil {
		return nil, err
	}
	method := strings.TrimSpace(req.PaymentMethod)
	if method == "" {
		method = PaymentCOD
	}

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	ctx, span := s.tracer.Start(ctx, "order.PlaceOrder",
		trace.WithAttributes(attribute.String("user.id", id.UserID)),
	)
	defer span.End()

	lg := zctx.From(ctx)
	var placed *Order

	err := s.store.Checkout(ctx, func(ctx context.Context, tx Tx) error {
		lines, err := tx.CartSnapshot(ctx, id.UserID)
		if err != nil {
			return errors.Wrap(err, "snapshot cart")
		}
		if len(lines) == 0 {
			return ErrCartEmpty
		}

		priced := make([]pricing.Line, len(lines))
		for i, l := range lines {
			if l.Qty > l.Stock {
				return &StockExceededError{ProductID: l.ProductID, Name: l.Name, Available: l.Stock}
			}
			priced[i] = pricing.Line{Price: l.Price, Qty: l.Qty}
		}

		code := coupon.NormalizeCode(req.CouponCode)
		var c *coupon.Coupon
		if code != "" {
			c, err = tx.LockCoupon(ctx, code)
			if err != nil && !errors.Is(err, coupon.ErrNotFound) {
				return errors.Wrap(err, "lock coupon")
			}
		}

		now := s.now().UTC()
		totals := s.policy.Compute(priced, code, c, now)
		if totals.CouponErr != nil {
			lg.Info("Coupon ignored at checkout",
				zap.String("code", code),
				zap.Error(totals.CouponErr),
			)
		}
		if totals.CouponApplied() {
			ok, err := tx.RedeemCoupon(ctx, totals.Coupon.ID)
			if err != nil {
				return errors.Wrap(err, "redeem coupon")
			}
			if !ok {
				return errors.Errorf("coupon %s redeemed past its limit", code)
			}
		}

		o := s.newOrder(id.UserID, req, method, totals, now)
		o.Items = make([]Item, len(lines))
		for i, l := range lines {
			o.Items[i] = Item{
				ID:        uuid.NewString(),
				OrderID:   o.ID,
				ProductID: l.ProductID,
				Name:      l.Name,
				Emoji:     l.Emoji,
				Weight:    l.Weight,
				Price:     l.Price,
				Qty:       l.Qty,
			}
		}
		if err := s.insertOrder(ctx, tx, o); err != nil {
			return err
		}

		for _, l := range lines {
			ok, err := tx.DecrementStock(ctx, l.ProductID, l.Qty)
			if err != nil {
				return errors.Wrapf(err, "decrement stock of %s", l.ProductID)
			}
			if !ok {
				return &StockExceededError{ProductID: l.ProductID, Name: l.Name, Available: l.Stock}
			}
		}

		if err := tx.ClearCart(ctx, id.UserID); err != nil {
			return errors.Wrap(err, "clear cart")
		}

		placed = o
		return nil
	})
	if err != nil {
		s.rejected.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", rejectionReason(err))))
		span.RecordError(err)
		span.SetStatus(codes.Error, "checkout failed")
		return nil, err
	}

	s.placed.Add(ctx, 1, metric.WithAttributes(attribute.String("payment_method", method)))
	span.SetAttributes(attribute.String("order.id", placed.ID))
	lg.Info("Order placed",
		zap.String("order_id", placed.ID),
		zap.String("user_id", id.UserID),
		zap.Stringer("total", placed.Total),
	)

	s.afterCommit(ctx, placed)
	return placed, nil
}

func (s *Service) newOrder(userID string, req PlaceOrderRequest, method string, t pricing.Totals, now time.Time) *Order {
	paymentStatus := PaymentPaid
	if method == PaymentCOD {
		paymentStatus = PaymentPending
	}
	return &Order{
		ID:            s.newID(),
		UserID:        userID,
		AddressLine:   strings.TrimSpace(req.Address.Line1),
		City:          strings.TrimSpace(req.Address.City),
		Pincode:       strings.TrimSpace(req.Address.Pincode),
		Phone:         strings.TrimSpace(req.Address.Phone),
		Subtotal:      t.Subtotal,
		DeliveryFee:   t.DeliveryFee,
		Discount:      t.Discount(),
		Total:         t.Total,
		PaymentMethod: method,
		PaymentStatus: paymentStatus,
		Status:        StatusConfirmed,
		Notes:         req.Notes,
		CreatedAt:     now,
		UpdatedAt:     now,
	}
}

// insertAttempts bounds id regeneration when InsertOrder reports a collision.
const insertAttempts = 3

func (s *Service) insertOrder(ctx context.Context, tx Tx, o *Order) error {
	for attempt := 1; ; attempt++ {
		err := tx.InsertOrder(ctx, o)
		if err == nil {
			return nil
		}
		if !errors.Is(err, ErrDuplicateID) || attempt == insertAttempts {
			return errors.Wrap(err, "insert order")
		}
		zctx.From(ctx).Warn("Order id collision, regenerating", zap.String("order_id", o.ID))
		o.ID = s.newID()
		for i := range o.Items {
			o.Items[i].OrderID = o.ID
		}
	}
}

// afterCommit runs side effects that must not undo a committed order.
func (s *Service) afterCommit(ctx context.Context, o *Order) {
	lg := zctx.From(ctx)

	ids := make([]string, len(o.Items))
	for i, it := range o.Items {
		ids[i] = it.ProductID
	}
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		lg.Warn("Catalog cache eviction failed", zap.Error(err))
	}

	if err := s.events.Publish(ctx, events.Event{
		Type:       events.OrderPlaced,
		OrderID:    o.ID,
		UserID:     o.UserID,
		Status:     string(o.Status),
		Total:      o.Total,
		OccurredAt: o.CreatedAt,
	}); err != nil {
		lg.Warn("Publish order event failed", zap.String("order_id", o.ID), zap.Error(err))
	}
}

// newOrderID returns "ORD" followed by 8 upper-case hex characters.
func newOrderID() string {
	id := uuid.New()
	return "ORD" + strings.ToUpper(strings.ReplaceAll(id.String(), "-", "")[:8])
}

func rejectionReason(err error) string {
	var (
		stockErr *StockExceededError
		valErr   *ValidationError
	)
	switch {
	case errors.As(err, &stockErr):
		return "stock"
	case errors.As(err, &valErr):
		return "validation"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	default:
		return "error"
	}
}

// GetOrder returns an order visible to the caller.
func (s *Service) GetOrder(ctx context.Context, id auth.Identity, orderID string) (*Order, error) {
	o, err := s.orders.Get(ctx, orderID)
	if err != nil {
		return nil, err
	}
	if !id.CanAccess(o.UserID) {
		return nil, auth.ErrForbidden
	}
	return o, nil
}

// ListOrders returns the caller's orders, newest first.
func (s *Service) ListOrders(ctx context.Context, id auth.Identity) ([]Order, error) {
	return s.orders.ListByUser(ctx, id.UserID)
}

// ListAll returns every order, optionally filtered by status. Admin only.
func (s *Service) ListAll(ctx context.Context, id auth.Identity, status string) ([]Order, error) {
	if !id.IsAdmin() {
		return nil, auth.ErrForbidden
	}
	st := Status(status)
	if st != "" && !st.Valid() {
		return nil, invalidStatusError()
	}
	return s.orders.ListAll(ctx, st)
}

// UpdateStatus moves an order to status. Admin only.
func (s *Service) UpdateStatus(ctx context.Context, id auth.Identity, orderID, status string) error {
	if !id.IsAdmin() {
		return auth.ErrForbidden
	}
	st := Status(status)
	if !st.Valid() {
		return invalidStatusError()
	}

	now := s.now().UTC()
	if err := s.orders.UpdateStatus(ctx, orderID, st, now); err != nil {
		return err
	}

	if err := s.events.Publish(ctx, events.Event{
		Type:       events.OrderStatusChanged,
		OrderID:    orderID,
		Status:     string(st),
		OccurredAt: now,
	}); err != nil {
		zctx.From(ctx).Warn("Publish order event failed", zap.String("order_id", orderID), zap.Error(err))
	}
	return nil
}

// Stats returns the admin dashboard summary. Admin only.
func (s *Service) Stats(ctx context.Context, id auth.Identity) (*Stats, error) {
	if !id.IsAdmin() {
		return nil, auth.ErrForbidden
	}
	return s.orders.Stats(ctx)
}
