package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sushovancpp/urmart/internal/domain/coupon"
	"github.com/sushovancpp/urmart/internal/domain/order"
)

const (
	// cartSnapshotSQL locks the product rows in id order so concurrent
	// checkouts over overlapping products queue instead of deadlocking. The
	// cart rows are locked too so a concurrent add waits for the clear.
	cartSnapshotSQL = `SELECT p.id, p.name, p.emoji, p.weight, p.price, p.stock, c.qty
		FROM cart_lines c JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY p.id
		FOR UPDATE OF p, c`

	lockCouponSQL = `SELECT ` + couponColumns + `
		FROM coupons WHERE code = $1 AND is_active
		FOR UPDATE`

	redeemCouponSQL = `UPDATE coupons SET used_count = used_count + 1
		WHERE id = $1 AND (max_uses <= 0 OR used_count < max_uses)`

	insertOrderSQL = `INSERT INTO orders (id, user_id, address_line, city, pincode, phone,
		subtotal, delivery_fee, discount, total, payment_method, payment_status, status, notes,
		created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)`

	decrementStockSQL = `UPDATE products SET stock = stock - $2 WHERE id = $1 AND stock >= $2`
)

var orderItemColumns = []string{"id", "order_id", "product_id", "name", "emoji", "weight", "price", "qty"}

var _ order.Store = (*CheckoutStore)(nil)

// CheckoutStore implements order.Store with a single PostgreSQL transaction
// per checkout.
type CheckoutStore struct {
	pool *pgxpool.Pool
}

// NewCheckoutStore returns a CheckoutStore that uses the given pool.
func NewCheckoutStore(pool *pgxpool.Pool) *CheckoutStore {
	return &CheckoutStore{pool: pool}
}

// Checkout runs fn in a transaction. Any error from fn, or ctx expiring,
// rolls everything back.
func (s *CheckoutStore) Checkout(ctx context.Context, fn func(ctx context.Context, tx order.Tx) error) error {
	return inTx(ctx, s.pool, func(tx pgx.Tx) error {
		return fn(ctx, &checkoutTx{tx: tx})
	})
}

type checkoutTx struct {
	tx pgx.Tx
}

func (t *checkoutTx) CartSnapshot(ctx context.Context, userID string) ([]order.Line, error) {
	rows, err := t.tx.Query(ctx, cartSnapshotSQL, userID)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (order.Line, error) {
		var l order.Line
		err := row.Scan(&l.ProductID, &l.Name, &l.Emoji, &l.Weight, &l.Price, &l.Stock, &l.Qty)
		return l, err
	})
}

func (t *checkoutTx) LockCoupon(ctx context.Context, code string) (*coupon.Coupon, error) {
	return findCoupon(ctx, t.tx, lockCouponSQL, code)
}

func (t *checkoutTx) RedeemCoupon(ctx context.Context, couponID string) (bool, error) {
	tag, err := t.tx.Exec(ctx, redeemCouponSQL, couponID)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (t *checkoutTx) InsertOrder(ctx context.Context, o *order.Order) error {
	// The header insert runs under a savepoint so an id collision leaves the
	// checkout transaction usable for a retry.
	sp, err := t.tx.Begin(ctx)
	if err != nil {
		return errors.Wrap(err, "savepoint")
	}
	if _, err := sp.Exec(ctx, insertOrderSQL,
		o.ID, o.UserID, o.AddressLine, o.City, o.Pincode, o.Phone,
		o.Subtotal, o.DeliveryFee, o.Discount, o.Total,
		o.PaymentMethod, o.PaymentStatus, string(o.Status), o.Notes,
		o.CreatedAt, o.UpdatedAt,
	); err != nil {
		_ = sp.Rollback(ctx)
		if isUniqueViolation(err) {
			return order.ErrDuplicateID
		}
		return errors.Wrap(err, "insert order header")
	}
	if err := sp.Commit(ctx); err != nil {
		return errors.Wrap(err, "release savepoint")
	}

	if _, err := t.tx.CopyFrom(ctx, pgx.Identifier{"order_items"}, orderItemColumns,
		pgx.CopyFromSlice(len(o.Items), func(i int) ([]any, error) {
			it := o.Items[i]
			return []any{it.ID, it.OrderID, it.ProductID, it.Name, it.Emoji, it.Weight, it.Price, it.Qty}, nil
		}),
	); err != nil {
		return errors.Wrap(err, "copy order items")
	}
	return nil
}

func (t *checkoutTx) DecrementStock(ctx context.Context, productID string, qty int) (bool, error) {
	tag, err := t.tx.Exec(ctx, decrementStockSQL, productID, qty)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}

func (t *checkoutTx) ClearCart(ctx context.Context, userID string) error {
	_, err := t.tx.Exec(ctx, clearCartSQL, userID)
	return err
}
