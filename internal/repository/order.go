package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sushovancpp/urmart/internal/domain/order"
)

const (
	orderColumns = `o.id, o.user_id, o.address_line, o.city, o.pincode, o.phone,
		o.subtotal, o.delivery_fee, o.discount, o.total, o.payment_method, o.payment_status,
		o.status, o.notes, o.created_at, o.updated_at`

	getOrderSQL = `SELECT ` + orderColumns + `, '', '' FROM orders o WHERE o.id = $1`

	listUserOrdersSQL = `SELECT ` + orderColumns + `, '', ''
		FROM orders o WHERE o.user_id = $1
		ORDER BY o.created_at DESC, o.id`

	listAllOrdersSQL = `SELECT ` + orderColumns + `, u.name, u.email
		FROM orders o JOIN users u ON u.id = o.user_id
		WHERE ($1 = '' OR o.status = $1)
		ORDER BY o.created_at DESC, o.id`

	recentOrdersSQL = `SELECT ` + orderColumns + `, u.name, u.email
		FROM orders o JOIN users u ON u.id = o.user_id
		ORDER BY o.created_at DESC, o.id
		LIMIT 5`

	orderItemsSQL = `SELECT id, order_id, product_id, name, emoji, weight, price, qty
		FROM order_items WHERE order_id = ANY($1)
		ORDER BY order_id, name`

	updateOrderStatusSQL = `UPDATE orders SET status = $2, updated_at = $3 WHERE id = $1`

	statsTotalsSQL = `SELECT
		(SELECT COUNT(*) FROM users WHERE role = 'user'),
		(SELECT COUNT(*) FROM orders),
		(SELECT COALESCE(SUM(total), 0) FROM orders WHERE status <> 'cancelled'),
		(SELECT COUNT(*) FROM products WHERE is_active)`

	topProductsSQL = `SELECT name, emoji, SUM(qty) AS sold
		FROM order_items
		GROUP BY product_id, name, emoji
		ORDER BY sold DESC, name
		LIMIT 5`

	ordersByStatusSQL = `SELECT status, COUNT(*) FROM orders GROUP BY status ORDER BY status`
)

var _ order.Repository = (*OrderRepository)(nil)

// OrderRepository implements order.Repository backed by PostgreSQL.
type OrderRepository struct {
	pool *pgxpool.Pool
}

// NewOrderRepository returns an OrderRepository that uses the given pool.
func NewOrderRepository(pool *pgxpool.Pool) *OrderRepository {
	return &OrderRepository{pool: pool}
}

// Get returns an order with its items.
func (r *OrderRepository) Get(ctx context.Context, id string) (*order.Order, error) {
	rows, err := r.pool.Query(ctx, getOrderSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get order %q", id)
	}
	o, err := pgx.CollectExactlyOneRow(rows, scanOrder)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, order.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get order %q", id)
	}

	orders := []order.Order{o}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return &orders[0], nil
}

// ListByUser returns a user's orders with items, newest first.
func (r *OrderRepository) ListByUser(ctx context.Context, userID string) ([]order.Order, error) {
	return r.list(ctx, listUserOrdersSQL, userID)
}

// ListAll returns every order with the buyer's name and email, optionally
// filtered by status.
func (r *OrderRepository) ListAll(ctx context.Context, status order.Status) ([]order.Order, error) {
	return r.list(ctx, listAllOrdersSQL, string(status))
}

func (r *OrderRepository) list(ctx context.Context, sql string, args ...any) ([]order.Order, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	orders, err := pgx.CollectRows(rows, scanOrder)
	if err != nil {
		return nil, errors.Wrap(err, "list orders")
	}
	if err := r.attachItems(ctx, orders); err != nil {
		return nil, err
	}
	return orders, nil
}

// attachItems loads the items of all orders in one query.
func (r *OrderRepository) attachItems(ctx context.Context, orders []order.Order) error {
	if len(orders) == 0 {
		return nil
	}
	ids := make([]string, len(orders))
	index := make(map[string]int, len(orders))
	for i := range orders {
		ids[i] = orders[i].ID
		index[orders[i].ID] = i
		orders[i].Items = []order.Item{}
	}

	rows, err := r.pool.Query(ctx, orderItemsSQL, ids)
	if err != nil {
		return errors.Wrap(err, "list order items")
	}
	items, err := pgx.CollectRows(rows, pgx.RowToStructByPos[order.Item])
	if err != nil {
		return errors.Wrap(err, "list order items")
	}
	for _, it := range items {
		i := index[it.OrderID]
		orders[i].Items = append(orders[i].Items, it)
	}
	return nil
}

// UpdateStatus sets an order's status.
func (r *OrderRepository) UpdateStatus(ctx context.Context, id string, status order.Status, at time.Time) error {
	tag, err := r.pool.Exec(ctx, updateOrderStatusSQL, id, string(status), at)
	if err != nil {
		return errors.Wrapf(err, "update order %q status", id)
	}
	if tag.RowsAffected() == 0 {
		return order.ErrNotFound
	}
	return nil
}

// Stats computes the admin dashboard summary.
func (r *OrderRepository) Stats(ctx context.Context) (*order.Stats, error) {
	var s order.Stats
	if err := r.pool.QueryRow(ctx, statsTotalsSQL).Scan(&s.Users, &s.Orders, &s.Revenue, &s.Products); err != nil {
		return nil, errors.Wrap(err, "stats totals")
	}

	recent, err := r.list(ctx, recentOrdersSQL)
	if err != nil {
		return nil, errors.Wrap(err, "recent orders")
	}
	s.RecentOrders = recent

	rows, err := r.pool.Query(ctx, topProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "top products")
	}
	if s.TopProducts, err = pgx.CollectRows(rows, pgx.RowToStructByPos[order.TopProduct]); err != nil {
		return nil, errors.Wrap(err, "top products")
	}

	rows, err = r.pool.Query(ctx, ordersByStatusSQL)
	if err != nil {
		return nil, errors.Wrap(err, "orders by status")
	}
	if s.OrdersByStatus, err = pgx.CollectRows(rows, pgx.RowToStructByPos[order.StatusCount]); err != nil {
		return nil, errors.Wrap(err, "orders by status")
	}
	return &s, nil
}

func scanOrder(row pgx.CollectableRow) (order.Order, error) {
	var o order.Order
	err := row.Scan(
		&o.ID, &o.UserID, &o.AddressLine, &o.City, &o.Pincode, &o.Phone,
		&o.Subtotal, &o.DeliveryFee, &o.Discount, &o.Total, &o.PaymentMethod, &o.PaymentStatus,
		&o.Status, &o.Notes, &o.CreatedAt, &o.UpdatedAt,
		&o.UserName, &o.UserEmail,
	)
	return o, err
}
