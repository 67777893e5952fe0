package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sushovancpp/urmart/internal/domain/cart"
)

const (
	cartLineColumns = `c.id, c.product_id, c.qty, c.added_at,
		p.name, p.emoji, p.weight, p.brand, p.price, p.mrp, p.discount, p.stock`

	listCartSQL = `SELECT ` + cartLineColumns + `
		FROM cart_lines c JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1
		ORDER BY c.added_at DESC, c.id`

	getCartLineSQL = `SELECT ` + cartLineColumns + `
		FROM cart_lines c JOIN products p ON p.id = c.product_id
		WHERE c.user_id = $1 AND c.id = $2`

	// addCartLineSQL inserts or increments in one statement. The WHERE on the
	// conflict branch skips the update when the result would pass the limit,
	// in which case no row is returned.
	addCartLineSQL = `INSERT INTO cart_lines (id, user_id, product_id, qty, added_at)
		SELECT $1::text, $2::text, $3::text, $4::int, $6::timestamptz WHERE $4::int <= $5::int
		ON CONFLICT (user_id, product_id) DO UPDATE
			SET qty = cart_lines.qty + EXCLUDED.qty
			WHERE cart_lines.qty + EXCLUDED.qty <= $5::int
		RETURNING qty`

	setCartQtySQL = `UPDATE cart_lines SET qty = $3 WHERE user_id = $1 AND id = $2`

	removeCartLineSQL = `DELETE FROM cart_lines WHERE user_id = $1 AND id = $2`

	clearCartSQL = `DELETE FROM cart_lines WHERE user_id = $1`
)

var _ cart.Repository = (*CartRepository)(nil)

// CartRepository implements cart.Repository backed by PostgreSQL.
type CartRepository struct {
	pool *pgxpool.Pool
}

// NewCartRepository returns a CartRepository that uses the given pool.
func NewCartRepository(pool *pgxpool.Pool) *CartRepository {
	return &CartRepository{pool: pool}
}

// Lines returns the user's cart joined with live product fields.
func (r *CartRepository) Lines(ctx context.Context, userID string) ([]cart.Line, error) {
	rows, err := r.pool.Query(ctx, listCartSQL, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list cart")
	}
	return pgx.CollectRows(rows, scanCartLine)
}

// Line returns one line of the user's cart.
func (r *CartRepository) Line(ctx context.Context, userID, lineID string) (*cart.Line, error) {
	rows, err := r.pool.Query(ctx, getCartLineSQL, userID, lineID)
	if err != nil {
		return nil, errors.Wrap(err, "get cart line")
	}
	l, err := pgx.CollectExactlyOneRow(rows, scanCartLine)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, cart.ErrLineNotFound
		}
		return nil, errors.Wrap(err, "get cart line")
	}
	return &l, nil
}

// Add inserts or increments a line unless the result would exceed p.Limit.
func (r *CartRepository) Add(ctx context.Context, p cart.AddParams) (int, bool, error) {
	var qty int
	err := r.pool.QueryRow(ctx, addCartLineSQL,
		p.LineID, p.UserID, p.ProductID, p.Qty, p.Limit, p.AddedAt,
	).Scan(&qty)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, false, nil
		}
		return 0, false, errors.Wrap(err, "add cart line")
	}
	return qty, true, nil
}

// SetQty overwrites a line's quantity.
func (r *CartRepository) SetQty(ctx context.Context, userID, lineID string, qty int) error {
	tag, err := r.pool.Exec(ctx, setCartQtySQL, userID, lineID, qty)
	if err != nil {
		return errors.Wrap(err, "set cart qty")
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

// Remove deletes one line.
func (r *CartRepository) Remove(ctx context.Context, userID, lineID string) error {
	tag, err := r.pool.Exec(ctx, removeCartLineSQL, userID, lineID)
	if err != nil {
		return errors.Wrap(err, "remove cart line")
	}
	if tag.RowsAffected() == 0 {
		return cart.ErrLineNotFound
	}
	return nil
}

// Clear deletes every line of the user's cart.
func (r *CartRepository) Clear(ctx context.Context, userID string) error {
	if _, err := r.pool.Exec(ctx, clearCartSQL, userID); err != nil {
		return errors.Wrap(err, "clear cart")
	}
	return nil
}

func scanCartLine(row pgx.CollectableRow) (cart.Line, error) {
	var l cart.Line
	err := row.Scan(
		&l.ID, &l.ProductID, &l.Qty, &l.AddedAt,
		&l.Name, &l.Emoji, &l.Weight, &l.Brand, &l.Price, &l.MRP, &l.Discount, &l.Stock,
	)
	return l, err
}
