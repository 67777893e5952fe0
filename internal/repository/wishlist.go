package repository

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sushovancpp/urmart/internal/domain/wishlist"
)

const (
	listWishlistSQL = `SELECT p.id, p.name, p.emoji, p.weight, p.price, p.mrp, p.discount,
		p.brand, p.rating, p.review_count, p.stock, p.category_id, w.added_at
		FROM wishlist w JOIN products p ON p.id = w.product_id
		WHERE w.user_id = $1
		ORDER BY w.added_at DESC, p.id`

	deleteWishlistSQL = `DELETE FROM wishlist WHERE user_id = $1 AND product_id = $2`

	insertWishlistSQL = `INSERT INTO wishlist (id, user_id, product_id, added_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (user_id, product_id) DO NOTHING`
)

var _ wishlist.Repository = (*WishlistRepository)(nil)

// WishlistRepository implements wishlist.Repository backed by PostgreSQL.
type WishlistRepository struct {
	pool *pgxpool.Pool
}

// NewWishlistRepository returns a WishlistRepository that uses the given pool.
func NewWishlistRepository(pool *pgxpool.Pool) *WishlistRepository {
	return &WishlistRepository{pool: pool}
}

// List returns the user's wishlist, most recently added first.
func (r *WishlistRepository) List(ctx context.Context, userID string) ([]wishlist.Item, error) {
	rows, err := r.pool.Query(ctx, listWishlistSQL, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list wishlist")
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[wishlist.Item])
}

// Toggle deletes the entry if present and inserts it otherwise.
func (r *WishlistRepository) Toggle(ctx context.Context, entryID, userID, productID string, at time.Time) (bool, error) {
	var on bool
	err := inTx(ctx, r.pool, func(tx pgx.Tx) error {
		tag, err := tx.Exec(ctx, deleteWishlistSQL, userID, productID)
		if err != nil {
			return errors.Wrap(err, "delete wishlist entry")
		}
		if tag.RowsAffected() > 0 {
			return nil
		}
		if _, err := tx.Exec(ctx, insertWishlistSQL, entryID, userID, productID, at); err != nil {
			return errors.Wrap(err, "insert wishlist entry")
		}
		on = true
		return nil
	})
	return on, err
}
