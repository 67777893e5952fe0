package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sushovancpp/urmart/internal/domain/review"
)

const (
	insertReviewSQL = `INSERT INTO reviews (id, product_id, user_id, user_name, rating, comment, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`

	refreshRatingSQL = `UPDATE products SET
		rating = (SELECT ROUND(AVG(rating)::numeric, 1) FROM reviews WHERE product_id = $1),
		review_count = (SELECT COUNT(*) FROM reviews WHERE product_id = $1)
		WHERE id = $1`

	recentReviewsSQL = `SELECT id, product_id, user_id, user_name, rating, comment, created_at
		FROM reviews WHERE product_id = $1
		ORDER BY created_at DESC, id
		LIMIT $2`
)

var _ review.Repository = (*ReviewRepository)(nil)

// ReviewRepository implements review.Repository backed by PostgreSQL.
type ReviewRepository struct {
	pool *pgxpool.Pool
}

// NewReviewRepository returns a ReviewRepository that uses the given pool.
func NewReviewRepository(pool *pgxpool.Pool) *ReviewRepository {
	return &ReviewRepository{pool: pool}
}

// Create stores rv and refreshes the product's rating aggregate.
func (r *ReviewRepository) Create(ctx context.Context, rv *review.Review) error {
	return inTx(ctx, r.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, insertReviewSQL,
			rv.ID, rv.ProductID, rv.UserID, rv.UserName, rv.Rating, rv.Comment, rv.CreatedAt,
		); err != nil {
			return errors.Wrap(err, "insert review")
		}
		if _, err := tx.Exec(ctx, refreshRatingSQL, rv.ProductID); err != nil {
			return errors.Wrap(err, "refresh rating")
		}
		return nil
	})
}

// Recent returns the latest reviews of a product.
func (r *ReviewRepository) Recent(ctx context.Context, productID string, limit int) ([]review.Review, error) {
	rows, err := r.pool.Query(ctx, recentReviewsSQL, productID, limit)
	if err != nil {
		return nil, errors.Wrap(err, "list reviews")
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[review.Review])
}
