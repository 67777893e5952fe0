package repository

import (
	"context"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sushovancpp/urmart/internal/domain/product"
)

const (
	adminListProductsSQL = `SELECT ` + productColumns + ` FROM products ORDER BY created_at DESC, id`

	adminFindProductSQL = `SELECT ` + productColumns + ` FROM products WHERE id = $1`

	createProductSQL = `INSERT INTO products (` + productColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)`

	updateProductSQL = `UPDATE products SET
		name = $2, description = $3, category_id = $4, emoji = $5, brand = $6, weight = $7,
		price = $8, mrp = $9, discount = $10, stock = $11, rating = $12, is_active = $13
		WHERE id = $1`

	deactivateProductSQL = `UPDATE products SET is_active = FALSE WHERE id = $1`
)

var _ product.AdminRepository = (*ProductAdminRepository)(nil)

// ProductAdminRepository implements product.AdminRepository backed by
// PostgreSQL. Unlike ProductRepository it sees inactive products.
type ProductAdminRepository struct {
	pool *pgxpool.Pool
}

// NewProductAdminRepository returns a ProductAdminRepository that uses the given pool.
func NewProductAdminRepository(pool *pgxpool.Pool) *ProductAdminRepository {
	return &ProductAdminRepository{pool: pool}
}

// ListAll returns every product, newest first.
func (r *ProductAdminRepository) ListAll(ctx context.Context) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, adminListProductsSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list all products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Find returns a product regardless of its active flag.
func (r *ProductAdminRepository) Find(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, adminFindProductSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "find product %q", id)
	}
	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "find product %q", id)
	}
	return &p, nil
}

// Create inserts p.
func (r *ProductAdminRepository) Create(ctx context.Context, p *product.Product) error {
	_, err := r.pool.Exec(ctx, createProductSQL,
		p.ID, p.Name, p.Description, p.CategoryID, p.Emoji, p.Brand, p.Weight,
		p.Price, p.MRP, p.Discount, p.Stock, p.Rating, p.ReviewCount, p.Active, p.CreatedAt,
	)
	if err != nil {
		return errors.Wrapf(err, "create product %q", p.ID)
	}
	return nil
}

// Update overwrites the editable fields of p.
func (r *ProductAdminRepository) Update(ctx context.Context, p *product.Product) error {
	tag, err := r.pool.Exec(ctx, updateProductSQL,
		p.ID, p.Name, p.Description, p.CategoryID, p.Emoji, p.Brand, p.Weight,
		p.Price, p.MRP, p.Discount, p.Stock, p.Rating, p.Active,
	)
	if err != nil {
		return errors.Wrapf(err, "update product %q", p.ID)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}

// Deactivate hides a product from the storefront. Past orders keep their
// snapshot.
func (r *ProductAdminRepository) Deactivate(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx, deactivateProductSQL, id)
	if err != nil {
		return errors.Wrapf(err, "deactivate product %q", id)
	}
	if tag.RowsAffected() == 0 {
		return product.ErrNotFound
	}
	return nil
}
