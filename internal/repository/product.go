package repository

import (
	"context"
	"strings"

	"github.com/go-faster/errors"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/sushovancpp/urmart/internal/domain/product"
)

const (
	productColumns = `id, name, description, category_id, emoji, brand, weight,
		price, mrp, discount, stock, rating, review_count, is_active, created_at`

	getProductByIDSQL = `SELECT ` + productColumns + `
		FROM products WHERE id = $1 AND is_active`

	featuredProductsSQL = `SELECT ` + productColumns + `
		FROM products WHERE is_active AND discount >= 15
		ORDER BY discount DESC, id LIMIT $1`

	trendingProductsSQL = `SELECT ` + productColumns + `
		FROM products WHERE is_active
		ORDER BY review_count DESC, id LIMIT $1`

	listCategoriesSQL = `SELECT id, name, emoji, sort_order FROM categories ORDER BY sort_order, id`

	getCategorySQL = `SELECT id, name, emoji, sort_order FROM categories WHERE id = $1`

	// listProductsSQL filters by optional category ($1) and search term ($2).
	// COUNT(*) OVER () carries the unpaged total on every row.
	listProductsSQL = `SELECT ` + productColumns + `, COUNT(*) OVER () AS total
		FROM products
		WHERE is_active
			AND ($1 = '' OR category_id = $1)
			AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR brand ILIKE '%' || $2 || '%'
				OR description ILIKE '%' || $2 || '%')
		ORDER BY {order}
		LIMIT $3 OFFSET $4`

	countProductsSQL = `SELECT COUNT(*) FROM products
		WHERE is_active
			AND ($1 = '' OR category_id = $1)
			AND ($2 = '' OR name ILIKE '%' || $2 || '%' OR brand ILIKE '%' || $2 || '%'
				OR description ILIKE '%' || $2 || '%')`
)

var productOrder = map[product.Sort]string{
	product.SortDefault:   "review_count DESC, id",
	product.SortPriceAsc:  "price ASC, id",
	product.SortPriceDesc: "price DESC, id",
	product.SortRating:    "rating DESC, id",
	product.SortDiscount:  "discount DESC, id",
	product.SortNewest:    "created_at DESC, id",
}

var _ product.Repository = (*ProductRepository)(nil)

// ProductRepository implements product.Repository backed by PostgreSQL.
type ProductRepository struct {
	pool *pgxpool.Pool
}

// NewProductRepository returns a ProductRepository that uses the given pool.
func NewProductRepository(pool *pgxpool.Pool) *ProductRepository {
	return &ProductRepository{pool: pool}
}

// List returns one page of active products matching f.
func (r *ProductRepository) List(ctx context.Context, f product.Filter) (*product.Page, error) {
	f = f.Normalize()
	// The ORDER BY clause always comes from productOrder, never from input.
	query := strings.Replace(listProductsSQL, "{order}", productOrder[f.Sort], 1)

	rows, err := r.pool.Query(ctx, query, f.CategoryID, f.Search, f.PerPage, f.Offset())
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}

	var total int
	items, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (product.Product, error) {
		var p product.Product
		err := row.Scan(append(productDest(&p), &total)...)
		return p, err
	})
	if err != nil {
		return nil, errors.Wrap(err, "list products")
	}

	// A page past the end has no rows to carry the window total.
	if len(items) == 0 && f.Page > 1 {
		if err := r.pool.QueryRow(ctx, countProductsSQL, f.CategoryID, f.Search).Scan(&total); err != nil {
			return nil, errors.Wrap(err, "count products")
		}
	}
	return &product.Page{Items: items, Total: total}, nil
}

// GetByID returns an active product by its identifier.
func (r *ProductRepository) GetByID(ctx context.Context, id string) (*product.Product, error) {
	rows, err := r.pool.Query(ctx, getProductByIDSQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get product %q", id)
	}

	p, err := pgx.CollectExactlyOneRow(rows, scanProduct)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get product %q", id)
	}
	return &p, nil
}

// Featured returns discounted products, deepest discount first.
func (r *ProductRepository) Featured(ctx context.Context, limit int) ([]product.Product, error) {
	return r.collect(ctx, featuredProductsSQL, limit)
}

// Trending returns the most reviewed products.
func (r *ProductRepository) Trending(ctx context.Context, limit int) ([]product.Product, error) {
	return r.collect(ctx, trendingProductsSQL, limit)
}

func (r *ProductRepository) collect(ctx context.Context, sql string, args ...any) ([]product.Product, error) {
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, errors.Wrap(err, "query products")
	}
	return pgx.CollectRows(rows, scanProduct)
}

// Categories returns all categories in display order.
func (r *ProductRepository) Categories(ctx context.Context) ([]product.Category, error) {
	rows, err := r.pool.Query(ctx, listCategoriesSQL)
	if err != nil {
		return nil, errors.Wrap(err, "list categories")
	}
	return pgx.CollectRows(rows, pgx.RowToStructByPos[product.Category])
}

// GetCategory returns a category by id.
func (r *ProductRepository) GetCategory(ctx context.Context, id string) (*product.Category, error) {
	rows, err := r.pool.Query(ctx, getCategorySQL, id)
	if err != nil {
		return nil, errors.Wrapf(err, "get category %q", id)
	}
	c, err := pgx.CollectExactlyOneRow(rows, pgx.RowToStructByPos[product.Category])
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, product.ErrNotFound
		}
		return nil, errors.Wrapf(err, "get category %q", id)
	}
	return &c, nil
}

func productDest(p *product.Product) []any {
	return []any{
		&p.ID, &p.Name, &p.Description, &p.CategoryID, &p.Emoji, &p.Brand, &p.Weight,
		&p.Price, &p.MRP, &p.Discount, &p.Stock, &p.Rating, &p.ReviewCount, &p.Active, &p.CreatedAt,
	}
}

func scanProduct(row pgx.CollectableRow) (product.Product, error) {
	var p product.Product
	err := row.Scan(productDest(&p)...)
	return p, err
}
