package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/shopspring/decimal"
)

// ErrNotFound is returned when a requested product does not exist or is inactive.
var ErrNotFound = errors.New("Product not found")

// Product represents a catalog item available for purchase.
type Product struct {
	ID          string          `json:"id"`
	Name        string          `json:"name"`
	Description string          `json:"description"`
	CategoryID  string          `json:"category_id"`
	Emoji       string          `json:"emoji"`
	Brand       string          `json:"brand"`
	Weight      string          `json:"weight"`
	Price       decimal.Decimal `json:"price"`
	MRP         decimal.Decimal `json:"mrp"`
	Discount    int             `json:"discount"`
	Stock       int             `json:"stock"`
	Rating      decimal.Decimal `json:"rating"`
	ReviewCount int             `json:"review_count"`
	Active      bool            `json:"is_active"`
	CreatedAt   time.Time       `json:"created_at"`
}

// Category groups products on the storefront.
type Category struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Emoji     string `json:"emoji"`
	SortOrder int    `json:"sort_order"`
}

// Sort selects the listing order.
type Sort string

const (
	SortDefault   Sort = "default"
	SortPriceAsc  Sort = "price_asc"
	SortPriceDesc Sort = "price_desc"
	SortRating    Sort = "rating"
	SortDiscount  Sort = "discount"
	SortNewest    Sort = "newest"
)

// Filter narrows a product listing.
type Filter struct {
	CategoryID string
	Search     string
	Sort       Sort
	Page       int
	PerPage    int
}

// Normalize clamps paging to sane values and falls back to the default sort.
func (f Filter) Normalize() Filter {
	if f.Page < 1 {
		f.Page = 1
	}
	if f.PerPage < 1 {
		f.PerPage = 50
	}
	if f.PerPage > 200 {
		f.PerPage = 200
	}
	switch f.Sort {
	case SortPriceAsc, SortPriceDesc, SortRating, SortDiscount, SortNewest:
	default:
		f.Sort = SortDefault
	}
	return f
}

// Offset is the number of rows to skip for the current page.
func (f Filter) Offset() int {
	return (f.Page - 1) * f.PerPage
}

// Page is one page of a product listing.
type Page struct {
	Items []Product
	Total int
}

// Repository defines read operations for the storefront catalog. Lookups see
// only active products.
type Repository interface {
	List(ctx context.Context, f Filter) (*Page, error)
	GetByID(ctx context.Context, id string) (*Product, error)
	Featured(ctx context.Context, limit int) ([]Product, error)
	Trending(ctx context.Context, limit int) ([]Product, error)
	Categories(ctx context.Context) ([]Category, error)
	GetCategory(ctx context.Context, id string) (*Category, error)
}
