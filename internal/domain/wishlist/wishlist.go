// Package wishlist keeps the products a user has saved for later.
package wishlist

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/sushovancpp/urmart/internal/domain/product"
)

// Item is a wishlisted product with its live catalog fields.
type Item struct {
	ProductID   string          `json:"id"`
	Name        string          `json:"name"`
	Emoji       string          `json:"emoji"`
	Weight      string          `json:"weight"`
	Price       decimal.Decimal `json:"price"`
	MRP         decimal.Decimal `json:"mrp"`
	Discount    int             `json:"discount"`
	Brand       string          `json:"brand"`
	Rating      decimal.Decimal `json:"rating"`
	ReviewCount int             `json:"review_count"`
	Stock       int             `json:"stock"`
	CategoryID  string          `json:"category_id"`
	AddedAt     time.Time       `json:"added_at"`
}

// Repository persists wishlist entries.
type Repository interface {
	// List returns the user's wishlist, most recently added first.
	List(ctx context.Context, userID string) ([]Item, error)
	// Toggle removes the entry when present and inserts it otherwise,
	// reporting whether the product is wishlisted afterwards.
	Toggle(ctx context.Context, entryID, userID, productID string, at time.Time) (bool, error)
}

// Products resolves active products.
type Products interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
}

// Service implements the wishlist.
type Service struct {
	repo     Repository
	products Products
	now      func() time.Time
}

// NewService creates a wishlist Service.
func NewService(repo Repository, products Products) *Service {
	return &Service{repo: repo, products: products, now: time.Now}
}

// List returns the user's wishlist.
func (s *Service) List(ctx context.Context, userID string) ([]Item, error) {
	out, err := s.repo.List(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "list wishlist")
	}
	if out == nil {
		out = []Item{}
	}
	return out, nil
}

// Toggle flips whether productID is on the user's wishlist.
func (s *Service) Toggle(ctx context.Context, userID, productID string) (bool, error) {
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return false, err
	}
	on, err := s.repo.Toggle(ctx, uuid.NewString(), userID, productID, s.now().UTC())
	if err != nil {
		return false, errors.Wrap(err, "toggle wishlist")
	}
	return on, nil
}
