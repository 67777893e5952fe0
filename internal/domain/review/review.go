// Package review stores product reviews and keeps product ratings in step
// with them.
package review

import (
	"context"
	"strings"
	"time"

	"github.com/go-faster/errors"
	"github.com/google/uuid"

	"github.com/sushovancpp/urmart/internal/domain/auth"
	"github.com/sushovancpp/urmart/internal/domain/product"
)

// RecentLimit is how many reviews a product page shows.
const RecentLimit = 20

// ValidationError reports invalid review input.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// Review is a user's rating and comment on a product.
type Review struct {
	ID        string    `json:"id"`
	ProductID string    `json:"product_id"`
	UserID    string    `json:"user_id"`
	UserName  string    `json:"user_name"`
	Rating    int       `json:"rating"`
	Comment   string    `json:"comment"`
	CreatedAt time.Time `json:"created_at"`
}

// Repository persists reviews.
type Repository interface {
	// Create stores r and recomputes the product's rating average (one
	// decimal place) and review count in the same transaction.
	Create(ctx context.Context, r *Review) error
	// Recent returns up to limit reviews of a product, newest first.
	Recent(ctx context.Context, productID string, limit int) ([]Review, error)
}

// Products resolves active products.
type Products interface {
	GetByID(ctx context.Context, id string) (*product.Product, error)
}

// Users resolves the reviewer's display name.
type Users interface {
	GetByID(ctx context.Context, id string) (*auth.User, error)
}

// Service implements product reviews.
type Service struct {
	repo     Repository
	products Products
	users    Users
	now      func() time.Time
}

// NewService creates a review Service.
func NewService(repo Repository, products Products, users Users) *Service {
	return &Service{repo: repo, products: products, users: users, now: time.Now}
}

// Add records a review by the caller.
func (s *Service) Add(ctx context.Context, userID, productID string, rating int, comment string) (*Review, error) {
	comment = strings.TrimSpace(comment)
	if comment == "" {
		return nil, &ValidationError{Message: "Comment is required"}
	}
	if rating < 1 || rating > 5 {
		return nil, &ValidationError{Message: "Rating must be 1-5"}
	}
	if _, err := s.products.GetByID(ctx, productID); err != nil {
		return nil, err
	}
	u, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, errors.Wrap(err, "get reviewer")
	}

	r := &Review{
		ID:        uuid.NewString(),
		ProductID: productID,
		UserID:    userID,
		UserName:  u.Name,
		Rating:    rating,
		Comment:   comment,
		CreatedAt: s.now().UTC(),
	}
	if err := s.repo.Create(ctx, r); err != nil {
		return nil, errors.Wrap(err, "create review")
	}
	return r, nil
}

// Recent returns the latest reviews of a product.
func (s *Service) Recent(ctx context.Context, productID string) ([]Review, error) {
	out, err := s.repo.Recent(ctx, productID, RecentLimit)
	if err != nil {
		return nil, errors.Wrap(err, "list reviews")
	}
	if out == nil {
		out = []Review{}
	}
	return out, nil
}
