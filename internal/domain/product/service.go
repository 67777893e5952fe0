package product

import (
	"context"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Invalidator drops cached copies of products after they change.
type Invalidator interface {
	Invalidate(ctx context.Context, ids ...string) error
}

// NopInvalidator is used when no catalog cache is configured.
type NopInvalidator struct{}

func (NopInvalidator) Invalidate(context.Context, ...string) error { return nil }

// AdminService implements catalog administration.
type AdminService struct {
	repo  AdminRepository
	cache Invalidator
	now   func() time.Time
}

// NewAdminService creates an AdminService. cache may be nil.
func NewAdminService(repo AdminRepository, cache Invalidator) *AdminService {
	if cache == nil {
		cache = NopInvalidator{}
	}
	return &AdminService{repo: repo, cache: cache, now: time.Now}
}

// List returns every product, newest first, including inactive ones.
func (s *AdminService) List(ctx context.Context) ([]Product, error) {
	return s.repo.ListAll(ctx)
}

// Create validates and stores a new active product.
func (s *AdminService) Create(ctx context.Context, d Draft) (*Product, error) {
	if err := d.RequireCreateFields(); err != nil {
		return nil, err
	}

	p := &Product{
		ID:        uuid.NewString(),
		Stock:     100,
		Rating:    decimal.RequireFromString("4.0"),
		Active:    true,
		CreatedAt: s.now().UTC(),
	}
	d.Active = nil
	d.Apply(p)
	if err := Validate(p); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, p); err != nil {
		return nil, errors.Wrap(err, "create product")
	}
	return p, nil
}

// Update merges d onto the stored product.
func (s *AdminService) Update(ctx context.Context, id string, d Draft) (*Product, error) {
	p, err := s.repo.Find(ctx, id)
	if err != nil {
		return nil, err
	}
	d.Apply(p)
	if err := Validate(p); err != nil {
		return nil, err
	}

	if err := s.repo.Update(ctx, p); err != nil {
		return nil, errors.Wrap(err, "update product")
	}
	s.invalidate(ctx, id)
	return p, nil
}

// Deactivate soft-deletes a product; existing orders keep their snapshots.
func (s *AdminService) Deactivate(ctx context.Context, id string) error {
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return err
	}
	s.invalidate(ctx, id)
	return nil
}

func (s *AdminService) invalidate(ctx context.Context, ids ...string) {
	if err := s.cache.Invalidate(ctx, ids...); err != nil {
		zctx.From(ctx).Warn("Catalog cache eviction failed", zap.Strings("ids", ids), zap.Error(err))
	}
}
