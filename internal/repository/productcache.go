package repository

import (
	"context"
	"encoding/json"
	"time"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/sushovancpp/urmart/internal/domain/product"
)

const categoriesCacheKey = "catalog:categories"

func productCacheKey(id string) string {
	return "catalog:product:" + id
}

var (
	_ product.Repository  = (*CachedCatalog)(nil)
	_ product.Invalidator = (*CachedCatalog)(nil)
)

// CachedCatalog is a read-through Redis cache in front of a product.Repository
// for product detail and category lookups. Listings always hit the database.
//
// Cache failures degrade to the underlying repository.
type CachedCatalog struct {
	product.Repository
	rdb *redis.Client
	ttl time.Duration
}

// NewCachedCatalog wraps next with a Redis cache.
func NewCachedCatalog(next product.Repository, rdb *redis.Client, ttl time.Duration) *CachedCatalog {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &CachedCatalog{Repository: next, rdb: rdb, ttl: ttl}
}

// GetByID returns a product from cache, loading it on a miss.
func (c *CachedCatalog) GetByID(ctx context.Context, id string) (*product.Product, error) {
	var p product.Product
	if c.load(ctx, productCacheKey(id), &p) {
		return &p, nil
	}
	got, err := c.Repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	c.store(ctx, productCacheKey(id), got)
	return got, nil
}

// Categories returns the category list from cache, loading it on a miss.
func (c *CachedCatalog) Categories(ctx context.Context) ([]product.Category, error) {
	var cats []product.Category
	if c.load(ctx, categoriesCacheKey, &cats) {
		return cats, nil
	}
	got, err := c.Repository.Categories(ctx)
	if err != nil {
		return nil, err
	}
	c.store(ctx, categoriesCacheKey, got)
	return got, nil
}

// Invalidate evicts cached products. With no ids it evicts categories too.
func (c *CachedCatalog) Invalidate(ctx context.Context, ids ...string) error {
	keys := make([]string, 0, len(ids)+1)
	for _, id := range ids {
		keys = append(keys, productCacheKey(id))
	}
	if len(ids) == 0 {
		keys = append(keys, categoriesCacheKey)
	}
	if err := c.rdb.Del(ctx, keys...).Err(); err != nil {
		return errors.Wrap(err, "evict catalog cache")
	}
	return nil
}

func (c *CachedCatalog) load(ctx context.Context, key string, v any) bool {
	raw, err := c.rdb.Get(ctx, key).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			zctx.From(ctx).Warn("Catalog cache read failed", zap.String("key", key), zap.Error(err))
		}
		return false
	}
	if err := json.Unmarshal(raw, v); err != nil {
		zctx.From(ctx).Warn("Catalog cache entry corrupt", zap.String("key", key), zap.Error(err))
		return false
	}
	return true
}

func (c *CachedCatalog) store(ctx context.Context, key string, v any) {
	raw, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := c.rdb.Set(ctx, key, raw, c.ttl).Err(); err != nil {
		zctx.From(ctx).Warn("Catalog cache write failed", zap.String("key", key), zap.Error(err))
	}
}
