package product

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"

	"storefront/internal/domain"
	"storefront/internal/logging"
)

// ErrCacheMiss is returned by a Cache when the key is absent.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the byte store behind CachedRepo.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

type RedisCache struct {
	rdb *redis.Client
}

func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Get(ctx context.Context, key string) ([]byte, error) {
	b, err := c.rdb.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	return b, err
}

func (c *RedisCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return c.rdb.Set(ctx, key, value, ttl).Err()
}

func (c *RedisCache) Delete(ctx context.Context, key string) error {
	return c.rdb.Del(ctx, key).Err()
}

// CachedRepo serves GetByID through a read-through cache.
// Stock checks and listings always go to the underlying repository.
type CachedRepo struct {
	Repository
	cache  Cache
	ttl    time.Duration
	logger *logrus.Logger
}

func NewCached(repo Repository, cache Cache, ttl time.Duration, logger *logrus.Logger) *CachedRepo {
	if logger == nil {
		logger = logging.Discard()
	}
	return &CachedRepo{Repository: repo, cache: cache, ttl: ttl, logger: logger}
}

func cacheKey(id string) string {
	return "product:" + id
}

func (r *CachedRepo) GetByID(ctx context.Context, id string) (*domain.Product, error) {
	key := cacheKey(id)
	if b, err := r.cache.Get(ctx, key); err == nil {
		var p domain.Product
		if err := json.Unmarshal(b, &p); err == nil {
			return &p, nil
		}
		r.logger.WithField("product_id", id).Warn("product cache: dropping undecodable entry")
	} else if !errors.Is(err, ErrCacheMiss) {
		// A broken cache must not break lookups.
		r.logger.WithError(err).WithField("product_id", id).Warn("product cache: get")
	}

	p, err := r.Repository.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if b, err := json.Marshal(p); err == nil {
		if err := r.cache.Set(ctx, key, b, r.ttl); err != nil {
			r.logger.WithError(err).WithField("product_id", id).Warn("product cache: set")
		}
	}
	return p, nil
}

// InvalidatingWriter drops a product's cache entry after its upsert commits.
type InvalidatingWriter struct {
	Writer
	cache  Cache
	logger *logrus.Logger
}

func NewInvalidatingWriter(w Writer, cache Cache, logger *logrus.Logger) *InvalidatingWriter {
	if logger == nil {
		logger = logging.Discard()
	}
	return &InvalidatingWriter{Writer: w, cache: cache, logger: logger}
}

func (w *InvalidatingWriter) Upsert(ctx context.Context, p domain.Product) error {
	if err := w.Writer.Upsert(ctx, p); err != nil {
		return err
	}
	if err := w.cache.Delete(ctx, cacheKey(p.ID)); err != nil {
		return fmt.Errorf("invalidate cached product %s: %w", p.ID, err)
	}
	w.logger.WithField("product_id", p.ID).Debug("product cache: invalidated")
	return nil
}
