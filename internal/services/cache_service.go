package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"carpool/internal/utils"
	"carpool/pkg/cache"
	"carpool/pkg/logger"
)

type CacheService interface {
	// Get decodes the cached value into dest. A missing key returns
	// cache.ErrCacheMiss.
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error

	// Rate limiting
	CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error)
}

type RateLimitResult struct {
	Allowed   bool      `json:"allowed"`
	Limit     int64     `json:"limit"`
	Remaining int64     `json:"remaining"`
	ResetTime time.Time `json:"reset_time"`
}

// RedisStore is the subset of the Redis client the cache service needs.
type RedisStore interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error
	Delete(ctx context.Context, keys ...string) error
	IncrementWindow(ctx context.Context, key string, window time.Duration) (int64, error)
}

type cacheService struct {
	store  RedisStore
	logger *logger.Logger
}

func NewCacheService(store RedisStore, logger *logger.Logger) CacheService {
	return &cacheService{
		store:  store,
		logger: logger,
	}
}

func (s *cacheService) Get(ctx context.Context, key string, dest interface{}) error {
	err := s.store.Get(ctx, key, dest)
	if err != nil && !errors.Is(err, cache.ErrCacheMiss) {
		s.logger.WithError(err).WithField("key", key).Warn("Cache read failed")
		return cache.ErrCacheMiss
	}
	return err
}

func (s *cacheService) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if err := s.store.Set(ctx, key, value, expiration); err != nil {
		return fmt.Errorf("failed to set cache key %s: %w", key, err)
	}
	return nil
}

func (s *cacheService) Delete(ctx context.Context, keys ...string) error {
	if err := s.store.Delete(ctx, keys...); err != nil {
		return fmt.Errorf("failed to delete cache keys: %w", err)
	}
	return nil
}

func (s *cacheService) CheckRateLimit(ctx context.Context, key string, limit int64, window time.Duration) (*RateLimitResult, error) {
	count, err := s.store.IncrementWindow(ctx, fmt.Sprintf(utils.CacheKeyRateLimit, key), window)
	if err != nil {
		return nil, fmt.Errorf("failed to increment rate limit counter: %w", err)
	}

	remaining := limit - count
	if remaining < 0 {
		remaining = 0
	}

	return &RateLimitResult{
		Allowed:   count <= limit,
		Limit:     limit,
		Remaining: remaining,
		ResetTime: time.Now().Add(window),
	}, nil
}

// noopCacheService is used when Redis is disabled. Every read misses and
// every request is within its rate limit.
type noopCacheService struct{}

func NewNoopCacheService() CacheService {
	return noopCacheService{}
}

func (noopCacheService) Get(context.Context, string, interface{}) error {
	return cache.ErrCacheMiss
}

func (noopCacheService) Set(context.Context, string, interface{}, time.Duration) error {
	return nil
}

func (noopCacheService) Delete(context.Context, ...string) error {
	return nil
}

func (noopCacheService) CheckRateLimit(_ context.Context, _ string, limit int64, window time.Duration) (*RateLimitResult, error) {
	return &RateLimitResult{Allowed: true, Limit: limit, Remaining: limit, ResetTime: time.Now().Add(window)}, nil
}
