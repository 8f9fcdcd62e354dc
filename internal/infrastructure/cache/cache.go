// Package cache provides the embedding vector caches.
package cache

import (
	"context"
	"fmt"
	"io"

	"github.com/smartswap/backend/internal/domain"
)

// Cache is a domain.CacheRepository that owns resources
type Cache interface {
	domain.CacheRepository
	io.Closer
}

// Config selects and configures a cache backend
type Config struct {
	Type     string // memory or redis
	RedisURL string
	Prefix   string
}

// New builds the configured cache
func New(ctx context.Context, cfg Config) (Cache, error) {
	switch cfg.Type {
	case "", "memory":
		return NewMemoryCache(0), nil
	case "redis":
		return NewRedisCache(ctx, RedisConfig{URL: cfg.RedisURL, Prefix: cfg.Prefix})
	default:
		return nil, fmt.Errorf("unknown cache type %q", cfg.Type)
	}
}
