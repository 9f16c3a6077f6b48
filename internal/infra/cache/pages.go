package cache

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const pageKeyPrefix = "linkbio:page:"

// Page variants cached per slug.
const (
	VariantHTML         = "html"
	VariantJSON         = "json"
	VariantShowcaseHTML = "vitrine-html"
	VariantShowcaseJSON = "vitrine-json"
)

var variants = []string{VariantHTML, VariantJSON, VariantShowcaseHTML, VariantShowcaseJSON}

// PageKey returns the cache key of one rendered variant of a slug.
func PageKey(slug, variant string) string {
	return slug + ":" + variant
}

// SlugKeys returns every variant key of a slug, for invalidation.
func SlugKeys(slug string) []string {
	keys := make([]string, len(variants))
	for i, v := range variants {
		keys[i] = PageKey(slug, v)
	}
	return keys
}

// RedisPages is a page cache backed by Redis. Errors degrade to misses.
type RedisPages struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisPages creates a page cache on an existing client.
func NewRedisPages(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisPages {
	return &RedisPages{client: client, ttl: ttl, logger: logger}
}

// Get returns a cached page.
func (p *RedisPages) Get(ctx context.Context, key string) ([]byte, bool) {
	val, err := p.client.Get(ctx, pageKeyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false
	}
	if err != nil {
		p.logger.Warn("page cache get failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return val, true
}

// Set stores a page with the configured TTL.
func (p *RedisPages) Set(ctx context.Context, key string, value []byte) {
	if err := p.client.Set(ctx, pageKeyPrefix+key, value, p.ttl).Err(); err != nil {
		p.logger.Warn("page cache set failed", zap.String("key", key), zap.Error(err))
	}
}

// Delete removes pages.
func (p *RedisPages) Delete(ctx context.Context, keys ...string) {
	if len(keys) == 0 {
		return
	}
	full := make([]string, len(keys))
	for i, k := range keys {
		full[i] = pageKeyPrefix + k
	}
	if err := p.client.Del(ctx, full...).Err(); err != nil {
		p.logger.Warn("page cache delete failed", zap.Strings("keys", keys), zap.Error(err))
	}
}

// Ping checks the Redis connection.
func (p *RedisPages) Ping(ctx context.Context) error {
	return p.client.Ping(ctx).Err()
}

// MemoryPages is the in-process page cache used when Redis is not configured.
type MemoryPages struct {
	c *InMemory[[]byte]
}

// NewMemoryPages creates an in-memory page cache.
func NewMemoryPages(ttl time.Duration) *MemoryPages {
	return &MemoryPages{c: New[[]byte](ttl)}
}

func (p *MemoryPages) Get(_ context.Context, key string) ([]byte, bool) { return p.c.Get(key) }
func (p *MemoryPages) Set(_ context.Context, key string, value []byte)  { p.c.Set(key, value) }

func (p *MemoryPages) Delete(_ context.Context, keys ...string) {
	for _, k := range keys {
		p.c.Delete(k)
	}
}

// Close stops the underlying cleanup goroutine.
func (p *MemoryPages) Close() { p.c.Close() }
