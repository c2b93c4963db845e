package mailing

import (
	"context"
	"encoding/json"
	"log"
	"time"

	"github.com/redis/go-redis/v9"
)

const templateCachePrefix = "email_template:"

// TemplateCache is a read-through Redis cache in front of a
// TemplateResolver. Dispatch resolves the same handful of slugs over and
// over; caching the rows keeps the hot path off the database. Misses and
// Redis failures fall through to the underlying store, so the dispatcher
// behaves identically with the cache degraded or absent.
type TemplateCache struct {
	store TemplateResolver
	rdb   *redis.Client
	ttl   time.Duration
}

// NewTemplateCache wraps a resolver with a Redis cache.
func NewTemplateCache(store TemplateResolver, rdb *redis.Client, ttl time.Duration) *TemplateCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &TemplateCache{store: store, rdb: rdb, ttl: ttl}
}

// GetBySlug implements TemplateResolver. Negative lookups are not
// cached: a missing template is an admin-visible error and should not
// linger after the template is created.
func (c *TemplateCache) GetBySlug(ctx context.Context, slug string) (*EmailTemplate, error) {
	key := templateCachePrefix + slug

	data, err := c.rdb.Get(ctx, key).Bytes()
	if err == nil {
		var t EmailTemplate
		if jsonErr := json.Unmarshal(data, &t); jsonErr == nil {
			return &t, nil
		}
		// Corrupt entry: drop it and fall through
		c.rdb.Del(ctx, key)
	} else if err != redis.Nil {
		log.Printf("TemplateCache: redis get %s: %v", slug, err)
	}

	t, err := c.store.GetBySlug(ctx, slug)
	if err != nil || t == nil {
		return t, err
	}

	if data, jsonErr := json.Marshal(t); jsonErr == nil {
		if setErr := c.rdb.Set(ctx, key, data, c.ttl).Err(); setErr != nil {
			log.Printf("TemplateCache: redis set %s: %v", slug, setErr)
		}
	}
	return t, nil
}

// Invalidate drops a cached slug after an admin write.
func (c *TemplateCache) Invalidate(ctx context.Context, slug string) {
	if err := c.rdb.Del(ctx, templateCachePrefix+slug).Err(); err != nil {
		log.Printf("TemplateCache: redis del %s: %v", slug, err)
	}
}
