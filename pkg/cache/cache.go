package cache

import (
	"context"
	"time"

	logging "github.com/KonishchevDmitry/go-easy-logging"
	cache "github.com/go-pkgz/expirable-cache/v3"
)

const maxKeys = 1000

// Cache is a concurrency-safe string-keyed cache with expiring entries.
type Cache[T any] struct {
	cache cache.Cache[string, T]
}

func New[T any](ttl time.Duration) *Cache[T] {
	return &Cache[T]{
		cache: cache.NewCache[string, T]().WithTTL(ttl).WithMaxKeys(maxKeys),
	}
}

func (c *Cache[T]) Get(ctx context.Context, key string) (T, bool) {
	value, ok := c.cache.Get(key)
	if ok {
		logging.L(ctx).Debugf("Got %s from cache.", key)
	}
	return value, ok
}

func (c *Cache[T]) Add(ctx context.Context, key string, value T) {
	logging.L(ctx).Debugf("Add %s to cache.", key)
	c.cache.Add(key, value)
}

func (c *Cache[T]) Drop(ctx context.Context, key string) {
	logging.L(ctx).Debugf("Drop %s from cache.", key)
	c.cache.Invalidate(key)
}
