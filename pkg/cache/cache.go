package cache

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/sirupsen/logrus"
)

// Cache is a fixed size, concurrency safe LRU cache of V keyed by string.
type Cache[V any] struct {
	lru *lru.Cache
}

// NewCache returns a cache holding up to size entries. Sizes below one are
// treated as one.
func NewCache[V any](size int) *Cache[V] {
	if size < 1 {
		size = 1
	}

	log := logrus.StandardLogger().WithField("type", "cache")
	c, err := lru.NewWithEvict(size, func(key, _ interface{}) {
		log.WithField("key", key).Trace("cache eviction")
	})
	if err != nil {
		// Only possible for non-positive sizes
		panic(err)
	}
	return &Cache[V]{lru: c}
}

// Get returns the value cached under key, marking it recently used.
func (c *Cache[V]) Get(key string) (V, bool) {
	if v, ok := c.lru.Get(key); ok {
		return v.(V), true
	}

	var zero V
	return zero, false
}

// Add caches value under key, evicting the least recently used entry when full.
func (c *Cache[V]) Add(key string, value V) {
	c.lru.Add(key, value)
}

// GetOrLoad returns the value cached under key, calling load and caching its
// result on a miss. Load errors are returned and nothing is cached.
func (c *Cache[V]) GetOrLoad(key string, load func() (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	v, err := load()
	if err != nil {
		return v, err
	}
	c.Add(key, v)
	return v, nil
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	return c.lru.Len()
}
