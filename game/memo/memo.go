// Package memo caches derived values keyed by a composite key plus the list of
// inputs they were computed from.
package memo

import (
	"fmt"
	"sync/atomic"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const defaultCapacity = 128

type entry[T any] struct {
	deps  string
	value T
}

// Cache holds at most a fixed number of keys, evicting the least recently used.
// A cached value is reused only while its dependency list is structurally equal
// to the one it was computed with.
type Cache[T any] struct {
	items  *lru.Cache[string, entry[T]]
	hits   atomic.Uint64
	misses atomic.Uint64
	flight singleflight.Group
}

// New creates a cache. capacity <= 0 uses the default of 128 keys.
func New[T any](capacity int) *Cache[T] {
	if capacity <= 0 {
		capacity = defaultCapacity
	}
	items, err := lru.New[string, entry[T]](capacity)
	if err != nil {
		panic(err) // only for non-positive sizes
	}
	return &Cache[T]{items: items}
}

// fingerprint renders deps in Go syntax. Map keys print sorted, so two lists
// with equal contents render the same regardless of identity. The rendering is
// taken at call time, so later writes through a shared map or slice are seen as
// a change. Nested pointers render as addresses; pass values.
func fingerprint(deps []any) string {
	return fmt.Sprintf("%#v", deps)
}

// Get returns the cached value for key when deps equal the stored list by
// value; otherwise it runs compute, stores the result and returns it.
// Concurrent misses for the same key and deps share one call.
func (c *Cache[T]) Get(key string, deps []any, compute func() T) T {
	fp := fingerprint(deps)
	if e, ok := c.items.Get(key); ok && e.deps == fp {
		c.hits.Add(1)
		return e.value
	}
	c.misses.Add(1)

	shared, _, _ := c.flight.Do(key+"\x00"+fp, func() (any, error) {
		v := compute()
		c.items.Add(key, entry[T]{deps: fp, value: v})
		return v, nil
	})
	v, _ := shared.(T)
	return v
}

// Invalidate drops key.
func (c *Cache[T]) Invalidate(key string) { c.items.Remove(key) }

// Len returns the number of cached keys.
func (c *Cache[T]) Len() int { return c.items.Len() }

// Stats returns hit and miss counts.
func (c *Cache[T]) Stats() (hits, misses uint64) {
	return c.hits.Load(), c.misses.Load()
}
