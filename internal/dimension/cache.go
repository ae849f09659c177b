package dimension

import (
	"container/list"
	"context"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/roach88/prism/internal/metrics"
)

type entry[V any] struct {
	key   string
	value V
}

// Cache is a thread-safe size-bounded LRU map from natural key to value.
// The least recently used entry is evicted once Capacity is exceeded.
type Cache[V any] struct {
	name     string
	capacity int

	mu    sync.Mutex
	items map[string]*list.Element
	order *list.List

	group   singleflight.Group
	timeout time.Duration
	stats   Statistics
	metrics *metrics.Metrics
}

// NewCache creates a cache holding at most capacity entries.
// A capacity below 1 is treated as 1. m may be nil.
func NewCache[V any](name string, capacity int, m *metrics.Metrics) *Cache[V] {
	if capacity < 1 {
		capacity = 1
	}
	return &Cache[V]{
		name:     name,
		capacity: capacity,
		items:    make(map[string]*list.Element),
		order:    list.New(),
		metrics:  m,
	}
}

// Name returns the dimension this cache serves.
func (c *Cache[V]) Name() string {
	return c.name
}

// Get returns the cached value and marks it as recently used.
func (c *Cache[V]) Get(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.items[key]
	if !ok {
		c.stats.miss()
		c.metrics.CacheMiss(c.name)
		var zero V
		return zero, false
	}
	c.order.MoveToFront(el)
	c.stats.hit()
	c.metrics.CacheHit(c.name)
	return el.Value.(*entry[V]).value, true
}

// peek looks up key without touching recency or counters.
func (c *Cache[V]) peek(key string) (V, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		return el.Value.(*entry[V]).value, true
	}
	var zero V
	return zero, false
}

// Put stores value under key, evicting the least recently used entry when full.
func (c *Cache[V]) Put(key string, value V) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		el.Value.(*entry[V]).value = value
		c.order.MoveToFront(el)
		return
	}

	c.items[key] = c.order.PushFront(&entry[V]{key: key, value: value})
	for len(c.items) > c.capacity {
		oldest := c.order.Back()
		if oldest == nil {
			break
		}
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*entry[V]).key)
		c.stats.eviction()
		c.metrics.CacheEviction(c.name)
	}
	c.metrics.CacheSize(c.name, len(c.items))
}

// Remove drops key from the cache.
func (c *Cache[V]) Remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.items[key]; ok {
		c.order.Remove(el)
		delete(c.items, key)
		c.metrics.CacheSize(c.name, len(c.items))
	}
}

// Clear empties the cache. Counters are kept.
func (c *Cache[V]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.items = make(map[string]*list.Element)
	c.order.Init()
	c.metrics.CacheSize(c.name, 0)
}

// Len returns the number of cached entries.
func (c *Cache[V]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// GetOrCompute returns the cached value for key, or calls compute and caches
// its result. Concurrent callers for the same missing key wait for a single
// compute call and share its result. Errors are not cached.
//
// compute runs detached from the caller's cancellation, so one caller
// giving up never fails the others waiting on the same key. A caller whose
// ctx ends returns ctx.Err() without waiting for the flight.
func (c *Cache[V]) GetOrCompute(ctx context.Context, key string, compute func(context.Context) (V, error)) (V, error) {
	if v, ok := c.Get(key); ok {
		return v, nil
	}

	ch := c.group.DoChan(key, func() (any, error) {
		// A previous flight may have stored the value after our miss.
		if v, ok := c.peek(key); ok {
			return v, nil
		}
		cctx, cancel := c.detach(ctx)
		defer cancel()
		v, err := compute(cctx)
		if err != nil {
			return nil, err
		}
		c.Put(key, v)
		return v, nil
	})

	var zero V
	select {
	case <-ctx.Done():
		return zero, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return zero, res.Err
		}
		return res.Val.(V), nil
	}
}

// detach keeps ctx values but drops its cancellation, bounding the
// result by the cache's compute timeout when one is set.
func (c *Cache[V]) detach(ctx context.Context) (context.Context, context.CancelFunc) {
	ctx = context.WithoutCancel(ctx)
	if c.timeout > 0 {
		return context.WithTimeout(ctx, c.timeout)
	}
	return context.WithCancel(ctx)
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[V]) Stats() Stats {
	return Stats{
		Name:      c.name,
		Size:      c.Len(),
		Capacity:  c.capacity,
		Hits:      c.stats.Hits(),
		Misses:    c.stats.Misses(),
		Evictions: c.stats.Evictions(),
	}
}
