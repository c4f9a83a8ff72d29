package psd

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/couchcryptid/coffee-trend-service/internal/domain"
	"github.com/couchcryptid/coffee-trend-service/internal/observability"
)

// CachedSource memoizes a RecordSource by (year, country).
//
// The first successful result for a key is returned for every later call
// without touching the inner source. Failures are never stored. Concurrent
// misses on the same key share a single inner call. Returned slices are
// shared between callers and must not be modified.
type CachedSource struct {
	inner   domain.RecordSource
	cache   *lruCache
	flights singleflight.Group
	metrics *observability.Metrics
}

// NewCachedSource wraps inner with an in-memory cache. maxEntries <= 0 means
// unbounded; ttl == 0 keeps entries until Invalidate is called.
func NewCachedSource(inner domain.RecordSource, maxEntries int, ttl time.Duration, clock clockwork.Clock, metrics *observability.Metrics) *CachedSource {
	return &CachedSource{
		inner:   inner,
		cache:   newLRUCache(maxEntries, ttl, clock),
		metrics: metrics,
	}
}

// Fetch implements domain.RecordSource. A caller whose ctx ends stops waiting
// but does not cancel the upstream request other callers may be sharing.
func (c *CachedSource) Fetch(ctx context.Context, year int, countryCode string) ([]domain.Record, error) {
	if err := domain.ValidateFetch(year, countryCode); err != nil {
		return nil, err
	}

	key := fmt.Sprintf("%d|%s", year, countryCode)
	if records, ok := c.cache.get(key); ok {
		c.metrics.PSDCache.WithLabelValues("hit").Inc()
		return records, nil
	}
	c.metrics.PSDCache.WithLabelValues("miss").Inc()

	ch := c.flights.DoChan(key, func() (any, error) {
		// A flight that finished between our lookup and DoChan may have filled the key.
		if records, ok := c.cache.get(key); ok {
			return records, nil
		}
		// The flight may be shared, so it must outlive any single caller's context.
		records, err := c.inner.Fetch(context.WithoutCancel(ctx), year, countryCode)
		if err != nil {
			return nil, err
		}
		c.cache.put(key, records)
		return records, nil
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Shared {
			c.metrics.PSDCache.WithLabelValues("shared").Inc()
		}
		if res.Err != nil {
			return nil, res.Err
		}
		return res.Val.([]domain.Record), nil
	}
}

// Invalidate drops every cached entry.
func (c *CachedSource) Invalidate() {
	c.cache.clear()
}

// Len reports the number of cached entries, including expired ones not yet evicted.
func (c *CachedSource) Len() int {
	return c.cache.len()
}

// lruCache is a thread-safe LRU cache of record slices with optional expiry.
type lruCache struct {
	maxEntries int
	ttl        time.Duration
	clock      clockwork.Clock
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key       string
	value     []domain.Record
	expiresAt time.Time // zero when ttl is disabled
	prev      *entry
	next      *entry
}

func newLRUCache(maxEntries int, ttl time.Duration, clock clockwork.Clock) *lruCache {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &lruCache{
		maxEntries: maxEntries,
		ttl:        ttl,
		clock:      clock,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]domain.Record, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !e.expiresAt.IsZero() && !c.clock.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		c.remove(e)
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []domain.Record) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var expiresAt time.Time
	if c.ttl > 0 {
		expiresAt = c.clock.Now().Add(c.ttl)
	}

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if c.maxEntries > 0 && len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries = make(map[string]*entry)
	c.head = nil
	c.tail = nil
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.remove(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) remove(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.remove(c.tail)
}
