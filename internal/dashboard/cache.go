package dashboard

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/euphoricking/malaria-incidence-nigeria/internal/observability"
)

// CachedBuilder wraps a ViewBuilder with an in-memory LRU cache keyed by
// filters. The store is append-only between pipeline runs, so views stay
// valid until the next data load; callers drop everything through Invalidate
// once new data lands (the service exposes this as its cache invalidation
// endpoint).
type CachedBuilder struct {
	inner   ViewBuilder
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedBuilder creates a cache decorator around a view builder.
func NewCachedBuilder(inner ViewBuilder, maxEntries int, metrics *observability.Metrics) *CachedBuilder {
	return &CachedBuilder{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedBuilder) Build(ctx context.Context, f Filters) (*View, error) {
	key := cacheKey(f)
	if view, ok := c.cache.get(key); ok {
		c.metrics.ViewCache.WithLabelValues("hit").Inc()
		return view, nil
	}
	c.metrics.ViewCache.WithLabelValues("miss").Inc()

	view, err := c.inner.Build(ctx, f)
	if err != nil {
		return nil, err
	}
	c.cache.put(key, view)
	return view, nil
}

// Invalidate empties the cache.
func (c *CachedBuilder) Invalidate() {
	c.cache.clear()
}

// cacheKey canonicalizes filters: state order must not affect the key.
func cacheKey(f Filters) string {
	states := append([]string(nil), f.States...)
	sort.Strings(states)
	return fmt.Sprintf("%d|%s|%s", f.Year, f.Indicator, strings.Join(states, ","))
}

// lruCache is a simple thread-safe LRU cache of computed views.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value *View
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) (*View, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value *View) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.pushFront(e)

	if len(c.entries) > c.maxEntries {
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

func (c *lruCache) moveToFront(e *entry) {
	if c.head == e {
		return
	}
	c.unlink(e)
	c.pushFront(e)
}

func (c *lruCache) pushFront(e *entry) {
	e.prev = nil
	e.next = c.head
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	}
	if c.head == e {
		c.head = e.next
	}
	if c.tail == e {
		c.tail = e.prev
	}
	e.prev = nil
	e.next = nil
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	evicted := c.tail
	c.unlink(evicted)
	delete(c.entries, evicted.key)
}
