package parser

import (
	"context"
	"sync"

	"github.com/couchcryptid/plss-plat-etl/internal/domain"
	"github.com/couchcryptid/plss-plat-etl/internal/observability"
)

// CachedParser wraps a DescriptionParser with an in-memory LRU cache.
// Descriptions repeat heavily in recorded-document feeds, and parses are
// deterministic, so a hit saves a round trip.
type CachedParser struct {
	inner   domain.DescriptionParser
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedParser creates a cache decorator around a parser.
func NewCachedParser(inner domain.DescriptionParser, maxEntries int, metrics *observability.Metrics) *CachedParser {
	return &CachedParser{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedParser) ParseDescription(ctx context.Context, text string) ([]domain.ParsedTract, error) {
	if tracts, ok := c.cache.get(text); ok {
		c.metrics.ParserCache.WithLabelValues("hit").Inc()
		return tracts, nil
	}
	c.metrics.ParserCache.WithLabelValues("miss").Inc()

	tracts, err := c.inner.ParseDescription(ctx, text)
	if err != nil {
		return tracts, err
	}
	// Only cache non-empty results so transient "no tracts" responses can be retried.
	if len(tracts) > 0 {
		c.cache.put(text, tracts)
	}
	return tracts, nil
}

// lruCache is a simple thread-safe LRU cache for parsed tracts.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key   string
	value []domain.ParsedTract
	prev  *entry
	next  *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string) ([]domain.ParsedTract, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value []domain.ParsedTract) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
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
