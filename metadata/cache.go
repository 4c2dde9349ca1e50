package metadata

import (
	"sync"

	"github.com/fwojciec/itemize"
	"github.com/fwojciec/itemize/bloom"
)

// Cache is a process-wide, URL-keyed cache of rendered metadata. It is
// strictly a performance layer in front of the durable store: every
// successful save replaces its entry, and it is never the system of
// record.
//
// A bloom filter of URLs known to the store fronts the cache. Once
// warmed, a negative filter test proves the URL has never been saved,
// letting cache-only lookups answer "absent" without a store query.
//
// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.RWMutex
	entries map[string]*itemize.Metadata
	seen    *bloom.Filter
	warmed  bool
}

// NewCache creates an empty cache sized for n expected URLs.
func NewCache(n uint) *Cache {
	return &Cache{
		entries: make(map[string]*itemize.Metadata),
		seen:    bloom.NewFilter(n, 0.01),
	}
}

// Warm seeds the seen-URL filter with every URL the store already
// holds. Until Warm is called, KnownAbsent always reports false.
func (c *Cache) Warm(urls []string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for _, u := range urls {
		c.seen.Add(u)
	}
	c.warmed = true
}

// Get returns the cached rendering for a URL, if any.
func (c *Cache) Get(url string) (*itemize.Metadata, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	m, ok := c.entries[url]
	return m, ok
}

// KnownAbsent reports whether the URL has definitely never been saved.
// False positives from the filter only cost a store query; false
// negatives cannot occur.
func (c *Cache) KnownAbsent(url string) bool {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.warmed && !c.seen.Test(url)
}

// Put replaces the cache entry for a URL after a successful save.
func (c *Cache) Put(url string, m *itemize.Metadata) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[url] = m
	c.seen.Add(url)
}
