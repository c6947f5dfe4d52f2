package scanner

import (
	"sync"
	"time"
)

type cacheKey struct {
	venue string
	pair  string
}

type cacheEntry struct {
	price     float64
	expiresAt int64 // unix ms
}

// PriceCache is a bounded TTL map of venue prices keyed by (venue, pair).
// It is owned by the Scanner: the scan loop is the only writer, while
// reads may happen concurrently.
type PriceCache struct {
	mu         sync.RWMutex
	entries    map[cacheKey]cacheEntry
	ttl        time.Duration
	maxEntries int
	now        func() time.Time
}

// NewPriceCache creates a cache holding at most maxEntries prices for ttl.
func NewPriceCache(ttl time.Duration, maxEntries int) *PriceCache {
	if maxEntries <= 0 {
		maxEntries = 256
	}
	return &PriceCache{
		entries:    make(map[cacheKey]cacheEntry),
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the cached price for (venue, pair) if present and fresh.
func (c *PriceCache) Get(venue, pair string) (float64, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[cacheKey{venue: venue, pair: pair}]
	if !ok || entry.expiresAt <= c.now().UnixMilli() {
		return 0, false
	}
	return entry.price, true
}

// Put stores the price for (venue, pair), evicting expired entries first
// and the soonest-expiring entry when the cache is still full.
func (c *PriceCache) Put(venue, pair string, price float64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	nowMs := c.now().UnixMilli()
	key := cacheKey{venue: venue, pair: pair}

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		for k, e := range c.entries {
			if e.expiresAt <= nowMs {
				delete(c.entries, k)
			}
		}
		if len(c.entries) >= c.maxEntries {
			var oldest cacheKey
			oldestExpiry := int64(0)
			for k, e := range c.entries {
				if oldestExpiry == 0 || e.expiresAt < oldestExpiry {
					oldest = k
					oldestExpiry = e.expiresAt
				}
			}
			delete(c.entries, oldest)
		}
	}

	c.entries[key] = cacheEntry{price: price, expiresAt: nowMs + c.ttl.Milliseconds()}
}

// Len returns the number of entries currently held, including expired ones
// not yet evicted.
func (c *PriceCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}
