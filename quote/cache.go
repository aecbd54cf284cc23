package quote

import (
	"context"
	"sync"
	"time"
)

// Cache is a read-through TTL cache in front of another Oracle.
//
// Portfolio valuation looks up every held symbol; the cache keeps a burst
// of valuations from hammering the upstream provider. Misses and errors
// are never cached.
type Cache struct {
	upstream Oracle
	ttl      time.Duration

	mu      sync.Mutex
	entries map[string]cacheEntry

	now func() time.Time // test hook
}

type cacheEntry struct {
	quote   Quote
	fetched time.Time
}

// NewCache wraps upstream with a TTL cache. A non-positive ttl disables
// caching entirely and every lookup passes through.
func NewCache(upstream Oracle, ttl time.Duration) *Cache {
	return &Cache{
		upstream: upstream,
		ttl:      ttl,
		entries:  make(map[string]cacheEntry),
		now:      time.Now,
	}
}

func (c *Cache) Lookup(ctx context.Context, symbol string) (Quote, error) {
	symbol = Normalize(symbol)

	if c.ttl > 0 {
		c.mu.Lock()
		e, ok := c.entries[symbol]
		c.mu.Unlock()
		if ok && c.now().Sub(e.fetched) < c.ttl {
			return e.quote, nil
		}
	}

	q, err := c.upstream.Lookup(ctx, symbol)
	if err != nil {
		return Quote{}, err
	}

	if c.ttl > 0 {
		c.mu.Lock()
		// Cache under the canonical symbol too, so "aapl" and "AAPL"
		// share one entry.
		c.entries[symbol] = cacheEntry{quote: q, fetched: c.now()}
		c.entries[q.Symbol] = cacheEntry{quote: q, fetched: c.now()}
		c.mu.Unlock()
	}
	return q, nil
}
