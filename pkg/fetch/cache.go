package fetch

import (
	"context"
	"errors"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/jeroenl/wikitree-go/pkg/logger"
)

// Cache is a process-wide key to raw-document store. Each key is fetched at
// most once per Cache lifetime: concurrent first requests for the same key
// collapse into a single underlying fetch, and later requests are served from
// memory. Documents are write-once and never evicted.
//
// A definitive not-found outcome (ErrNotFound) is cached as well, so a dead
// key costs exactly one fetch. Transient errors are never cached and a later
// call retries the fetch.
type Cache struct {
	mu       sync.RWMutex
	docs     map[string][]byte
	notFound map[string]error
	group    singleflight.Group
}

// NewCache creates an empty document cache.
func NewCache() *Cache {
	return &Cache{
		docs:     make(map[string][]byte),
		notFound: make(map[string]error),
	}
}

// GetOrFetch returns the cached document for key, invoking fn to fetch it on
// first use. fn is called at most once per key no matter how many goroutines
// request it concurrently.
func (c *Cache) GetOrFetch(ctx context.Context, key string, fn func(ctx context.Context) ([]byte, error)) ([]byte, error) {
	if doc, err, ok := c.lookup(key); ok {
		logger.Debug("Cache hit", "key", key)
		return doc, err
	}

	result, err, _ := c.group.Do(key, func() (any, error) {
		// Recheck under the flight: a previous caller in the same flight
		// window may have populated the cache already.
		if doc, err, ok := c.lookup(key); ok {
			return doc, err
		}

		doc, err := fn(ctx)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				c.mu.Lock()
				c.notFound[key] = err
				c.mu.Unlock()
				logger.Debug("Caching not-found result", "key", key)
			}
			return nil, err
		}

		c.mu.Lock()
		c.docs[key] = doc
		c.mu.Unlock()
		logger.Debug("Cached document", "key", key, "bytes", len(doc))

		return doc, nil
	})
	if err != nil {
		return nil, err
	}

	return result.([]byte), nil
}

// Len reports the number of cached documents, not counting negative entries.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.docs)
}

func (c *Cache) lookup(key string) ([]byte, error, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if doc, ok := c.docs[key]; ok {
		return doc, nil, true
	}
	if err, ok := c.notFound[key]; ok {
		return nil, err, true
	}
	return nil, nil, false
}
