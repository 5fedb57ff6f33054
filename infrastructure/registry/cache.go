package registry

import (
	"context"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const (
	defaultCacheSize = 256
	defaultCacheTTL  = 10 * time.Minute

	// sharedLookupTimeout bounds an index lookup shared by several callers.
	sharedLookupTimeout = 30 * time.Second
)

// sharedLookup runs fn once for all concurrent callers of key. fn is not
// tied to the cancellation of the caller that started it, so one caller
// giving up does not fail the others; each caller stops waiting when its
// own ctx is done.
func sharedLookup(ctx context.Context, sf *singleflight.Group, key string, fn func(context.Context) (string, error)) (string, error) {
	ch := sf.DoChan(key, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sharedLookupTimeout)
		defer cancel()
		return fn(lctx)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			return "", res.Err
		}
		return res.Val.(string), nil
	case <-ctx.Done():
		return "", ctx.Err()
	}
}

type cacheEntry struct {
	value    string
	storedAt time.Time
}

// ttlCache is an LRU whose entries expire after ttl. The LRU does its own
// locking.
type ttlCache struct {
	lru *lru.Cache[string, cacheEntry]
	ttl time.Duration
	now func() time.Time
}

func newTTLCache(size int, ttl time.Duration) *ttlCache {
	if size <= 0 {
		size = defaultCacheSize
	}
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}
	c, err := lru.New[string, cacheEntry](size)
	if err != nil {
		// Only reachable with a non-positive size.
		panic(err)
	}
	return &ttlCache{lru: c, ttl: ttl, now: time.Now}
}

func (c *ttlCache) get(key string) (string, bool) {
	e, ok := c.lru.Get(key)
	if !ok {
		return "", false
	}
	if c.now().Sub(e.storedAt) > c.ttl {
		c.lru.Remove(key)
		return "", false
	}
	return e.value, true
}

func (c *ttlCache) put(key, value string) {
	c.lru.Add(key, cacheEntry{value: value, storedAt: c.now()})
}
