package checker

import (
	"context"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize is the number of responses kept in memory.
const DefaultCacheSize = 512

// Cached memoises the responses of another Checker. Cached responses are
// shared between callers and must be treated as read-only.
type Cached struct {
	next Checker
	mem  *lru.Cache[string, *Response]
	disk *DiskCache
}

// NewCached wraps next with an in-memory LRU of the given size. disk may be
// nil.
func NewCached(next Checker, size int, disk *DiskCache) (*Cached, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	mem, err := lru.New[string, *Response](size)
	if err != nil {
		return nil, fmt.Errorf("checker: response cache: %w", err)
	}
	return &Cached{next: next, mem: mem, disk: disk}, nil
}

// Check answers from the cache when an identical request was seen before.
// Failed requests are never cached.
func (c *Cached) Check(ctx context.Context, req *Request) (*Response, error) {
	key, err := req.Key()
	if err != nil {
		return nil, fmt.Errorf("checker: cache key: %w", err)
	}
	if resp, ok := c.mem.Get(key); ok {
		return resp, nil
	}
	if c.disk != nil {
		var stored Response
		if ok, derr := c.disk.Get(key, &stored); derr == nil && ok {
			c.mem.Add(key, &stored)
			return &stored, nil
		}
	}
	resp, err := c.next.Check(ctx, req)
	if err != nil {
		return nil, err
	}
	c.mem.Add(key, resp)
	if c.disk != nil {
		// A failed write only costs a future round trip.
		_ = c.disk.Put(key, resp)
	}
	return resp, nil
}

// Len reports how many responses are held in memory.
func (c *Cached) Len() int {
	return c.mem.Len()
}

// Purge empties the in-memory cache.
func (c *Cached) Purge() {
	c.mem.Purge()
}
