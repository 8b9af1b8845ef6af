package pkgcache

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// ErrInvalidKey is returned for a key without a source.
var ErrInvalidKey = errors.New("package key has no source")

// Key identifies one materialization of an external package.
type Key struct {
	Source   string
	Revision string
}

func (k Key) String() string {
	if k.Revision == "" {
		return k.Source
	}
	return k.Source + "@" + k.Revision
}

// flightKey is unambiguous even when Source contains "@".
func (k Key) flightKey() string {
	return k.Source + "\x00" + k.Revision
}

// Package is a fetched, locally materialized package.
type Package struct {
	Key         Key
	Location    string
	Fingerprint string
	// Meta carries fetcher-specific facts about the package, such as a
	// deprecation notice read from its manifest.
	Meta map[string]string
}

// FetchFunc materializes key. It may fail and must be safe to call again
// for the same key.
type FetchFunc func(ctx context.Context, key Key) (Package, error)

// FetchError wraps the error of a fetch function with the key it was
// fetching.
type FetchError struct {
	Key Key
	Err error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetching package %s: %v", e.Key, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }

// Stats counts cache activity. Misses counts calls that had to wait for a
// fetch; Fetches counts actual fetch invocations.
type Stats struct {
	Hits    int64
	Misses  int64
	Fetches int64
}

// Cache is safe for concurrent use.
type Cache struct {
	mu      sync.Mutex
	entries map[Key]Package
	group   singleflight.Group

	hits, misses, fetches atomic.Int64
}

// New returns an empty cache.
func New() *Cache {
	return &Cache{entries: make(map[Key]Package)}
}

// GetOrFetch returns the cached package for key, calling fetch only when no
// successful fetch for key has completed yet and none is in flight. The
// fetch runs with the context of the caller that started it; a waiting
// caller whose own ctx ends gets ctx.Err() without affecting the fetch.
func (c *Cache) GetOrFetch(ctx context.Context, key Key, fetch FetchFunc) (Package, error) {
	if key.Source == "" {
		return Package{}, &FetchError{Key: key, Err: ErrInvalidKey}
	}
	if p, ok := c.lookup(key); ok {
		c.hits.Add(1)
		return p, nil
	}
	c.misses.Add(1)

	ch := c.group.DoChan(key.flightKey(), func() (any, error) {
		// A flight for key may have completed between lookup and DoChan.
		if p, ok := c.lookup(key); ok {
			return p, nil
		}

		c.fetches.Add(1)
		p, err := fetch(ctx, key)
		if err != nil {
			return nil, &FetchError{Key: key, Err: err}
		}
		p.Key = key

		c.mu.Lock()
		c.entries[key] = p
		c.mu.Unlock()
		return p, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return Package{}, res.Err
		}
		return res.Val.(Package), nil
	case <-ctx.Done():
		return Package{}, ctx.Err()
	}
}

// Len returns the number of cached packages.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Stats returns a snapshot of the counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:    c.hits.Load(),
		Misses:  c.misses.Load(),
		Fetches: c.fetches.Load(),
	}
}

func (c *Cache) lookup(key Key) (Package, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	p, ok := c.entries[key]
	return p, ok
}
