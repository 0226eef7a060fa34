// Package cache is a read-through cache for server entities (orders, bills).
// Mutating flows call Invalidate after a confirmed write and then Refetch;
// readers in between observe a loading state instead of stale data. The
// explicit invalidate/refetch contract replaces ad hoc per-screen dirty
// flags.
package cache

import (
	"context"
	"errors"
	"sync"
)

var ErrNotCached = errors.New("entity not cached")

// Status describes what a reader can rely on for a cached entity.
type Status string

const (
	// StatusMissing: never fetched.
	StatusMissing Status = "MISSING"
	// StatusFresh: value reflects the last confirmed server state.
	StatusFresh Status = "FRESH"
	// StatusStale: invalidated after a mutation; a refetch is due.
	StatusStale Status = "STALE"
	// StatusLoading: a refetch is in flight; show a spinner, not the old value.
	StatusLoading Status = "LOADING"
)

// FetchFunc loads the authoritative value for a key from the server.
type FetchFunc func(ctx context.Context, key string) (any, error)

type entry struct {
	value  any
	status Status
}

// Cache holds entities by key. One Cache per entity kind, created with the
// screen/session that owns it.
type Cache struct {
	mu      sync.Mutex
	entries map[string]*entry
	fetch   FetchFunc
}

// New creates a cache backed by the given fetch function.
func New(fetch FetchFunc) *Cache {
	return &Cache{
		entries: make(map[string]*entry),
		fetch:   fetch,
	}
}

// Get returns the cached value, refetching first when the entry is missing,
// stale, or mid-load. A fetch failure leaves the previous entry state alone.
func (c *Cache) Get(ctx context.Context, key string) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if ok && e.status == StatusFresh {
		value := e.value
		c.mu.Unlock()
		return value, nil
	}
	c.mu.Unlock()
	return c.Refetch(ctx, key)
}

// Peek returns whatever is cached without triggering a fetch, plus the entry
// status so the UI can branch on loading/stale.
func (c *Cache) Peek(key string) (any, Status) {
	c.mu.Lock()
	defer c.mu.Unlock()
	e, ok := c.entries[key]
	if !ok {
		return nil, StatusMissing
	}
	if e.status != StatusFresh {
		// Invalidated or mid-refetch: the old value must not be shown.
		return nil, e.status
	}
	return e.value, StatusFresh
}

// Invalidate marks an entity stale after a confirmed mutation. A key that
// was never cached stays missing.
func (c *Cache) Invalidate(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if e, ok := c.entries[key]; ok {
		e.status = StatusStale
		e.value = nil
	}
}

// Refetch loads the authoritative value and stores it fresh. While the load
// is in flight the entry reads as loading. On failure the entry returns to
// stale so the next reader retries.
func (c *Cache) Refetch(ctx context.Context, key string) (any, error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	if !ok {
		e = &entry{}
		c.entries[key] = e
	}
	e.status = StatusLoading
	e.value = nil
	c.mu.Unlock()

	value, err := c.fetch(ctx, key)

	c.mu.Lock()
	defer c.mu.Unlock()
	if err != nil {
		e.status = StatusStale
		return nil, err
	}
	e.value = value
	e.status = StatusFresh
	return value, nil
}

// Put stores a server-confirmed value directly, for responses that already
// carry the fresh entity (saves an immediate refetch round trip).
func (c *Cache) Put(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = &entry{value: value, status: StatusFresh}
}

// Drop forgets a key entirely.
func (c *Cache) Drop(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.entries, key)
}
