package stmtcache

import (
	"context"
	"fmt"

	"github.com/hashicorp/golang-lru/v2/simplelru"
	"github.com/marcodd23/go-stmt-cache/pkg/logx"
	"github.com/marcodd23/go-stmt-cache/pkg/metrics"
	"github.com/pkg/errors"
	"go.uber.org/multierr"
)

// Cache is a bounded LRU map from Key to prepared statement handle.
//
// H must be comparable so that re-inserting the exact handle already cached under a key can be recognized
// and does not release a handle that is still in use.
type Cache[H comparable] struct {
	capacity int
	entries  *simplelru.LRU[Key, H] // nil when caching is disabled
	releaser Releaser[H]

	keyFunc  KeyFunc
	recorder metrics.Recorder
	logger   logx.Logger
	name     string

	hits            uint64
	misses          uint64
	evictions       uint64
	releases        uint64
	releaseFailures uint64
}

// Stats is a snapshot of the cache counters.
type Stats struct {
	Size            int    `json:"size"`
	Capacity        int    `json:"capacity"`
	Hits            uint64 `json:"hits"`
	Misses          uint64 `json:"misses"`
	Evictions       uint64 `json:"evictions"`
	Releases        uint64 `json:"releases"`
	ReleaseFailures uint64 `json:"releaseFailures"`
}

// New creates a cache holding at most capacity handles, releasing evicted and cleared ones through releaser.
//
// A capacity of 0 creates a disabled cache. A negative capacity or a nil releaser is a contract violation.
func New[H comparable](capacity int, releaser Releaser[H], opts ...Option) (*Cache[H], error) {
	if capacity < 0 {
		return nil, errors.Wrapf(ErrNegativeCapacity, "capacity %d", capacity)
	}
	if releaser == nil {
		return nil, errors.WithStack(ErrNilReleaser)
	}

	o := options{
		keyFunc:  IdentityKey,
		recorder: metrics.Default(),
		logger:   logx.GetLogger(),
	}
	for _, opt := range opts {
		opt(&o)
	}

	c := &Cache[H]{
		capacity: capacity,
		releaser: releaser,
		keyFunc:  o.keyFunc,
		recorder: o.recorder,
		logger:   o.logger,
		name:     o.name,
	}

	if capacity > 0 {
		entries, err := simplelru.NewLRU[Key, H](capacity, nil)
		if err != nil {
			return nil, errors.Wrap(err, "stmtcache: creating lru")
		}
		c.entries = entries
	}

	return c, nil
}

// Key derives the cache key of sql with the configured key function.
func (c *Cache[H]) Key(sql string) Key {
	return c.keyFunc(sql)
}

// Enabled reports whether the cache can hold entries at all.
func (c *Cache[H]) Enabled() bool {
	return c.entries != nil
}

// Capacity returns the maximum number of entries.
func (c *Cache[H]) Capacity() int {
	return c.capacity
}

// Size returns the number of cached entries.
func (c *Cache[H]) Size() int {
	if c.entries == nil {
		return 0
	}

	return c.entries.Len()
}

// Lookup returns the handle cached under key and marks it most recently used.
// The returned handle is borrowed: it stays valid only until the next operation on the cache.
func (c *Cache[H]) Lookup(key Key) (H, bool) {
	var zero H
	if c.entries == nil {
		c.misses++
		c.recorder.IncStmtCacheMiss(c.name)
		return zero, false
	}

	handle, ok := c.entries.Get(key)
	if !ok {
		c.misses++
		c.recorder.IncStmtCacheMiss(c.name)
		return zero, false
	}

	c.hits++
	c.recorder.IncStmtCacheHit(c.name)
	return handle, true
}

// Contains reports whether key is cached without touching the recency order.
func (c *Cache[H]) Contains(key Key) bool {
	if c.entries == nil {
		return false
	}

	return c.entries.Contains(key)
}

// Keys returns the cached keys from least to most recently used.
func (c *Cache[H]) Keys() []Key {
	if c.entries == nil {
		return nil
	}

	return c.entries.Keys()
}

// Insert stores a freshly prepared handle under key and makes it the most recently used entry.
//
// The returned cached flag tells who owns handle afterwards. When it is false (disabled cache) the caller
// still owns handle and must release it itself. When it is true the cache owns handle, even if err is not nil.
//
// If the cache is full, the least recently used entry is evicted and released first. A failed eviction
// release does not prevent the insert: the *ReleaseError is returned alongside cached == true.
//
// Inserting a key that is already present is a contract violation. The previous handle is released and
// replaced, and the returned error wraps ErrDuplicateKey. Inserting the very same handle again only
// promotes the entry.
func (c *Cache[H]) Insert(ctx context.Context, key Key, handle H) (cached bool, err error) {
	if c.entries == nil {
		return false, nil
	}
	defer c.observeSize()

	if previous, ok := c.entries.Peek(key); ok {
		c.entries.Add(key, handle)
		if previous == handle {
			return true, nil
		}

		err = errors.Wrapf(ErrDuplicateKey, "insert of %q", key.String())
		return true, multierr.Append(err, c.release(ctx, key, previous))
	}

	if c.entries.Len() >= c.capacity {
		if evictedKey, evicted, ok := c.entries.RemoveOldest(); ok {
			c.evictions++
			c.recorder.IncStmtCacheEviction(c.name)
			c.logger.LogDebug(ctx, fmt.Sprintf("evicting prepared statement %q", evictedKey.String()))
			err = c.release(ctx, evictedKey, evicted)
		}
	}

	c.entries.Add(key, handle)
	return true, err
}

// Remove drops and releases the entry cached under key, reporting whether it was present.
// It is used when the owning connection learns that a handle was invalidated remotely.
func (c *Cache[H]) Remove(ctx context.Context, key Key) (bool, error) {
	if c.entries == nil {
		return false, nil
	}

	handle, ok := c.entries.Peek(key)
	if !ok {
		return false, nil
	}
	defer c.observeSize()

	c.entries.Remove(key)
	return true, c.release(ctx, key, handle)
}

// Clear drops every entry and releases its handle, oldest first.
//
// The cache is always empty afterwards. Every failed release is reported in the returned aggregate;
// use ReleaseErrors to inspect them. Clearing an empty or disabled cache is a no-op.
func (c *Cache[H]) Clear(ctx context.Context) error {
	if c.entries == nil || c.entries.Len() == 0 {
		return nil
	}
	defer c.observeSize()

	keys := c.entries.Keys()
	handles := make([]H, 0, len(keys))
	for _, k := range keys {
		h, _ := c.entries.Peek(k)
		handles = append(handles, h)
	}
	c.entries.Purge()

	var err error
	for i, h := range handles {
		err = multierr.Append(err, c.release(ctx, keys[i], h))
	}

	if err != nil {
		c.logger.LogWarning(ctx, fmt.Sprintf("cleared %d prepared statements, %d releases failed",
			len(handles), len(multierr.Errors(err))), err)
	}

	return err
}

// Stats returns a snapshot of the cache counters.
func (c *Cache[H]) Stats() Stats {
	return Stats{
		Size:            c.Size(),
		Capacity:        c.capacity,
		Hits:            c.hits,
		Misses:          c.misses,
		Evictions:       c.evictions,
		Releases:        c.releases,
		ReleaseFailures: c.releaseFailures,
	}
}

// release must only be called once the entry is already gone from c.entries.
func (c *Cache[H]) release(ctx context.Context, key Key, handle H) error {
	c.releases++
	if err := c.releaser.Release(ctx, handle); err != nil {
		c.releaseFailures++
		c.recorder.IncStmtReleaseFailure(c.name)
		c.logger.LogWarning(ctx, fmt.Sprintf("failed to release prepared statement %q", key.String()), err)
		return &ReleaseError{Key: key, Err: err}
	}

	return nil
}

func (c *Cache[H]) observeSize() {
	c.recorder.SetStmtCacheSize(c.name, c.Size())
}
