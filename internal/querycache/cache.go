// Package querycache holds remote state fetched from the Planet API. Queries
// are cached by Key, considered fresh for a stale time, refetched with retry
// and backoff once stale, and dropped after sitting idle for the gc time.
package querycache

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	lru "github.com/hashicorp/golang-lru"
	"golang.org/x/sync/singleflight"
)

// ErrDisabled is returned by Fetch for a query that is not enabled.
var ErrDisabled = errors.New("querycache: query disabled")

// Config tunes cache behaviour. Zero fields take the defaults.
type Config struct {
	StaleTime     time.Duration // default 5m
	GCTime        time.Duration // default 30m
	Retry         int           // query retries, default 2
	MutationRetry int           // mutation retries, default 1
	MaxEntries    int           // default 256

	RetryDelay    time.Duration // first backoff, default 1s
	MaxRetryDelay time.Duration // backoff cap, default 30s

	// ShouldRetry decides whether a failed attempt is retried.
	ShouldRetry func(error) bool

	Now    func() time.Time
	Logger *slog.Logger
}

// DefaultConfig returns the defaults.
func DefaultConfig() Config {
	return Config{
		StaleTime:     5 * time.Minute,
		GCTime:        30 * time.Minute,
		Retry:         2,
		MutationRetry: 1,
		MaxEntries:    256,
		RetryDelay:    time.Second,
		MaxRetryDelay: 30 * time.Second,
		ShouldRetry:   DefaultShouldRetry,
		Now:           time.Now,
		Logger:        slog.Default(),
	}
}

func (cfg Config) withDefaults() Config {
	def := DefaultConfig()
	if cfg.StaleTime <= 0 {
		cfg.StaleTime = def.StaleTime
	}
	if cfg.GCTime <= 0 {
		cfg.GCTime = def.GCTime
	}
	if cfg.Retry < 0 {
		cfg.Retry = 0
	}
	if cfg.MutationRetry < 0 {
		cfg.MutationRetry = 0
	}
	if cfg.MaxEntries <= 0 {
		cfg.MaxEntries = def.MaxEntries
	}
	if cfg.RetryDelay <= 0 {
		cfg.RetryDelay = def.RetryDelay
	}
	if cfg.MaxRetryDelay <= 0 {
		cfg.MaxRetryDelay = def.MaxRetryDelay
	}
	if cfg.ShouldRetry == nil {
		cfg.ShouldRetry = def.ShouldRetry
	}
	if cfg.Now == nil {
		cfg.Now = def.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = def.Logger
	}
	return cfg
}

type entry struct {
	key         Key
	value       any
	updatedAt   time.Time
	accessedAt  time.Time
	invalidated bool
	rev         uint64
}

// Cache is safe for concurrent use.
type Cache struct {
	cfg    Config
	logger *slog.Logger

	mu      sync.Mutex
	entries *lru.Cache
	rev     uint64 // bumped by every write
	epoch   uint64 // bumped by Clear and RemoveQueries

	group singleflight.Group
}

// New creates a cache. Pass DefaultConfig() or a zero Config for defaults.
func New(cfg Config) (*Cache, error) {
	cfg = cfg.withDefaults()

	c := &Cache{cfg: cfg, logger: cfg.Logger}

	entries, err := lru.NewWithEvict(cfg.MaxEntries, func(k, _ any) {
		c.logger.Debug("query evicted", "key", k)
	})
	if err != nil {
		return nil, fmt.Errorf("create lru: %w", err)
	}
	c.entries = entries

	return c, nil
}

// QueryOption adjusts a single Fetch.
type QueryOption func(*queryOptions)

type queryOptions struct {
	staleTime time.Duration
	retry     int
	enabled   bool
}

// WithStaleTime overrides the cache's stale time for one query.
func WithStaleTime(d time.Duration) QueryOption {
	return func(o *queryOptions) { o.staleTime = d }
}

// WithRetry overrides the number of retries for one query.
func WithRetry(n int) QueryOption {
	return func(o *queryOptions) { o.retry = max(n, 0) }
}

// Enabled turns the query off when false; Fetch then returns ErrDisabled.
func Enabled(enabled bool) QueryOption {
	return func(o *queryOptions) { o.enabled = enabled }
}

// Fetch returns the cached value for key while it is fresh. Otherwise fn runs,
// with retries, and its result is cached. Concurrent fetches of the same key
// share one call of fn.
//
// The shared call runs under the context of the caller that started it. A
// caller that joins an in-flight fetch gets that call's outcome, including a
// cancellation or timeout of the first caller's context. A failed fetch
// caches nothing, so the next Fetch starts a new call.
func Fetch[T any](ctx context.Context, c *Cache, key Key, fn func(context.Context) (T, error), opts ...QueryOption) (T, error) {
	var zero T

	o := queryOptions{staleTime: c.cfg.StaleTime, retry: c.cfg.Retry, enabled: true}
	for _, opt := range opts {
		opt(&o)
	}
	if !o.enabled {
		return zero, ErrDisabled
	}

	if v, ok := c.fresh(key, o.staleTime); ok {
		if t, ok := v.(T); ok {
			return t, nil
		}
	}

	id := key.String()
	v, err, shared := c.group.Do(id, func() (any, error) {
		rev, epoch := c.marks()

		var result T
		err := c.retry(ctx, id, o.retry, func(ctx context.Context) error {
			var err error
			result, err = fn(ctx)
			return err
		})
		if err != nil {
			return nil, err
		}

		c.store(key, result, rev, epoch)
		return result, nil
	})
	if err != nil {
		return zero, err
	}
	if shared {
		c.logger.Debug("query fetch shared", "key", id)
	}

	t, ok := v.(T)
	if !ok {
		return zero, fmt.Errorf("querycache: %s holds %T", id, v)
	}
	return t, nil
}

// GetQueryData returns the cached value for key regardless of staleness.
func GetQueryData[T any](c *Cache, key Key) (T, bool) {
	var zero T

	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.entries.Get(key.String())
	if !ok {
		return zero, false
	}
	e := raw.(*entry)
	e.accessedAt = c.cfg.Now()

	t, ok := e.value.(T)
	return t, ok
}

// SetQueryData replaces the cached value for key and marks it fresh.
func (c *Cache) SetQueryData(key Key, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.setLocked(key, value)
}

// InvalidateQueries marks every entry under prefix stale so the next Fetch
// refetches it. It returns the number of entries marked.
func (c *Cache) InvalidateQueries(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	n := 0
	for _, e := range c.matchLocked(prefix) {
		e.invalidated = true
		n++
	}
	if n > 0 {
		c.rev++
	}
	c.logger.Debug("queries invalidated", "prefix", prefix.String(), "count", n)
	return n
}

// RemoveQueries drops every entry under prefix.
func (c *Cache) RemoveQueries(prefix Key) int {
	c.mu.Lock()
	defer c.mu.Unlock()

	matched := c.matchLocked(prefix)
	for _, e := range matched {
		c.entries.Remove(e.key.String())
	}
	c.epoch++
	return len(matched)
}

// Clear drops everything. Fetches already in flight do not repopulate it.
func (c *Cache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries.Purge()
	c.epoch++
	c.logger.Debug("query cache cleared")
}

// Collect drops entries not read or written within the gc time and returns
// how many were dropped.
func (c *Cache) Collect() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	cutoff := c.cfg.Now().Add(-c.cfg.GCTime)
	n := 0
	for _, k := range c.entries.Keys() {
		raw, ok := c.entries.Peek(k)
		if !ok {
			continue
		}
		if raw.(*entry).accessedAt.Before(cutoff) {
			c.entries.Remove(k)
			n++
		}
	}
	return n
}

// Len is the number of cached entries.
func (c *Cache) Len() int { return c.entries.Len() }

// IsStale reports whether key is missing, invalidated or older than the
// cache's stale time.
func (c *Cache) IsStale(key Key) bool {
	_, ok := c.fresh(key, c.cfg.StaleTime)
	return !ok
}

func (c *Cache) fresh(key Key, staleTime time.Duration) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	raw, ok := c.entries.Get(key.String())
	if !ok {
		return nil, false
	}
	e := raw.(*entry)
	now := c.cfg.Now()
	e.accessedAt = now

	if e.invalidated || now.Sub(e.updatedAt) >= staleTime {
		return nil, false
	}
	return e.value, true
}

func (c *Cache) marks() (rev, epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.rev, c.epoch
}

// store caches a fetch result unless the key was written, or the cache
// cleared, after the fetch started.
func (c *Cache) store(key Key, value any, rev, epoch uint64) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.epoch != epoch {
		c.logger.Debug("dropping fetch result after clear", "key", key.String())
		return
	}
	if raw, ok := c.entries.Peek(key.String()); ok && raw.(*entry).rev > rev && !raw.(*entry).invalidated {
		c.logger.Debug("dropping fetch result older than cached data", "key", key.String())
		return
	}
	c.setLocked(key, value)
}

func (c *Cache) setLocked(key Key, value any) {
	c.rev++
	now := c.cfg.Now()
	c.entries.Add(key.String(), &entry{
		key:        append(Key(nil), key...),
		value:      value,
		updatedAt:  now,
		accessedAt: now,
		rev:        c.rev,
	})
}

func (c *Cache) matchLocked(prefix Key) []*entry {
	var out []*entry
	for _, k := range c.entries.Keys() {
		raw, ok := c.entries.Peek(k)
		if !ok {
			continue
		}
		if e := raw.(*entry); e.key.HasPrefix(prefix) {
			out = append(out, e)
		}
	}
	return out
}
