// pkg/cache/cache.go

// Package cache memoizes dashboard reads until the next ingestion batch.
package cache

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

var lookups = prometheus.NewCounterVec(prometheus.CounterOpts{
	Namespace: "statusdiario",
	Subsystem: "cache",
	Name:      "lookups_total",
	Help:      "Read cache lookups grouped by cache name and result.",
}, []string{"cache", "result"})

func init() {
	prometheus.MustRegister(lookups)
}

// FreshnessSource reports the current freshness token. Entries stored under
// a different token are stale.
type FreshnessSource interface {
	Token(ctx context.Context) (time.Time, error)
}

// FreshnessFunc adapts a function to FreshnessSource
type FreshnessFunc func(ctx context.Context) (time.Time, error)

// Token calls f
func (f FreshnessFunc) Token(ctx context.Context) (time.Time, error) { return f(ctx) }

// LoadFunc computes the value for a key
type LoadFunc[T any] func(ctx context.Context) (T, error)

type entry[T any] struct {
	token    time.Time
	value    T
	storedAt time.Time
}

// ReadCache holds one value per key, valid while the freshness token is
// unchanged. Concurrent misses for the same key and token share one load.
type ReadCache[T any] struct {
	name       string
	freshness  FreshnessSource
	now        func() time.Time
	maxEntries int
	logger     *zap.Logger

	mu      sync.Mutex
	entries map[string]entry[T]
	group   singleflight.Group
}

// Option configures a ReadCache
type Option[T any] func(*ReadCache[T])

// WithClock overrides the clock used to age entries
func WithClock[T any](now func() time.Time) Option[T] {
	return func(c *ReadCache[T]) { c.now = now }
}

// WithLogger sets the logger used for fail-open warnings
func WithLogger[T any](logger *zap.Logger) Option[T] {
	return func(c *ReadCache[T]) { c.logger = logger }
}

// New creates a cache named name holding at most maxEntries keys
func New[T any](name string, freshness FreshnessSource, maxEntries int, opts ...Option[T]) *ReadCache[T] {
	if maxEntries <= 0 {
		maxEntries = 1
	}
	c := &ReadCache[T]{
		name:       name,
		freshness:  freshness,
		now:        time.Now,
		maxEntries: maxEntries,
		logger:     zap.NewNop(),
		entries:    make(map[string]entry[T]),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.Named("cache").With(zap.String("cache", name))
	return c
}

// Get returns the cached value for key when its token is current, and loads
// it otherwise. If the token cannot be read the value is loaded directly and
// not stored.
func (c *ReadCache[T]) Get(ctx context.Context, key string, load LoadFunc[T]) (T, error) {
	token, err := c.freshness.Token(ctx)
	if err != nil {
		lookups.WithLabelValues(c.name, "fail_open").Inc()
		c.logger.Warn("Freshness lookup failed, bypassing cache", zap.String("key", key), zap.Error(err))
		return load(ctx)
	}

	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if ok && e.token.Equal(token) {
		lookups.WithLabelValues(c.name, "hit").Inc()
		return e.value, nil
	}
	lookups.WithLabelValues(c.name, "miss").Inc()

	flightKey := key + "\x00" + token.UTC().Format(time.RFC3339Nano)
	v, err, _ := c.group.Do(flightKey, func() (interface{}, error) {
		c.mu.Lock()
		e, ok := c.entries[key]
		c.mu.Unlock()
		if ok && e.token.Equal(token) {
			return e.value, nil
		}

		value, err := load(ctx)
		if err != nil {
			return value, err
		}
		c.store(key, token, value)
		return value, nil
	})
	if err != nil {
		var zero T
		return zero, err
	}
	return v.(T), nil
}

// Len returns the number of stored entries
func (c *ReadCache[T]) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Clear drops every entry
func (c *ReadCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]entry[T])
}

func (c *ReadCache[T]) store(key string, token time.Time, value T) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxEntries {
		c.evict(token)
	}
	c.entries[key] = entry[T]{token: token, value: value, storedAt: c.now()}
}

// evict frees one slot, preferring entries from an older token and then the
// oldest stored entry. Callers hold c.mu.
func (c *ReadCache[T]) evict(current time.Time) {
	stale := 0
	for k, e := range c.entries {
		if !e.token.Equal(current) {
			delete(c.entries, k)
			stale++
		}
	}
	if stale > 0 {
		return
	}

	keys := make([]string, 0, len(c.entries))
	for k := range c.entries {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		return c.entries[keys[i]].storedAt.Before(c.entries[keys[j]].storedAt)
	})
	delete(c.entries, keys[0])
}
