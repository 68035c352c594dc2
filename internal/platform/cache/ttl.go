package cache

import (
	"context"
	"sync"
	"time"
)

// Loader produces a fresh value when the cached one is missing or stale.
type Loader[T any] func(ctx context.Context) (T, error)

// TTL is a single-value cache with a fixed time-to-live. It replaces interval
// polling: readers call Get on their own schedule and the loader only runs
// when the cached value has expired or was invalidated.
type TTL[T any] struct {
	ttl   time.Duration
	clock func() time.Time

	mu      sync.Mutex
	value   T
	expires time.Time
	valid   bool
}

// Option customises cache behaviour.
type Option[T any] func(*TTL[T])

// WithClock injects a custom clock (useful for tests).
func WithClock[T any](clock func() time.Time) Option[T] {
	return func(c *TTL[T]) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// NewTTL constructs a TTL cache. A non-positive ttl disables caching and
// makes every Get call through to the loader.
func NewTTL[T any](ttl time.Duration, opts ...Option[T]) *TTL[T] {
	c := &TTL[T]{
		ttl:   ttl,
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// Get returns the cached value, loading a fresh one when stale. When the
// loader fails and a stale value exists, the stale value is served: readers
// degrade to slightly old data rather than errors.
func (c *TTL[T]) Get(ctx context.Context, load Loader[T]) (T, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.clock()
	if c.valid && c.ttl > 0 && now.Before(c.expires) {
		return c.value, nil
	}

	fresh, err := load(ctx)
	if err != nil {
		if c.valid {
			return c.value, nil
		}
		var zero T
		return zero, err
	}

	c.value = fresh
	c.valid = true
	c.expires = now.Add(c.ttl)
	return fresh, nil
}

// Invalidate drops the cached value so the next Get reloads.
func (c *TTL[T]) Invalidate() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.valid = false
	var zero T
	c.value = zero
}
