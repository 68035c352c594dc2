package handlers

import (
	"strings"
	"sync"
	"time"
)

type rateLimiter interface {
	Allow(key string) bool
}

// simpleRateLimiter counts attempts per key inside fixed windows. The window
// resets on first use after expiry, which is coarse but enough to slow down
// password guessing on the login form.
type simpleRateLimiter struct {
	limit  int
	window time.Duration
	clock  func() time.Time

	mu      sync.Mutex
	windows map[string]attemptWindow
}

type attemptWindow struct {
	attempts int
	expires  time.Time
}

func newSimpleRateLimiter(limit int, window time.Duration, clock func() time.Time) rateLimiter {
	if limit <= 0 || window <= 0 {
		return nil
	}
	if clock == nil {
		clock = time.Now
	}
	return &simpleRateLimiter{
		limit:   limit,
		window:  window,
		clock:   clock,
		windows: make(map[string]attemptWindow),
	}
}

func (l *simpleRateLimiter) Allow(key string) bool {
	if l == nil {
		return true
	}
	if key = strings.TrimSpace(key); key == "" {
		key = "anonymous"
	}

	now := l.clock()
	l.mu.Lock()
	defer l.mu.Unlock()

	current, ok := l.windows[key]
	if !ok || now.After(current.expires) {
		l.dropExpiredLocked(now)
		l.windows[key] = attemptWindow{attempts: 1, expires: now.Add(l.window)}
		return true
	}
	if current.attempts >= l.limit {
		return false
	}
	current.attempts++
	l.windows[key] = current
	return true
}

func (l *simpleRateLimiter) dropExpiredLocked(now time.Time) {
	for key, w := range l.windows {
		if now.After(w.expires) {
			delete(l.windows, key)
		}
	}
}
