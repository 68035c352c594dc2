package cache

import (
	"context"
	"errors"
	"testing"
	"time"
)

func TestTTL_ServesCachedValueWithinTTL(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewTTL[int](time.Minute, WithClock[int](func() time.Time { return now }))

	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	for i := 0; i < 3; i++ {
		v, err := c.Get(context.Background(), load)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if v != 1 {
			t.Fatalf("expected cached value 1, got %d", v)
		}
	}
	if calls != 1 {
		t.Fatalf("expected loader called once, got %d", calls)
	}
}

func TestTTL_ReloadsAfterExpiry(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewTTL[int](time.Minute, WithClock[int](func() time.Time { return now }))

	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	if _, err := c.Get(context.Background(), load); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	now = now.Add(2 * time.Minute)
	v, err := c.Get(context.Background(), load)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 2 || calls != 2 {
		t.Fatalf("expected reload after expiry, got v=%d calls=%d", v, calls)
	}
}

func TestTTL_ServesStaleOnLoaderFailure(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewTTL[string](time.Minute, WithClock[string](func() time.Time { return now }))

	if _, err := c.Get(context.Background(), func(context.Context) (string, error) {
		return "good", nil
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	now = now.Add(2 * time.Minute)
	v, err := c.Get(context.Background(), func(context.Context) (string, error) {
		return "", errors.New("backend down")
	})
	if err != nil {
		t.Fatalf("expected stale value instead of error, got %v", err)
	}
	if v != "good" {
		t.Fatalf("expected stale value, got %q", v)
	}
}

func TestTTL_ErrorWhenNothingCached(t *testing.T) {
	c := NewTTL[string](time.Minute)
	_, err := c.Get(context.Background(), func(context.Context) (string, error) {
		return "", errors.New("backend down")
	})
	if err == nil {
		t.Fatalf("expected error when no cached value exists")
	}
}

func TestTTL_InvalidateForcesReload(t *testing.T) {
	now := time.Unix(1000, 0)
	c := NewTTL[int](time.Hour, WithClock[int](func() time.Time { return now }))

	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}

	if _, err := c.Get(context.Background(), load); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	c.Invalidate()
	v, err := c.Get(context.Background(), load)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != 2 || calls != 2 {
		t.Fatalf("expected reload after invalidate, got v=%d calls=%d", v, calls)
	}
}

func TestTTL_ZeroTTLAlwaysLoads(t *testing.T) {
	c := NewTTL[int](0)
	calls := 0
	load := func(context.Context) (int, error) {
		calls++
		return calls, nil
	}
	_, _ = c.Get(context.Background(), load)
	_, _ = c.Get(context.Background(), load)
	if calls != 2 {
		t.Fatalf("expected loader called every time with zero ttl, got %d", calls)
	}
}
