// Package memory provides in-memory repository implementations used in
// tests and local development without a Firestore emulator.
package memory

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	domain "github.com/giftwrap/api/internal/domain"
)

// ContentRepository keeps content fields in a process-local map.
type ContentRepository struct {
	mu     sync.RWMutex
	fields map[string]domain.ContentField
	clock  func() time.Time
}

// ContentRepositoryOption customises repository construction.
type ContentRepositoryOption func(*ContentRepository)

// WithClock injects a custom clock primarily for tests.
func WithClock(clock func() time.Time) ContentRepositoryOption {
	return func(r *ContentRepository) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewContentRepository constructs an empty in-memory content repository.
func NewContentRepository(opts ...ContentRepositoryOption) *ContentRepository {
	repo := &ContentRepository{
		fields: make(map[string]domain.ContentField),
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo
}

// GetAll returns a copy of every stored field keyed by content key.
func (r *ContentRepository) GetAll(ctx context.Context) (map[string]domain.ContentField, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	r.mu.RLock()
	defer r.mu.RUnlock()
	fields := make(map[string]domain.ContentField, len(r.fields))
	for key, field := range r.fields {
		fields[key] = field
	}
	return fields, nil
}

// SetField upserts the value stored under key.
func (r *ContentRepository) SetField(ctx context.Context, key string, value string) (domain.ContentField, error) {
	if err := ctx.Err(); err != nil {
		return domain.ContentField{}, err
	}
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.ContentField{}, errors.New("content repository: key is required")
	}

	field := domain.ContentField{Key: key, Value: value, UpdatedAt: r.clock().UTC()}
	r.mu.Lock()
	r.fields[key] = field
	r.mu.Unlock()
	return field, nil
}
