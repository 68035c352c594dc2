// Package firestore contains Firestore-backed repository implementations.
package firestore

import (
	"context"
	"errors"
	"strings"
	"time"

	domain "github.com/giftwrap/api/internal/domain"
	pfirestore "github.com/giftwrap/api/internal/platform/firestore"
)

const contentCollection = "content"

// ContentRepository stores each content field as its own document in the
// content collection, keyed by content key.
type ContentRepository struct {
	base  *pfirestore.BaseRepository[contentDocument]
	clock func() time.Time
}

type contentDocument struct {
	Value     string    `firestore:"value"`
	UpdatedAt time.Time `firestore:"updatedAt"`
}

// ContentRepositoryOption customises repository construction.
type ContentRepositoryOption func(*ContentRepository)

// WithContentClock injects a custom clock primarily for tests.
func WithContentClock(clock func() time.Time) ContentRepositoryOption {
	return func(r *ContentRepository) {
		if clock != nil {
			r.clock = clock
		}
	}
}

// NewContentRepository constructs a Firestore-backed content repository.
func NewContentRepository(provider *pfirestore.Provider, opts ...ContentRepositoryOption) (*ContentRepository, error) {
	if provider == nil {
		return nil, errors.New("content repository: firestore provider is required")
	}
	repo := &ContentRepository{
		base:  pfirestore.NewBaseRepository[contentDocument](provider, contentCollection),
		clock: time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(repo)
		}
	}
	return repo, nil
}

// GetAll returns every stored content field keyed by content key.
func (r *ContentRepository) GetAll(ctx context.Context) (map[string]domain.ContentField, error) {
	docs, err := r.base.List(ctx)
	if err != nil {
		return nil, err
	}
	fields := make(map[string]domain.ContentField, len(docs))
	for _, doc := range docs {
		fields[doc.ID] = domain.ContentField{
			Key:       doc.ID,
			Value:     doc.Data.Value,
			UpdatedAt: doc.Data.UpdatedAt.UTC(),
		}
	}
	return fields, nil
}

// SetField upserts the value stored under key.
func (r *ContentRepository) SetField(ctx context.Context, key string, value string) (domain.ContentField, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return domain.ContentField{}, errors.New("content repository: key is required")
	}

	now := r.clock().UTC()
	doc := contentDocument{Value: value, UpdatedAt: now}
	if err := r.base.Set(ctx, key, doc); err != nil {
		return domain.ContentField{}, err
	}
	return domain.ContentField{Key: key, Value: value, UpdatedAt: now}, nil
}
