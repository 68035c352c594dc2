package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/microcosm-cc/bluemonday"
	"go.uber.org/zap"
	"golang.org/x/text/unicode/norm"

	domain "github.com/giftwrap/api/internal/domain"
	"github.com/giftwrap/api/internal/platform/cache"
	"github.com/giftwrap/api/internal/repositories"
)

const (
	maxContentKeyLength   = 128
	maxContentValueLength = 64 * 1024
)

// ErrContentRepositoryMissing signals that the content repository dependency is absent.
var ErrContentRepositoryMissing = errors.New("content service: content repository is not configured")

// ErrContentInvalidInput indicates a rejected key or value.
var ErrContentInvalidInput = errors.New("content: invalid input")

// ContentServiceDeps groups constructor parameters for the content service.
type ContentServiceDeps struct {
	Repository repositories.ContentRepository
	Publisher  ContentEventPublisher
	Logger     *zap.Logger
	Clock      func() time.Time
	CacheTTL   time.Duration
}

type contentService struct {
	repo      repositories.ContentRepository
	publisher ContentEventPublisher
	logger    *zap.Logger
	clock     func() time.Time
	snapshot  *cache.TTL[map[string]string]
	sanitizer *bluemonday.Policy
}

// NewContentService constructs the content service with the supplied dependencies.
func NewContentService(deps ContentServiceDeps) (ContentService, error) {
	if deps.Repository == nil {
		return nil, ErrContentRepositoryMissing
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &contentService{
		repo:      deps.Repository,
		publisher: deps.Publisher,
		logger:    logger,
		clock:     func() time.Time { return clock().UTC() },
		snapshot:  cache.NewTTL[map[string]string](deps.CacheTTL, cache.WithClock[map[string]string](clock)),
		sanitizer: bluemonday.UGCPolicy(),
	}, nil
}

func (s *contentService) GetAll(ctx context.Context) (map[string]string, error) {
	snapshot, err := s.snapshot.Get(ctx, s.loadSnapshot)
	if err != nil {
		// The page still renders when the store is unreachable or not
		// yet provisioned; it just shows the built-in copy.
		s.logger.Warn("content store unavailable, serving defaults", zap.Error(err))
		snapshot = domain.DefaultContent()
	}

	// Callers receive a copy so they cannot mutate the cached map.
	result := make(map[string]string, len(snapshot))
	for key, value := range snapshot {
		result[key] = value
	}
	return result, nil
}

func (s *contentService) loadSnapshot(ctx context.Context) (map[string]string, error) {
	stored, err := s.repo.GetAll(ctx)
	if err != nil {
		return nil, err
	}

	merged := domain.DefaultContent()
	for key, field := range stored {
		merged[key] = field.Value
	}
	return merged, nil
}

func (s *contentService) Update(ctx context.Context, fields map[string]string) ([]ContentUpdateResult, error) {
	if len(fields) == 0 {
		return nil, fmt.Errorf("%w: no fields supplied", ErrContentInvalidInput)
	}

	results := make([]ContentUpdateResult, 0, len(fields))
	var updated []string
	for key, value := range fields {
		result := s.updateField(ctx, key, value)
		results = append(results, result)
		if result.Err == nil {
			updated = append(updated, result.Key)
		}
	}

	if len(updated) > 0 {
		s.snapshot.Invalidate()
		s.announce(ctx, updated)
	}
	return results, nil
}

func (s *contentService) updateField(ctx context.Context, key, value string) ContentUpdateResult {
	trimmedKey := strings.TrimSpace(key)
	if err := validateContentKey(trimmedKey); err != nil {
		return ContentUpdateResult{Key: key, Err: err}
	}

	value = norm.NFC.String(value)
	if len(value) > maxContentValueLength {
		return ContentUpdateResult{Key: trimmedKey, Err: fmt.Errorf("%w: value too large", ErrContentInvalidInput)}
	}
	if domain.IsHTMLContentKey(trimmedKey) {
		value = s.sanitizer.Sanitize(value)
	}

	saved, err := s.repo.SetField(ctx, trimmedKey, value)
	if err != nil {
		return ContentUpdateResult{Key: trimmedKey, Err: err}
	}
	return ContentUpdateResult{Key: saved.Key, Value: saved.Value}
}

func (s *contentService) InvalidateCache() {
	s.snapshot.Invalidate()
}

// announce publishes the change notification. Delivery is best effort; a
// publish failure never fails the update that already persisted.
func (s *contentService) announce(ctx context.Context, keys []string) {
	if s.publisher == nil {
		return
	}
	if _, err := s.publisher.PublishContentUpdated(ctx, keys); err != nil {
		s.logger.Warn("content: publish update event failed", zap.Error(err), zap.Strings("keys", keys))
	}
}

func validateContentKey(key string) error {
	if key == "" {
		return fmt.Errorf("%w: key is required", ErrContentInvalidInput)
	}
	if len(key) > maxContentKeyLength {
		return fmt.Errorf("%w: key too long", ErrContentInvalidInput)
	}
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z':
		case r >= '0' && r <= '9':
		case r == '_':
		default:
			return fmt.Errorf("%w: key %q contains invalid characters", ErrContentInvalidInput, key)
		}
	}
	return nil
}
