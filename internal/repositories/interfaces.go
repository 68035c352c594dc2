package repositories

import (
	"context"
	"errors"

	domain "github.com/giftwrap/api/internal/domain"
)

// RepositoryError wraps low-level persistence failures with categorisation used by services.
type RepositoryError interface {
	error
	IsNotFound() bool
	IsConflict() bool
	IsUnavailable() bool
}

// ContentRepository persists the editable content fields of the site.
type ContentRepository interface {
	// GetAll returns every stored field keyed by content key.
	GetAll(ctx context.Context) (map[string]domain.ContentField, error)
	// SetField upserts the value stored under key and returns the saved field.
	SetField(ctx context.Context, key string, value string) (domain.ContentField, error)
}

// HealthRepository aggregates dependency probes into a readiness report.
type HealthRepository interface {
	Collect(ctx context.Context) (domain.SystemHealthReport, error)
}

// IsNotFound reports whether err is a repository not-found error.
func IsNotFound(err error) bool {
	var repoErr RepositoryError
	return errors.As(err, &repoErr) && repoErr.IsNotFound()
}
