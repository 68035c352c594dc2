package di

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/giftwrap/api/internal/platform/config"
	"github.com/giftwrap/api/internal/repositories"
	"github.com/giftwrap/api/internal/services"
)

// Repositories bundles the data dependencies the services operate on.
// Tests can supply in-memory implementations.
type Repositories struct {
	Content repositories.ContentRepository
	Health  repositories.HealthRepository
}

// Services bundles the service-layer contracts that handlers rely upon.
type Services struct {
	Content services.ContentService
	Gate    services.GateService
	Media   services.MediaService
	System  services.SystemService
}

// Container wires repositories and services for runtime use.
type Container struct {
	Config       config.Config
	Repositories Repositories
	Services     Services
}

// Option customises container assembly.
type Option func(*containerConfig)

type containerConfig struct {
	publisher services.ContentEventPublisher
	uploader  services.MediaUploader
	logger    *zap.Logger
	clock     func() time.Time
	build     services.BuildInfo
}

// WithContentPublisher wires the event publisher announcing content changes.
func WithContentPublisher(publisher services.ContentEventPublisher) Option {
	return func(c *containerConfig) {
		c.publisher = publisher
	}
}

// WithMediaUploader wires the object storage uploader backing media uploads.
func WithMediaUploader(uploader services.MediaUploader) Option {
	return func(c *containerConfig) {
		c.uploader = uploader
	}
}

// WithLogger sets the logger shared by the assembled services.
func WithLogger(logger *zap.Logger) Option {
	return func(c *containerConfig) {
		c.logger = logger
	}
}

// WithClock injects a custom clock primarily for tests.
func WithClock(clock func() time.Time) Option {
	return func(c *containerConfig) {
		if clock != nil {
			c.clock = clock
		}
	}
}

// WithBuildInfo sets the build metadata reported by the system service.
func WithBuildInfo(build services.BuildInfo) Option {
	return func(c *containerConfig) {
		c.build = build
	}
}

// NewContainer constructs the runtime dependencies. Production wiring provides
// Firestore-backed repositories, while tests can supply in-memory ones.
func NewContainer(ctx context.Context, cfg config.Config, reps Repositories, opts ...Option) (*Container, error) {
	if reps.Content == nil {
		return nil, errors.New("content repository is required")
	}

	cc := containerConfig{
		logger: zap.NewNop(),
		clock:  time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cc)
		}
	}

	var svc Services

	contentSvc, err := services.NewContentService(services.ContentServiceDeps{
		Repository: reps.Content,
		Publisher:  cc.publisher,
		Logger:     cc.logger.Named("content"),
		Clock:      cc.clock,
		CacheTTL:   cfg.Gate.ContentCacheTTL,
	})
	if err != nil {
		return nil, fmt.Errorf("build content service: %w", err)
	}
	svc.Content = contentSvc

	gateSvc, err := services.NewGateService(services.GateServiceDeps{
		Content:            contentSvc,
		Clock:              cc.clock,
		FallbackUnlockDate: cfg.Gate.FallbackUnlockDate,
	})
	if err != nil {
		return nil, fmt.Errorf("build gate service: %w", err)
	}
	svc.Gate = gateSvc

	if cc.uploader != nil {
		mediaSvc, err := services.NewMediaService(services.MediaServiceDeps{
			Uploader: cc.uploader,
			Clock:    cc.clock,
		})
		if err != nil {
			return nil, fmt.Errorf("build media service: %w", err)
		}
		svc.Media = mediaSvc
	}

	if reps.Health != nil {
		build := cc.build
		if build.Environment == "" {
			build.Environment = cfg.Security.Environment
		}
		if build.StartedAt.IsZero() {
			build.StartedAt = cc.clock().UTC()
		}
		systemSvc, err := services.NewSystemService(services.SystemServiceDeps{
			HealthRepository: reps.Health,
			Clock:            cc.clock,
			Build:            build,
		})
		if err != nil {
			return nil, fmt.Errorf("build system service: %w", err)
		}
		svc.System = systemSvc
	}

	return &Container{
		Config:       cfg,
		Repositories: reps,
		Services:     svc,
	}, nil
}
