package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"sync"
	"syscall"
	"time"

	"cloud.google.com/go/firestore"
	"cloud.google.com/go/pubsub"
	cloudstorage "cloud.google.com/go/storage"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	"github.com/giftwrap/api/internal/gate"
	"github.com/giftwrap/api/internal/handlers"
	"github.com/giftwrap/api/internal/platform/auth"
	"github.com/giftwrap/api/internal/platform/config"
	"github.com/giftwrap/api/internal/platform/events"
	pfirestore "github.com/giftwrap/api/internal/platform/firestore"
	"github.com/giftwrap/api/internal/platform/observability"
	"github.com/giftwrap/api/internal/platform/secrets"
	platformstorage "github.com/giftwrap/api/internal/platform/storage"
	"github.com/giftwrap/api/internal/repositories"
	firestoreRepo "github.com/giftwrap/api/internal/repositories/firestore"
	"github.com/giftwrap/api/internal/services"
)

func main() {
	ctx := context.Background()
	startedAt := time.Now().UTC()

	baseLogger, err := observability.NewLogger()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialise logger: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		_ = baseLogger.Sync()
	}()

	logger := baseLogger.Named("api")
	ctx = observability.WithLogger(ctx, logger)

	fetcher, err := newSecretFetcher(ctx, logger)
	if err != nil {
		logger.Fatal("failed to initialise secret fetcher", zap.Error(err))
	}
	defer func() {
		if err := fetcher.Close(); err != nil {
			logger.Warn("secret fetcher close error", zap.Error(err))
		}
	}()

	cfg, err := config.Load(ctx,
		config.WithSecretResolver(config.SecretResolverFunc(fetcher.Resolve)),
	)
	if err != nil {
		var invalid *config.ValidationError
		if errors.As(err, &invalid) {
			logger.Fatal("configuration incomplete", zap.Strings("fields", invalid.Fields()))
		}
		logger.Fatal("failed to load configuration", zap.Error(err))
	}

	buildInfo := buildInfoFromEnv(cfg, startedAt)

	firestoreProvider := pfirestore.NewProvider(cfg.Firestore)
	firestoreClient, err := firestoreProvider.Client(ctx)
	if err != nil {
		logger.Fatal("failed to initialise firestore client", zap.Error(err))
	}
	defer func() {
		if err := firestoreProvider.Close(); err != nil {
			logger.Warn("firestore close error", zap.Error(err))
		}
	}()

	contentRepo, err := firestoreRepo.NewContentRepository(firestoreProvider)
	if err != nil {
		logger.Fatal("failed to initialise content repository", zap.Error(err))
	}

	var storageClient *cloudstorage.Client
	var mediaUploader *platformstorage.Uploader
	if strings.TrimSpace(cfg.Storage.MediaBucket) != "" {
		storageClient, err = cloudstorage.NewClient(ctx)
		if err != nil {
			logger.Fatal("failed to initialise storage client", zap.Error(err))
		}
		defer func() {
			if err := storageClient.Close(); err != nil {
				logger.Warn("storage close error", zap.Error(err))
			}
		}()

		mediaUploader, err = platformstorage.NewUploader(storageClient, cfg.Storage.MediaBucket,
			platformstorage.WithPublicBaseURL(cfg.Storage.PublicBaseURL),
		)
		if err != nil {
			logger.Fatal("failed to initialise media uploader", zap.Error(err))
		}
	} else {
		logger.Warn("media bucket not configured; upload endpoints disabled")
	}

	var pubsubClient *pubsub.Client
	var contentTopic *pubsub.Topic
	var contentPublisher services.ContentEventPublisher
	if cfg.PubSub.ProjectID != "" && cfg.PubSub.Topic != "" {
		pubsubClient, err = pubsub.NewClient(ctx, cfg.PubSub.ProjectID)
		if err != nil {
			logger.Fatal("failed to initialise pubsub client", zap.Error(err))
		}
		defer func() {
			if err := pubsubClient.Close(); err != nil {
				logger.Warn("pubsub close error", zap.Error(err))
			}
		}()

		contentTopic = pubsubClient.Topic(cfg.PubSub.Topic)
		defer contentTopic.Stop()

		publisher, err := events.NewPubSubContentPublisher(contentTopic)
		if err != nil {
			logger.Fatal("failed to initialise content event publisher", zap.Error(err))
		}
		contentPublisher = publisher
	} else {
		logger.Info("pubsub not configured; content updates stay instance-local")
	}

	contentService, err := services.NewContentService(services.ContentServiceDeps{
		Repository: contentRepo,
		Publisher:  contentPublisher,
		Logger:     logger.Named("content"),
		Clock:      time.Now,
		CacheTTL:   cfg.Gate.ContentCacheTTL,
	})
	if err != nil {
		logger.Fatal("failed to initialise content service", zap.Error(err))
	}

	listenCtx, listenCancel := context.WithCancel(context.Background())
	var listenWG sync.WaitGroup
	if pubsubClient != nil && cfg.PubSub.Subscription != "" {
		subscription := pubsubClient.Subscription(cfg.PubSub.Subscription)
		listener, err := events.NewContentListener(subscription, logger.Named("events"), func(evt events.ContentUpdated) {
			contentService.InvalidateCache()
		})
		if err != nil {
			logger.Fatal("failed to initialise content listener", zap.Error(err))
		}
		listenWG.Add(1)
		go func() {
			defer listenWG.Done()
			if err := listener.Listen(listenCtx); err != nil {
				logger.Error("content listener stopped", zap.Error(err))
			}
		}()
	}

	gateService, err := services.NewGateService(services.GateServiceDeps{
		Content:            contentService,
		Clock:              time.Now,
		FallbackUnlockDate: cfg.Gate.FallbackUnlockDate,
	})
	if err != nil {
		logger.Fatal("failed to initialise gate service", zap.Error(err))
	}

	var mediaService services.MediaService
	if mediaUploader != nil {
		mediaLogger := logger.Named("media")
		mediaService, err = services.NewMediaService(services.MediaServiceDeps{
			Uploader: mediaUploader,
			Clock:    time.Now,
			Logger: func(ctx context.Context, event string, fields map[string]any) {
				zFields := make([]zap.Field, 0, len(fields)+1)
				zFields = append(zFields, zap.String("event", event))
				for k, v := range fields {
					zFields = append(zFields, zap.Any(k, v))
				}
				mediaLogger.Debug("media log", zFields...)
			},
		})
		if err != nil {
			logger.Fatal("failed to initialise media service", zap.Error(err))
		}
	}

	systemService, err := newSystemService(firestoreClient, storageClient, cfg.Storage.MediaBucket, contentTopic, buildInfo)
	if err != nil {
		logger.Warn("health: system service init failed", zap.Error(err))
	}

	sessions, err := auth.NewSessionManager(cfg.Security.SessionKey, cfg.Security.AdminSessionTTL)
	if err != nil {
		logger.Fatal("failed to initialise session manager", zap.Error(err))
	}

	authHandlers, err := handlers.NewAuthHandlers(sessions, cfg.Security.AdminSecret, cfg.Security.SecureCookies, cfg.Security.BypassCookieTTL)
	if err != nil {
		logger.Fatal("failed to initialise auth handlers", zap.Error(err))
	}

	cookieWriter := gate.Writer{
		Secure:       cfg.Security.SecureCookies,
		PersistedTTL: cfg.Security.BypassCookieTTL,
	}
	ticketSigner := gate.NewTicketSigner(cfg.Security.SessionKey)
	gateHandlers := handlers.NewGateHandlers(gateService, cookieWriter, ticketSigner, cfg.Gate.EntryTicketTTL)
	contentHandlers := handlers.NewContentHandlers(contentService)
	experienceHandlers := handlers.NewExperienceHandlers(contentService, ticketSigner)

	healthHandlers := handlers.NewHealthHandlers(
		handlers.WithHealthBuildInfo(buildInfo),
		handlers.WithHealthSystemService(systemService),
	)

	projectID := strings.TrimSpace(cfg.Firestore.ProjectID)
	middlewares := []func(http.Handler) http.Handler{
		observability.InjectLoggerMiddleware(logger.Named("http")),
		observability.TraceMiddleware(projectID),
		observability.RecoveryMiddleware(logger.Named("http")),
		observability.RequestLoggerMiddleware(projectID),
		auth.Middleware(sessions),
	}

	opts := []handlers.Option{
		handlers.WithMiddlewares(middlewares...),
		handlers.WithHealthHandlers(healthHandlers),
		handlers.WithGateRoutes(gateHandlers.Routes),
		handlers.WithContentRoutes(contentHandlers.Routes),
		handlers.WithExperienceRoutes(experienceHandlers.Routes),
		handlers.WithLoginRoutes(authHandlers.Routes),
		handlers.WithPageHandler(handlers.NewSPAHandler(cfg.Server.StaticDir)),
		handlers.WithPageMiddlewares(gateHandlers.Interceptor),
	}
	if mediaService != nil {
		mediaHandlers := handlers.NewMediaHandlers(mediaService)
		opts = append(opts, handlers.WithMediaRoutes(mediaHandlers.Routes))
	}

	router := handlers.NewRouter(opts...)
	server := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)

	serverLogger := logger.Named("http").With(zap.String("addr", server.Addr))
	go func() {
		serverLogger.Info("giftwrap api listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverLogger.Fatal("http server error", zap.Error(err))
		}
	}()

	<-shutdown
	logger.Info("shutdown signal received; draining requests")

	listenCancel()
	listenWG.Wait()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("graceful shutdown failed", zap.Error(err))
	}
}

func buildInfoFromEnv(cfg config.Config, started time.Time) services.BuildInfo {
	version := strings.TrimSpace(os.Getenv("GIFT_BUILD_VERSION"))
	if version == "" {
		version = "dev"
	}
	commit := strings.TrimSpace(os.Getenv("GIFT_BUILD_COMMIT_SHA"))
	if commit == "" {
		commit = "unknown"
	}
	environment := strings.TrimSpace(cfg.Security.Environment)
	if environment == "" {
		environment = "local"
	}
	return services.BuildInfo{
		Version:     version,
		CommitSHA:   commit,
		Environment: environment,
		StartedAt:   started,
	}
}

func newSecretFetcher(ctx context.Context, logger *zap.Logger) (*secrets.Fetcher, error) {
	projectID := strings.TrimSpace(os.Getenv("GIFT_SECRET_PROJECT_ID"))
	if projectID == "" {
		projectID = strings.TrimSpace(os.Getenv("GIFT_FIRESTORE_PROJECT_ID"))
	}
	fallbackPath := strings.TrimSpace(os.Getenv("GIFT_SECRET_FALLBACK_FILE"))
	if fallbackPath == "" {
		fallbackPath = ".secrets.local"
	}

	opts := []secrets.Option{
		secrets.WithLogger(logger.Named("secrets")),
		secrets.WithFallbackFile(fallbackPath),
	}
	if projectID != "" {
		opts = append(opts, secrets.WithProject(projectID))
	}
	return secrets.NewFetcher(ctx, opts...)
}

func newSystemService(firestoreClient *firestore.Client, storageClient *cloudstorage.Client, mediaBucket string, topic *pubsub.Topic, build services.BuildInfo) (services.SystemService, error) {
	checks := make([]repositories.DependencyCheck, 0, 3)
	if firestoreClient != nil {
		c := firestoreClient
		checks = append(checks, repositories.DependencyCheck{
			Name:    "firestore",
			Timeout: 1500 * time.Millisecond,
			Check: func(ctx context.Context) error {
				iter := c.Collections(ctx)
				_, err := iter.Next()
				if errors.Is(err, iterator.Done) {
					return nil
				}
				return err
			},
		})
	}
	if storageClient != nil && strings.TrimSpace(mediaBucket) != "" {
		bucket := storageClient.Bucket(mediaBucket)
		checks = append(checks, repositories.DependencyCheck{
			Name:    "storage",
			Timeout: 1500 * time.Millisecond,
			Check: func(ctx context.Context) error {
				_, err := bucket.Attrs(ctx)
				return err
			},
		})
	}
	if topic != nil {
		t := topic
		checks = append(checks, repositories.DependencyCheck{
			Name:    "pubsub",
			Timeout: 1500 * time.Millisecond,
			Check: func(ctx context.Context) error {
				exists, err := t.Exists(ctx)
				if err != nil {
					return err
				}
				if !exists {
					return fmt.Errorf("topic %s does not exist", t.ID())
				}
				return nil
			},
		})
	}
	if len(checks) == 0 {
		return nil, errors.New("health: no dependency checks configured")
	}
	repo, err := repositories.NewDependencyHealthRepository(checks)
	if err != nil {
		return nil, err
	}
	return services.NewSystemService(services.SystemServiceDeps{
		HealthRepository: repo,
		Clock:            time.Now,
		Build:            build,
	})
}
