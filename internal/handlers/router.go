package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/giftwrap/api/internal/platform/httpx"
)

// RouteRegistrar registers a set of routes against the provided router.
type RouteRegistrar func(r chi.Router)

type routerConfig struct {
	basePath    string
	middlewares []func(http.Handler) http.Handler
	health      *HealthHandlers

	gate       RouteRegistrar
	content    RouteRegistrar
	media      RouteRegistrar
	experience RouteRegistrar
	login      RouteRegistrar

	pages           http.Handler
	pageMiddlewares []func(http.Handler) http.Handler
}

// Option customises the router configuration before construction.
type Option func(*routerConfig)

const (
	defaultAPIPrefix  = "/api/v1"
	defaultTimeout    = 60 * time.Second
	errorNotFoundCode = "route_not_found"
)

// NewRouter constructs the chi router with shared middleware, the JSON API
// groups, and the gated page handler.
func NewRouter(opts ...Option) chi.Router {
	cfg := routerConfig{
		basePath: defaultAPIPrefix,
		middlewares: []func(http.Handler) http.Handler{
			middleware.RequestID,
			middleware.RealIP,
			middleware.Timeout(defaultTimeout),
		},
	}

	for _, opt := range opts {
		opt(&cfg)
	}

	r := chi.NewRouter()

	if cfg.health == nil {
		cfg.health = NewHealthHandlers()
	}

	for _, mw := range cfg.middlewares {
		if mw != nil {
			r.Use(mw)
		}
	}

	r.Get("/healthz", cfg.health.Healthz)
	r.Get("/readyz", cfg.health.Readyz)

	r.Route(cfg.basePath, func(api chi.Router) {
		api.NotFound(func(w http.ResponseWriter, req *http.Request) {
			httpx.WriteError(req.Context(), w, httpx.NewError(errorNotFoundCode, fmt.Sprintf("no route for %s", req.URL.Path), http.StatusNotFound))
		})
		api.MethodNotAllowed(func(w http.ResponseWriter, req *http.Request) {
			httpx.WriteError(req.Context(), w, httpx.NewError("method_not_allowed", fmt.Sprintf("method %s not allowed on %s", req.Method, req.URL.Path), http.StatusMethodNotAllowed))
		})

		mount := func(path string, registrar RouteRegistrar, name string) {
			api.Route(path, func(group chi.Router) {
				if registrar != nil {
					registrar(group)
					return
				}
				registerNotImplemented(group, name)
			})
		}

		mount("/gate", cfg.gate, "gate")
		mount("/content", cfg.content, "content")
		mount("/media", cfg.media, "media")
		mount("/experience", cfg.experience, "experience")
	})

	if cfg.login != nil {
		cfg.login(r)
	}

	if cfg.pages != nil {
		r.Group(func(group chi.Router) {
			for _, mw := range cfg.pageMiddlewares {
				if mw != nil {
					group.Use(mw)
				}
			}
			group.Handle("/*", cfg.pages)
		})
	}

	return r
}

// WithMiddlewares appends additional global middleware to the router.
func WithMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.middlewares = append(cfg.middlewares, mw...)
	}
}

// WithHealthHandlers overrides the handlers used for /healthz and /readyz endpoints.
func WithHealthHandlers(h *HealthHandlers) Option {
	return func(cfg *routerConfig) {
		cfg.health = h
	}
}

// WithGateRoutes configures the registrar responsible for gate endpoints.
func WithGateRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.gate = reg
	}
}

// WithContentRoutes configures the registrar responsible for content endpoints.
func WithContentRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.content = reg
	}
}

// WithMediaRoutes configures the registrar responsible for media endpoints.
func WithMediaRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.media = reg
	}
}

// WithExperienceRoutes configures the registrar responsible for the main-experience endpoints.
func WithExperienceRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.experience = reg
	}
}

// WithLoginRoutes configures the registrar responsible for the admin login endpoints.
func WithLoginRoutes(reg RouteRegistrar) Option {
	return func(cfg *routerConfig) {
		cfg.login = reg
	}
}

// WithPageHandler configures the handler serving the gated site pages.
func WithPageHandler(h http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.pages = h
	}
}

// WithPageMiddlewares configures middlewares applied to page requests only.
func WithPageMiddlewares(mw ...func(http.Handler) http.Handler) Option {
	return func(cfg *routerConfig) {
		cfg.pageMiddlewares = append(cfg.pageMiddlewares, mw...)
	}
}

func registerNotImplemented(r chi.Router, name string) {
	handler := func(w http.ResponseWriter, req *http.Request) {
		httpx.WriteError(req.Context(), w, httpx.NewError("not_implemented", fmt.Sprintf("%s routes not implemented", name), http.StatusNotImplemented))
	}
	r.HandleFunc("/*", handler)
	r.HandleFunc("/", handler)
	r.NotFound(handler)
	r.MethodNotAllowed(handler)
}
