package config

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

const (
	defaultEnvFile      = ".env"
	defaultPort         = "8080"
	defaultReadTimeout  = 15 * time.Second
	defaultWriteTimeout = 30 * time.Second
	defaultIdleTimeout  = 120 * time.Second

	defaultStaticDir        = "web/dist"
	defaultContentCacheTTL  = 30 * time.Second
	defaultUnlockDate       = "07-26"
	defaultAdminSessionTTL  = 7 * 24 * time.Hour
	defaultBypassCookieTTL  = 365 * 24 * time.Hour
	defaultEntryTicketTTL   = 12 * time.Hour
	defaultEnvironmentLabel = "local"
)

// Config captures all runtime configuration organised by concern.
type Config struct {
	Server    ServerConfig
	Firestore FirestoreConfig
	Storage   StorageConfig
	PubSub    PubSubConfig
	Gate      GateConfig
	Security  SecurityConfig
}

// ServerConfig configures HTTP server parameters.
type ServerConfig struct {
	Port         string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
	StaticDir    string
}

// FirestoreConfig stores database parameters.
type FirestoreConfig struct {
	ProjectID    string
	EmulatorHost string
}

// StorageConfig holds the media bucket settings.
type StorageConfig struct {
	MediaBucket   string
	PublicBaseURL string
}

// PubSubConfig names the topic and subscription used for content cache invalidation.
type PubSubConfig struct {
	ProjectID    string
	Topic        string
	Subscription string
}

// GateConfig controls the access gate behaviour.
type GateConfig struct {
	FallbackUnlockDate string
	ContentCacheTTL    time.Duration
	EntryTicketTTL     time.Duration
}

// SecurityConfig groups the admin authentication settings.
type SecurityConfig struct {
	Environment     string
	AdminSecret     string
	SessionKey      string
	AdminSessionTTL time.Duration
	BypassCookieTTL time.Duration
	SecureCookies   bool
}

// SecretResolver resolves references to external secrets (e.g. Secret Manager URIs).
type SecretResolver interface {
	ResolveSecret(ctx context.Context, ref string) (string, error)
}

// SecretResolverFunc adapts ordinary functions to SecretResolver.
type SecretResolverFunc func(context.Context, string) (string, error)

// ResolveSecret resolves the secret using the wrapped function.
func (f SecretResolverFunc) ResolveSecret(ctx context.Context, ref string) (string, error) {
	return f(ctx, ref)
}

// ValidationError is returned when required configuration fields are missing or invalid.
type ValidationError struct {
	fields []string
}

// Error implements the error interface.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("config validation failed: missing or invalid fields [%s]", strings.Join(e.fields, ", "))
}

// Fields returns a copy of the missing/invalid field list.
func (e *ValidationError) Fields() []string {
	out := make([]string, len(e.fields))
	copy(out, e.fields)
	return out
}

// SecretError describes failures while resolving a secret reference.
type SecretError struct {
	Ref string
	Err error
}

// Error implements the error interface.
func (e *SecretError) Error() string {
	return fmt.Sprintf("secret resolution failed for ref %q: %v", e.Ref, e.Err)
}

// Unwrap exposes the underlying error.
func (e *SecretError) Unwrap() error { return e.Err }

var errSecretResolverNotConfigured = errors.New("secret resolver not configured")

// Option customises Load behaviour.
type Option func(*loaderOptions)

type loaderOptions struct {
	envFile      string
	envMap       map[string]string
	useSystemEnv bool
	secret       SecretResolver
}

// WithEnvFile overrides the .env file path used for local overrides.
func WithEnvFile(path string) Option {
	return func(o *loaderOptions) {
		o.envFile = path
	}
}

// WithEnvMap injects an explicit key/value map for environment lookups. Values in the map
// take precedence over system environment variables.
func WithEnvMap(values map[string]string) Option {
	return func(o *loaderOptions) {
		o.envMap = values
	}
}

// WithoutSystemEnv disables reading from os.Getenv, relying only on provided maps and .env files.
func WithoutSystemEnv() Option {
	return func(o *loaderOptions) {
		o.useSystemEnv = false
	}
}

// WithSecretResolver sets a custom secret resolver used for secret:// references.
func WithSecretResolver(resolver SecretResolver) Option {
	return func(o *loaderOptions) {
		o.secret = resolver
	}
}

// Load assembles the application configuration by combining defaults, .env overrides,
// environment variables, and optional secret manager lookups.
func Load(ctx context.Context, opts ...Option) (Config, error) {
	options := loaderOptions{
		envFile:      defaultEnvFile,
		useSystemEnv: true,
		secret: SecretResolverFunc(func(ctx context.Context, ref string) (string, error) {
			return "", &SecretError{Ref: ref, Err: errSecretResolverNotConfigured}
		}),
	}

	for _, opt := range opts {
		opt(&options)
	}

	dotEnvValues, err := loadDotEnv(options.envFile)
	if err != nil {
		return Config{}, err
	}

	lookup := func(key string) (string, bool) {
		if options.envMap != nil {
			if value, ok := options.envMap[key]; ok {
				return value, true
			}
		}
		if options.useSystemEnv {
			if value, ok := os.LookupEnv(key); ok {
				return value, true
			}
		}
		if dotEnvValues != nil {
			if value, ok := dotEnvValues[key]; ok {
				return value, true
			}
		}
		return "", false
	}

	cfg := Config{
		Server: ServerConfig{
			Port:         stringWithDefault(lookup, "GIFT_SERVER_PORT", defaultPort),
			ReadTimeout:  durationWithDefault(lookup, "GIFT_SERVER_READ_TIMEOUT", defaultReadTimeout),
			WriteTimeout: durationWithDefault(lookup, "GIFT_SERVER_WRITE_TIMEOUT", defaultWriteTimeout),
			IdleTimeout:  durationWithDefault(lookup, "GIFT_SERVER_IDLE_TIMEOUT", defaultIdleTimeout),
			StaticDir:    stringWithDefault(lookup, "GIFT_SERVER_STATIC_DIR", defaultStaticDir),
		},
		Firestore: FirestoreConfig{
			ProjectID:    stringWithDefault(lookup, "GIFT_FIRESTORE_PROJECT_ID", ""),
			EmulatorHost: stringWithDefault(lookup, "GIFT_FIRESTORE_EMULATOR_HOST", ""),
		},
		Storage: StorageConfig{
			MediaBucket:   stringWithDefault(lookup, "GIFT_STORAGE_MEDIA_BUCKET", ""),
			PublicBaseURL: stringWithDefault(lookup, "GIFT_STORAGE_PUBLIC_BASE_URL", ""),
		},
		PubSub: PubSubConfig{
			ProjectID:    stringWithDefault(lookup, "GIFT_PUBSUB_PROJECT_ID", ""),
			Topic:        stringWithDefault(lookup, "GIFT_PUBSUB_CONTENT_TOPIC", ""),
			Subscription: stringWithDefault(lookup, "GIFT_PUBSUB_CONTENT_SUBSCRIPTION", ""),
		},
		Gate: GateConfig{
			FallbackUnlockDate: stringWithDefault(lookup, "GIFT_GATE_FALLBACK_UNLOCK_DATE", defaultUnlockDate),
			ContentCacheTTL:    durationWithDefault(lookup, "GIFT_GATE_CONTENT_CACHE_TTL", defaultContentCacheTTL),
			EntryTicketTTL:     durationWithDefault(lookup, "GIFT_GATE_ENTRY_TICKET_TTL", defaultEntryTicketTTL),
		},
		Security: SecurityConfig{
			Environment:     strings.ToLower(stringWithDefault(lookup, "GIFT_SECURITY_ENVIRONMENT", defaultEnvironmentLabel)),
			AdminSecret:     stringWithDefault(lookup, "GIFT_SECURITY_ADMIN_SECRET", ""),
			SessionKey:      stringWithDefault(lookup, "GIFT_SECURITY_SESSION_KEY", ""),
			AdminSessionTTL: durationWithDefault(lookup, "GIFT_SECURITY_ADMIN_SESSION_TTL", defaultAdminSessionTTL),
			BypassCookieTTL: durationWithDefault(lookup, "GIFT_SECURITY_BYPASS_COOKIE_TTL", defaultBypassCookieTTL),
			SecureCookies:   boolWithDefault(lookup, "GIFT_SECURITY_SECURE_COOKIES", true),
		},
	}

	// Pub/Sub project defaults to the Firestore project when unspecified.
	if cfg.PubSub.ProjectID == "" {
		cfg.PubSub.ProjectID = cfg.Firestore.ProjectID
	}

	// Resolve secrets when values reference Secret Manager.
	secretFields := []struct {
		name  string
		field *string
	}{
		{"Security.AdminSecret", &cfg.Security.AdminSecret},
		{"Security.SessionKey", &cfg.Security.SessionKey},
	}
	for _, target := range secretFields {
		resolved, err := resolveSecret(ctx, *target.field, options.secret)
		if err != nil {
			return Config{}, err
		}
		*target.field = resolved
	}

	if err := validateConfig(cfg); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func resolveSecret(ctx context.Context, value string, resolver SecretResolver) (string, error) {
	if value == "" || !isSecretReference(value) {
		return value, nil
	}
	resolved, err := resolver.ResolveSecret(ctx, value)
	if err != nil {
		return "", &SecretError{Ref: value, Err: err}
	}
	return strings.TrimSpace(resolved), nil
}

func isSecretReference(value string) bool {
	trimmed := strings.ToLower(strings.TrimSpace(value))
	return strings.HasPrefix(trimmed, "secret://") || strings.HasPrefix(trimmed, "sm://")
}

func validateConfig(cfg Config) error {
	var missing []string
	if strings.TrimSpace(cfg.Server.Port) == "" {
		missing = append(missing, "Server.Port")
	}
	if _, err := parseMonthDay(cfg.Gate.FallbackUnlockDate); err != nil {
		missing = append(missing, "Gate.FallbackUnlockDate")
	}
	if cfg.Gate.ContentCacheTTL <= 0 {
		missing = append(missing, "Gate.ContentCacheTTL")
	}
	if strings.TrimSpace(cfg.Security.AdminSecret) == "" {
		missing = append(missing, "Security.AdminSecret")
	}
	if strings.TrimSpace(cfg.Security.SessionKey) == "" {
		missing = append(missing, "Security.SessionKey")
	}
	if len(missing) > 0 {
		return &ValidationError{fields: missing}
	}
	return nil
}

// parseMonthDay validates an "MM-DD" calendar date string.
func parseMonthDay(value string) (time.Time, error) {
	return time.Parse("01-02", strings.TrimSpace(value))
}

func loadDotEnv(path string) (map[string]string, error) {
	if strings.TrimSpace(path) == "" {
		return nil, nil
	}
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("config: open env file %s: %w", path, err)
	}
	defer file.Close()

	values := make(map[string]string)
	scanner := bufio.NewScanner(file)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		line = strings.TrimPrefix(line, "export ")
		parts := strings.SplitN(line, "=", 2)
		if len(parts) != 2 {
			continue
		}
		key := strings.TrimSpace(parts[0])
		if key == "" {
			continue
		}
		value := strings.TrimSpace(parts[1])
		value = strings.Trim(value, `"'`)
		values[key] = value
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("config: read env file %s: %w", path, err)
	}
	return values, nil
}

type lookupFunc func(key string) (string, bool)

func stringWithDefault(lookup lookupFunc, key, fallback string) string {
	if value, ok := lookup(key); ok {
		if trimmed := strings.TrimSpace(value); trimmed != "" {
			return trimmed
		}
	}
	return fallback
}

func durationWithDefault(lookup lookupFunc, key string, fallback time.Duration) time.Duration {
	if value, ok := lookup(key); ok {
		if parsed, err := time.ParseDuration(strings.TrimSpace(value)); err == nil && parsed > 0 {
			return parsed
		}
	}
	return fallback
}

func boolWithDefault(lookup lookupFunc, key string, fallback bool) bool {
	if value, ok := lookup(key); ok {
		if parsed, err := strconv.ParseBool(strings.TrimSpace(value)); err == nil {
			return parsed
		}
	}
	return fallback
}
