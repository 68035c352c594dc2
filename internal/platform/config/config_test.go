package config

import (
	"context"
	"errors"
	"testing"
	"time"
)

func baseEnv() map[string]string {
	return map[string]string{
		"GIFT_SECURITY_ADMIN_SECRET": "open-sesame",
		"GIFT_SECURITY_SESSION_KEY":  "0123456789abcdef",
	}
}

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load(context.Background(),
		WithoutSystemEnv(),
		WithEnvFile(""),
		WithEnvMap(baseEnv()),
	)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "8080" {
		t.Fatalf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if cfg.Gate.FallbackUnlockDate != "07-26" {
		t.Fatalf("expected default fallback unlock date, got %s", cfg.Gate.FallbackUnlockDate)
	}
	if cfg.Gate.ContentCacheTTL != 30*time.Second {
		t.Fatalf("expected default cache ttl, got %s", cfg.Gate.ContentCacheTTL)
	}
	if !cfg.Security.SecureCookies {
		t.Fatalf("expected secure cookies by default")
	}
}

func TestLoad_EnvOverrides(t *testing.T) {
	env := baseEnv()
	env["GIFT_SERVER_PORT"] = "9090"
	env["GIFT_GATE_FALLBACK_UNLOCK_DATE"] = "12-24"
	env["GIFT_GATE_CONTENT_CACHE_TTL"] = "2m"
	env["GIFT_SECURITY_SECURE_COOKIES"] = "false"
	env["GIFT_FIRESTORE_PROJECT_ID"] = "gift-project"

	cfg, err := Load(context.Background(), WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(env))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Server.Port != "9090" {
		t.Fatalf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Gate.FallbackUnlockDate != "12-24" {
		t.Fatalf("expected overridden unlock date, got %s", cfg.Gate.FallbackUnlockDate)
	}
	if cfg.Gate.ContentCacheTTL != 2*time.Minute {
		t.Fatalf("expected 2m cache ttl, got %s", cfg.Gate.ContentCacheTTL)
	}
	if cfg.Security.SecureCookies {
		t.Fatalf("expected secure cookies disabled")
	}
	if cfg.PubSub.ProjectID != "gift-project" {
		t.Fatalf("expected pubsub project to default to firestore project, got %s", cfg.PubSub.ProjectID)
	}
}

func TestLoad_MissingSecretsFailValidation(t *testing.T) {
	_, err := Load(context.Background(), WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(map[string]string{}))
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
	fields := validation.Fields()
	found := map[string]bool{}
	for _, f := range fields {
		found[f] = true
	}
	if !found["Security.AdminSecret"] || !found["Security.SessionKey"] {
		t.Fatalf("expected admin secret and session key in %v", fields)
	}
}

func TestLoad_InvalidFallbackDateRejected(t *testing.T) {
	env := baseEnv()
	env["GIFT_GATE_FALLBACK_UNLOCK_DATE"] = "not-a-date"
	_, err := Load(context.Background(), WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(env))
	var validation *ValidationError
	if !errors.As(err, &validation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoad_ResolvesSecretReferences(t *testing.T) {
	env := baseEnv()
	env["GIFT_SECURITY_ADMIN_SECRET"] = "secret://gate/admin-secret"

	resolver := SecretResolverFunc(func(_ context.Context, ref string) (string, error) {
		if ref != "secret://gate/admin-secret" {
			return "", errors.New("unexpected ref")
		}
		return "resolved-secret", nil
	})

	cfg, err := Load(context.Background(), WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(env), WithSecretResolver(resolver))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Security.AdminSecret != "resolved-secret" {
		t.Fatalf("expected resolved secret, got %q", cfg.Security.AdminSecret)
	}
}

func TestLoad_SecretResolutionFailure(t *testing.T) {
	env := baseEnv()
	env["GIFT_SECURITY_SESSION_KEY"] = "sm://gate/session-key"

	resolver := SecretResolverFunc(func(context.Context, string) (string, error) {
		return "", errors.New("backend down")
	})

	_, err := Load(context.Background(), WithoutSystemEnv(), WithEnvFile(""), WithEnvMap(env), WithSecretResolver(resolver))
	var secretErr *SecretError
	if !errors.As(err, &secretErr) {
		t.Fatalf("expected secret error, got %v", err)
	}
	if secretErr.Ref != "sm://gate/session-key" {
		t.Fatalf("unexpected ref %q", secretErr.Ref)
	}
}
