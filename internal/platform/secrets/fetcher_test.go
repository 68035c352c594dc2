package secrets

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"cloud.google.com/go/secretmanager/apiv1/secretmanagerpb"
	"github.com/googleapis/gax-go/v2"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type stubSecretClient struct {
	responses map[string]string
	err       error
	calls     int
}

func (s *stubSecretClient) AccessSecretVersion(_ context.Context, req *secretmanagerpb.AccessSecretVersionRequest, _ ...gax.CallOption) (*secretmanagerpb.AccessSecretVersionResponse, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	value, ok := s.responses[req.GetName()]
	if !ok {
		return nil, status.Error(codes.NotFound, "secret version not found")
	}
	return &secretmanagerpb.AccessSecretVersionResponse{
		Payload: &secretmanagerpb.SecretPayload{Data: []byte(value)},
	}, nil
}

func (s *stubSecretClient) Close() error { return nil }

func writeFallbackFile(t *testing.T, contents string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), ".secrets.local")
	if err := os.WriteFile(path, []byte(contents), 0o600); err != nil {
		t.Fatalf("write fallback file: %v", err)
	}
	return path
}

func TestFetcher_ResolvesFromSecretManager(t *testing.T) {
	client := &stubSecretClient{responses: map[string]string{
		"projects/gift-prod/secrets/admin-secret/versions/latest": "hunter2",
	}}
	fetcher, err := NewFetcher(context.Background(),
		WithProject("gift-prod"),
		WithSecretManagerClient(client),
		WithFallbackFile(""),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}

	value, err := fetcher.Resolve(context.Background(), "secret://admin-secret")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if value != "hunter2" {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestFetcher_CachesResolvedValues(t *testing.T) {
	client := &stubSecretClient{responses: map[string]string{
		"projects/gift-prod/secrets/session-key/versions/latest": "key-material",
	}}
	fetcher, err := NewFetcher(context.Background(),
		WithProject("gift-prod"),
		WithSecretManagerClient(client),
		WithFallbackFile(""),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}

	for i := 0; i < 3; i++ {
		if _, err := fetcher.Resolve(context.Background(), "secret://session-key"); err != nil {
			t.Fatalf("Resolve returned error: %v", err)
		}
	}
	if client.calls != 1 {
		t.Fatalf("expected 1 remote call, got %d", client.calls)
	}

	fetcher.Invalidate("secret://session-key")
	if _, err := fetcher.Resolve(context.Background(), "secret://session-key"); err != nil {
		t.Fatalf("Resolve after invalidate returned error: %v", err)
	}
	if client.calls != 2 {
		t.Fatalf("expected refetch after invalidate, got %d calls", client.calls)
	}
}

func TestFetcher_FallsBackWhenRemoteUnavailable(t *testing.T) {
	client := &stubSecretClient{err: status.Error(codes.PermissionDenied, "denied")}
	path := writeFallbackFile(t, "# local secrets\nsecret://admin-secret=local-value\n")

	fetcher, err := NewFetcher(context.Background(),
		WithProject("gift-prod"),
		WithSecretManagerClient(client),
		WithFallbackFile(path),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}

	value, err := fetcher.Resolve(context.Background(), "secret://admin-secret")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if value != "local-value" {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestFetcher_SurfacesHardRemoteErrors(t *testing.T) {
	client := &stubSecretClient{err: status.Error(codes.Internal, "broken")}
	fetcher, err := NewFetcher(context.Background(),
		WithProject("gift-prod"),
		WithSecretManagerClient(client),
		WithFallbackFile(""),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}

	if _, err := fetcher.Resolve(context.Background(), "secret://admin-secret"); err == nil {
		t.Fatal("expected error for non-fallback failure")
	}
}

func TestFetcher_AcceptsSMAlias(t *testing.T) {
	path := writeFallbackFile(t, "sm://music-key=tune\n")
	fetcher, err := NewFetcher(context.Background(),
		WithSecretManagerClient(&stubSecretClient{err: status.Error(codes.Unavailable, "down")}),
		WithProject("gift-prod"),
		WithFallbackFile(path),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}

	value, err := fetcher.Resolve(context.Background(), "sm://music-key")
	if err != nil {
		t.Fatalf("Resolve returned error: %v", err)
	}
	if value != "tune" {
		t.Fatalf("unexpected value %q", value)
	}
}

func TestFetcher_RejectsMalformedReferences(t *testing.T) {
	fetcher, err := NewFetcher(context.Background(),
		WithSecretManagerClient(&stubSecretClient{}),
		WithFallbackFile(""),
	)
	if err != nil {
		t.Fatalf("NewFetcher returned error: %v", err)
	}

	for _, ref := range []string{"", "http://nope", "secret://"} {
		if _, err := fetcher.Resolve(context.Background(), ref); err == nil {
			t.Fatalf("expected error for reference %q", ref)
		}
	}
}
