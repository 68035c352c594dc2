package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	domain "github.com/giftwrap/api/internal/domain"
)

type stubContentRepository struct {
	fields   map[string]domain.ContentField
	getErr   error
	setErr   map[string]error
	getCalls int
	setCalls []string
}

func newStubContentRepository() *stubContentRepository {
	return &stubContentRepository{
		fields: make(map[string]domain.ContentField),
		setErr: make(map[string]error),
	}
}

func (s *stubContentRepository) GetAll(context.Context) (map[string]domain.ContentField, error) {
	s.getCalls++
	if s.getErr != nil {
		return nil, s.getErr
	}
	out := make(map[string]domain.ContentField, len(s.fields))
	for key, field := range s.fields {
		out[key] = field
	}
	return out, nil
}

func (s *stubContentRepository) SetField(_ context.Context, key, value string) (domain.ContentField, error) {
	s.setCalls = append(s.setCalls, key)
	if err := s.setErr[key]; err != nil {
		return domain.ContentField{}, err
	}
	field := domain.ContentField{Key: key, Value: value, UpdatedAt: time.Now()}
	s.fields[key] = field
	return field, nil
}

type stubContentPublisher struct {
	published [][]string
	err       error
}

func (s *stubContentPublisher) PublishContentUpdated(_ context.Context, keys []string) (string, error) {
	s.published = append(s.published, keys)
	return "msg-1", s.err
}

func newTestContentService(t *testing.T, repo *stubContentRepository, publisher ContentEventPublisher, ttl time.Duration) ContentService {
	t.Helper()
	svc, err := NewContentService(ContentServiceDeps{
		Repository: repo,
		Publisher:  publisher,
		CacheTTL:   ttl,
	})
	if err != nil {
		t.Fatalf("NewContentService returned error: %v", err)
	}
	return svc
}

func TestContentServiceGetAllAppliesDefaults(t *testing.T) {
	repo := newStubContentRepository()
	svc := newTestContentService(t, repo, nil, 0)

	content, err := svc.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll returned error: %v", err)
	}
	if content[domain.ContentKeySiteTitle] == "" {
		t.Fatal("expected default site title")
	}
	if _, ok := content[domain.ContentKeyMusicURL]; !ok {
		t.Fatal("expected music_url key present with default")
	}
}

func TestContentServiceGetAllServesDefaultsWhenStoreUnavailable(t *testing.T) {
	repo := newStubContentRepository()
	repo.getErr = errors.New("firestore: deadline exceeded")
	svc := newTestContentService(t, repo, nil, 0)

	content, err := svc.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll returned error: %v", err)
	}
	if content[domain.ContentKeySiteTitle] == "" {
		t.Fatal("expected default site title during store outage")
	}

	// Once the store recovers, stored values flow through again.
	repo.getErr = nil
	repo.fields[domain.ContentKeySiteTitle] = domain.ContentField{Key: domain.ContentKeySiteTitle, Value: "Surprise"}
	content, err = svc.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll returned error after recovery: %v", err)
	}
	if got := content[domain.ContentKeySiteTitle]; got != "Surprise" {
		t.Fatalf("site title = %q, want %q", got, "Surprise")
	}
}

func TestContentServiceStoredValuesOverrideDefaults(t *testing.T) {
	repo := newStubContentRepository()
	repo.fields[domain.ContentKeySiteTitle] = domain.ContentField{
		Key:   domain.ContentKeySiteTitle,
		Value: "Happy 30th, Ana!",
	}
	svc := newTestContentService(t, repo, nil, 0)

	content, err := svc.GetAll(context.Background())
	if err != nil {
		t.Fatalf("GetAll returned error: %v", err)
	}
	if content[domain.ContentKeySiteTitle] != "Happy 30th, Ana!" {
		t.Fatalf("expected stored value, got %q", content[domain.ContentKeySiteTitle])
	}
}

func TestContentServiceCachesSnapshot(t *testing.T) {
	repo := newStubContentRepository()
	svc := newTestContentService(t, repo, nil, time.Minute)

	for i := 0; i < 3; i++ {
		if _, err := svc.GetAll(context.Background()); err != nil {
			t.Fatalf("GetAll returned error: %v", err)
		}
	}
	if repo.getCalls != 1 {
		t.Fatalf("expected 1 repository read, got %d", repo.getCalls)
	}

	svc.InvalidateCache()
	if _, err := svc.GetAll(context.Background()); err != nil {
		t.Fatalf("GetAll returned error: %v", err)
	}
	if repo.getCalls != 2 {
		t.Fatalf("expected reload after invalidate, got %d reads", repo.getCalls)
	}
}

func TestContentServiceUpdateUpsertsEachKeyIndependently(t *testing.T) {
	repo := newStubContentRepository()
	repo.setErr["music_url"] = errors.New("write failed")
	publisher := &stubContentPublisher{}
	svc := newTestContentService(t, repo, publisher, time.Minute)

	results, err := svc.Update(context.Background(), map[string]string{
		"site_title": "For You",
		"music_url":  "https://example.com/song.mp3",
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("expected 2 results, got %d", len(results))
	}

	var okCount, failCount int
	for _, result := range results {
		if result.Err != nil {
			failCount++
			if result.Key != "music_url" {
				t.Fatalf("unexpected failing key %q", result.Key)
			}
		} else {
			okCount++
		}
	}
	if okCount != 1 || failCount != 1 {
		t.Fatalf("expected one success and one failure, got %d/%d", okCount, failCount)
	}

	if len(publisher.published) != 1 {
		t.Fatalf("expected 1 published event, got %d", len(publisher.published))
	}
	if publisher.published[0][0] != "site_title" {
		t.Fatalf("expected only succeeded keys published, got %v", publisher.published[0])
	}
}

func TestContentServiceUpdateSanitizesHTMLFields(t *testing.T) {
	repo := newStubContentRepository()
	svc := newTestContentService(t, repo, nil, 0)

	results, err := svc.Update(context.Background(), map[string]string{
		domain.ContentKeyWelcomeMessageHTML: `<p>Hello</p><script>alert("x")</script>`,
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if results[0].Err != nil {
		t.Fatalf("unexpected update error: %v", results[0].Err)
	}
	if strings.Contains(results[0].Value, "<script>") {
		t.Fatalf("expected script tag stripped, got %q", results[0].Value)
	}
	if !strings.Contains(results[0].Value, "<p>Hello</p>") {
		t.Fatalf("expected safe markup preserved, got %q", results[0].Value)
	}
}

func TestContentServiceUpdateRejectsInvalidKeys(t *testing.T) {
	repo := newStubContentRepository()
	svc := newTestContentService(t, repo, nil, 0)

	results, err := svc.Update(context.Background(), map[string]string{
		"Bad Key!": "value",
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if results[0].Err == nil {
		t.Fatal("expected invalid key to be rejected")
	}
	if !errors.Is(results[0].Err, ErrContentInvalidInput) {
		t.Fatalf("expected ErrContentInvalidInput, got %v", results[0].Err)
	}
	if len(repo.setCalls) != 0 {
		t.Fatal("invalid key must not reach the repository")
	}
}

func TestContentServiceUpdateRequiresFields(t *testing.T) {
	svc := newTestContentService(t, newStubContentRepository(), nil, 0)
	if _, err := svc.Update(context.Background(), nil); !errors.Is(err, ErrContentInvalidInput) {
		t.Fatalf("expected ErrContentInvalidInput, got %v", err)
	}
}

func TestContentServiceUpdateNormalizesUnicode(t *testing.T) {
	repo := newStubContentRepository()
	svc := newTestContentService(t, repo, nil, 0)

	// "e" followed by a combining acute accent composes to a single rune.
	decomposed := "André"
	results, err := svc.Update(context.Background(), map[string]string{
		domain.ContentKeyRecipientName: decomposed,
	})
	if err != nil {
		t.Fatalf("Update returned error: %v", err)
	}
	if results[0].Value != "André" {
		t.Fatalf("expected NFC-normalized value, got %q", results[0].Value)
	}
}
