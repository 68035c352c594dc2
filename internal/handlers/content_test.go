package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/giftwrap/api/internal/gate"
	"github.com/giftwrap/api/internal/platform/auth"
	"github.com/giftwrap/api/internal/services"
)

type stubContentService struct {
	content map[string]string
	getErr  error
	results []services.ContentUpdateResult
	updated map[string]string
}

func (s *stubContentService) GetAll(context.Context) (map[string]string, error) {
	return s.content, s.getErr
}

func (s *stubContentService) Update(_ context.Context, fields map[string]string) ([]services.ContentUpdateResult, error) {
	s.updated = fields
	if s.results != nil {
		return s.results, nil
	}
	results := make([]services.ContentUpdateResult, 0, len(fields))
	for key, value := range fields {
		results = append(results, services.ContentUpdateResult{Key: key, Value: value})
	}
	return results, nil
}

func (s *stubContentService) InvalidateCache() {}

func newContentRouter(t *testing.T, svc services.ContentService, withAdmin bool) (chi.Router, string) {
	t.Helper()
	sessions, err := auth.NewSessionManager("test-signing-key", time.Hour)
	if err != nil {
		t.Fatalf("NewSessionManager returned error: %v", err)
	}
	var token string
	if withAdmin {
		token, _, err = sessions.Issue()
		if err != nil {
			t.Fatalf("Issue returned error: %v", err)
		}
	}

	handlers := NewContentHandlers(svc)
	r := chi.NewRouter()
	r.Use(auth.Middleware(sessions))
	r.Route("/api/v1/content", handlers.Routes)
	return r, token
}

func TestContentGetAllIsPublic(t *testing.T) {
	svc := &stubContentService{content: map[string]string{"site_title": "Happy Birthday"}}
	router, _ := newContentRouter(t, svc, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/content/", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body struct {
		Fields map[string]string `json:"fields"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("parse response: %v", err)
	}
	if body.Fields["site_title"] != "Happy Birthday" {
		t.Fatalf("unexpected fields %v", body.Fields)
	}
}

func TestContentUpdateRequiresAdmin(t *testing.T) {
	router, _ := newContentRouter(t, &stubContentService{}, false)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/content/", strings.NewReader(`{"fields":{"site_title":"x"}}`))
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", rec.Code)
	}
}

func TestContentUpdateWithAdminSession(t *testing.T) {
	svc := &stubContentService{}
	router, token := newContentRouter(t, svc, true)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/content/", strings.NewReader(`{"fields":{"site_title":"For You"}}`))
	req.AddCookie(&http.Cookie{Name: gate.CookieAdminToken, Value: token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if svc.updated["site_title"] != "For You" {
		t.Fatalf("expected update forwarded to service, got %v", svc.updated)
	}
}

func TestContentUpdatePartialFailureReturnsMultiStatus(t *testing.T) {
	svc := &stubContentService{results: []services.ContentUpdateResult{
		{Key: "site_title", Value: "ok"},
		{Key: "music_url", Err: errors.New("write failed")},
	}}
	router, token := newContentRouter(t, svc, true)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/content/", strings.NewReader(`{"fields":{"site_title":"ok","music_url":"x"}}`))
	req.AddCookie(&http.Cookie{Name: gate.CookieAdminToken, Value: token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusMultiStatus {
		t.Fatalf("expected 207, got %d", rec.Code)
	}
}

func TestContentUpdateRejectsEmptyFields(t *testing.T) {
	router, token := newContentRouter(t, &stubContentService{}, true)

	req := httptest.NewRequest(http.MethodPut, "/api/v1/content/", strings.NewReader(`{"fields":{}}`))
	req.AddCookie(&http.Cookie{Name: gate.CookieAdminToken, Value: token})
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
}
