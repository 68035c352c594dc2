package handlers

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/giftwrap/api/internal/gate"
	"github.com/giftwrap/api/internal/platform/auth"
	"github.com/giftwrap/api/internal/platform/httpx"
)

const (
	maxLoginRequestBody = 4 * 1024
	loginRateLimit      = 10
	loginRateWindow     = time.Minute
)

// AuthHandlers exposes the shared-secret admin login.
type AuthHandlers struct {
	sessions      *auth.SessionManager
	adminSecret   string
	secureCookies bool
	bypassTTL     time.Duration
	limiter       rateLimiter
}

// AuthHandlersOption customises auth handler construction.
type AuthHandlersOption func(*AuthHandlers)

// WithLoginRateLimiter overrides the limiter applied to login attempts.
func WithLoginRateLimiter(limiter rateLimiter) AuthHandlersOption {
	return func(h *AuthHandlers) {
		h.limiter = limiter
	}
}

// NewAuthHandlers constructs the login handler set.
func NewAuthHandlers(sessions *auth.SessionManager, adminSecret string, secureCookies bool, bypassTTL time.Duration, opts ...AuthHandlersOption) (*AuthHandlers, error) {
	if sessions == nil {
		return nil, errors.New("auth handlers: session manager is required")
	}
	if adminSecret == "" {
		return nil, errors.New("auth handlers: admin secret is required")
	}
	if bypassTTL <= 0 {
		bypassTTL = 365 * 24 * time.Hour
	}
	h := &AuthHandlers{
		sessions:      sessions,
		adminSecret:   adminSecret,
		secureCookies: secureCookies,
		bypassTTL:     bypassTTL,
		limiter:       newSimpleRateLimiter(loginRateLimit, loginRateWindow, nil),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(h)
		}
	}
	return h, nil
}

// Routes registers the login endpoints at the router root.
func (h *AuthHandlers) Routes(r chi.Router) {
	if r == nil {
		return
	}
	r.Post("/login", h.login)
	r.Post("/logout", h.logout)
}

type loginRequest struct {
	Secret string `json:"secret"`
}

func (h *AuthHandlers) login(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if h.limiter != nil && !h.limiter.Allow(clientKey(r)) {
		httpx.WriteError(ctx, w, httpx.NewError("rate_limited", "too many login attempts", http.StatusTooManyRequests))
		return
	}

	body, err := readLimitedBody(r, maxLoginRequestBody)
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "request body is required", http.StatusBadRequest))
		return
	}

	var req loginRequest
	if err := json.Unmarshal(body, &req); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("invalid_request", "invalid JSON payload", http.StatusBadRequest))
		return
	}

	if err := auth.VerifySecret(req.Secret, h.adminSecret); err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("unauthorized", "invalid secret", http.StatusUnauthorized))
		return
	}

	token, expires, err := h.sessions.Issue()
	if err != nil {
		httpx.WriteError(ctx, w, httpx.NewError("internal_server_error", "unable to establish session", http.StatusInternalServerError))
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     gate.CookieAdminToken,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		HttpOnly: true,
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})
	http.SetCookie(w, &http.Cookie{
		Name:     gate.CookieAdminBypass,
		Value:    "true",
		Path:     "/",
		MaxAge:   int(h.bypassTTL / time.Second),
		Secure:   h.secureCookies,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSONResponse(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"expiresAt": formatTime(expires),
	})
}

func (h *AuthHandlers) logout(w http.ResponseWriter, r *http.Request) {
	for _, name := range []string{gate.CookieAdminToken, gate.CookieAdminBypass} {
		http.SetCookie(w, &http.Cookie{
			Name:     name,
			Value:    "",
			Path:     "/",
			MaxAge:   -1,
			Secure:   h.secureCookies,
			SameSite: http.SameSiteLaxMode,
		})
	}
	w.WriteHeader(http.StatusNoContent)
}

func clientKey(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
