package auth

import (
	"net/http"

	"github.com/giftwrap/api/internal/gate"
	"github.com/giftwrap/api/internal/platform/httpx"
)

// Middleware resolves the admin session cookie into a request identity.
// It never rejects a request; enforcement is left to RequireAdmin.
func Middleware(sessions *SessionManager) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			cookie, err := r.Cookie(gate.CookieAdminToken)
			if err == nil && cookie.Value != "" {
				if identity, verifyErr := sessions.Verify(cookie.Value); verifyErr == nil {
					r = r.WithContext(WithIdentity(r.Context(), identity))
				}
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAdmin rejects requests that do not carry a verified admin identity.
func RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !IsAdmin(r.Context()) {
			httpx.WriteError(r.Context(), w, httpx.NewError("unauthorized", "admin session required", http.StatusUnauthorized))
			return
		}
		next.ServeHTTP(w, r)
	})
}
