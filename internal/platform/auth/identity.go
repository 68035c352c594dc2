package auth

import "context"

// Identity captures the authenticated principal for a request. The only
// principal this service knows is the admin; visitors are anonymous.
type Identity struct {
	Subject string
	Admin   bool
}

type contextKey string

const identityContextKey contextKey = "github.com/giftwrap/api/internal/platform/auth/identity"

// WithIdentity stores the identity on the context.
func WithIdentity(ctx context.Context, identity *Identity) context.Context {
	if ctx == nil {
		ctx = context.Background()
	}
	return context.WithValue(ctx, identityContextKey, identity)
}

// IdentityFromContext retrieves the identity when present.
func IdentityFromContext(ctx context.Context) (*Identity, bool) {
	if ctx == nil {
		return nil, false
	}
	identity, ok := ctx.Value(identityContextKey).(*Identity)
	if !ok || identity == nil {
		return nil, false
	}
	return identity, true
}

// IsAdmin reports whether the request carries a verified admin identity.
func IsAdmin(ctx context.Context) bool {
	identity, ok := IdentityFromContext(ctx)
	return ok && identity.Admin
}
