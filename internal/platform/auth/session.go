package auth

import (
	"crypto/sha256"
	"crypto/subtle"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	// ErrInvalidSession indicates a session token that failed verification.
	ErrInvalidSession = errors.New("auth: invalid session token")
	// ErrSecretMismatch indicates a failed admin secret comparison.
	ErrSecretMismatch = errors.New("auth: secret mismatch")
)

const sessionIssuer = "giftwrap-api"

// SessionManager issues and verifies signed admin session tokens.
type SessionManager struct {
	signingKey []byte
	ttl        time.Duration
	clock      func() time.Time
}

// SessionOption customises a SessionManager.
type SessionOption func(*SessionManager)

// WithSessionClock overrides the time source used for token lifetimes.
func WithSessionClock(clock func() time.Time) SessionOption {
	return func(m *SessionManager) {
		if clock != nil {
			m.clock = clock
		}
	}
}

// NewSessionManager builds a manager signing tokens with the provided key.
func NewSessionManager(signingKey string, ttl time.Duration, opts ...SessionOption) (*SessionManager, error) {
	if strings.TrimSpace(signingKey) == "" {
		return nil, errors.New("auth: signing key is required")
	}
	if ttl <= 0 {
		return nil, errors.New("auth: session ttl must be positive")
	}
	manager := &SessionManager{
		signingKey: []byte(signingKey),
		ttl:        ttl,
		clock:      time.Now,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(manager)
		}
	}
	return manager, nil
}

type sessionClaims struct {
	Admin bool `json:"adm"`
	jwt.RegisteredClaims
}

// Issue mints a signed admin session token.
func (m *SessionManager) Issue() (string, time.Time, error) {
	now := m.clock().UTC()
	expires := now.Add(m.ttl)
	claims := sessionClaims{
		Admin: true,
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    sessionIssuer,
			Subject:   "admin",
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(m.signingKey)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("auth: sign session token: %w", err)
	}
	return signed, expires, nil
}

// Verify parses a session token and returns the identity it asserts.
func (m *SessionManager) Verify(tokenString string) (*Identity, error) {
	if strings.TrimSpace(tokenString) == "" {
		return nil, ErrInvalidSession
	}
	claims := &sessionClaims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(m.clock),
		jwt.WithIssuer(sessionIssuer),
	)
	token, err := parser.ParseWithClaims(tokenString, claims, func(*jwt.Token) (interface{}, error) {
		return m.signingKey, nil
	})
	if err != nil || !token.Valid {
		return nil, ErrInvalidSession
	}
	if !claims.Admin {
		return nil, ErrInvalidSession
	}
	return &Identity{Subject: claims.Subject, Admin: true}, nil
}

// VerifySecret compares a presented secret against the configured admin
// secret in constant time.
func VerifySecret(presented, configured string) error {
	if configured == "" {
		return ErrSecretMismatch
	}
	presentedSum := sha256.Sum256([]byte(presented))
	configuredSum := sha256.Sum256([]byte(configured))
	if subtle.ConstantTimeCompare(presentedSum[:], configuredSum[:]) != 1 {
		return ErrSecretMismatch
	}
	return nil
}
