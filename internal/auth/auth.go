package auth

import (
	"context"
	"fmt"
	"time"

	"hiretrack/internal/errors"
	"hiretrack/internal/types"

	"github.com/golang-jwt/jwt/v5"
)

// Principal is the caller identity produced by the auth middleware and
// trusted as-is by everything downstream.
type Principal struct {
	ID    int64
	Email string
	Name  string
	Role  types.Role
}

type principalKeyType struct{}

var principalKey = principalKeyType{}

// WithPrincipal returns a context carrying the caller identity.
func WithPrincipal(ctx context.Context, p Principal) context.Context {
	return context.WithValue(ctx, principalKey, p)
}

// PrincipalFrom extracts the caller identity, if the request was
// authenticated.
func PrincipalFrom(ctx context.Context) (Principal, bool) {
	p, ok := ctx.Value(principalKey).(Principal)
	return p, ok
}

// claims is the JWT payload issued at login. Mirrors the fields the
// rest of the API reads back out of the principal.
type claims struct {
	Email string     `json:"email"`
	Name  string     `json:"name"`
	Role  types.Role `json:"role"`
	jwt.RegisteredClaims
}

// Manager signs and verifies bearer tokens.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates a token manager. The secret must be non-empty; the
// ttl bounds how long issued tokens stay valid.
func NewManager(secret string, ttl time.Duration) (*Manager, error) {
	if secret == "" {
		return nil, errors.NewConfigError(errors.ErrCodeInvalidConfig, "auth token secret is required", nil)
	}
	if ttl <= 0 {
		ttl = 7 * 24 * time.Hour
	}
	return &Manager{secret: []byte(secret), ttl: ttl}, nil
}

// Issue signs a token for the given user.
func (m *Manager) Issue(user *types.User) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims{
		Email: user.Email,
		Name:  user.FullName,
		Role:  user.Role,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   fmt.Sprintf("%d", user.ID),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
		},
	})
	signed, err := token.SignedString(m.secret)
	if err != nil {
		return "", errors.NewInternalError(errors.ErrCodeInternal, "signing token failed", err)
	}
	return signed, nil
}

// Verify parses and validates a bearer token, returning the caller
// identity it carries.
func (m *Manager) Verify(tokenString string) (Principal, error) {
	var c claims
	token, err := jwt.ParseWithClaims(tokenString, &c, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return m.secret, nil
	})
	if err != nil || !token.Valid {
		return Principal{}, errors.NewUnauthorizedError(errors.ErrCodeInvalidToken, "Invalid token")
	}

	var id int64
	if _, err := fmt.Sscanf(c.Subject, "%d", &id); err != nil {
		return Principal{}, errors.NewUnauthorizedError(errors.ErrCodeInvalidToken, "Invalid token")
	}
	return Principal{ID: id, Email: c.Email, Name: c.Name, Role: c.Role}, nil
}
