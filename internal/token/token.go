// Package token issues and verifies the signed bearer tokens that
// authenticate API requests. Tokens are stateless JWTs signed with a
// process-wide symmetric secret; every verification failure collapses into
// ErrInvalidToken so callers cannot probe why a token was rejected.
package token

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// ErrInvalidToken is returned for every verification failure: bad
// signature, malformed payload, unexpected algorithm or expiry.
var ErrInvalidToken = errors.New("invalid token")

// Claims is the fixed shape of the token payload. UserID is always set;
// Username and Email ride along for display purposes and are preserved
// across refreshes.
type Claims struct {
	UserID   int64  `json:"user_id"`
	Username string `json:"username,omitempty"`
	Email    string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

// Manager signs and verifies tokens with a single symmetric secret.
type Manager struct {
	secret []byte
	method jwt.SigningMethod
	algs   []string
	ttl    time.Duration
}

// New builds a Manager. alg must name an HMAC method (HS256, HS384 or
// HS512); anything else is rejected at startup rather than at request time.
func New(secret, alg string, ttl time.Duration) (*Manager, error) {
	method := jwt.GetSigningMethod(alg)
	if _, ok := method.(*jwt.SigningMethodHMAC); !ok {
		return nil, fmt.Errorf("unsupported signing algorithm %q", alg)
	}
	return &Manager{
		secret: []byte(secret),
		method: method,
		algs:   []string{alg},
		ttl:    ttl,
	}, nil
}

// Issue stamps claims with an expiry of now plus the configured lifetime
// and signs them. Any expiry already present on the claims is overwritten.
func (m *Manager) Issue(claims Claims) (string, error) {
	claims.ExpiresAt = jwt.NewNumericDate(time.Now().Add(m.ttl))
	signed, err := jwt.NewWithClaims(m.method, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("signing token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a token, restricted to the configured
// algorithm. On success the embedded claims are returned; on any failure
// the result is ErrInvalidToken with no further detail.
func (m *Manager) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	tok, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return m.secret, nil
	}, jwt.WithValidMethods(m.algs), jwt.WithExpirationRequired())
	if err != nil || !tok.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// Refresh verifies tokenString and issues a replacement carrying the same
// identity with a fresh expiry.
func (m *Manager) Refresh(tokenString string) (string, error) {
	claims, err := m.Verify(tokenString)
	if err != nil {
		return "", err
	}
	return m.Issue(*claims)
}

// TTL reports the configured token lifetime.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
