// Package session issues and validates the signed session credential the
// terminal carries in the auth_token cookie.
package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the cookie the credential travels in.
const CookieName = "auth_token"

// Claims are the session claims embedded in the credential.
type Claims struct {
	StoreID int64 `json:"store_id"`
	jwt.RegisteredClaims
}

// Manager signs and verifies session credentials with an HMAC secret.
type Manager struct {
	secret []byte
	ttl    time.Duration
}

// NewManager creates a credential manager. A zero ttl defaults to 24 hours.
func NewManager(secret []byte, ttl time.Duration) *Manager {
	if ttl == 0 {
		ttl = 24 * time.Hour
	}
	return &Manager{secret: secret, ttl: ttl}
}

// Issue mints a credential for a store login.
func (m *Manager) Issue(storeID int64) (string, error) {
	claims := &Claims{
		StoreID: storeID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    "pos-gateway",
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(m.secret)
}

// Validate parses a credential and returns its claims. Any parse, signature
// or expiry failure makes the credential invalid.
func (m *Manager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method")
		}
		return m.secret, nil
	})
	if err != nil {
		return nil, err
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, fmt.Errorf("invalid token")
}

// TTL returns the credential lifetime, for cookie expiry.
func (m *Manager) TTL() time.Duration {
	return m.ttl
}
