package session

import (
	"fmt"
	"net/http"
	"time"

	"github.com/desertthunder/pathwise/internal/shared"
	"github.com/golang-jwt/jwt/v5"
)

// CookieName is the HttpOnly cookie carrying the session JWT.
const CookieName = "auth"

// TokenInfo is what the client can learn from the session cookie without the
// server's key. It is informational only; the server remains the authority.
type TokenInfo struct {
	Subject   string
	IssuedAt  time.Time
	ExpiresAt time.Time
}

// Remaining returns the time left before expiry at now, or zero once expired.
func (t TokenInfo) Remaining(now time.Time) time.Duration {
	if t.ExpiresAt.IsZero() || !t.ExpiresAt.After(now) {
		return 0
	}
	return t.ExpiresAt.Sub(now)
}

// InspectToken decodes the registered claims of raw without verifying its signature.
func InspectToken(raw string) (TokenInfo, error) {
	claims := &jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(raw, claims); err != nil {
		return TokenInfo{}, fmt.Errorf("%w: %w", shared.ErrInvalidInput, err)
	}

	info := TokenInfo{Subject: claims.Subject}
	if claims.IssuedAt != nil {
		info.IssuedAt = claims.IssuedAt.Time
	}
	if claims.ExpiresAt != nil {
		info.ExpiresAt = claims.ExpiresAt.Time
	}
	return info, nil
}

// FindToken returns the session cookie's value from cookies.
func FindToken(cookies []*http.Cookie) (string, bool) {
	for _, c := range cookies {
		if c.Name == CookieName && c.Value != "" {
			return c.Value, true
		}
	}
	return "", false
}
