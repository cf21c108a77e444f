package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Token lifetimes used when neither the login response nor the token itself
// carries an expiry.
const (
	DefaultTokenDuration   = 1 * time.Hour
	DefaultRefreshDuration = 7 * 24 * time.Hour
)

// tokenExpiry picks the expiry of token: the server-provided value if any,
// then the JWT exp claim, then now+fallback.
func tokenExpiry(token string, provided *time.Time, fallback time.Duration, now time.Time) time.Time {
	if provided != nil && !provided.IsZero() {
		return *provided
	}
	if exp, ok := jwtExpiry(token); ok {
		return exp
	}
	return now.Add(fallback)
}

// jwtExpiry reads the exp claim without verifying the signature. The client
// has no key; the value only bounds how long the cookie is kept.
func jwtExpiry(token string) (time.Time, bool) {
	var claims jwt.RegisteredClaims
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return time.Time{}, false
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, false
	}
	return claims.ExpiresAt.Time, true
}
