/*
Package session contains the signed-in principal and the bearer-token lifecycle.

This file defines the CachingTokenSource, which wraps the identity provider's
refresh call and reuses the issued token until shortly before its expiry,
mirroring how the browser SDK hands out cached ID tokens.
*/
package session

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"

	"yapnet/internal/pkg/logx"
)

// TokenRefreshWindow defines how much time before the token expires we treat
// the cached value as stale and ask the identity provider for a fresh one.
const TokenRefreshWindow = 2 * time.Minute

// RefreshFunc asks the identity provider for a fresh bearer token.
// It returns an error when the provider is unreachable or the principal is
// signed out; the caching source swallows that error per the TokenSource contract.
type RefreshFunc func(ctx context.Context) (string, error)

// CachingTokenSource caches the most recent bearer token and refreshes it on
// demand once it is within TokenRefreshWindow of its expiry.
type CachingTokenSource struct {
	refresh RefreshFunc

	mu     sync.Mutex
	token  string
	expiry time.Time
}

// NewCachingTokenSource constructs a CachingTokenSource around refresh.
func NewCachingTokenSource(refresh RefreshFunc) *CachingTokenSource {
	return &CachingTokenSource{refresh: refresh}
}

// Token implements TokenSource. It returns the cached token while it remains
// fresh, otherwise invokes the refresh function. Refresh failures are logged
// and reported as an empty token, never as an error.
func (c *CachingTokenSource) Token(ctx context.Context) string {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.expiry.Add(-TokenRefreshWindow)) {
		return c.token
	}

	token, err := c.refresh(ctx)
	if err != nil {
		logx.Warn("Token refresh failed. Treating session as signed out.", "error", err.Error())
		c.token = ""
		return ""
	}

	c.token = token
	c.expiry = tokenExpiry(token)

	return c.token
}

// tokenExpiry extracts the exp claim from the bearer token without verifying
// its signature. The client holds no signing key; expiry is only used to
// schedule refreshes, and the server re-validates every token anyway.
// Tokens without a parseable exp claim are considered immediately stale so
// each use triggers a refresh attempt.
func tokenExpiry(token string) time.Time {
	claims := &jwt.StandardClaims{}

	parser := jwt.Parser{}
	if _, _, err := parser.ParseUnverified(token, claims); err != nil {
		logx.Debug("Could not parse token expiry; caching disabled for this token.", "error", err.Error())
		return time.Time{}
	}

	if claims.ExpiresAt == 0 {
		return time.Time{}
	}

	return time.Unix(claims.ExpiresAt, 0)
}
