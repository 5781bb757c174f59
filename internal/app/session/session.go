/*
Package session contains the signed-in principal and the bearer-token lifecycle.

The identity provider is an external collaborator: the client only ever asks it
for a short-lived bearer token. This file defines the TokenSource contract every
data component depends on, plus the Session struct tying a principal to its source.
*/
package session

import (
	"context"
	"sync"
)

// TokenSource supplies the current bearer token for the signed-in principal.
//
// Implementations must not fail loudly: any internal error is swallowed and
// reported as an empty string, which callers treat as "no active session".
// Callers must not retry automatically; each decides its own unauthenticated
// fallback.
type TokenSource interface {
	Token(ctx context.Context) string
}

// StaticTokenSource returns the same fixed token on every call.
// Useful for tests and for CLI flows that already hold a token.
type StaticTokenSource string

// Token implements TokenSource.
func (s StaticTokenSource) Token(ctx context.Context) string {
	return string(s)
}

// Session represents the signed-in principal for the lifetime of one client
// instance. It is torn down on sign-out; afterwards every Token call yields
// the empty string and data components fail fast as unauthorized.
type Session struct {
	// UID is the opaque identifier assigned by the identity provider.
	UID string

	// Email is the principal's sign-in email.
	Email string

	// tokens supplies bearer tokens; nil after sign-out.
	tokens TokenSource

	mu sync.RWMutex
}

// NewSession constructs a Session for the given principal backed by src.
func NewSession(uid, email string, src TokenSource) *Session {
	return &Session{
		UID:    uid,
		Email:  email,
		tokens: src,
	}
}

// Token implements TokenSource, delegating to the underlying source.
// After SignOut it always returns the empty string.
func (s *Session) Token(ctx context.Context) string {
	s.mu.RLock()
	src := s.tokens
	s.mu.RUnlock()

	if src == nil {
		return ""
	}
	return src.Token(ctx)
}

// SignOut tears down the session. Subsequent Token calls return the empty
// string, which every data component classifies as unauthorized without
// making a network call.
func (s *Session) SignOut() {
	s.mu.Lock()
	s.tokens = nil
	s.mu.Unlock()
}
