/*
Package devapi is an in-memory stand-in for the upstream social API.

This file implements the fixture's identity provider: an HS256 token mint
(POST /dev/token) and the verification middleware every authenticated route
sits behind. In production the tokens come from the real identity provider;
the devserver only needs something shaped the same.
*/
package devapi

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/golang-jwt/jwt"
)

// TokenTTL is the lifetime of fixture-minted tokens.
const TokenTTL = time.Hour

type ctxKey int

const identityKey ctxKey = iota

// identity is the verified principal attached to a request context.
type identity struct {
	UID   string
	Email string
}

// tokenClaims is the fixture token payload.
type tokenClaims struct {
	jwt.StandardClaims
	UID   string `json:"uid"`
	Email string `json:"email"`
}

// mintToken signs a fixture token for the given principal.
func mintToken(secret, uid, email string) (string, error) {
	now := time.Now()
	claims := &tokenClaims{
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: now.Add(TokenTTL).Unix(),
			IssuedAt:  now.Unix(),
			Issuer:    "yapnet-devserver",
		},
		UID:   uid,
		Email: email,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString([]byte(secret))
}

// verifyToken parses and validates a fixture token string.
func verifyToken(secret, tokenString string) (*tokenClaims, error) {
	claims := &tokenClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, err
	}
	if !token.Valid {
		return nil, errors.New("invalid or expired token")
	}

	return claims, nil
}

// bearerToken extracts the token from an Authorization header value.
func bearerToken(header string) string {
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(strings.TrimPrefix(header, prefix))
}

// authMiddleware verifies the bearer token and attaches the principal's
// identity to the request context. Missing or bad tokens yield 401.
func authMiddleware(secret string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r.Header.Get("Authorization"))
			if token == "" {
				respondError(w, http.StatusUnauthorized, "missing bearer token")
				return
			}

			claims, err := verifyToken(secret, token)
			if err != nil {
				respondError(w, http.StatusUnauthorized, "invalid token")
				return
			}

			ctx := context.WithValue(r.Context(), identityKey, identity{UID: claims.UID, Email: claims.Email})
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// identityFrom retrieves the verified principal from the request context.
func identityFrom(ctx context.Context) identity {
	id, _ := ctx.Value(identityKey).(identity)
	return id
}
