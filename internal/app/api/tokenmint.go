/*
Package api provides the base REST client shared by every data component.

This file contains the TokenMint, a tiny unauthenticated client for the dev
fixture's token endpoint. It stands in for the identity provider SDK during
local development; production deployments never touch it.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// TokenMint requests fixture bearer tokens from a devserver.
type TokenMint struct {
	baseURL    string
	httpClient *http.Client
}

// NewTokenMint constructs a TokenMint for the given devserver origin.
func NewTokenMint(baseURL string, timeout time.Duration) *TokenMint {
	return &TokenMint{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
}

// Mint asks the devserver to sign a token for the given principal.
func (m *TokenMint) Mint(ctx context.Context, uid, email string) (string, error) {
	body, err := json.Marshal(map[string]string{"uid": uid, "email": email})
	if err != nil {
		return "", err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.baseURL+"/dev/token", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := m.httpClient.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		return "", fmt.Errorf("token mint returned HTTP %d", res.StatusCode)
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return "", err
	}

	return out.Token, nil
}
