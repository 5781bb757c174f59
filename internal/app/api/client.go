/*
Package api provides the base REST client shared by every data component.

It attaches the bearer token and a request identifier to each call, enforces
the per-request timeout, decodes JSON responses, and classifies every failure
into the errs taxonomy. Components like feed and profile build on it instead
of talking to net/http directly.
*/
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"

	"yapnet/internal/app/session"
	"yapnet/internal/pkg/errs"
	"yapnet/internal/pkg/logx"
)

// Client is the authenticated HTTP client for the REST API.
type Client struct {
	// baseURL is the API origin, without a trailing slash.
	baseURL string

	// tokens supplies the bearer token for each request.
	tokens session.TokenSource

	// httpClient performs the actual requests.
	httpClient *http.Client

	// timeout bounds each individual request.
	timeout time.Duration
}

// NewClient constructs a Client for the given API origin and token source.
// A timeout of zero disables the per-request deadline (callers then rely on
// their own context deadlines).
func NewClient(baseURL string, tokens session.TokenSource, timeout time.Duration) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		tokens:     tokens,
		httpClient: &http.Client{},
		timeout:    timeout,
	}
}

// Get issues an authenticated GET request and decodes the JSON response into out.
func (c *Client) Get(ctx context.Context, path string, query url.Values, out any) error {
	return c.do(ctx, http.MethodGet, path, query, nil, out)
}

// Post issues an authenticated POST request with an optional JSON body and
// decodes the JSON response into out. Both body and out may be nil.
func (c *Client) Post(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPost, path, nil, body, out)
}

// Put issues an authenticated PUT request with a JSON body and decodes the
// JSON response into out. out may be nil.
func (c *Client) Put(ctx context.Context, path string, body, out any) error {
	return c.do(ctx, http.MethodPut, path, nil, body, out)
}

// do performs one authenticated request.
//
// It fails fast with an unauthorized classification, before any network
// activity, when no bearer token is obtainable. Non-2xx statuses classify
// via errs.FromStatus; transport and decode failures classify as network
// errors.
func (c *Client) do(ctx context.Context, method, path string, query url.Values, body, out any) error {
	token := c.tokens.Token(ctx)
	if token == "" {
		return errs.New(errs.KindUnauthorized)
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	fullURL := c.baseURL + path
	if len(query) > 0 {
		fullURL += "?" + query.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return errs.Wrap(errs.KindNetwork, fmt.Errorf("encoding request body: %w", err))
		}
		reqBody = bytes.NewReader(encoded)
	}

	req, err := http.NewRequestWithContext(ctx, method, fullURL, reqBody)
	if err != nil {
		return errs.Wrap(errs.KindNetwork, err)
	}

	requestID := uuid.NewString()
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	start := time.Now()
	res, err := c.httpClient.Do(req)
	if err != nil {
		logx.Warn("Request failed before a response arrived.",
			"method", method,
			"path", path,
			"request_id", requestID,
			"error", err.Error(),
		)
		return errs.Wrap(errs.KindNetwork, err)
	}
	defer res.Body.Close()

	logx.Debug("Request completed.",
		"method", method,
		"path", path,
		"request_id", requestID,
		"status", res.StatusCode,
		"latency", time.Since(start).String(),
	)

	if res.StatusCode < 200 || res.StatusCode > 299 {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, io.LimitReader(res.Body, 4096))
		return errs.FromStatus(res.StatusCode)
	}

	if out == nil {
		return nil
	}

	if err := json.NewDecoder(res.Body).Decode(out); err != nil {
		return errs.Wrap(errs.KindNetwork, fmt.Errorf("decoding response body: %w", err))
	}

	return nil
}
