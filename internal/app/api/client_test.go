package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yapnet/internal/app/session"
	"yapnet/internal/pkg/errs"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(srv.URL, session.StaticTokenSource("tok"), 5*time.Second)
}

func TestGetDecodesResponse(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))
		assert.Equal(t, "2", r.URL.Query().Get("page"))
		w.Write([]byte(`{"name":"yap"}`))
	})

	var out struct {
		Name string `json:"name"`
	}
	query := url.Values{"page": {"2"}}
	require.NoError(t, client.Get(context.Background(), "/thing", query, &out))
	assert.Equal(t, "yap", out.Name)
}

func TestStatusClassification(t *testing.T) {
	cases := []struct {
		status int
		want   errs.Kind
	}{
		{http.StatusUnauthorized, errs.KindUnauthorized},
		{http.StatusForbidden, errs.KindUnauthorized},
		{http.StatusNotFound, errs.KindNotFound},
		{http.StatusInternalServerError, errs.KindServer},
		{http.StatusBadGateway, errs.KindServer},
	}

	for _, tc := range cases {
		client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(tc.status)
		})

		err := client.Get(context.Background(), "/thing", nil, nil)
		require.Error(t, err, "status %d", tc.status)
		assert.Equal(t, tc.want, errs.KindOf(err), "status %d", tc.status)
	}
}

func TestTransportFailureIsNetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listens here anymore

	client := NewClient(srv.URL, session.StaticTokenSource("tok"), time.Second)
	err := client.Get(context.Background(), "/thing", nil, nil)
	require.Error(t, err)
	assert.Equal(t, errs.KindNetwork, errs.KindOf(err))
}

func TestMissingTokenFailsBeforeNetwork(t *testing.T) {
	var hits atomic.Int64
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	})
	client.tokens = session.StaticTokenSource("")

	err := client.Post(context.Background(), "/posts/p1/like", nil, nil)
	require.Error(t, err)
	assert.Equal(t, errs.KindUnauthorized, errs.KindOf(err))
	assert.Zero(t, hits.Load())
}

func TestMalformedBodyIsNetworkError(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"truncated`))
	})

	var out map[string]any
	err := client.Get(context.Background(), "/thing", nil, &out)
	require.Error(t, err)
	assert.Equal(t, errs.KindNetwork, errs.KindOf(err))
}

func TestPerRequestTimeout(t *testing.T) {
	release := make(chan struct{})
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-release
	})
	t.Cleanup(func() { close(release) })
	client.timeout = 50 * time.Millisecond

	start := time.Now()
	err := client.Get(context.Background(), "/slow", nil, nil)
	require.Error(t, err)
	assert.Equal(t, errs.KindNetwork, errs.KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second, "deadline must cut the request short")
}
