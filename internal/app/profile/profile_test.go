package profile

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yapnet/internal/app/api"
	"yapnet/internal/app/session"
	"yapnet/internal/pkg/errs"
)

func newProfileClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)
	return NewClient(api.NewClient(srv.URL, session.StaticTokenSource("tok"), 5*time.Second))
}

func TestGetPassesThroughCanEdit(t *testing.T) {
	client := newProfileClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/profile/ada", r.URL.Path)
		json.NewEncoder(w).Encode(map[string]any{
			"username": "ada",
			"aboutyou": "analytical engines",
			"likes":    []string{"math"},
			"canEdit":  true,
			"yapTopics": map[string]any{
				"topic1": map[string]string{"name": "engines", "description": "difference and analytical"},
				"topic3": map[string]string{"name": "notes", "description": ""},
			},
		})
	})

	p, err := client.Get(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, "ada", p.Username)
	assert.True(t, p.CanEdit, "ownership comes from the server, never computed locally")

	topics := p.Topics()
	assert.Equal(t, "engines", topics[0].Name)
	assert.Empty(t, topics[1].Name, "unfilled slots are zero values")
	assert.Equal(t, "notes", topics[2].Name)
}

func TestGetUnknownProfile(t *testing.T) {
	client := newProfileClient(t, func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	})

	_, err := client.Get(context.Background(), "nobody")
	require.Error(t, err)
	assert.Equal(t, errs.KindNotFound, errs.KindOf(err))
}

func TestRegisterReportsCompletion(t *testing.T) {
	client := newProfileClient(t, func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/Auth", r.URL.Path)
		require.Equal(t, http.MethodPost, r.Method)
		json.NewEncoder(w).Encode(map[string]any{"message": "ok", "profile_complete": true})
	})

	complete, err := client.Register(context.Background())
	require.NoError(t, err)
	assert.True(t, complete)
}

func TestCheckUsername(t *testing.T) {
	client := newProfileClient(t, func(w http.ResponseWriter, r *http.Request) {
		taken := r.URL.Path == "/check-username/taken"
		json.NewEncoder(w).Encode(map[string]bool{"available": !taken})
	})

	ctx := context.Background()
	available, err := client.CheckUsername(ctx, "free")
	require.NoError(t, err)
	assert.True(t, available)

	available, err = client.CheckUsername(ctx, "taken")
	require.NoError(t, err)
	assert.False(t, available)
}

func TestAvailabilityCheckerDebounce(t *testing.T) {
	var mu sync.Mutex
	var checked []string

	client := newProfileClient(t, func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		checked = append(checked, r.URL.Path)
		mu.Unlock()
		json.NewEncoder(w).Encode(map[string]bool{"available": true})
	})

	results := make(chan Result, 4)
	checker := NewAvailabilityChecker(client, 30*time.Millisecond, func(r Result) {
		results <- r
	})
	t.Cleanup(checker.Close)

	ctx := context.Background()

	// Rapid typing: only the final name may reach the wire.
	checker.Check(ctx, "a")
	checker.Check(ctx, "al")
	checker.Check(ctx, "ali")
	checker.Check(ctx, "alice")

	select {
	case res := <-results:
		assert.Equal(t, "alice", res.Username)
		assert.True(t, res.Available)
		assert.NoError(t, res.Err)
	case <-time.After(2 * time.Second):
		t.Fatal("debounced check never fired")
	}

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, checked, 1)
	assert.Equal(t, "/check-username/alice", checked[0])
}

func TestAvailabilityCheckerClosePreventsDelivery(t *testing.T) {
	client := newProfileClient(t, func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]bool{"available": true})
	})

	fired := make(chan Result, 1)
	checker := NewAvailabilityChecker(client, 20*time.Millisecond, func(r Result) {
		fired <- r
	})

	checker.Check(context.Background(), "ghost")
	checker.Close()

	select {
	case <-fired:
		t.Fatal("closed checker must never deliver")
	case <-time.After(150 * time.Millisecond):
	}
}
