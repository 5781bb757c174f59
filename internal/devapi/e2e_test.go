package devapi_test

import (
	"context"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"yapnet/internal/app/api"
	"yapnet/internal/app/chat"
	"yapnet/internal/app/feed"
	"yapnet/internal/app/profile"
	"yapnet/internal/app/session"
	"yapnet/internal/devapi"
)

const testSecret = "e2e-secret"

type fixture struct {
	api    *devapi.API
	srv    *httptest.Server
	tokens session.TokenSource
	client *api.Client
}

// newFixture starts a devapi server seeded with 13 items per collection and
// mints a token for one principal.
func newFixture(t *testing.T) *fixture {
	t.Helper()

	store := devapi.NewStore()
	store.Seed(13)

	a := devapi.NewAPI(store, testSecret)
	srv := httptest.NewServer(a.Router())
	t.Cleanup(srv.Close)

	mint := api.NewTokenMint(srv.URL, 5*time.Second)
	token, err := mint.Mint(context.Background(), "uid-1", "one@example.com")
	require.NoError(t, err)

	tokens := session.StaticTokenSource(token)
	return &fixture{
		api:    a,
		srv:    srv,
		tokens: tokens,
		client: api.NewClient(srv.URL, tokens, 5*time.Second),
	}
}

func TestFeedPaginationAgainstFixture(t *testing.T) {
	f := newFixture(t)

	fetcher := feed.NewFetcher(f.client)
	ctrl := feed.NewController(fetcher, feed.ResourcePosts, 10)

	ctx := context.Background()
	require.NoError(t, ctrl.Refresh(ctx))
	assert.Equal(t, 10, ctrl.Len())
	assert.True(t, ctrl.HasMore())

	require.NoError(t, ctrl.LoadMore(ctx))
	assert.Equal(t, 13, ctrl.Len())
	assert.False(t, ctrl.HasMore(), "13 items over page size 10 exhaust in two pages")

	// Newest first, no duplicates.
	items := ctrl.Items()
	seen := map[string]struct{}{}
	for _, it := range items {
		seen[it.ID] = struct{}{}
	}
	assert.Len(t, seen, 13)
	assert.True(t, strings.HasPrefix(items[0].Title, "Post"))
}

func TestEngagementRoundtrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fetcher := feed.NewFetcher(f.client)
	ctrl := feed.NewController(fetcher, feed.ResourcePosts, 20)
	require.NoError(t, ctrl.Refresh(ctx))

	target := ctrl.Items()[0]
	mut := feed.NewMutator(f.client, ctrl)

	require.NoError(t, mut.ToggleLike(ctx, target.ID))
	require.NoError(t, mut.ToggleSave(ctx, target.ID))

	liked, err := fetcher.MyLiked(ctx)
	require.NoError(t, err)
	require.Len(t, liked, 1)
	assert.Equal(t, target.ID, liked[0].ID)

	// A fresh fetch reflects the server-side flags for this viewer.
	require.NoError(t, ctrl.Refresh(ctx))
	it, ok := ctrl.Item(target.ID)
	require.True(t, ok)
	assert.True(t, it.Liked)
	assert.True(t, it.Saved)
	assert.Equal(t, 1, it.LikeCount)

	// Unlike drops it from the viewer's liked set.
	require.NoError(t, mut.ToggleLike(ctx, it.ID))
	liked, err = fetcher.MyLiked(ctx)
	require.NoError(t, err)
	assert.Empty(t, liked)
}

func TestCommentRoundtrip(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fetcher := feed.NewFetcher(f.client)
	ctrl := feed.NewController(fetcher, feed.ResourcePosts, 20)
	require.NoError(t, ctrl.Refresh(ctx))

	target := ctrl.Items()[0]
	mut := feed.NewMutator(f.client, ctrl)

	c, err := mut.Comment(ctx, target.ID, "first!")
	require.NoError(t, err)
	assert.NotEmpty(t, c.ID)

	comments, err := fetcher.Comments(ctx, target.ID)
	require.NoError(t, err)
	require.Len(t, comments, 1)
	assert.Equal(t, "first!", comments[0].Content)
}

func TestProfileLifecycle(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pc := profile.NewClient(f.client)

	complete, err := pc.Register(ctx)
	require.NoError(t, err)
	assert.False(t, complete, "fresh account starts incomplete")

	require.NoError(t, pc.Complete(ctx, profile.CompleteData{
		Username: "ada",
		About:    "analytical engines",
		Likes:    []string{"math", "punch cards"},
	}))

	p, err := pc.Get(ctx, "ada")
	require.NoError(t, err)
	assert.True(t, p.CanEdit, "owner views are editable")
	assert.True(t, p.ProfileComplete)
	assert.Equal(t, "analytical engines", p.About)

	// Own name stays available to its owner; a second principal sees it taken.
	available, err := pc.CheckUsername(ctx, "ada")
	require.NoError(t, err)
	assert.True(t, available)

	mint := api.NewTokenMint(f.srv.URL, 5*time.Second)
	otherToken, err := mint.Mint(ctx, "uid-2", "two@example.com")
	require.NoError(t, err)
	other := profile.NewClient(api.NewClient(f.srv.URL, session.StaticTokenSource(otherToken), 5*time.Second))

	available, err = other.CheckUsername(ctx, "ada")
	require.NoError(t, err)
	assert.False(t, available)

	// Non-owners cannot edit.
	err = other.Update(ctx, "ada", profile.EditData{Username: "ada", About: "hijacked"})
	require.Error(t, err)

	p, err = other.Get(ctx, "ada")
	require.NoError(t, err)
	assert.False(t, p.CanEdit)
}

func TestCreatePostAppearsInFeed(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pc := profile.NewClient(f.client)
	_, err := pc.Register(ctx)
	require.NoError(t, err)
	require.NoError(t, pc.Complete(ctx, profile.CompleteData{Username: "ada", About: "hi"}))

	fetcher := feed.NewFetcher(f.client)
	id, err := fetcher.CreatePost(ctx, feed.Draft{Title: "fresh", Content: "hot off the press"})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	mine, err := fetcher.MyPosts(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, "fresh", mine[0].Title)
	assert.Equal(t, "ada", mine[0].Username)

	ctrl := feed.NewController(fetcher, feed.ResourcePosts, 10)
	require.NoError(t, ctrl.Refresh(ctx))
	assert.Equal(t, id, ctrl.Items()[0].ID, "newest item leads the feed")
}

func TestUpdatesViewerCollections(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	pc := profile.NewClient(f.client)
	_, err := pc.Register(ctx)
	require.NoError(t, err)
	require.NoError(t, pc.Complete(ctx, profile.CompleteData{Username: "ada", About: "hi"}))

	fetcher := feed.NewFetcher(f.client)
	id, err := fetcher.CreateUpdate(ctx, feed.Draft{Title: "changelog", Content: "v2 shipped"})
	require.NoError(t, err)

	mine, err := fetcher.MyUpdates(ctx)
	require.NoError(t, err)
	require.Len(t, mine, 1)
	assert.Equal(t, id, mine[0].ID)

	// Engagement on the updates side lands in the updates mirrors, not the
	// posts ones.
	ctrl := feed.NewController(fetcher, feed.ResourceUpdates, 20)
	require.NoError(t, ctrl.Refresh(ctx))
	mut := feed.NewMutator(f.client, ctrl)
	require.NoError(t, mut.ToggleLike(ctx, id))
	require.NoError(t, mut.ToggleSave(ctx, id))

	liked, err := fetcher.MyLikedUpdates(ctx)
	require.NoError(t, err)
	require.Len(t, liked, 1)
	assert.Equal(t, id, liked[0].ID)

	saved, err := fetcher.MySavedUpdates(ctx)
	require.NoError(t, err)
	require.Len(t, saved, 1)

	likedPosts, err := fetcher.MyLiked(ctx)
	require.NoError(t, err)
	assert.Empty(t, likedPosts)
}

func TestConcurrentFeedReadsAndEngagementWrites(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	fetcher := feed.NewFetcher(f.client)
	ctrl := feed.NewController(fetcher, feed.ResourcePosts, 20)
	require.NoError(t, ctrl.Refresh(ctx))
	target := ctrl.Items()[0].ID

	var wg sync.WaitGroup

	// Readers render engagement state while writers flip it; the fixture must
	// serve every request without corruption.
	for i := 0; i < 4; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			reader := feed.NewController(feed.NewFetcher(f.client), feed.ResourcePosts, 20)
			for j := 0; j < 15; j++ {
				assert.NoError(t, reader.Refresh(ctx))
			}
		}()
	}

	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			writer := feed.NewController(feed.NewFetcher(f.client), feed.ResourcePosts, 20)
			if !assert.NoError(t, writer.Refresh(ctx)) {
				return
			}
			mut := feed.NewMutator(f.client, writer)
			for j := 0; j < 8; j++ {
				assert.NoError(t, mut.ToggleLike(ctx, target))
			}
		}()
	}

	wg.Wait()
}

func TestChatRoundtripWithDuplicateDelivery(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	// The hub delivers every broadcast twice; the client log must not.
	f.api.Hub().EchoDuplicates = true

	wsURL := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/chat"
	s := chat.NewSession(wsURL, f.tokens, f.client)

	require.NoError(t, s.Connect(ctx))
	t.Cleanup(s.Close)
	require.Equal(t, chat.StateConnected, s.State())

	require.NoError(t, s.Send("anyone here?"))

	require.Eventually(t, func() bool {
		return len(s.Messages()) >= 1
	}, 3*time.Second, 5*time.Millisecond)

	// Settle so the duplicate would have arrived if it were going to land.
	time.Sleep(100 * time.Millisecond)

	msgs := s.Messages()
	require.Len(t, msgs, 1, "duplicate delivery collapses to one log entry")
	assert.Equal(t, "anyone here?", msgs[0].Content)
	assert.Equal(t, "uid-1", msgs[0].SenderID)

	s.Close()
	require.Eventually(t, func() bool {
		return s.State() == chat.StateClosed
	}, 3*time.Second, 5*time.Millisecond)
	assert.NoError(t, s.Err())
}
