/*
Package feed contains the client-side data layer for the Posts, News, and
Updates feeds.

This file defines the Fetcher, which retrieves pages of items and the
viewer-specific collections (my posts, liked, saved), and submits new posts
and updates. It performs no local state management; the pagination
controller owns the merge.
*/
package feed

import (
	"context"
	"errors"
	"net/url"
	"strconv"

	"yapnet/internal/app/api"
	"yapnet/internal/pkg/errs"
)

var errInvalidPage = errors.New("page and limit must be positive")

// Fetcher retrieves feed items from the REST API.
type Fetcher struct {
	api *api.Client
}

// NewFetcher constructs a Fetcher on top of the shared REST client.
func NewFetcher(client *api.Client) *Fetcher {
	return &Fetcher{api: client}
}

// FetchPage retrieves one page of the named resource, ordered as the server
// returns it, with length at most limit.
//
// A returned page shorter than limit signals exhaustion to the caller: the
// server supplies no cursor or total, so the short page is the only
// termination signal available.
func (f *Fetcher) FetchPage(ctx context.Context, resource string, page, limit int) ([]Item, error) {
	if page < 1 || limit < 1 {
		return nil, errs.Wrap(errs.KindNetwork, errInvalidPage)
	}

	query := url.Values{}
	query.Set("page", strconv.Itoa(page))
	query.Set("limit", strconv.Itoa(limit))

	var items []Item
	if err := f.api.Get(ctx, "/"+resource, query, &items); err != nil {
		return nil, err
	}

	return items, nil
}

// MyPosts retrieves every post authored by the current principal.
func (f *Fetcher) MyPosts(ctx context.Context) ([]Item, error) {
	var items []Item
	if err := f.api.Get(ctx, "/my-posts", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// MyLiked retrieves every post the current principal has liked.
func (f *Fetcher) MyLiked(ctx context.Context) ([]Item, error) {
	var items []Item
	if err := f.api.Get(ctx, "/my-liked-posts", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// MySaved retrieves every post the current principal has saved.
func (f *Fetcher) MySaved(ctx context.Context) ([]Item, error) {
	var items []Item
	if err := f.api.Get(ctx, "/my-saved-posts", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// MyUpdates retrieves every update entry authored by the current principal.
func (f *Fetcher) MyUpdates(ctx context.Context) ([]Item, error) {
	var items []Item
	if err := f.api.Get(ctx, "/my-updates", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// MyLikedUpdates retrieves every update entry the current principal has liked.
func (f *Fetcher) MyLikedUpdates(ctx context.Context) ([]Item, error) {
	var items []Item
	if err := f.api.Get(ctx, "/my-liked-updates", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// MySavedUpdates retrieves every update entry the current principal has saved.
func (f *Fetcher) MySavedUpdates(ctx context.Context) ([]Item, error) {
	var items []Item
	if err := f.api.Get(ctx, "/my-saved-updates", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Comments retrieves the comments of one post, newest first.
func (f *Fetcher) Comments(ctx context.Context, itemID string) ([]Comment, error) {
	var res struct {
		Comments []Comment `json:"comments"`
	}
	if err := f.api.Get(ctx, "/posts/"+itemID+"/comments", nil, &res); err != nil {
		return nil, err
	}
	return res.Comments, nil
}

// Draft is the submission payload for a new post or update.
type Draft struct {
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url,omitempty"`
}

// CreatePost submits a new post and returns its server-assigned id.
func (f *Fetcher) CreatePost(ctx context.Context, draft Draft) (string, error) {
	var res struct {
		PostID string `json:"post_id"`
	}
	if err := f.api.Post(ctx, "/posts", draft, &res); err != nil {
		return "", err
	}
	return res.PostID, nil
}

// CreateUpdate submits a new update entry and returns its server-assigned id.
func (f *Fetcher) CreateUpdate(ctx context.Context, draft Draft) (string, error) {
	var res struct {
		UpdateID string `json:"update_id"`
	}
	if err := f.api.Post(ctx, "/add_updates", draft, &res); err != nil {
		return "", err
	}
	return res.UpdateID, nil
}
