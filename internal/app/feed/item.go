/*
Package feed contains the client-side data layer for the Posts, News, and
Updates feeds: the Item model, the page fetcher, the pagination controller,
and the engagement mutations (like/save/comment).

This file defines the Item struct and its wire decoding. The three feed
endpoints serve slightly different field sets (news entries carry url/date/
author instead of image_url/created_at/username); decoding normalizes them
into one shape so the controller and UI treat all feeds uniformly.
*/
package feed

import (
	"encoding/json"
	"time"
)

// Resource names for the three feed collections, as they appear in URLs.
const (
	ResourcePosts   = "posts"
	ResourceNews    = "news"
	ResourceUpdates = "blog"
)

// Item represents one feed entry (post, news entry, or update).
//
// The engagement counters are global; the Liked/Saved flags are relative to
// the requesting principal. Invariant: a flag and its paired counter move
// together: flipping Liked from false to true implies LikeCount += 1, and the reverse.
type Item struct {
	// ID is unique within the item's collection.
	ID string

	Title   string
	Content string

	// ImageURL is an optional image reference; empty when the item has none.
	ImageURL string

	// LinkURL is the optional external article link carried by news entries.
	LinkURL string

	// AuthorID identifies the item's author; empty for news entries, which
	// only carry a display name.
	AuthorID string

	// Username is the author's display name.
	Username string

	CreatedAt time.Time

	// Engagement counters. Always non-negative.
	LikeCount    int
	SaveCount    int
	CommentCount int

	// Viewer-relative flags for the current principal.
	Liked bool
	Saved bool
}

// itemWire is the superset of fields the three feed endpoints serve.
type itemWire struct {
	ID       string `json:"_id"`
	Title    string `json:"title"`
	Content  string `json:"content"`
	ImageURL string `json:"image_url"`
	URL      string `json:"url"`
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	Author   string `json:"author"`

	CreatedAt string `json:"created_at"`
	Date      string `json:"date"`

	LikeCount    int  `json:"like_count"`
	SaveCount    int  `json:"save_count"`
	CommentCount int  `json:"comment_count"`
	Liked        bool `json:"liked"`
	Saved        bool `json:"saved"`
}

// timestampLayouts lists the formats the API serves. The backend emits naive
// ISO timestamps without a zone designator; treat them as UTC.
var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999",
	"2006-01-02T15:04:05",
}

func parseTimestamp(raw string) time.Time {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.UTC()
		}
	}
	return time.Time{}
}

// UnmarshalJSON decodes an item from any of the three feed endpoints and
// normalizes the divergent field names.
func (it *Item) UnmarshalJSON(data []byte) error {
	var w itemWire
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}

	it.ID = w.ID
	it.Title = w.Title
	it.Content = w.Content
	it.ImageURL = w.ImageURL
	it.LinkURL = w.URL
	it.AuthorID = w.UserID

	it.Username = w.Username
	if it.Username == "" {
		it.Username = w.Author
	}

	raw := w.CreatedAt
	if raw == "" {
		raw = w.Date
	}
	it.CreatedAt = parseTimestamp(raw)

	it.LikeCount = w.LikeCount
	it.SaveCount = w.SaveCount
	it.CommentCount = w.CommentCount
	it.Liked = w.Liked
	it.Saved = w.Saved

	return nil
}

// Comment represents one comment on an item, newest first as served by the API.
type Comment struct {
	ID        string `json:"comment_id"`
	UserID    string `json:"user_id"`
	Username  string `json:"username"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
}
