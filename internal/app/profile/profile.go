/*
Package profile contains the client-side operations for user profiles:
fetching and editing profile pages, the registration handshake, profile
completion, and username availability checks.

This file defines the Profile model and the Client performing the REST
operations. The CanEdit flag is trusted server output reflecting whether the
requesting principal owns the profile; it is never computed locally.
*/
package profile

import (
	"context"
	"fmt"

	"yapnet/internal/app/api"
	"yapnet/internal/app/feed"
)

// TopicSlots is the fixed number of "yap topic" entries a profile carries.
// The server stores them as a map keyed topic1..topic5; each slot is
// independently optional.
const TopicSlots = 5

// SocialLinks holds the profile's named social URLs. Empty values mean the
// owner has not filled in that link.
type SocialLinks struct {
	Spotify    string `json:"spotify"`
	Letterboxd string `json:"letterboxd"`
	Discord    string `json:"discord"`
	Instagram  string `json:"instagram"`
	Twitter    string `json:"twitter"`
	Website    string `json:"website"`
}

// YapTopic is one topic slot: a short name plus a free-form description.
type YapTopic struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Profile is one user's profile page as served by the API.
type Profile struct {
	Username string   `json:"username"`
	About    string   `json:"aboutyou"`
	Likes    []string `json:"likes"`
	ImageURL string   `json:"imageUrl"`

	Mood     string `json:"mood"`
	Status   string `json:"status"`
	Age      string `json:"age"`
	Title    string `json:"title"`
	Location string `json:"location"`

	SocialLinks SocialLinks         `json:"socialLinks"`
	YapTopics   map[string]YapTopic `json:"yapTopics"`

	// CanEdit reports whether the requesting principal owns this profile.
	// Supplied by the server per view; valid for the lifetime of one fetch.
	CanEdit bool `json:"canEdit"`

	// ProfileComplete reports whether the owner finished the registration
	// questionnaire.
	ProfileComplete bool `json:"profile_complete"`
}

// Topics returns the five topic slots in their fixed order. Unfilled slots
// come back as zero values.
func (p *Profile) Topics() [TopicSlots]YapTopic {
	var out [TopicSlots]YapTopic
	for i := 0; i < TopicSlots; i++ {
		out[i] = p.YapTopics[fmt.Sprintf("topic%d", i+1)]
	}
	return out
}

// EditData is the wholesale update payload for a profile. The server
// replaces the stored profile with these fields on success.
type EditData struct {
	Username string   `json:"username"`
	About    string   `json:"aboutyou"`
	Likes    []string `json:"likes"`
	ImageURL string   `json:"imageUrl,omitempty"`

	Mood     string `json:"mood"`
	Status   string `json:"status"`
	Age      string `json:"age"`
	Title    string `json:"title"`
	Location string `json:"location"`

	SocialLinks *SocialLinks        `json:"socialLinks,omitempty"`
	YapTopics   map[string]YapTopic `json:"yapTopics,omitempty"`
}

// Client performs profile operations against the REST API.
type Client struct {
	api *api.Client
}

// NewClient constructs a profile Client on top of the shared REST client.
func NewClient(client *api.Client) *Client {
	return &Client{api: client}
}

// Get fetches the profile page for the given username.
func (c *Client) Get(ctx context.Context, username string) (*Profile, error) {
	var p Profile
	if err := c.api.Get(ctx, "/profile/"+username, nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Me fetches the current principal's own profile.
func (c *Client) Me(ctx context.Context) (*Profile, error) {
	var p Profile
	if err := c.api.Get(ctx, "/profile", nil, &p); err != nil {
		return nil, err
	}
	return &p, nil
}

// Update submits a wholesale profile edit for username. On success callers
// should refetch (or reuse data) to replace their local copy entirely; the
// server does not echo the stored profile back.
func (c *Client) Update(ctx context.Context, username string, data EditData) error {
	return c.api.Put(ctx, "/profile/"+username, data, nil)
}

// Posts fetches every post authored by the profile's owner, newest first.
// These items carry counters but no viewer-relative flags.
func (c *Client) Posts(ctx context.Context, username string) ([]feed.Item, error) {
	var items []feed.Item
	if err := c.api.Get(ctx, "/profile/"+username+"/posts", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// CheckUsername reports whether the given username is available to the
// current principal (the principal's own current name counts as available).
func (c *Client) CheckUsername(ctx context.Context, username string) (bool, error) {
	var res struct {
		Available bool `json:"available"`
	}
	if err := c.api.Get(ctx, "/check-username/"+username, nil, &res); err != nil {
		return false, err
	}
	return res.Available, nil
}

// Register performs the post-sign-in handshake with the API. The server
// creates the account record on first contact; the returned flag reports
// whether the profile questionnaire was already completed.
func (c *Client) Register(ctx context.Context) (profileComplete bool, err error) {
	var res struct {
		Message         string `json:"message"`
		ProfileComplete bool   `json:"profile_complete"`
	}
	if err := c.api.Post(ctx, "/Auth", nil, &res); err != nil {
		return false, err
	}
	return res.ProfileComplete, nil
}

// CompleteData is the payload for finishing the registration questionnaire.
type CompleteData struct {
	Username string   `json:"username"`
	About    string   `json:"aboutyou"`
	Likes    []string `json:"likes"`
	ImageURL string   `json:"imageUrl,omitempty"`
}

// Complete submits the registration questionnaire, marking the profile as
// complete on success.
func (c *Client) Complete(ctx context.Context, data CompleteData) error {
	return c.api.Post(ctx, "/complete-profile", data, nil)
}
