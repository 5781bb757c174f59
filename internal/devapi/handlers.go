/*
Package devapi is an in-memory stand-in for the upstream social API.

This file implements the REST handlers: paginated feeds, engagement verbs,
profile pages, the registration handshake, and the token mint. Wire shapes
mirror the upstream contract field for field, including the divergent news
entry shape (url/date/author instead of image_url/created_at/username).
*/
package devapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
)

const wireTimestamp = "2006-01-02T15:04:05.000000"

// itemJSON renders a stored item in the upstream wire shape, with
// viewer-relative flags computed for uid.
func itemJSON(it *storedItem, coll, uid string) map[string]any {
	if coll == collNews {
		return map[string]any{
			"_id":     it.ID,
			"title":   it.Title,
			"content": it.Content,
			"url":     it.URL,
			"author":  it.Author,
			"date":    it.CreatedAt.UTC().Format(wireTimestamp),
		}
	}

	_, liked := it.Likes[uid]
	_, saved := it.Saves[uid]

	return map[string]any{
		"_id":           it.ID,
		"title":         it.Title,
		"content":       it.Content,
		"image_url":     it.ImageURL,
		"user_id":       it.UserID,
		"username":      it.Username,
		"created_at":    it.CreatedAt.UTC().Format(wireTimestamp),
		"liked":         liked,
		"saved":         saved,
		"like_count":    len(it.Likes),
		"save_count":    len(it.Saves),
		"comment_count": len(it.Comments),
	}
}

// handleMintToken issues a fixture bearer token for an arbitrary principal.
// This stands in for the external identity provider; it has no production
// counterpart and is mounted outside the authenticated subtree.
func (a *API) handleMintToken(w http.ResponseWriter, r *http.Request) {
	var body struct {
		UID   string `json:"uid"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.UID == "" {
		respondError(w, http.StatusBadRequest, "uid is required")
		return
	}

	token, err := mintToken(a.secret, body.UID, body.Email)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to sign token")
		return
	}

	respondJSON(w, http.StatusOK, map[string]string{"token": token})
}

// handleRegister is the POST /Auth registration handshake.
func (a *API) handleRegister(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	a.store.mu.Lock()
	u := a.store.ensureUser(id.UID, id.Email)
	complete := u.ProfileComplete
	a.store.mu.Unlock()

	respondMessage(w, "User registered", map[string]any{"profile_complete": complete})
}

// handleFeed serves one page of a collection, newest first.
func (a *API) handleFeed(coll string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := identityFrom(r.Context())

		page, _ := strconv.Atoi(r.URL.Query().Get("page"))
		if page < 1 {
			page = 1
		}
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit < 1 || limit > 100 {
			limit = 10
		}

		// Rendering reads the engagement maps, so the lock is held until the
		// page is fully materialized.
		a.store.mu.Lock()
		all := a.store.sortedItems(coll)

		start := (page - 1) * limit
		if start > len(all) {
			start = len(all)
		}
		end := start + limit
		if end > len(all) {
			end = len(all)
		}

		out := make([]map[string]any, 0, end-start)
		for _, it := range all[start:end] {
			out = append(out, itemJSON(it, coll, id.UID))
		}
		a.store.mu.Unlock()

		respondJSON(w, http.StatusOK, out)
	}
}

// handleEngagement flips one engagement set membership (like/unlike/save/unsave).
func (a *API) handleEngagement(coll, verb string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := identityFrom(r.Context())
		itemID := chi.URLParam(r, "id")

		a.store.mu.Lock()
		defer a.store.mu.Unlock()

		it, ok := a.store.items[coll][itemID]
		if !ok {
			respondError(w, http.StatusNotFound, "Item not found")
			return
		}

		switch verb {
		case "like":
			it.Likes[id.UID] = struct{}{}
		case "unlike":
			delete(it.Likes, id.UID)
		case "save":
			it.Saves[id.UID] = struct{}{}
		case "unsave":
			delete(it.Saves, id.UID)
		}

		respondMessage(w, "ok", nil)
	}
}

// handleComment appends a comment to an item.
func (a *API) handleComment(coll string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := identityFrom(r.Context())
		itemID := chi.URLParam(r, "id")

		var body struct {
			Content string `json:"content"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Content == "" {
			respondError(w, http.StatusBadRequest, "content is required")
			return
		}

		a.store.mu.Lock()
		defer a.store.mu.Unlock()

		it, ok := a.store.items[coll][itemID]
		if !ok {
			respondError(w, http.StatusNotFound, "Item not found")
			return
		}

		u := a.store.ensureUser(id.UID, id.Email)
		comment := storedComment{
			ID:        uuid.NewString(),
			UserID:    id.UID,
			Username:  u.Username,
			Content:   body.Content,
			Timestamp: a.store.now().UTC(),
		}
		it.Comments = append(it.Comments, comment)

		respondMessage(w, "Comment added successfully", map[string]any{
			"comment": map[string]any{
				"comment_id": comment.ID,
				"user_id":    comment.UserID,
				"username":   comment.Username,
				"content":    comment.Content,
				"timestamp":  comment.Timestamp.Format(wireTimestamp),
			},
		})
	}
}

// handleCreateItem accepts a new post or update from the current principal.
func (a *API) handleCreateItem(coll, idField string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := identityFrom(r.Context())

		var body struct {
			Title    string `json:"title"`
			Content  string `json:"content"`
			ImageURL string `json:"image_url"`
		}
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Title == "" {
			respondError(w, http.StatusBadRequest, "title is required")
			return
		}

		a.store.mu.Lock()
		u := a.store.ensureUser(id.UID, id.Email)
		item := &storedItem{
			ID:        uuid.NewString(),
			Title:     body.Title,
			Content:   body.Content,
			ImageURL:  body.ImageURL,
			UserID:    id.UID,
			Username:  u.Username,
			CreatedAt: a.store.now().UTC(),
			Likes:     make(map[string]struct{}),
			Saves:     make(map[string]struct{}),
		}
		a.store.items[coll][item.ID] = item
		a.store.mu.Unlock()

		respondMessage(w, "Created", map[string]any{idField: item.ID})
	}
}

// profileJSON renders an account in the upstream profile shape.
func profileJSON(u *storedUser, canEdit bool) map[string]any {
	links := u.SocialLinks
	if links == nil {
		links = map[string]string{}
	}
	topics := u.YapTopics
	if topics == nil {
		topics = map[string]map[string]string{}
	}

	return map[string]any{
		"username":         u.Username,
		"aboutyou":         u.About,
		"likes":            u.Likes,
		"imageUrl":         u.ImageURL,
		"mood":             u.Mood,
		"status":           u.Status,
		"age":              u.Age,
		"title":            u.Title,
		"location":         u.Location,
		"socialLinks":      links,
		"yapTopics":        topics,
		"profile_complete": u.ProfileComplete,
		"canEdit":          canEdit,
	}
}

// handleGetProfile serves GET /profile/{username}.
func (a *API) handleGetProfile(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	username := chi.URLParam(r, "username")

	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	u := a.store.userByName(username)
	if u == nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	respondJSON(w, http.StatusOK, profileJSON(u, u.UID == id.UID))
}

// handleUpdateProfile serves PUT /profile/{username}: a wholesale replace,
// owner only.
func (a *API) handleUpdateProfile(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	username := chi.URLParam(r, "username")

	var body struct {
		Username    string                       `json:"username"`
		About       string                       `json:"aboutyou"`
		Likes       []string                     `json:"likes"`
		ImageURL    string                       `json:"imageUrl"`
		Mood        string                       `json:"mood"`
		Status      string                       `json:"status"`
		Age         string                       `json:"age"`
		Title       string                       `json:"title"`
		Location    string                       `json:"location"`
		SocialLinks map[string]string            `json:"socialLinks"`
		YapTopics   map[string]map[string]string `json:"yapTopics"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username == "" {
		respondError(w, http.StatusBadRequest, "username is required")
		return
	}

	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	u := a.store.userByName(username)
	if u == nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}
	if u.UID != id.UID {
		respondError(w, http.StatusForbidden, "You can only edit your own profile")
		return
	}
	if other := a.store.userByName(body.Username); other != nil && other.UID != id.UID {
		respondError(w, http.StatusBadRequest, "Username already taken")
		return
	}

	u.Username = body.Username
	u.About = body.About
	u.Likes = body.Likes
	u.Mood = body.Mood
	u.Status = body.Status
	u.Age = body.Age
	u.Title = body.Title
	u.Location = body.Location
	u.SocialLinks = body.SocialLinks
	u.YapTopics = body.YapTopics
	if body.ImageURL != "" {
		u.ImageURL = body.ImageURL
	}

	respondMessage(w, "Profile updated successfully", nil)
}

// handleProfilePosts serves GET /profile/{username}/posts.
func (a *API) handleProfilePosts(w http.ResponseWriter, r *http.Request) {
	username := chi.URLParam(r, "username")

	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	u := a.store.userByName(username)
	if u == nil {
		respondError(w, http.StatusNotFound, "User not found")
		return
	}

	out := []map[string]any{}
	for _, it := range a.store.sortedItems(collPosts) {
		if it.UserID == u.UID {
			out = append(out, itemJSON(it, collPosts, ""))
		}
	}
	respondJSON(w, http.StatusOK, out)
}

// handleCheckUsername serves GET /check-username/{username}.
func (a *API) handleCheckUsername(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())
	username := chi.URLParam(r, "username")

	a.store.mu.Lock()
	existing := a.store.userByName(username)
	a.store.mu.Unlock()

	available := existing == nil || existing.UID == id.UID
	respondJSON(w, http.StatusOK, map[string]bool{"available": available})
}

// handleCompleteProfile serves POST /complete-profile.
func (a *API) handleCompleteProfile(w http.ResponseWriter, r *http.Request) {
	id := identityFrom(r.Context())

	var body struct {
		Username string   `json:"username"`
		About    string   `json:"aboutyou"`
		Likes    []string `json:"likes"`
		ImageURL string   `json:"imageUrl"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Username == "" {
		respondError(w, http.StatusBadRequest, "username is required")
		return
	}

	a.store.mu.Lock()
	defer a.store.mu.Unlock()

	if other := a.store.userByName(body.Username); other != nil && other.UID != id.UID {
		respondError(w, http.StatusBadRequest, "Username already taken")
		return
	}

	u := a.store.ensureUser(id.UID, id.Email)
	u.Username = body.Username
	u.About = body.About
	u.Likes = body.Likes
	if body.ImageURL != "" {
		u.ImageURL = body.ImageURL
	}
	u.ProfileComplete = true

	respondMessage(w, "Profile completed successfully", nil)
}

// handleMyItems serves the viewer-specific collections (/my-posts,
// /my-liked-posts, /my-saved-posts and their /my-*-updates mirrors).
func (a *API) handleMyItems(coll string, filter func(it *storedItem, uid string) bool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id := identityFrom(r.Context())

		a.store.mu.Lock()
		defer a.store.mu.Unlock()

		out := []map[string]any{}
		for _, it := range a.store.sortedItems(coll) {
			if filter(it, id.UID) {
				out = append(out, itemJSON(it, coll, id.UID))
			}
		}
		respondJSON(w, http.StatusOK, out)
	}
}

// handleComments serves GET /posts/{id}/comments, newest first.
func (a *API) handleComments(coll string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		itemID := chi.URLParam(r, "id")

		a.store.mu.Lock()
		defer a.store.mu.Unlock()

		it, ok := a.store.items[coll][itemID]
		if !ok {
			respondError(w, http.StatusNotFound, "Item not found")
			return
		}

		comments := make([]map[string]any, 0, len(it.Comments))
		for i := len(it.Comments) - 1; i >= 0; i-- {
			c := it.Comments[i]
			comments = append(comments, map[string]any{
				"comment_id": c.ID,
				"user_id":    c.UserID,
				"username":   c.Username,
				"content":    c.Content,
				"timestamp":  c.Timestamp.Format(wireTimestamp),
			})
		}
		respondJSON(w, http.StatusOK, map[string]any{"comments": comments})
	}
}

// handleHealth is an unauthenticated liveness probe.
func (a *API) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status":  "ok",
		"service": "yapnet devserver",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}
