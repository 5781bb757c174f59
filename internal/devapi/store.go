/*
Package devapi is an in-memory stand-in for the upstream social API, used by
cmd/devserver for local development and by the end-to-end tests. It
implements the REST contract the client consumes (feeds, engagement verbs,
profiles, registration) plus the chat WebSocket, with no external
infrastructure.

This file defines the Store: users keyed by uid, the three item collections,
and the chat history. Everything lives behind one mutex; the fixture
optimizes for predictability, not throughput.
*/
package devapi

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Collection names served by the feed endpoints.
const (
	collPosts   = "posts"
	collNews    = "news"
	collUpdates = "updates"
)

// chatHistoryLimit is how many recent messages a newly connected chat client
// receives as replay.
const chatHistoryLimit = 50

// storedUser is one account record.
type storedUser struct {
	UID             string
	Email           string
	Username        string
	About           string
	Likes           []string
	ImageURL        string
	Mood            string
	Status          string
	Age             string
	Title           string
	Location        string
	SocialLinks     map[string]string
	YapTopics       map[string]map[string]string
	ProfileComplete bool
	CreatedAt       time.Time
}

// storedItem is one feed entry with its engagement sets.
type storedItem struct {
	ID        string
	Title     string
	Content   string
	ImageURL  string
	URL       string
	UserID    string
	Username  string
	Author    string
	CreatedAt time.Time

	Likes    map[string]struct{}
	Saves    map[string]struct{}
	Comments []storedComment
}

type storedComment struct {
	ID        string
	UserID    string
	Username  string
	Content   string
	Timestamp time.Time
}

// chatRecord is one persisted chat message.
type chatRecord struct {
	Content   string
	SenderID  string
	Username  string
	Timestamp time.Time
	ImageURL  string
}

// Store holds all fixture state.
type Store struct {
	mu       sync.Mutex
	users    map[string]*storedUser
	items    map[string]map[string]*storedItem
	messages []chatRecord
	now      func() time.Time
}

// NewStore constructs an empty Store.
func NewStore() *Store {
	return &Store{
		users: make(map[string]*storedUser),
		items: map[string]map[string]*storedItem{
			collPosts:   {},
			collNews:    {},
			collUpdates: {},
		},
		now: time.Now,
	}
}

// Seed fills the store with deterministic sample content so a freshly
// started devserver has something to scroll through.
func (s *Store) Seed(itemsPerCollection int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	base := s.now().Add(-24 * time.Hour)

	for coll, titles := range map[string]string{
		collPosts:   "Post",
		collNews:    "News entry",
		collUpdates: "Update",
	} {
		for i := 1; i <= itemsPerCollection; i++ {
			id := uuid.NewString()
			s.items[coll][id] = &storedItem{
				ID:        id,
				Title:     fmt.Sprintf("%s %d", titles, i),
				Content:   fmt.Sprintf("Seeded %s content number %d.", coll, i),
				Username:  "seedbot",
				Author:    "seedbot",
				CreatedAt: base.Add(time.Duration(i) * time.Minute),
				Likes:     make(map[string]struct{}),
				Saves:     make(map[string]struct{}),
			}
		}
	}
}

// ensureUser returns the account for uid, creating a bare record on first
// contact the way the upstream registration handshake does.
func (s *Store) ensureUser(uid, email string) *storedUser {
	u, ok := s.users[uid]
	if !ok {
		u = &storedUser{
			UID:       uid,
			Email:     email,
			CreatedAt: s.now(),
		}
		s.users[uid] = u
	}
	return u
}

// userByName finds an account by username.
func (s *Store) userByName(username string) *storedUser {
	for _, u := range s.users {
		if u.Username == username {
			return u
		}
	}
	return nil
}

// sortedItems returns a collection's items newest first.
func (s *Store) sortedItems(coll string) []*storedItem {
	all := make([]*storedItem, 0, len(s.items[coll]))
	for _, it := range s.items[coll] {
		all = append(all, it)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].CreatedAt.After(all[j].CreatedAt)
	})
	return all
}

// appendChat stores one chat message and returns its record.
func (s *Store) appendChat(senderID, username, content, imageURL string) chatRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := chatRecord{
		Content:   content,
		SenderID:  senderID,
		Username:  username,
		Timestamp: s.now().UTC(),
		ImageURL:  imageURL,
	}
	s.messages = append(s.messages, rec)
	return rec
}

// recentChat returns up to chatHistoryLimit messages, oldest first.
func (s *Store) recentChat() []chatRecord {
	s.mu.Lock()
	defer s.mu.Unlock()

	start := 0
	if len(s.messages) > chatHistoryLimit {
		start = len(s.messages) - chatHistoryLimit
	}

	out := make([]chatRecord, len(s.messages)-start)
	copy(out, s.messages[start:])
	return out
}
