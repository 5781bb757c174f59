/*
Package feed contains the client-side data layer for the Posts, News, and
Updates feeds.

This file defines the Mutator, which performs the like/save/comment state
transitions against the REST API and reconciles the controller's in-memory
collection. No optimistic updates: confirmation always precedes the local
flag/counter change, and a failed request leaves state untouched.
*/
package feed

import (
	"context"
	"errors"
	"strings"

	"golang.org/x/time/rate"

	"yapnet/internal/app/api"
	"yapnet/internal/pkg/errs"
)

// ErrBlankComment is returned when a comment is rejected locally for being
// empty; nothing is sent to the server in that case.
var ErrBlankComment = errors.New("comment content is blank")

// Outbound mutation throttle. Engagement toggles are cheap to spam from a
// UI; the token bucket smooths bursts without ever rejecting a tap outright.
const (
	mutationRate  rate.Limit = 5
	mutationBurst            = 10
)

// mutationRoot maps a feed resource onto the URL root its engagement verbs
// live under. The updates feed is listed at /blog but mutated at /updates.
var mutationRoot = map[string]string{
	ResourcePosts:   "posts",
	ResourceUpdates: "updates",
}

// Mutator performs engagement mutations for the items held by one Controller.
type Mutator struct {
	api     *api.Client
	ctrl    *Controller
	limiter *rate.Limiter
}

// NewMutator constructs a Mutator bound to ctrl's collection.
// News entries carry no engagement state; constructing a Mutator for the
// news resource yields one whose operations all fail as not found.
func NewMutator(client *api.Client, ctrl *Controller) *Mutator {
	return &Mutator{
		api:     client,
		ctrl:    ctrl,
		limiter: rate.NewLimiter(mutationRate, mutationBurst),
	}
}

// ToggleLike flips the current principal's like on the item.
//
// The inverse endpoint is chosen from the item's current flag (a liked item
// gets unlike), so repeating the call alternates the state. On success the flag
// and LikeCount move together in one update; on failure nothing changes.
func (m *Mutator) ToggleLike(ctx context.Context, itemID string) error {
	return m.toggle(ctx, itemID, "like", "unlike", func(it *Item, nowSet bool) {
		it.Liked = nowSet
		if nowSet {
			it.LikeCount++
		} else if it.LikeCount > 0 {
			it.LikeCount--
		}
	}, func(it Item) bool { return it.Liked })
}

// ToggleSave flips the current principal's save on the item, symmetric to
// ToggleLike.
func (m *Mutator) ToggleSave(ctx context.Context, itemID string) error {
	return m.toggle(ctx, itemID, "save", "unsave", func(it *Item, nowSet bool) {
		it.Saved = nowSet
		if nowSet {
			it.SaveCount++
		} else if it.SaveCount > 0 {
			it.SaveCount--
		}
	}, func(it Item) bool { return it.Saved })
}

func (m *Mutator) toggle(
	ctx context.Context,
	itemID, setVerb, clearVerb string,
	commit func(*Item, bool),
	flag func(Item) bool,
) error {
	root, ok := mutationRoot[m.ctrl.resource]
	if !ok {
		return errs.New(errs.KindNotFound)
	}

	item, ok := m.ctrl.Item(itemID)
	if !ok {
		return errs.New(errs.KindNotFound)
	}

	verb := setVerb
	if flag(item) {
		verb = clearVerb
	}

	if err := m.limiter.Wait(ctx); err != nil {
		return errs.Wrap(errs.KindNetwork, err)
	}

	if err := m.api.Post(ctx, "/"+root+"/"+itemID+"/"+verb, nil, nil); err != nil {
		return err
	}

	nowSet := verb == setVerb

	m.ctrl.mu.Lock()
	defer m.ctrl.mu.Unlock()
	for i := range m.ctrl.items {
		if m.ctrl.items[i].ID == itemID {
			commit(&m.ctrl.items[i], nowSet)
			break
		}
	}

	return nil
}

// Comment posts a comment on the item and, on success, increments its
// comment counter. Blank comments are rejected locally.
func (m *Mutator) Comment(ctx context.Context, itemID, content string) (*Comment, error) {
	root, ok := mutationRoot[m.ctrl.resource]
	if !ok {
		return nil, errs.New(errs.KindNotFound)
	}

	if strings.TrimSpace(content) == "" {
		return nil, ErrBlankComment
	}

	if _, ok := m.ctrl.Item(itemID); !ok {
		return nil, errs.New(errs.KindNotFound)
	}

	if err := m.limiter.Wait(ctx); err != nil {
		return nil, errs.Wrap(errs.KindNetwork, err)
	}

	body := struct {
		Content string `json:"content"`
	}{Content: content}

	var res struct {
		Comment Comment `json:"comment"`
	}
	if err := m.api.Post(ctx, "/"+root+"/"+itemID+"/comment", body, &res); err != nil {
		return nil, err
	}

	m.ctrl.mu.Lock()
	defer m.ctrl.mu.Unlock()
	for i := range m.ctrl.items {
		if m.ctrl.items[i].ID == itemID {
			m.ctrl.items[i].CommentCount++
			break
		}
	}

	return &res.Comment, nil
}
