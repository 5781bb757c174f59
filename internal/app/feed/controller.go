/*
Package feed contains the client-side data layer for the Posts, News, and
Updates feeds.

This file defines the Controller, which drives pagination for one feed: it
owns the in-memory item collection, enforces the single-flight loading gate,
merges pages idempotently by identifier, and tracks exhaustion. The UI layer
calls LoadMore whenever its scroll sentinel becomes visible; the gate makes
duplicate sentinel firings harmless.
*/
package feed

import (
	"context"
	"sync"

	"github.com/rs/zerolog"

	"yapnet/internal/pkg/logx"
)

// pageFetcher is the slice of Fetcher the controller depends on.
// Narrowed to an interface so tests can substitute a stub and count calls.
type pageFetcher interface {
	FetchPage(ctx context.Context, resource string, page, limit int) ([]Item, error)
}

// Controller manages the paginated item collection for a single feed.
//
// All exported methods are safe for concurrent use. At most one fetch is in
// flight at a time: the loading flag is the mutual-exclusion gate, and a
// LoadMore issued while it is set returns immediately without fetching.
type Controller struct {
	fetcher  pageFetcher
	resource string
	pageSize int

	mu      sync.Mutex
	items   []Item
	seen    map[string]struct{}
	page    int
	loading bool
	hasMore bool
	lastErr error

	logger zerolog.Logger
}

// NewController constructs a Controller for the named resource.
// The controller starts empty with hasMore set; the first LoadMore (or a
// Refresh) fetches page 1.
func NewController(fetcher pageFetcher, resource string, pageSize int) *Controller {
	return &Controller{
		fetcher:  fetcher,
		resource: resource,
		pageSize: pageSize,
		seen:     make(map[string]struct{}),
		hasMore:  true,
		logger:   logx.Logger().With().Str("component", "feed").Str("resource", resource).Logger(),
	}
}

// Refresh resets pagination and replaces the collection wholesale with page 1.
// It is the explicit user-triggered recovery path: any previous error state
// and exhaustion flag are cleared before fetching.
func (c *Controller) Refresh(ctx context.Context) error {
	c.mu.Lock()
	if c.loading {
		c.mu.Unlock()
		return nil
	}
	c.loading = true
	c.mu.Unlock()

	items, err := c.fetcher.FetchPage(ctx, c.resource, 1, c.pageSize)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	if err != nil {
		c.lastErr = err
		c.logger.Warn().Err(err).Msg("Feed refresh failed")
		return err
	}

	c.lastErr = nil
	c.page = 1
	c.items = c.items[:0]
	c.seen = make(map[string]struct{})
	c.appendNew(items)
	c.hasMore = len(items) >= c.pageSize

	return nil
}

// LoadMore fetches the next page and appends it to the collection.
//
// It returns immediately, fetching nothing, when a fetch is already in
// flight or the feed is exhausted. New items already present by identifier
// are dropped during the merge, so a page replayed by the server cannot
// introduce duplicates.
func (c *Controller) LoadMore(ctx context.Context) error {
	c.mu.Lock()
	if c.loading || !c.hasMore {
		c.mu.Unlock()
		return nil
	}
	c.loading = true
	nextPage := c.page + 1
	c.mu.Unlock()

	items, err := c.fetcher.FetchPage(ctx, c.resource, nextPage, c.pageSize)

	c.mu.Lock()
	defer c.mu.Unlock()
	c.loading = false

	if err != nil {
		c.lastErr = err
		c.logger.Warn().Err(err).Int("page", nextPage).Msg("Feed page fetch failed")
		return err
	}

	c.lastErr = nil
	c.page = nextPage
	c.appendNew(items)

	if len(items) < c.pageSize {
		// Short page: the server supplies no cursor, so this is the only
		// exhaustion signal. Sticky until the next Refresh.
		c.hasMore = false
		c.logger.Debug().Int("page", nextPage).Int("received", len(items)).Msg("Feed exhausted")
	}

	return nil
}

// appendNew merges fetched items into the collection, dropping any whose
// identifier is already present. Caller holds c.mu.
func (c *Controller) appendNew(items []Item) {
	for _, it := range items {
		if _, dup := c.seen[it.ID]; dup {
			continue
		}
		c.seen[it.ID] = struct{}{}
		c.items = append(c.items, it)
	}
}

// Items returns a snapshot copy of the current collection in arrival order.
func (c *Controller) Items() []Item {
	c.mu.Lock()
	defer c.mu.Unlock()

	snapshot := make([]Item, len(c.items))
	copy(snapshot, c.items)
	return snapshot
}

// Item returns the current state of one item by identifier.
func (c *Controller) Item(id string) (Item, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for i := range c.items {
		if c.items[i].ID == id {
			return c.items[i], true
		}
	}
	return Item{}, false
}

// Len returns the number of items currently held.
func (c *Controller) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// HasMore reports whether further pages may exist.
func (c *Controller) HasMore() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hasMore
}

// Loading reports whether a fetch is currently in flight.
func (c *Controller) Loading() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.loading
}

// Err returns the error from the most recent fetch, or nil after a success.
func (c *Controller) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.lastErr
}
