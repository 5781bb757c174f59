/*
Package profile contains the client-side operations for user profiles.

This file defines the AvailabilityChecker, which debounces username
availability lookups while the user is still typing. Only the most recent
name is ever checked, and a checker that has been closed never fires its
callback; a continuation resumed after teardown must not touch state.
*/
package profile

import (
	"context"
	"sync"
	"time"
)

// DefaultDebounce is the pause after the last keystroke before the
// availability request is issued.
const DefaultDebounce = 400 * time.Millisecond

// Result delivers the outcome of one availability check.
type Result struct {
	Username  string
	Available bool
	Err       error
}

// AvailabilityChecker debounces CheckUsername calls.
type AvailabilityChecker struct {
	client *Client
	delay  time.Duration
	notify func(Result)

	mu     sync.Mutex
	timer  *time.Timer
	seq    int
	closed bool
}

// NewAvailabilityChecker constructs a checker delivering outcomes to notify.
// The callback runs on a background goroutine; it must not block for long.
func NewAvailabilityChecker(client *Client, delay time.Duration, notify func(Result)) *AvailabilityChecker {
	if delay <= 0 {
		delay = DefaultDebounce
	}
	return &AvailabilityChecker{
		client: client,
		delay:  delay,
		notify: notify,
	}
}

// Check schedules an availability lookup for username, replacing any pending
// one. The lookup fires after the debounce delay unless superseded or the
// checker is closed first.
func (a *AvailabilityChecker) Check(ctx context.Context, username string) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.closed {
		return
	}

	if a.timer != nil {
		a.timer.Stop()
	}

	a.seq++
	seq := a.seq

	a.timer = time.AfterFunc(a.delay, func() {
		a.run(ctx, seq, username)
	})
}

// run performs the deferred lookup. A stale sequence number means another
// Check superseded this one while the timer was pending.
func (a *AvailabilityChecker) run(ctx context.Context, seq int, username string) {
	a.mu.Lock()
	stale := a.closed || seq != a.seq
	a.mu.Unlock()

	if stale {
		return
	}

	available, err := a.client.CheckUsername(ctx, username)

	a.mu.Lock()
	stale = a.closed || seq != a.seq
	a.mu.Unlock()

	if stale {
		return
	}

	a.notify(Result{Username: username, Available: available, Err: err})
}

// Close cancels any pending lookup and prevents all future callback
// deliveries. Safe to call more than once.
func (a *AvailabilityChecker) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.closed = true
	if a.timer != nil {
		a.timer.Stop()
		a.timer = nil
	}
}
