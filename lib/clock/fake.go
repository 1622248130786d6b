// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock frozen at initial. Nothing fires until
// Advance moves the clock past a deadline. Safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{now: initial}
	c.registered = sync.NewCond(&c.mu)
	return c
}

// FakeClock is a deterministic Clock for tests. After and Sleep
// register pending timers; Advance fires every timer whose deadline
// falls within the moved range, in deadline order.
type FakeClock struct {
	mu         sync.Mutex
	now        time.Time
	timers     []*fakeTimer
	registered *sync.Cond
}

// fakeTimer is one pending After or Sleep registration.
type fakeTimer struct {
	deadline time.Time
	ch       chan time.Time
}

// Now reports the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

// After registers a one-shot timer for d from now. A non-positive d
// delivers immediately without registering anything.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	ch := make(chan time.Time, 1)
	if d <= 0 {
		ch <- c.now
		return ch
	}
	c.timers = append(c.timers, &fakeTimer{deadline: c.now.Add(d), ch: ch})
	c.registered.Broadcast()
	return ch
}

// Sleep blocks until the clock advances past d from now. A
// non-positive d returns immediately.
func (c *FakeClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	<-c.After(d)
}

// Advance moves the clock forward by d and fires everything that came
// due, in deadline order. The timer channels have capacity one, so
// firing never blocks.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	due, pending := splitDue(c.timers, c.now)
	c.timers = pending
	target := c.now
	c.mu.Unlock()

	sort.Slice(due, func(i, j int) bool {
		return due[i].deadline.Before(due[j].deadline)
	})
	for _, timer := range due {
		timer.ch <- target
	}
}

// splitDue partitions timers into those due at or before target and
// those still pending.
func splitDue(timers []*fakeTimer, target time.Time) (due, pending []*fakeTimer) {
	for _, timer := range timers {
		if timer.deadline.After(target) {
			pending = append(pending, timer)
		} else {
			due = append(due, timer)
		}
	}
	return due, pending
}

// WaitForTimers blocks until at least n timers are registered and
// unfired. It closes the race between a goroutine reaching its wait
// point and the test advancing the clock:
//
//	go func() { decisions <- client.WaitForSafetyDecision(ctx, id, opts) }()
//	fakeClock.WaitForTimers(1)
//	fakeClock.Advance(time.Second)
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for len(c.timers) < n {
		c.registered.Wait()
	}
}

// PendingCount reports how many registered timers have not fired.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.timers)
}
