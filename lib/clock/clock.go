// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock is the time source injected into anything that sleeps, polls,
// or stamps entries. Production code takes Real(); tests take Fake()
// and drive it with Advance. Code under this module never calls
// time.Now, time.After, or time.Sleep directly on a path a test needs
// to control — the decision-wait loop and the tail follower both rely
// on that.
type Clock interface {
	// Now reports the current time.
	Now() time.Time

	// After returns a channel that delivers the current time once d
	// has elapsed. A non-positive d delivers immediately.
	After(d time.Duration) <-chan time.Time

	// Sleep blocks the calling goroutine for at least d.
	Sleep(d time.Duration)
}
