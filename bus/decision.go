// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"
	"time"

	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

// DefaultMaxAttempts is the decision-wait attempt budget when
// WaitOptions leaves MaxAttempts unset.
const DefaultMaxAttempts = 30

// DefaultWaitInterval is the pause between decision-wait attempts
// when WaitOptions leaves Interval unset.
const DefaultWaitInterval = time.Second

// TimeoutReason is the Decision reason when the attempt budget is
// exhausted without observing a commit or abort. A timeout is a
// client-local classification, not a log state: the decider may still
// record a decision later, and a rerun of the wait would observe it.
const TimeoutReason = "Safety check timed out"

// Decision is the outcome of a safety check. Only an explicit commit
// entry produces Approved=true; timeouts, aborts, transport failures,
// decode failures, and cancellation all produce Approved=false with
// the cause in Reason.
type Decision struct {
	// Approved reports whether the intention may execute.
	Approved bool

	// Reason is the decider's recorded reason, or the failure text
	// for denials the client synthesized (timeout, transport error).
	Reason string
}

// WaitOptions configures WaitForSafetyDecision. The zero value uses
// the defaults.
type WaitOptions struct {
	// MaxAttempts is the number of poll attempts before the wait
	// resolves to a timeout denial. Defaults to DefaultMaxAttempts.
	MaxAttempts int

	// Interval is the pause between attempts. Defaults to
	// DefaultWaitInterval. Worst-case wait is MaxAttempts × Interval.
	Interval time.Duration
}

// WaitForSafetyDecision blocks until a commit or abort referencing
// intentionID appears on the bus, or the attempt budget runs out.
//
// Each attempt issues one poll starting just past the intention and
// scans the returned entries in ascending log order; the first commit
// or abort whose intention ID matches decides the call. The kind
// filter sent with the poll is advisory — the intention ID is
// re-checked on every entry, so a decision for a different intention
// is never mistaken for the answer.
//
// There is no error return. Every failure mode — timeout, transport
// error, decode error, context cancellation — converts into a denial
// carrying the failure text, exactly once for the whole call. An
// ambiguous safety check never approves.
func (c *Client) WaitForSafetyDecision(ctx context.Context, intentionID entry.Position, options WaitOptions) Decision {
	decision, err := c.awaitDecision(ctx, intentionID, options)
	if err != nil {
		c.logger.Warn("safety check failed closed",
			"bus", c.bus,
			"intention", intentionID,
			"error", err,
		)
		return Decision{Approved: false, Reason: err.Error()}
	}
	return decision
}

// awaitDecision runs the bounded poll loop. The caller converts any
// returned error into a denial; keeping that conversion at whole-call
// scope means a late-loop failure still yields one fail-closed
// decision.
func (c *Client) awaitDecision(ctx context.Context, intentionID entry.Position, options WaitOptions) (Decision, error) {
	maxAttempts := options.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = DefaultMaxAttempts
	}
	interval := options.Interval
	if interval <= 0 {
		interval = DefaultWaitInterval
	}

	kinds := []entry.Kind{entry.KindCommit, entry.KindAbort}
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		entries, _, err := c.transport.Poll(ctx, c.bus, intentionID+1, 0, kinds)
		if err != nil {
			return Decision{}, err
		}
		for _, e := range entries {
			switch payload := e.Payload.(type) {
			case *entry.Commit:
				if payload.IntentionID == intentionID {
					return Decision{Approved: true, Reason: payload.Reason}, nil
				}
			case *entry.Abort:
				if payload.IntentionID == intentionID {
					return Decision{Approved: false, Reason: payload.Reason}, nil
				}
			}
		}

		select {
		case <-ctx.Done():
			return Decision{}, ctx.Err()
		case <-c.clock.After(interval):
		}
	}
	return Decision{Approved: false, Reason: TimeoutReason}, nil
}
