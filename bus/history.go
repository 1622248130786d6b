// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

// DefaultMaxIntentions is the committed-intentions budget when
// HistoryOptions leaves MaxIntentions unset.
const DefaultMaxIntentions = 5000

// HistoryOptions configures CommittedIntentions. The zero value uses
// the defaults.
type HistoryOptions struct {
	// MaxIntentions caps how many committed intentions the scan will
	// buffer. Exceeding it fails the call with *BudgetExceededError —
	// the guard against unbounded memory growth on a long log.
	// Defaults to DefaultMaxIntentions.
	MaxIntentions int
}

// BudgetExceededError reports a scan that found more committed
// intentions than the configured budget allows.
type BudgetExceededError struct {
	// MaxIntentions is the configured max_intentions budget.
	MaxIntentions int
}

func (e *BudgetExceededError) Error() string {
	return fmt.Sprintf("bus: committed intentions exceed the max_intentions budget (%d)", e.MaxIntentions)
}

// MissingIntentionsError reports commits referencing intention IDs
// with no intention entry anywhere in the scanned log — a violation
// of the log's referential invariant that signals a server or log
// bug. It is never silently dropped.
type MissingIntentionsError struct {
	// IntentionIDs lists every referenced-but-absent intention ID,
	// in first-reference order, deduplicated.
	IntentionIDs []entry.Position
}

func (e *MissingIntentionsError) Error() string {
	ids := make([]string, len(e.IntentionIDs))
	for i, id := range e.IntentionIDs {
		ids[i] = strconv.FormatUint(uint64(id), 10)
	}
	return fmt.Sprintf("bus: commits reference intentions missing from the log: %s", strings.Join(ids, ", "))
}

// CommittedIntentions reconstructs the approved-action history: the
// content of every committed intention, in commit order (a decider
// may resolve intentions out of submission order).
//
// The whole log is scanned from the origin in paginated polls,
// buffering intention contents and recording intention IDs as commits
// appear. After the scan, every committed ID is resolved against the
// buffered intentions: an unresolvable ID fails the call with
// *MissingIntentionsError naming all of them. The scan has no
// intrinsic deadline — it is bounded by the budget and the service's
// pagination signal, so callers needing a wall-clock limit impose one
// through ctx.
func (c *Client) CommittedIntentions(ctx context.Context, options HistoryOptions) ([]string, error) {
	maxIntentions := options.MaxIntentions
	if maxIntentions <= 0 {
		maxIntentions = DefaultMaxIntentions
	}

	kinds := []entry.Kind{entry.KindIntention, entry.KindCommit}
	contents := make(map[entry.Position]string)
	var committedIDs []entry.Position

	// Intentions are buffered for the whole scan, never evicted: a
	// commit may reference an intention from any earlier page.
	var cursor entry.Position
	for {
		entries, complete, err := c.transport.Poll(ctx, c.bus, cursor, 0, kinds)
		if err != nil {
			return nil, fmt.Errorf("bus: scanning log: %w", err)
		}

		for _, e := range entries {
			switch payload := e.Payload.(type) {
			case *entry.Intention:
				contents[e.Position] = payload.Content
			case *entry.Commit:
				committedIDs = append(committedIDs, payload.IntentionID)
				if len(committedIDs) > maxIntentions {
					return nil, &BudgetExceededError{MaxIntentions: maxIntentions}
				}
			}
		}

		if complete {
			break
		}
		if len(entries) == 0 {
			// An incomplete response with no entries would loop
			// forever on the same cursor.
			return nil, fmt.Errorf("bus: scanning log: no progress from position %d (incomplete response with no entries)", cursor)
		}
		cursor = entries[len(entries)-1].Position + 1
	}

	var missing []entry.Position
	seen := make(map[entry.Position]bool)
	result := make([]string, 0, len(committedIDs))
	for _, id := range committedIDs {
		content, ok := contents[id]
		if !ok {
			if !seen[id] {
				seen[id] = true
				missing = append(missing, id)
			}
			continue
		}
		result = append(result, content)
	}
	if len(missing) > 0 {
		return nil, &MissingIntentionsError{IntentionIDs: missing}
	}
	return result, nil
}
