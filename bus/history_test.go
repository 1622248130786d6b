// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"
	"errors"
	"fmt"
	"reflect"
	"strings"
	"testing"

	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

func TestCommittedIntentionsSinglePage(t *testing.T) {
	script := &scriptTransport{pages: []pollPage{{
		entries: []entry.Entry{
			intentionAt(1, "print('hello')"),
			intentionAt(2, "print('world')"),
			commitAt(3, 1, "ok"),
			commitAt(4, 2, "ok"),
		},
		complete: true,
	}}}
	client := newTestClient(t, script, nil)

	contents, err := client.CommittedIntentions(context.Background(), HistoryOptions{})
	if err != nil {
		t.Fatalf("CommittedIntentions: %v", err)
	}
	want := []string{"print('hello')", "print('world')"}
	if !reflect.DeepEqual(contents, want) {
		t.Errorf("contents = %q, want %q", contents, want)
	}
	if got := script.pollCount(); got != 1 {
		t.Errorf("poll calls = %d, want exactly 1", got)
	}
}

func TestCommittedIntentionsPaginates(t *testing.T) {
	script := &scriptTransport{pages: []pollPage{
		{
			entries:  []entry.Entry{intentionAt(1, "code1"), commitAt(2, 1, "ok")},
			complete: false,
		},
		{
			entries:  []entry.Entry{intentionAt(3, "code3"), commitAt(4, 3, "ok")},
			complete: true,
		},
	}}
	client := newTestClient(t, script, nil)

	contents, err := client.CommittedIntentions(context.Background(), HistoryOptions{})
	if err != nil {
		t.Fatalf("CommittedIntentions: %v", err)
	}
	want := []string{"code1", "code3"}
	if !reflect.DeepEqual(contents, want) {
		t.Errorf("contents = %q, want %q", contents, want)
	}

	calls := script.pollCalls()
	if len(calls) != 2 {
		t.Fatalf("poll calls = %d, want exactly 2", len(calls))
	}
	if calls[0].start != 0 {
		t.Errorf("first poll start = %d, want 0 (scan origin)", calls[0].start)
	}
	if calls[1].start != 3 {
		t.Errorf("second poll start = %d, want 3 (last position + 1)", calls[1].start)
	}
	wantKinds := []entry.Kind{entry.KindIntention, entry.KindCommit}
	for i, call := range calls {
		if !reflect.DeepEqual(call.kinds, wantKinds) {
			t.Errorf("poll %d kinds = %v, want %v", i, call.kinds, wantKinds)
		}
	}
}

func TestCommittedIntentionsMissingIntention(t *testing.T) {
	// A commit references position 5, where no intention exists
	// anywhere in the scan.
	script := &scriptTransport{pages: []pollPage{{
		entries: []entry.Entry{
			intentionAt(1, "real"),
			commitAt(2, 1, "ok"),
			commitAt(3, 5, "phantom"),
		},
		complete: true,
	}}}
	client := newTestClient(t, script, nil)

	_, err := client.CommittedIntentions(context.Background(), HistoryOptions{})
	if err == nil {
		t.Fatal("CommittedIntentions should fail on a commit with no intention")
	}
	var missingErr *MissingIntentionsError
	if !errors.As(err, &missingErr) {
		t.Fatalf("error = %T, want *MissingIntentionsError", err)
	}
	if want := []entry.Position{5}; !reflect.DeepEqual(missingErr.IntentionIDs, want) {
		t.Errorf("IntentionIDs = %v, want %v", missingErr.IntentionIDs, want)
	}
	if !strings.Contains(err.Error(), "5") {
		t.Errorf("error = %q, want the missing id 5 named", err)
	}
}

func TestCommittedIntentionsNamesEveryMissingID(t *testing.T) {
	// Two phantom ids, one referenced twice: the error names each
	// missing id exactly once.
	script := &scriptTransport{pages: []pollPage{{
		entries: []entry.Entry{
			commitAt(1, 9, "phantom"),
			commitAt(2, 5, "phantom"),
			commitAt(3, 9, "phantom again"),
		},
		complete: true,
	}}}
	client := newTestClient(t, script, nil)

	_, err := client.CommittedIntentions(context.Background(), HistoryOptions{})
	var missingErr *MissingIntentionsError
	if !errors.As(err, &missingErr) {
		t.Fatalf("error = %T, want *MissingIntentionsError", err)
	}
	if want := []entry.Position{9, 5}; !reflect.DeepEqual(missingErr.IntentionIDs, want) {
		t.Errorf("IntentionIDs = %v, want %v", missingErr.IntentionIDs, want)
	}
	for _, id := range []string{"9", "5"} {
		if !strings.Contains(err.Error(), id) {
			t.Errorf("error = %q, want missing id %s named", err, id)
		}
	}
}

func TestCommittedIntentionsBudget(t *testing.T) {
	script := &scriptTransport{pages: []pollPage{{
		entries: []entry.Entry{
			intentionAt(1, "a"),
			intentionAt(2, "b"),
			intentionAt(3, "c"),
			commitAt(4, 1, "ok"),
			commitAt(5, 2, "ok"),
			commitAt(6, 3, "ok"),
		},
		complete: true,
	}}}
	client := newTestClient(t, script, nil)

	_, err := client.CommittedIntentions(context.Background(), HistoryOptions{MaxIntentions: 2})
	if err == nil {
		t.Fatal("CommittedIntentions should fail when commits exceed the budget")
	}
	var budgetErr *BudgetExceededError
	if !errors.As(err, &budgetErr) {
		t.Fatalf("error = %T, want *BudgetExceededError", err)
	}
	if budgetErr.MaxIntentions != 2 {
		t.Errorf("MaxIntentions = %d, want 2", budgetErr.MaxIntentions)
	}
	if !strings.Contains(err.Error(), "max_intentions") {
		t.Errorf("error = %q, want the max_intentions budget named", err)
	}
}

func TestCommittedIntentionsCommitOrder(t *testing.T) {
	// The decider resolved the second intention first; contents come
	// back in commit order, not submission order.
	script := &scriptTransport{pages: []pollPage{{
		entries: []entry.Entry{
			intentionAt(1, "submitted first"),
			intentionAt(2, "submitted second"),
			commitAt(3, 2, "ok"),
			commitAt(4, 1, "ok"),
		},
		complete: true,
	}}}
	client := newTestClient(t, script, nil)

	contents, err := client.CommittedIntentions(context.Background(), HistoryOptions{})
	if err != nil {
		t.Fatalf("CommittedIntentions: %v", err)
	}
	want := []string{"submitted second", "submitted first"}
	if !reflect.DeepEqual(contents, want) {
		t.Errorf("contents = %q, want commit order %q", contents, want)
	}
}

func TestCommittedIntentionsUncommittedExcluded(t *testing.T) {
	script := &scriptTransport{pages: []pollPage{{
		entries: []entry.Entry{
			intentionAt(1, "committed"),
			intentionAt(2, "still pending"),
			commitAt(3, 1, "ok"),
		},
		complete: true,
	}}}
	client := newTestClient(t, script, nil)

	contents, err := client.CommittedIntentions(context.Background(), HistoryOptions{})
	if err != nil {
		t.Fatalf("CommittedIntentions: %v", err)
	}
	if want := []string{"committed"}; !reflect.DeepEqual(contents, want) {
		t.Errorf("contents = %q, want %q", contents, want)
	}
}

func TestCommittedIntentionsEmptyLog(t *testing.T) {
	client := newTestClient(t, &scriptTransport{}, nil)

	contents, err := client.CommittedIntentions(context.Background(), HistoryOptions{})
	if err != nil {
		t.Fatalf("CommittedIntentions: %v", err)
	}
	if len(contents) != 0 {
		t.Errorf("contents = %q, want empty", contents)
	}
}

func TestCommittedIntentionsNoProgressGuard(t *testing.T) {
	// An incomplete response with no entries can never advance the
	// cursor; the scan must error rather than spin.
	script := &scriptTransport{pages: []pollPage{{complete: false}}}
	client := newTestClient(t, script, nil)

	_, err := client.CommittedIntentions(context.Background(), HistoryOptions{})
	if err == nil {
		t.Fatal("CommittedIntentions should fail on a no-progress response")
	}
	if !strings.Contains(err.Error(), "no progress") {
		t.Errorf("error = %q, want no-progress complaint", err)
	}
}

func TestCommittedIntentionsPropagatesTransportError(t *testing.T) {
	cause := errors.New("broken pipe")
	script := &scriptTransport{pollErr: cause}
	client := newTestClient(t, script, nil)

	_, err := client.CommittedIntentions(context.Background(), HistoryOptions{})
	if !errors.Is(err, cause) {
		t.Errorf("error = %v, want wrap of %v", err, cause)
	}
}

func TestCommittedIntentionsIdempotent(t *testing.T) {
	transport := NewMemoryTransport(nil)
	client := newTestClient(t, transport, nil)
	defer client.Close()
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		id, err := client.LogIntention(ctx, fmt.Sprintf("action %d", i))
		if err != nil {
			t.Fatalf("LogIntention: %v", err)
		}
		if _, err := client.LogCommit(ctx, id, "ok"); err != nil {
			t.Fatalf("LogCommit: %v", err)
		}
	}

	first, err := client.CommittedIntentions(ctx, HistoryOptions{})
	if err != nil {
		t.Fatalf("CommittedIntentions: %v", err)
	}
	second, err := client.CommittedIntentions(ctx, HistoryOptions{})
	if err != nil {
		t.Fatalf("CommittedIntentions: %v", err)
	}
	if !reflect.DeepEqual(first, second) {
		t.Errorf("repeated scans differ: %q vs %q", first, second)
	}
}

func TestCommittedIntentionsDrainsServicePages(t *testing.T) {
	// More matching entries than one service page holds: the scan
	// must loop until complete. 600 intention+commit pairs means
	// 1200 matching entries against the 500-entry page cap.
	transport := NewMemoryTransport(nil)
	client := newTestClient(t, transport, nil)
	defer client.Close()
	ctx := context.Background()

	const count = 600
	for i := 0; i < count; i++ {
		id, err := client.LogIntention(ctx, fmt.Sprintf("action %d", i))
		if err != nil {
			t.Fatalf("LogIntention: %v", err)
		}
		if _, err := client.LogCommit(ctx, id, "ok"); err != nil {
			t.Fatalf("LogCommit: %v", err)
		}
	}

	contents, err := client.CommittedIntentions(ctx, HistoryOptions{})
	if err != nil {
		t.Fatalf("CommittedIntentions: %v", err)
	}
	if len(contents) != count {
		t.Fatalf("contents = %d intentions, want %d", len(contents), count)
	}
	if contents[0] != "action 0" || contents[count-1] != fmt.Sprintf("action %d", count-1) {
		t.Errorf("contents out of order: first %q, last %q", contents[0], contents[count-1])
	}
}
