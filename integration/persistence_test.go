// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package integration

import (
	"context"
	"testing"

	"github.com/bureau-foundation/safetybus/bus"
	"github.com/bureau-foundation/safetybus/lib/busservice"
	"github.com/bureau-foundation/safetybus/lib/ref"
	"github.com/bureau-foundation/safetybus/lib/testutil"
)

// TestPersistenceAcrossRestart writes through one service instance,
// shuts it down, and starts a second one over the same journal
// directory. The second instance must serve the full history.
func TestPersistenceAcrossRestart(t *testing.T) {
	journalDir := t.TempDir()
	busID := ref.MustParseBusID(testutil.UniqueID("persist-bus"))
	ctx := context.Background()

	// First service lifetime: propose and decide.
	firstSocket := startService(t, busservice.NewJournalStore(journalDir))
	agent := dialClient(t, firstSocket, busID)

	id, err := agent.LogIntention(ctx, "archive the logs")
	if err != nil {
		t.Fatalf("LogIntention failed: %v", err)
	}
	if _, err := agent.LogCommit(ctx, id, "routine"); err != nil {
		t.Fatalf("LogCommit failed: %v", err)
	}
	if _, err := agent.LogActionOutput(ctx, "archived 14 files", id); err != nil {
		t.Fatalf("LogActionOutput failed: %v", err)
	}
	agent.Close()

	// Second service lifetime over the same journals.
	store := busservice.NewJournalStore(journalDir)
	loaded, err := busservice.PreloadJournals(store, journalDir)
	if err != nil {
		t.Fatalf("PreloadJournals failed: %v", err)
	}
	if loaded != 1 {
		t.Fatalf("expected 1 preloaded bus, got %d", loaded)
	}

	secondSocket := startService(t, store)
	reader := dialClient(t, secondSocket, busID)

	history, err := reader.CommittedIntentions(ctx, bus.HistoryOptions{})
	if err != nil {
		t.Fatalf("CommittedIntentions failed: %v", err)
	}
	if len(history) != 1 || history[0] != "archive the logs" {
		t.Fatalf("history not restored: %v", history)
	}

	// New appends continue from the journaled positions.
	next, err := reader.LogIntention(ctx, "post-restart intention")
	if err != nil {
		t.Fatalf("LogIntention failed: %v", err)
	}
	if next != 4 {
		t.Fatalf("expected position 4 after 3 journaled entries, got %d", next)
	}
}

// TestServiceStatusOverSocket checks the operator status call through
// the raw transport.
func TestServiceStatusOverSocket(t *testing.T) {
	socketPath := startService(t, nil)
	busID := ref.MustParseBusID(testutil.UniqueID("status-bus"))
	ctx := context.Background()

	agent := dialClient(t, socketPath, busID)
	if _, err := agent.LogIntention(ctx, "one"); err != nil {
		t.Fatalf("LogIntention failed: %v", err)
	}
	if _, err := agent.LogIntention(ctx, "two"); err != nil {
		t.Fatalf("LogIntention failed: %v", err)
	}

	transport, err := bus.DialSocket(ctx, socketPath)
	if err != nil {
		t.Fatalf("DialSocket failed: %v", err)
	}
	defer transport.Close()

	status, err := transport.Status(ctx)
	if err != nil {
		t.Fatalf("Status failed: %v", err)
	}
	if status.Version == "" {
		t.Fatal("status version is empty")
	}
	found := false
	for _, busStatus := range status.Buses {
		if busStatus.Bus == busID {
			found = true
			if busStatus.Entries != 2 {
				t.Fatalf("expected 2 entries, got %d", busStatus.Entries)
			}
		}
	}
	if !found {
		t.Fatalf("bus %s missing from status: %+v", busID, status.Buses)
	}
}
