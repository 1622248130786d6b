// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buslog

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/bureau-foundation/safetybus/lib/busproto"
	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

// testPayloads is a mixed sequence exercising every compression
// outcome: short payloads store raw, the long repetitive one
// compresses.
func testPayloads() []entry.Payload {
	return []entry.Payload{
		&entry.Intention{Content: "delete stale build artifacts"},
		&entry.Vote{
			IntentionID: 1,
			Verdict:     entry.BoolVerdict(true),
			Voter:       entry.VoterInfo{Name: "reviewer", Model: "overseer-large"},
		},
		&entry.Commit{IntentionID: 1, Reason: "approved by quorum"},
		&entry.ActionOutput{
			IntentionID: 1,
			Content:     strings.Repeat("removed build/artifact-0001.tmp\n", 400),
		},
	}
}

func TestJournalRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent-7.journal")

	journal, entries, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	if len(entries) != 0 {
		t.Fatalf("fresh journal replayed %d entries, want 0", len(entries))
	}

	payloads := testPayloads()
	for i, payload := range payloads {
		if err := journal.Append(entry.Position(i+1), payload); err != nil {
			t.Fatalf("Append(%d): %v", i+1, err)
		}
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, entries, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("OpenJournal after close: %v", err)
	}
	defer reopened.Close()

	if len(entries) != len(payloads) {
		t.Fatalf("replayed %d entries, want %d", len(entries), len(payloads))
	}
	for i, e := range entries {
		if e.Position != entry.Position(i+1) {
			t.Errorf("entries[%d].Position = %d, want %d", i, e.Position, i+1)
		}
		if !reflect.DeepEqual(e.Payload, payloads[i]) {
			t.Errorf("entries[%d].Payload = %+v, want %+v", i, e.Payload, payloads[i])
		}
	}
}

func TestJournalAppendAfterReopen(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bus.journal")

	journal, _, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	if err := journal.Append(1, &entry.Intention{Content: "first"}); err != nil {
		t.Fatalf("Append(1): %v", err)
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	journal, entries, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("replayed %d entries, want 1", len(entries))
	}
	// The chain continues across reopen.
	if err := journal.Append(2, &entry.Commit{IntentionID: 1, Reason: "ok"}); err != nil {
		t.Fatalf("Append(2) after reopen: %v", err)
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	journal, entries, err = OpenJournal(path)
	if err != nil {
		t.Fatalf("final reopen: %v", err)
	}
	defer journal.Close()
	if len(entries) != 2 {
		t.Fatalf("replayed %d entries, want 2", len(entries))
	}
	if entries[1].Position != 2 {
		t.Errorf("entries[1].Position = %d, want 2", entries[1].Position)
	}
}

func TestJournalAppendRejectsPositionGap(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bus.journal")
	journal, _, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	defer journal.Close()

	if err := journal.Append(1, &entry.Intention{Content: "x"}); err != nil {
		t.Fatalf("Append(1): %v", err)
	}
	err = journal.Append(5, &entry.Intention{Content: "y"})
	if err == nil {
		t.Fatal("Append(5) after position 1 should fail")
	}
	if !strings.Contains(err.Error(), "expected 2") {
		t.Errorf("error = %q, want mention of expected position 2", err)
	}
}

func TestJournalDetectsCorruption(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bus.journal")
	journal, _, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	for i, payload := range testPayloads() {
		if err := journal.Append(entry.Position(i+1), payload); err != nil {
			t.Fatalf("Append(%d): %v", i+1, err)
		}
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Flip one byte in the middle of the file. Whichever record it
	// lands in, replay must fail and name a position.
	raw, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	raw[len(raw)/2] ^= 0xFF
	if err := os.WriteFile(path, raw, 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}

	_, _, err = OpenJournal(path)
	if err == nil {
		t.Fatal("OpenJournal should fail on a corrupted journal")
	}
	if !strings.Contains(err.Error(), "position") {
		t.Errorf("error = %q, want the offending position named", err)
	}
}

func TestJournalDetectsTruncation(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bus.journal")
	journal, _, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	for i, payload := range testPayloads() {
		if err := journal.Append(entry.Position(i+1), payload); err != nil {
			t.Fatalf("Append(%d): %v", i+1, err)
		}
	}
	if err := journal.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// Tear the final record: drop its last few bytes.
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("Stat: %v", err)
	}
	if err := os.Truncate(path, info.Size()-3); err != nil {
		t.Fatalf("Truncate: %v", err)
	}

	_, _, err = OpenJournal(path)
	if err == nil {
		t.Fatal("OpenJournal should fail on a torn final record")
	}
}

func TestJournalRejectsForeignFrameType(t *testing.T) {
	path := filepath.Join(t.TempDir(), "bus.journal")
	file, err := os.Create(path)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	err = busproto.WriteFrame(file, busproto.Frame{
		Type: busproto.FrameRequest,
		Body: []byte{0xA0},
	})
	if err != nil {
		t.Fatalf("WriteFrame: %v", err)
	}
	if err := file.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	_, _, err = OpenJournal(path)
	if err == nil {
		t.Fatal("OpenJournal should reject a non-journal frame")
	}
	if !strings.Contains(err.Error(), "frame type") {
		t.Errorf("error = %q, want frame type complaint", err)
	}
}

func TestLogWithJournal(t *testing.T) {
	path := filepath.Join(t.TempDir(), "agent-7.journal")

	journal, entries, err := OpenJournal(path)
	if err != nil {
		t.Fatalf("OpenJournal: %v", err)
	}
	log := NewLog(Options{Journal: journal, Entries: entries})
	for _, payload := range testPayloads() {
		if _, err := log.Append(payload); err != nil {
			t.Fatalf("Append: %v", err)
		}
	}
	before, complete := log.Poll(0, 0, nil)
	if !complete {
		t.Fatal("complete = false, want true")
	}
	if err := log.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	// A restart reconstructs the same log from the journal.
	journal, entries, err = OpenJournal(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	log = NewLog(Options{Journal: journal, Entries: entries})
	defer log.Close()

	after, complete := log.Poll(0, 0, nil)
	if !complete {
		t.Fatal("complete = false after reopen, want true")
	}
	if !reflect.DeepEqual(before, after) {
		t.Errorf("entries after reopen = %+v, want %+v", after, before)
	}

	// And appending continues from the journaled position.
	position, err := log.Append(&entry.Control{Command: entry.ControlHalt})
	if err != nil {
		t.Fatalf("Append after reopen: %v", err)
	}
	if want := entry.Position(len(before) + 1); position != want {
		t.Errorf("position = %d, want %d", position, want)
	}
}
