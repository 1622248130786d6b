// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"filippo.io/age"

	"github.com/bureau-foundation/safetybus/bus"
	"github.com/bureau-foundation/safetybus/lib/busarchive"
	"github.com/bureau-foundation/safetybus/lib/ref"
	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

var exportTestBus = ref.MustParseBusID("export-test")

func seedExportEntries(t *testing.T, transport bus.Transport) {
	t.Helper()
	ctx := context.Background()
	payloads := []entry.Payload{
		&entry.Intention{Content: "step one"},
		&entry.Commit{IntentionID: 1},
		&entry.Intention{Content: "step two"},
		&entry.Abort{IntentionID: 3, Reason: "nope"},
	}
	for _, payload := range payloads {
		if _, err := transport.Propose(ctx, exportTestBus, payload); err != nil {
			t.Fatalf("seeding: %v", err)
		}
	}
}

func TestRunExportRoundTrip(t *testing.T) {
	transport := bus.NewMemoryTransport(nil)
	defer transport.Close()
	seedExportEntries(t, transport)

	path := filepath.Join(t.TempDir(), "export-test.archive")
	count, err := runExport(context.Background(), transport, exportTestBus, path, nil)
	if err != nil {
		t.Fatalf("runExport: %v", err)
	}
	if count != 4 {
		t.Fatalf("expected 4 exported entries, got %d", count)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	defer file.Close()

	archive, err := busarchive.Read(file)
	if err != nil {
		t.Fatalf("reading archive: %v", err)
	}
	if archive.Header.Bus != exportTestBus {
		t.Fatalf("wrong bus in header: %s", archive.Header.Bus)
	}
	if len(archive.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(archive.Entries))
	}
	intention, ok := archive.Entries[0].Payload.(*entry.Intention)
	if !ok || intention.Content != "step one" {
		t.Fatalf("wrong first entry: %+v", archive.Entries[0].Payload)
	}
	abort, ok := archive.Entries[3].Payload.(*entry.Abort)
	if !ok || abort.Reason != "nope" {
		t.Fatalf("wrong last entry: %+v", archive.Entries[3].Payload)
	}
}

func TestRunExportEncrypted(t *testing.T) {
	transport := bus.NewMemoryTransport(nil)
	defer transport.Close()
	seedExportEntries(t, transport)

	identity, err := age.GenerateX25519Identity()
	if err != nil {
		t.Fatalf("generating identity: %v", err)
	}

	path := filepath.Join(t.TempDir(), "export-test.archive.age")
	recipients := []string{identity.Recipient().String()}
	if _, err := runExport(context.Background(), transport, exportTestBus, path, recipients); err != nil {
		t.Fatalf("runExport: %v", err)
	}

	file, err := os.Open(path)
	if err != nil {
		t.Fatalf("opening archive: %v", err)
	}
	defer file.Close()

	archive, err := busarchive.ReadEncrypted(file, identity.String())
	if err != nil {
		t.Fatalf("decrypting archive: %v", err)
	}
	if len(archive.Entries) != 4 {
		t.Fatalf("expected 4 entries, got %d", len(archive.Entries))
	}
}

func TestRunExportRefusesOverwrite(t *testing.T) {
	transport := bus.NewMemoryTransport(nil)
	defer transport.Close()
	seedExportEntries(t, transport)

	path := filepath.Join(t.TempDir(), "existing.archive")
	if err := os.WriteFile(path, []byte("precious"), 0o600); err != nil {
		t.Fatalf("seeding file: %v", err)
	}

	if _, err := runExport(context.Background(), transport, exportTestBus, path, nil); err == nil {
		t.Fatal("export must not overwrite an existing file")
	}
	data, err := os.ReadFile(path)
	if err != nil || string(data) != "precious" {
		t.Fatalf("existing file was modified: %q, %v", data, err)
	}
}

func TestRunExportBadRecipientCleansUp(t *testing.T) {
	transport := bus.NewMemoryTransport(nil)
	defer transport.Close()
	seedExportEntries(t, transport)

	path := filepath.Join(t.TempDir(), "bad.archive.age")
	if _, err := runExport(context.Background(), transport, exportTestBus, path, []string{"not-a-key"}); err == nil {
		t.Fatal("expected an error for an invalid recipient key")
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Fatalf("partial archive left behind: %v", err)
	}
}
