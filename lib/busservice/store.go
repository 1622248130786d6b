// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package busservice

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/bureau-foundation/safetybus/lib/buslog"
	"github.com/bureau-foundation/safetybus/lib/ref"
)

// NewJournalStore builds a log store whose buses are backed by journal
// files in journalDir. Creating a bus's log replays any existing
// journal first, so a restarted service resumes position assignment
// where it left off.
func NewJournalStore(journalDir string) *buslog.Store {
	return buslog.NewStore(func(bus ref.BusID) (*buslog.Log, error) {
		journal, entries, err := buslog.OpenJournal(filepath.Join(journalDir, bus.JournalFile()))
		if err != nil {
			return nil, err
		}
		return buslog.NewLog(buslog.Options{Journal: journal, Entries: entries}), nil
	})
}

// PreloadJournals opens every journal in the directory so existing
// buses are visible to polls and status before their first propose.
// Returns the number of buses loaded. A missing directory loads
// nothing; it is created lazily by the first journaled append.
func PreloadJournals(store *buslog.Store, journalDir string) (int, error) {
	dirEntries, err := os.ReadDir(journalDir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("busservice: reading journal directory %s: %w", journalDir, err)
	}

	count := 0
	for _, dirEntry := range dirEntries {
		if dirEntry.IsDir() {
			continue
		}
		bus, err := ref.ParseJournalFile(dirEntry.Name())
		if err != nil {
			// Foreign files in the journal directory are a
			// configuration problem, not something to silently skip.
			return 0, fmt.Errorf("busservice: journal directory %s: %w", journalDir, err)
		}
		if _, err := store.GetOrCreate(bus); err != nil {
			return 0, err
		}
		count++
	}
	return count, nil
}
