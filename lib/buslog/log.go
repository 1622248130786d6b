// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package buslog

import (
	"fmt"
	"sort"
	"sync"

	"github.com/bureau-foundation/safetybus/lib/ref"
	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

// MaxPollEntries is the hard per-call page cap for Poll. Requests for
// more (or for an unspecified amount) are clamped; callers drain a
// long log by looping until a page reports complete.
const MaxPollEntries = 500

// Options configures a Log.
type Options struct {
	// Journal attaches a durable journal. Each append is written to
	// the journal before it becomes visible to readers; an append
	// that fails to journal is not applied.
	Journal *Journal

	// Entries seeds the log, typically with the journal's replayed
	// records. Positions must be contiguous from 1.
	Entries []entry.Entry
}

// Log is one bus's append-only entry log. Safe for concurrent use.
type Log struct {
	mu      sync.Mutex
	journal *Journal
	entries []entry.Entry
}

// NewLog creates a log. Panics if the seed entries are not contiguous
// from position 1 — seeding is only meant for verified journal
// replays, so a malformed seed is a programming error.
func NewLog(options Options) *Log {
	for i, e := range options.Entries {
		if e.Position != entry.Position(i+1) {
			panic(fmt.Sprintf("buslog: seed entry %d has position %d, want %d", i, e.Position, i+1))
		}
	}
	return &Log{
		journal: options.Journal,
		entries: append([]entry.Entry(nil), options.Entries...),
	}
}

// Append validates the payload, assigns the next position, and
// appends the entry. With a journal attached, the record is written
// durably first; a journal failure leaves the log unchanged.
func (l *Log) Append(payload entry.Payload) (entry.Position, error) {
	if payload == nil {
		return 0, fmt.Errorf("buslog: payload is required")
	}
	if err := payload.Validate(); err != nil {
		return 0, fmt.Errorf("buslog: %w", err)
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	position := entry.Position(len(l.entries) + 1)
	if l.journal != nil {
		if err := l.journal.Append(position, payload); err != nil {
			return 0, err
		}
	}
	l.entries = append(l.entries, entry.Entry{Position: position, Payload: payload})
	return position, nil
}

// Poll returns entries at or after start whose kind matches the
// filter, in ascending position order, up to the page cap. The
// second return reports completeness: true means no matching entries
// remain after the last returned one (pagination state, not
// finality). An incomplete page is never empty.
//
// A nil or empty kinds filter matches every kind. maxEntries values
// outside (0, MaxPollEntries] are clamped to MaxPollEntries.
//
// Returned entries share payload pointers with the log; callers must
// treat them as immutable.
func (l *Log) Poll(start entry.Position, maxEntries int, kinds []entry.Kind) ([]entry.Entry, bool) {
	limit := maxEntries
	if limit <= 0 || limit > MaxPollEntries {
		limit = MaxPollEntries
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	// Positions are contiguous from 1, so the scan can start at the
	// slice index for start instead of walking the whole log.
	index := 0
	if start > 0 {
		index = int(start) - 1
	}
	if index > len(l.entries) {
		index = len(l.entries)
	}

	var page []entry.Entry
	complete := true
	for _, e := range l.entries[index:] {
		if !matchKind(e.Payload.Kind(), kinds) {
			continue
		}
		if len(page) == limit {
			// A matching entry exists beyond the page.
			complete = false
			break
		}
		page = append(page, e)
	}
	return page, complete
}

// Len returns the number of entries in the log. Positions are
// contiguous from 1, so this equals the last assigned position.
func (l *Log) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.entries)
}

// Close closes the attached journal, if any.
func (l *Log) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.journal == nil {
		return nil
	}
	return l.journal.Close()
}

func matchKind(kind entry.Kind, kinds []entry.Kind) bool {
	if len(kinds) == 0 {
		return true
	}
	for _, k := range kinds {
		if k == kind {
			return true
		}
	}
	return false
}

// Store is a concurrency-safe registry of bus logs keyed by bus ID.
// Logs are created on first use through the constructor supplied at
// creation — the service's hook for attaching journals.
type Store struct {
	mu     sync.Mutex
	create func(ref.BusID) (*Log, error)
	buses  map[ref.BusID]*Log
}

// NewStore creates a store. A nil create function yields plain
// in-memory logs.
func NewStore(create func(ref.BusID) (*Log, error)) *Store {
	if create == nil {
		create = func(ref.BusID) (*Log, error) {
			return NewLog(Options{}), nil
		}
	}
	return &Store{
		create: create,
		buses:  make(map[ref.BusID]*Log),
	}
}

// Get returns the log for a bus, or false if the bus does not exist.
func (s *Store) Get(bus ref.BusID) (*Log, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	log, ok := s.buses[bus]
	return log, ok
}

// GetOrCreate returns the log for a bus, creating it on first use.
func (s *Store) GetOrCreate(bus ref.BusID) (*Log, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if log, ok := s.buses[bus]; ok {
		return log, nil
	}
	log, err := s.create(bus)
	if err != nil {
		return nil, fmt.Errorf("buslog: creating bus %s: %w", bus, err)
	}
	s.buses[bus] = log
	return log, nil
}

// List returns every bus ID in the store, sorted.
func (s *Store) List() []ref.BusID {
	s.mu.Lock()
	defer s.mu.Unlock()
	buses := make([]ref.BusID, 0, len(s.buses))
	for bus := range s.buses {
		buses = append(buses, bus)
	}
	sort.Slice(buses, func(i, j int) bool {
		return buses[i].String() < buses[j].String()
	})
	return buses
}

// Close closes every log in the store, returning the first error.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	var firstErr error
	for _, log := range s.buses {
		if err := log.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
