// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"
	"fmt"
	"sync"

	"github.com/bureau-foundation/safetybus/lib/buslog"
	"github.com/bureau-foundation/safetybus/lib/ref"
	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

// MemoryTransport serves bus operations from an in-process log store.
// It gives tests and embedded deployments the exact service-side
// semantics — position assignment, page caps, advisory filtering —
// without a socket.
type MemoryTransport struct {
	store *buslog.Store

	mu     sync.Mutex
	closed bool
}

var _ Transport = (*MemoryTransport)(nil)

// NewMemoryTransport creates a transport over the given store. A nil
// store gets a fresh in-memory one.
func NewMemoryTransport(store *buslog.Store) *MemoryTransport {
	if store == nil {
		store = buslog.NewStore(nil)
	}
	return &MemoryTransport{store: store}
}

// Store returns the underlying log store, for tests that seed or
// inspect the log directly.
func (t *MemoryTransport) Store() *buslog.Store {
	return t.store
}

// Propose appends the payload to the bus, creating the bus on first
// use.
func (t *MemoryTransport) Propose(ctx context.Context, bus ref.BusID, payload entry.Payload) (entry.Position, error) {
	if err := t.check(ctx); err != nil {
		return 0, err
	}
	log, err := t.store.GetOrCreate(bus)
	if err != nil {
		return 0, err
	}
	return log.Append(payload)
}

// Poll reads a page from the bus. An unknown bus is an empty,
// complete log — polling and proposing are independent, and a reader
// may legitimately start before the first writer.
func (t *MemoryTransport) Poll(ctx context.Context, bus ref.BusID, start entry.Position, maxEntries int, kinds []entry.Kind) ([]entry.Entry, bool, error) {
	if err := t.check(ctx); err != nil {
		return nil, false, err
	}
	log, ok := t.store.Get(bus)
	if !ok {
		return nil, true, nil
	}
	entries, complete := log.Poll(start, maxEntries, kinds)
	return entries, complete, nil
}

// Close releases the store. Idempotent.
func (t *MemoryTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return nil
	}
	t.closed = true
	return t.store.Close()
}

func (t *MemoryTransport) check(ctx context.Context) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.closed {
		return fmt.Errorf("bus: transport is closed")
	}
	return nil
}
