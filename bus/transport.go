// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"

	"github.com/bureau-foundation/safetybus/lib/ref"
	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

// Transport carries bus operations to the log service. A transport is
// the client's single shared handle: opened once, safe for concurrent
// use, and released exactly once via Close.
type Transport interface {
	// Propose appends one payload to the bus and returns the
	// server-assigned position. The append is atomic: on error the
	// caller must assume the entry was not logged.
	Propose(ctx context.Context, bus ref.BusID, payload entry.Payload) (entry.Position, error)

	// Poll returns entries at or after start whose kind matches the
	// filter, in ascending position order. The service enforces a
	// hard per-call page cap regardless of maxEntries (zero requests
	// the service maximum); complete=false means matching entries
	// remain beyond the page and the caller should continue from the
	// last entry's position + 1. The kind filter is advisory —
	// callers must tolerate responses that ignore it.
	Poll(ctx context.Context, bus ref.BusID, start entry.Position, maxEntries int, kinds []entry.Kind) ([]entry.Entry, bool, error)

	// Close releases the transport. Operations after Close fail.
	Close() error
}
