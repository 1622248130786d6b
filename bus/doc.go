// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package bus is the client side of the agent safety bus: it submits
// candidate agent actions ("intentions") to an append-only ordered
// log, waits for an asynchronous commit/abort decision before the
// action may execute, and records an audit trail of model I/O and
// action results alongside.
//
// A [Client] owns exactly one [Transport] handle for its lifetime,
// opened at construction and released by [Client.Close]. Submission
// methods ([Client.LogIntention], [Client.LogActionOutput], and the
// rest) each perform one atomic append and propagate transport
// failures to the caller — a caller must know definitively whether an
// intention was actually logged before waiting on it.
//
// [Client.WaitForSafetyDecision] is the trust gate. It polls the log
// for a commit or abort referencing the intention, bounded by an
// attempt budget, and resolves every ambiguous outcome — timeout,
// transport failure, decode failure, cancellation — to a denial. It
// returns a [Decision] with no error: there is no failure mode that
// approves.
//
// [Client.CommittedIntentions] reconstructs the approved-action
// history from a paginated scan of the full log, validating that
// every commit resolves to an intention actually present and
// returning contents in commit order.
//
// Two transports exist: [SocketTransport] speaks the busproto wire
// protocol over a persistent Unix socket connection, and
// [MemoryTransport] adapts an in-process buslog store for tests and
// embedding.
package bus
