// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package buslog implements the safety bus log engine: an append-only
// in-memory entry log with filtered polling, an optional durable
// journal, and a registry of logs keyed by bus ID.
//
// [Log] holds one bus's entries under a mutex. Append assigns
// contiguous positions starting at 1; entries are never mutated or
// removed. Poll serves ascending pages with an advisory kind filter
// and a hard page cap, reporting whether matching entries remain.
//
// [Journal] is the durable form of a log: one framed record per
// entry, payload bytes compressed per record (zstd, LZ4, or stored
// raw when incompressible) and chained with keyed BLAKE3 digests.
// Opening a journal replays and verifies the chain; any gap,
// corruption, or digest mismatch fails with the offending position.
// A log constructed with a journal writes each append to the journal
// before making it visible to readers.
//
// [Store] maps bus IDs to logs, creating them on first use through a
// caller-supplied constructor (the service's hook for attaching
// journals).
package buslog
