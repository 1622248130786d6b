// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package entry defines the safety bus data model: log entries, their
// server-assigned positions, and the tagged payload union.
//
// An [Entry] is one record in a bus's append-only log. The server
// assigns each entry a strictly increasing [Position]; entries are
// write-once and never mutated or deleted. The payload is one of
// twelve concrete kinds identified on the wire by a [Kind] tag:
//
//   - [Intention] -- a proposed action awaiting a safety decision
//   - [Commit], [Abort] -- the decision for a specific intention
//   - [Vote] -- an advisory reviewer verdict on an intention
//   - [InferenceInput], [InferenceOutput] -- model I/O audit records
//   - [AgentInput], [AgentOutput] -- agent I/O audit records
//   - [ActionOutput] -- the result of executing an approved intention
//   - [DeciderPolicy], [VoterPolicy] -- policy change records
//   - [Control] -- session markers (start, halt, operator notes)
//
// [Payload] is a sealed interface: the set of implementations is fixed
// at compile time, so consumers dispatch with exhaustive type switches
// on concrete types rather than probing fields. Decoding happens
// exactly once, at the entry boundary, via [DecodePayload].
//
// Entries serialize to both CBOR (wire protocol, journal) and JSON
// (CLI output) as {position, kind, payload}.
//
// This package depends only on lib/codec.
package entry
