// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package busproto defines the wire protocol spoken between bus
// clients and the bus service over a persistent Unix socket
// connection.
//
// Messages travel in frames: a 1-byte frame type, a 4-byte big-endian
// body length, then a CBOR body. A connection carries a strict
// request/response lockstep — the client writes one request frame and
// reads exactly one response frame before issuing the next request.
//
// Request bodies are action-tagged CBOR maps ([ProposeRequest],
// [PollRequest], [StatusRequest]); the service routes on the "action"
// field and decodes the action-specific remainder. Responses share a
// single envelope ([Response]) carrying either a CBOR result or an
// error string; [Response.DecodeResult] converts error envelopes into
// [*ServiceError] values on the client side.
//
// The frame functions are also reused by the service's durable journal,
// which stores one record per frame with a private frame type.
package busproto
