// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package busservice implements the bus service: a Unix socket server
// speaking the busproto framed protocol over a per-bus log store.
//
// The service side of the safety bus is deliberately small. It assigns
// positions, persists entries through buslog journals, and answers
// polls; it never interprets payloads and never makes safety
// decisions. The daemon in cmd/safetybus-service wires this package to
// configuration and signal handling; tests and embedded deployments
// construct a [Server] directly.
package busservice
