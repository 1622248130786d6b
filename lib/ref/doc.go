// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package ref provides strongly typed, immutable identity references
// for safety buses. A bus is identified by a validated value type with
// a canonical string form.
//
// Bus IDs appear in wire requests, journal filenames, and CLI
// arguments, so the constructor enforces a conservative charset that
// is safe in all three contexts: lowercase letters, digits, and the
// symbols . _ - with an alphanumeric first character. Once
// constructed, a BusID is immutable.
//
// JSON and CBOR marshaling use the canonical string form via
// encoding.TextMarshaler.
package ref
