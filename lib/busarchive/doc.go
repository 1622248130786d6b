// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package busarchive reads and writes bus export archives: a full copy
// of one bus's log in a portable, compressed file.
//
// An archive is a magic line followed by a zstd stream containing a
// CBOR sequence: one [Header], then exactly Header.Entries log entries
// in ascending position order. Archives optionally carry age
// encryption as the outermost layer; an encrypted archive is a
// standard age file and can be decrypted with the age tool before
// being read as a plain archive.
//
// Archives are for audit hand-off and offline analysis. They are not
// journals: the service never reads them back, and importing one does
// not recreate a live bus.
package busarchive
