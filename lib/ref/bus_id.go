// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package ref

import (
	"fmt"
	"strings"
)

// maxBusIDLength bounds bus IDs so derived journal filenames stay well
// under filesystem name limits (255 bytes on common Linux filesystems)
// with room for suffixes.
const maxBusIDLength = 128

// journalSuffix is the file extension for durable bus journals — the
// append-only on-disk form of a bus maintained by the service.
const journalSuffix = ".journal"

// allowedBusIDChars is the set of characters permitted in a bus ID:
// a-z, 0-9, and the symbols . _ -.
var allowedBusIDChars [256]bool

// alphanumericChars is the subset allowed as a bus ID's first
// character. Requiring an alphanumeric start keeps derived filenames
// from being hidden (leading '.') or flag-like (leading '-').
var alphanumericChars [256]bool

func init() {
	for c := byte('a'); c <= 'z'; c++ {
		allowedBusIDChars[c] = true
		alphanumericChars[c] = true
	}
	for c := byte('0'); c <= '9'; c++ {
		allowedBusIDChars[c] = true
		alphanumericChars[c] = true
	}
	allowedBusIDChars['.'] = true
	allowedBusIDChars['_'] = true
	allowedBusIDChars['-'] = true
}

// BusID is a validated safety bus identifier (e.g., "agent-7" or
// "prod.fleet.trading").
//
// BusID is an immutable value type. The zero value is not valid; use
// IsZero to check.
type BusID struct {
	id string
}

// ParseBusID validates and wraps a raw bus identifier string. Returns
// an error if the string is empty, too long, contains a character
// outside a-z 0-9 . _ -, or does not start with a letter or digit.
func ParseBusID(raw string) (BusID, error) {
	if raw == "" {
		return BusID{}, fmt.Errorf("empty bus ID")
	}
	if len(raw) > maxBusIDLength {
		return BusID{}, fmt.Errorf("bus ID %q is %d characters, maximum is %d", raw, len(raw), maxBusIDLength)
	}
	if !alphanumericChars[raw[0]] {
		return BusID{}, fmt.Errorf("bus ID %q must start with a lowercase letter or digit", raw)
	}
	for i := 0; i < len(raw); i++ {
		if !allowedBusIDChars[raw[i]] {
			return BusID{}, fmt.Errorf("bus ID %q: invalid character %q at position %d (allowed: a-z, 0-9, ., _, -)", raw, raw[i], i)
		}
	}
	return BusID{id: raw}, nil
}

// MustParseBusID is like ParseBusID but panics on error. Use in tests
// and static initialization where the input is known-valid.
func MustParseBusID(raw string) BusID {
	b, err := ParseBusID(raw)
	if err != nil {
		panic(fmt.Sprintf("ref.MustParseBusID(%q): %v", raw, err))
	}
	return b
}

// String returns the bus ID string, satisfying fmt.Stringer.
func (b BusID) String() string { return b.id }

// IsZero reports whether the BusID is the zero value (uninitialized).
func (b BusID) IsZero() bool { return b.id == "" }

// JournalFile returns the filename of the bus's durable journal
// (e.g., "agent-7.journal"). The caller joins it with the journal
// directory; the constructor's charset guarantees the result is a
// single safe path segment.
func (b BusID) JournalFile() string { return b.id + journalSuffix }

// ParseJournalFile recovers the bus ID from a journal filename, the
// inverse of JournalFile. Returns an error for names without the
// journal suffix or with an invalid bus ID stem.
func ParseJournalFile(name string) (BusID, error) {
	stem, ok := strings.CutSuffix(name, journalSuffix)
	if !ok {
		return BusID{}, fmt.Errorf("file %q is not a journal (missing %s suffix)", name, journalSuffix)
	}
	return ParseBusID(stem)
}

// MarshalText implements encoding.TextMarshaler for JSON and other
// text-based serialization formats.
func (b BusID) MarshalText() ([]byte, error) {
	if b.id == "" {
		return nil, fmt.Errorf("cannot marshal zero-value BusID")
	}
	return []byte(b.id), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for JSON and other
// text-based serialization formats. Validates the bus ID format.
func (b *BusID) UnmarshalText(data []byte) error {
	parsed, err := ParseBusID(string(data))
	if err != nil {
		return err
	}
	*b = parsed
	return nil
}
