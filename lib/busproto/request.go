// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package busproto

import (
	"fmt"
	"io"

	"github.com/bureau-foundation/safetybus/lib/codec"
	"github.com/bureau-foundation/safetybus/lib/ref"
	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

// Action names for request routing. Every request body carries its
// action in the "action" field.
const (
	// ActionPropose appends one payload to a bus. The service creates
	// the bus on first propose.
	ActionPropose = "propose"

	// ActionPoll reads entries at or after a start position, with an
	// advisory kind filter and a server-capped page size.
	ActionPoll = "poll"

	// ActionStatus reports service-level state: version, uptime, and
	// per-bus entry counts.
	ActionStatus = "status"
)

// ProposeRequest asks the service to append one payload to a bus.
// The payload travels as raw CBOR paired with its kind tag; the
// service decodes and validates it at the entry boundary.
type ProposeRequest struct {
	Action  string           `cbor:"action"`
	Bus     ref.BusID        `cbor:"bus"`
	Kind    entry.Kind       `cbor:"kind"`
	Payload codec.RawMessage `cbor:"payload"`
}

// ProposeResult reports the server-assigned position of the appended
// entry.
type ProposeResult struct {
	Position entry.Position `cbor:"position"`
}

// PollRequest reads entries from a bus.
type PollRequest struct {
	Action string    `cbor:"action"`
	Bus    ref.BusID `cbor:"bus"`

	// Start is the minimum position of interest: entries at or after
	// this position are returned. Zero scans from the log origin.
	Start entry.Position `cbor:"start"`

	// MaxEntries caps the page size. The service applies its own hard
	// cap regardless; zero requests the service's maximum.
	MaxEntries int `cbor:"max_entries,omitempty"`

	// Kinds is an advisory filter: the service returns only matching
	// kinds when set. Clients must tolerate responses that ignore the
	// filter. Nil means all kinds.
	Kinds []entry.Kind `cbor:"kinds,omitempty"`
}

// PollResult is one page of a scan.
type PollResult struct {
	// Entries is the page, in ascending position order. Empty only
	// when Complete is true.
	Entries []entry.Entry `cbor:"entries,omitempty"`

	// Complete reports whether any matching entries remain after the
	// last returned one. False means the caller should continue from
	// the last entry's position + 1. Pagination state, not finality:
	// new entries may be appended at any time.
	Complete bool `cbor:"complete"`
}

// StatusRequest asks for service-level status.
type StatusRequest struct {
	Action string `cbor:"action"`
}

// StatusResult reports service-level state.
type StatusResult struct {
	// Version is the service build version.
	Version string `cbor:"version"`

	// UptimeSeconds is how long the service has been running.
	UptimeSeconds int64 `cbor:"uptime_seconds"`

	// Buses lists every bus the service currently holds.
	Buses []BusStatus `cbor:"buses,omitempty"`
}

// BusStatus summarizes one bus.
type BusStatus struct {
	// Bus is the bus identifier.
	Bus ref.BusID `cbor:"bus"`

	// Entries is the number of entries in the bus's log. Positions
	// are contiguous from 1, so this equals the last position.
	Entries uint64 `cbor:"entries"`
}

// WriteRequest marshals a request struct and writes it as a request
// frame.
func WriteRequest(w io.Writer, request any) error {
	body, err := codec.Marshal(request)
	if err != nil {
		return fmt.Errorf("busproto: encoding request: %w", err)
	}
	return WriteFrame(w, Frame{Type: FrameRequest, Body: body})
}

// ReadRequest reads one request frame and returns its raw CBOR body
// along with the action it carries. The caller decodes the
// action-specific request struct from the same bytes.
func ReadRequest(r io.Reader) (action string, raw []byte, err error) {
	frame, err := ReadFrame(r)
	if err != nil {
		if err == io.EOF {
			return "", nil, io.EOF
		}
		return "", nil, err
	}
	if frame.Type != FrameRequest {
		return "", nil, fmt.Errorf("busproto: expected request frame, got type 0x%02x", frame.Type)
	}
	var header struct {
		Action string `cbor:"action"`
	}
	if err := codec.Unmarshal(frame.Body, &header); err != nil {
		return "", nil, fmt.Errorf("busproto: decoding request: %w", err)
	}
	if header.Action == "" {
		return "", nil, fmt.Errorf("busproto: request missing required field: action")
	}
	return header.Action, frame.Body, nil
}
