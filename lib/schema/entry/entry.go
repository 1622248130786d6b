// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package entry

import (
	"encoding/json"
	"fmt"

	"github.com/bureau-foundation/safetybus/lib/codec"
)

// Position is a server-assigned log position. Positions within one bus
// start at 1 and increase strictly with each append; they are never
// reused or reassigned. Position 0 is the scan origin ("before the
// first entry") and is never assigned to an entry.
//
// An intention's position doubles as its intention ID.
type Position uint64

// Entry is one record in a bus's append-only log: a position plus a
// decoded payload. Entries are immutable once appended.
type Entry struct {
	// Position is the entry's place in the log, assigned by the
	// server at append time.
	Position Position

	// Payload is the decoded content. Never nil in a valid entry.
	Payload Payload
}

// Validate checks that the entry has an assigned position and a valid
// payload.
func (e *Entry) Validate() error {
	if e.Position == 0 {
		return fmt.Errorf("entry: position 0 is the scan origin, never an entry position")
	}
	if e.Payload == nil {
		return fmt.Errorf("entry: payload is required")
	}
	if err := e.Payload.Validate(); err != nil {
		return err
	}
	return nil
}

// EncodePayload validates a payload and serializes it to CBOR. The
// caller pairs the bytes with p.Kind() for transmission or storage.
func EncodePayload(p Payload) ([]byte, error) {
	if p == nil {
		return nil, fmt.Errorf("entry: payload is required")
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	data, err := codec.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("entry: encoding %s payload: %w", p.Kind(), err)
	}
	return data, nil
}

// DecodePayload deserializes CBOR payload bytes into the concrete type
// named by kind, then validates the result. This is the single decode
// boundary: downstream code receives a concrete type and never touches
// raw payload bytes.
func DecodePayload(kind Kind, data []byte) (Payload, error) {
	payload, err := newPayload(kind)
	if err != nil {
		return nil, err
	}
	if err := codec.Unmarshal(data, payload); err != nil {
		return nil, fmt.Errorf("entry: decoding %s payload: %w", kind, err)
	}
	if err := payload.Validate(); err != nil {
		return nil, err
	}
	return payload, nil
}

// cborEntry is the CBOR wire form of an entry. The payload travels as
// raw bytes so that it is decoded exactly once, by UnmarshalCBOR.
type cborEntry struct {
	Position Position         `cbor:"position"`
	Kind     Kind             `cbor:"kind"`
	Payload  codec.RawMessage `cbor:"payload"`
}

// MarshalCBOR implements cbor.Marshaler. Entries encode as
// {position, kind, payload} with the payload nested as its own CBOR
// value.
func (e Entry) MarshalCBOR() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	payload, err := EncodePayload(e.Payload)
	if err != nil {
		return nil, err
	}
	return codec.Marshal(cborEntry{
		Position: e.Position,
		Kind:     e.Payload.Kind(),
		Payload:  payload,
	})
}

// UnmarshalCBOR implements cbor.Unmarshaler, decoding the payload by
// tag dispatch and validating the result.
func (e *Entry) UnmarshalCBOR(data []byte) error {
	var wire cborEntry
	if err := codec.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("entry: decoding entry: %w", err)
	}
	payload, err := DecodePayload(wire.Kind, wire.Payload)
	if err != nil {
		return err
	}
	e.Position = wire.Position
	e.Payload = payload
	if err := e.Validate(); err != nil {
		return err
	}
	return nil
}

// jsonEntry is the JSON form of an entry, used for CLI output and
// human inspection. Same shape as the CBOR form.
type jsonEntry struct {
	Position Position        `json:"position"`
	Kind     Kind            `json:"kind"`
	Payload  json.RawMessage `json:"payload"`
}

// MarshalJSON implements json.Marshaler.
func (e Entry) MarshalJSON() ([]byte, error) {
	if err := e.Validate(); err != nil {
		return nil, err
	}
	payload, err := json.Marshal(e.Payload)
	if err != nil {
		return nil, fmt.Errorf("entry: encoding %s payload: %w", e.Payload.Kind(), err)
	}
	return json.Marshal(jsonEntry{
		Position: e.Position,
		Kind:     e.Payload.Kind(),
		Payload:  payload,
	})
}

// UnmarshalJSON implements json.Unmarshaler.
func (e *Entry) UnmarshalJSON(data []byte) error {
	var wire jsonEntry
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("entry: decoding entry: %w", err)
	}
	payload, err := newPayload(wire.Kind)
	if err != nil {
		return err
	}
	if err := json.Unmarshal(wire.Payload, payload); err != nil {
		return fmt.Errorf("entry: decoding %s payload: %w", wire.Kind, err)
	}
	if err := payload.Validate(); err != nil {
		return err
	}
	e.Position = wire.Position
	e.Payload = payload
	if err := e.Validate(); err != nil {
		return err
	}
	return nil
}
