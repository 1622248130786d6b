// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package codec

import (
	"io"
	"reflect"

	"github.com/fxamacker/cbor/v2"
)

// encMode applies Core Deterministic Encoding (RFC 8949 §4.2): sorted
// map keys, shortest integer forms, no indefinite lengths. The journal
// hash chain requires it — a payload re-encoded during replay must
// hash to the digest recorded when it was appended.
var encMode = mustEncMode()

// decMode accepts standard CBOR and ignores unknown fields, so old
// readers survive new entry fields.
var decMode = mustDecMode()

func mustEncMode() cbor.EncMode {
	options := cbor.CoreDetEncOptions()
	// ref.BusID carries its value in an unexported field and encodes
	// through encoding.TextMarshaler. Without this option it would
	// flatten to an empty CBOR map.
	options.TextMarshaler = cbor.TextMarshalerTextString
	mode, err := options.EncMode()
	if err != nil {
		panic("codec: CBOR encoder initialization failed: " + err.Error())
	}
	return mode
}

func mustDecMode() cbor.DecMode {
	mode, err := cbor.DecOptions{
		// When the decode target is any (opaque policy documents), the
		// library's default concrete map type is map[any]any, which
		// encoding/json refuses. Every map key on the bus is a string,
		// so map[string]any is always safe. Struct decoding ignores
		// this setting.
		DefaultMapType: reflect.TypeOf(map[string]any(nil)),
		// Mirror of the TextMarshaler option so BusID round-trips.
		TextUnmarshaler: cbor.TextUnmarshalerTextString,
	}.DecMode()
	if err != nil {
		panic("codec: CBOR decoder initialization failed: " + err.Error())
	}
	return mode
}

// Marshal encodes v with Core Deterministic Encoding.
func Marshal(v any) ([]byte, error) {
	return encMode.Marshal(v)
}

// Unmarshal decodes CBOR data into v.
func Unmarshal(data []byte, v any) error {
	return decMode.Unmarshal(data, v)
}

// Encoder, Decoder, and RawMessage alias the underlying library types
// so the rest of the module imports only lib/codec. RawMessage delays
// decoding: payload bytes travel opaque until the entry boundary.
type (
	Encoder    = cbor.Encoder
	Decoder    = cbor.Decoder
	RawMessage = cbor.RawMessage
)

// NewEncoder returns a stream encoder writing to w in the module's
// deterministic configuration.
func NewEncoder(w io.Writer) *Encoder {
	return encMode.NewEncoder(w)
}

// NewDecoder returns a stream decoder reading from r.
func NewDecoder(r io.Reader) *Decoder {
	return decMode.NewDecoder(r)
}

// Diagnose renders data in CBOR diagnostic notation (RFC 8949 §8).
func Diagnose(data []byte) (string, error) {
	return cbor.Diagnose(data)
}

// DiagnoseFirst renders the first item of a CBOR sequence and returns
// the unconsumed remainder, for walking journal records or archive
// streams item by item.
func DiagnoseFirst(data []byte) (string, []byte, error) {
	return cbor.DiagnoseFirst(data)
}
