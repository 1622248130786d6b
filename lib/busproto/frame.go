// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package busproto

import (
	"encoding/binary"
	"fmt"
	"io"
)

// Frame type constants. Each frame is a 5-byte header (1 byte type +
// 4 byte big-endian body length) followed by the CBOR body.
const (
	// FrameRequest carries a client request. Client→service only.
	FrameRequest byte = 0x01

	// FrameResponse carries a service response envelope.
	// Service→client only.
	FrameResponse byte = 0x02

	// FrameJournal carries a durable journal record. Never sent over
	// a connection; reserved here so the frame-type space has a
	// single registry.
	FrameJournal byte = 0x4A
)

// frameHeaderLength is the fixed size of a frame header: 1 byte type
// + 4 bytes body length.
const frameHeaderLength = 5

// MaxFrameLength is the maximum allowed frame body size. 16 MB bounds
// a poll response at the server's page cap even with large intention
// contents; anything beyond it indicates a corrupt stream.
const MaxFrameLength = 16 * 1024 * 1024

// Frame is a single protocol frame.
type Frame struct {
	Type byte
	Body []byte
}

// WriteFrame writes a framed message to w. The frame format is:
// [1 byte type] [4 bytes body length, big-endian uint32] [body].
func WriteFrame(w io.Writer, frame Frame) error {
	if len(frame.Body) > MaxFrameLength {
		return fmt.Errorf("busproto: frame body %d bytes exceeds maximum %d", len(frame.Body), MaxFrameLength)
	}
	var header [frameHeaderLength]byte
	header[0] = frame.Type
	binary.BigEndian.PutUint32(header[1:5], uint32(len(frame.Body)))
	if _, err := w.Write(header[:]); err != nil {
		return fmt.Errorf("busproto: write frame header: %w", err)
	}
	if len(frame.Body) > 0 {
		if _, err := w.Write(frame.Body); err != nil {
			return fmt.Errorf("busproto: write frame body: %w", err)
		}
	}
	return nil
}

// ReadFrame reads a framed message from r. Returns an error if the
// stream is malformed or the body exceeds MaxFrameLength. io.EOF is
// returned unwrapped when the stream ends cleanly before a header.
func ReadFrame(r io.Reader) (Frame, error) {
	var header [frameHeaderLength]byte
	if _, err := io.ReadFull(r, header[:]); err != nil {
		if err == io.EOF {
			return Frame{}, io.EOF
		}
		return Frame{}, fmt.Errorf("busproto: read frame header: %w", err)
	}
	frameType := header[0]
	bodyLength := binary.BigEndian.Uint32(header[1:5])
	if bodyLength > MaxFrameLength {
		return Frame{}, fmt.Errorf("busproto: frame body length %d exceeds maximum %d", bodyLength, MaxFrameLength)
	}
	body := make([]byte, bodyLength)
	if bodyLength > 0 {
		if _, err := io.ReadFull(r, body); err != nil {
			return Frame{}, fmt.Errorf("busproto: read frame body: %w", err)
		}
	}
	return Frame{Type: frameType, Body: body}, nil
}
