// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package busproto

import (
	"fmt"
	"io"

	"github.com/bureau-foundation/safetybus/lib/codec"
)

// Response is the wire-format envelope for all protocol responses.
// Handlers return a result value (or nil) and an error; the service
// wraps these into a Response before encoding.
type Response struct {
	OK    bool             `cbor:"ok"`
	Error string           `cbor:"error,omitempty"`
	Data  codec.RawMessage `cbor:"data,omitempty"`
}

// ErrorResponse builds a failure envelope: {ok: false, error: "..."}.
func ErrorResponse(message string) Response {
	return Response{OK: false, Error: message}
}

// SuccessResponse builds a success envelope. If result is nil, the
// envelope is {ok: true}. If non-nil, the value is marshaled as CBOR
// and placed in the "data" field.
func SuccessResponse(result any) (Response, error) {
	response := Response{OK: true}
	if result != nil {
		data, err := codec.Marshal(result)
		if err != nil {
			return Response{}, fmt.Errorf("busproto: encoding response data: %w", err)
		}
		response.Data = data
	}
	return response, nil
}

// WriteResponse writes a response envelope as a response frame.
func WriteResponse(w io.Writer, response Response) error {
	body, err := codec.Marshal(response)
	if err != nil {
		return fmt.Errorf("busproto: encoding response: %w", err)
	}
	return WriteFrame(w, Frame{Type: FrameResponse, Body: body})
}

// ReadResponse reads one response frame and decodes its envelope.
func ReadResponse(r io.Reader) (Response, error) {
	frame, err := ReadFrame(r)
	if err != nil {
		if err == io.EOF {
			return Response{}, io.EOF
		}
		return Response{}, err
	}
	if frame.Type != FrameResponse {
		return Response{}, fmt.Errorf("busproto: expected response frame, got type 0x%02x", frame.Type)
	}
	var response Response
	if err := codec.Unmarshal(frame.Body, &response); err != nil {
		return Response{}, fmt.Errorf("busproto: decoding response: %w", err)
	}
	return response, nil
}

// DecodeResult unwraps the envelope. Error envelopes become
// *ServiceError values. On success, the data field is decoded into
// result when result is non-nil; a success envelope with no data and a
// non-nil result target is a protocol violation.
func (r *Response) DecodeResult(action string, result any) error {
	if !r.OK {
		return &ServiceError{Action: action, Message: r.Error}
	}
	if result == nil {
		return nil
	}
	if len(r.Data) == 0 {
		return fmt.Errorf("busproto: %s response has no data", action)
	}
	if err := codec.Unmarshal(r.Data, result); err != nil {
		return fmt.Errorf("busproto: decoding %s response data: %w", action, err)
	}
	return nil
}

// ServiceError is a failure reported by the bus service in a response
// envelope. The message is the service's error text, verbatim.
type ServiceError struct {
	// Action is the request action that failed.
	Action string

	// Message is the service's error description.
	Message string
}

func (e *ServiceError) Error() string {
	return fmt.Sprintf("bus service %s: %s", e.Action, e.Message)
}
