// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"
	"fmt"
	"net"
	"sync"
	"time"

	"github.com/bureau-foundation/safetybus/lib/busproto"
	"github.com/bureau-foundation/safetybus/lib/ref"
	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

// dialTimeout is the maximum time to wait for a connection to the bus
// service socket. Covers only the connect phase.
const dialTimeout = 5 * time.Second

// requestWriteTimeout bounds writing one request frame.
const requestWriteTimeout = 10 * time.Second

// responseReadTimeout is how long the client waits for the service to
// send a response after writing a request.
const responseReadTimeout = 45 * time.Second

// SocketTransport is a persistent connection to the bus service. One
// connection is opened at dial and held for the transport's lifetime;
// requests and responses travel in strict lockstep, serialized by an
// internal mutex so concurrent client operations interleave safely.
type SocketTransport struct {
	socketPath string

	mu   sync.Mutex
	conn net.Conn
}

var _ Transport = (*SocketTransport)(nil)

// DialSocket connects to the bus service at socketPath.
func DialSocket(ctx context.Context, socketPath string) (*SocketTransport, error) {
	dialer := net.Dialer{Timeout: dialTimeout}
	conn, err := dialer.DialContext(ctx, "unix", socketPath)
	if err != nil {
		return nil, fmt.Errorf("bus: connecting to %s: %w", socketPath, err)
	}
	return &SocketTransport{socketPath: socketPath, conn: conn}, nil
}

// Propose appends one payload to the bus and returns its position.
func (t *SocketTransport) Propose(ctx context.Context, bus ref.BusID, payload entry.Payload) (entry.Position, error) {
	raw, err := entry.EncodePayload(payload)
	if err != nil {
		return 0, fmt.Errorf("bus: %w", err)
	}
	request := busproto.ProposeRequest{
		Action:  busproto.ActionPropose,
		Bus:     bus,
		Kind:    payload.Kind(),
		Payload: raw,
	}
	var result busproto.ProposeResult
	if err := t.call(ctx, busproto.ActionPropose, request, &result); err != nil {
		return 0, err
	}
	return result.Position, nil
}

// Poll reads one page of entries from the bus.
func (t *SocketTransport) Poll(ctx context.Context, bus ref.BusID, start entry.Position, maxEntries int, kinds []entry.Kind) ([]entry.Entry, bool, error) {
	request := busproto.PollRequest{
		Action:     busproto.ActionPoll,
		Bus:        bus,
		Start:      start,
		MaxEntries: maxEntries,
		Kinds:      kinds,
	}
	var result busproto.PollResult
	if err := t.call(ctx, busproto.ActionPoll, request, &result); err != nil {
		return nil, false, err
	}
	return result.Entries, result.Complete, nil
}

// Status reports service-level state. Not part of the [Transport]
// interface — operator tooling uses it against the concrete type.
func (t *SocketTransport) Status(ctx context.Context) (busproto.StatusResult, error) {
	var result busproto.StatusResult
	err := t.call(ctx, busproto.ActionStatus, busproto.StatusRequest{Action: busproto.ActionStatus}, &result)
	return result, err
}

// Close closes the connection. Idempotent.
func (t *SocketTransport) Close() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.conn == nil {
		return nil
	}
	err := t.conn.Close()
	t.conn = nil
	if err != nil {
		return fmt.Errorf("bus: closing connection to %s: %w", t.socketPath, err)
	}
	return nil
}

// call performs one request/response exchange. The mutex holds the
// connection in lockstep: a second operation blocks until the first
// has read its response, so frames never interleave.
func (t *SocketTransport) call(ctx context.Context, action string, request any, result any) error {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.conn == nil {
		return fmt.Errorf("bus: transport is closed")
	}
	if err := ctx.Err(); err != nil {
		return err
	}

	if err := t.conn.SetWriteDeadline(deadline(ctx, requestWriteTimeout)); err != nil {
		return fmt.Errorf("bus: setting write deadline: %w", err)
	}
	if err := busproto.WriteRequest(t.conn, request); err != nil {
		return fmt.Errorf("bus: writing %s request to %s: %w", action, t.socketPath, err)
	}

	if err := t.conn.SetReadDeadline(deadline(ctx, responseReadTimeout)); err != nil {
		return fmt.Errorf("bus: setting read deadline: %w", err)
	}
	response, err := busproto.ReadResponse(t.conn)
	if err != nil {
		return fmt.Errorf("bus: reading %s response from %s: %w", action, t.socketPath, err)
	}
	return response.DecodeResult(action, result)
}

// deadline resolves the effective I/O deadline: the fixed transport
// timeout, tightened by the context's own deadline when that is
// sooner.
func deadline(ctx context.Context, timeout time.Duration) time.Time {
	d := time.Now().Add(timeout)
	if ctxDeadline, ok := ctx.Deadline(); ok && ctxDeadline.Before(d) {
		return ctxDeadline
	}
	return d
}
