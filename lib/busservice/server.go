// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package busservice

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"os"
	"sync"
	"time"

	"github.com/bureau-foundation/safetybus/lib/buslog"
	"github.com/bureau-foundation/safetybus/lib/busproto"
	"github.com/bureau-foundation/safetybus/lib/clock"
	"github.com/bureau-foundation/safetybus/lib/codec"
	"github.com/bureau-foundation/safetybus/lib/schema/entry"
	"github.com/bureau-foundation/safetybus/lib/version"
)

// responseWriteTimeout is how long we wait for a response frame to be
// written. Connections are long-lived, so there is no read deadline
// between requests — a client waiting for a safety decision may sit
// idle for the full attempt budget.
const responseWriteTimeout = 10 * time.Second

// Server serves the bus protocol on a Unix socket. Each connection
// carries a sequence of request-response cycles: the client writes a
// request frame, the server processes it and writes a response frame,
// and the connection stays open for the next request.
type Server struct {
	store      *buslog.Store
	socketPath string
	startedAt  time.Time
	clock      clock.Clock
	logger     *slog.Logger

	// activeConnections tracks in-flight connection handlers for
	// graceful shutdown. Serve waits for all of them to finish
	// before returning.
	activeConnections sync.WaitGroup
}

// ServerOptions configures a Server.
type ServerOptions struct {
	// Store holds the per-bus logs. Required.
	Store *buslog.Store

	// SocketPath is the Unix socket to listen on. Required.
	SocketPath string

	// Logger for server events. Defaults to slog.Default().
	Logger *slog.Logger

	// Clock for uptime reporting. Defaults to the real clock.
	Clock clock.Clock
}

// NewServer creates a server. Call Serve to start listening.
func NewServer(options ServerOptions) (*Server, error) {
	if options.Store == nil {
		return nil, fmt.Errorf("server: store is required")
	}
	if options.SocketPath == "" {
		return nil, fmt.Errorf("server: socket path is required")
	}
	logger := options.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := options.Clock
	if clk == nil {
		clk = clock.Real()
	}
	return &Server{
		store:      options.Store,
		socketPath: options.SocketPath,
		startedAt:  clk.Now(),
		clock:      clk,
		logger:     logger,
	}, nil
}

// Serve accepts connections on the Unix socket until ctx is
// cancelled, then stops accepting and waits for active connections to
// drain.
//
// Any existing socket file at the configured path is removed before
// listening. The socket file is removed on return.
func (s *Server) Serve(ctx context.Context) error {
	if err := os.Remove(s.socketPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale socket %s: %w", s.socketPath, err)
	}

	listener, err := net.Listen("unix", s.socketPath)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", s.socketPath, err)
	}
	defer func() {
		listener.Close()
		os.Remove(s.socketPath)
	}()

	// Unblock Accept when the context is cancelled.
	go func() {
		<-ctx.Done()
		listener.Close()
	}()

	s.logger.Info("socket server listening", "path", s.socketPath)

	for {
		conn, err := listener.Accept()
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			if errors.Is(err, net.ErrClosed) {
				break
			}
			s.logger.Error("accept failed", "error", err)
			continue
		}

		s.activeConnections.Add(1)
		go func() {
			defer s.activeConnections.Done()
			s.handleConnection(ctx, conn)
		}()
	}

	s.activeConnections.Wait()
	return nil
}

// handleConnection serves request-response cycles until the client
// disconnects or the server shuts down.
func (s *Server) handleConnection(ctx context.Context, conn net.Conn) {
	defer conn.Close()

	// Unblock the frame read when the server shuts down. The done
	// channel keeps the goroutine from outliving the connection.
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		action, raw, err := busproto.ReadRequest(conn)
		if err != nil {
			if errors.Is(err, io.EOF) || ctx.Err() != nil || errors.Is(err, net.ErrClosed) {
				return
			}
			// The stream is desynced after a malformed frame; report
			// and drop the connection.
			s.logger.Debug("malformed request", "error", err)
			s.writeResponse(conn, busproto.ErrorResponse(err.Error()))
			return
		}

		s.writeResponse(conn, s.handle(ctx, action, raw))
	}
}

// handle dispatches one request to its action handler.
func (s *Server) handle(ctx context.Context, action string, raw []byte) busproto.Response {
	var (
		result any
		err    error
	)
	switch action {
	case busproto.ActionPropose:
		result, err = s.handlePropose(raw)
	case busproto.ActionPoll:
		result, err = s.handlePoll(raw)
	case busproto.ActionStatus:
		result, err = s.handleStatus()
	default:
		err = fmt.Errorf("unknown action %q", action)
	}
	if err != nil {
		s.logger.Debug("action failed", "action", action, "error", err)
		return busproto.ErrorResponse(err.Error())
	}

	response, err := busproto.SuccessResponse(result)
	if err != nil {
		s.logger.Error("encoding response failed", "action", action, "error", err)
		return busproto.ErrorResponse(fmt.Sprintf("internal: encoding response: %v", err))
	}
	return response
}

// handlePropose appends one payload to a bus, creating the bus on
// first use.
func (s *Server) handlePropose(raw []byte) (any, error) {
	var request busproto.ProposeRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid propose request: %w", err)
	}
	if request.Bus.IsZero() {
		return nil, fmt.Errorf("missing required field: bus")
	}

	payload, err := entry.DecodePayload(request.Kind, request.Payload)
	if err != nil {
		return nil, err
	}

	log, err := s.store.GetOrCreate(request.Bus)
	if err != nil {
		return nil, err
	}

	position, err := log.Append(payload)
	if err != nil {
		return nil, err
	}

	s.logger.Debug("entry appended",
		"bus", request.Bus,
		"kind", request.Kind,
		"position", position,
	)
	return busproto.ProposeResult{Position: position}, nil
}

// handlePoll reads one page of entries from a bus. A bus that has
// never seen a propose is indistinguishable from an empty log.
func (s *Server) handlePoll(raw []byte) (any, error) {
	var request busproto.PollRequest
	if err := codec.Unmarshal(raw, &request); err != nil {
		return nil, fmt.Errorf("invalid poll request: %w", err)
	}
	if request.Bus.IsZero() {
		return nil, fmt.Errorf("missing required field: bus")
	}

	log, ok := s.store.Get(request.Bus)
	if !ok {
		return busproto.PollResult{Complete: true}, nil
	}

	entries, complete := log.Poll(request.Start, request.MaxEntries, request.Kinds)
	return busproto.PollResult{Entries: entries, Complete: complete}, nil
}

// handleStatus reports service version, uptime, and per-bus entry
// counts.
func (s *Server) handleStatus() (any, error) {
	buses := s.store.List()
	statuses := make([]busproto.BusStatus, 0, len(buses))
	for _, bus := range buses {
		log, ok := s.store.Get(bus)
		if !ok {
			continue
		}
		statuses = append(statuses, busproto.BusStatus{
			Bus:     bus,
			Entries: uint64(log.Len()),
		})
	}
	return busproto.StatusResult{
		Version:       version.Info(),
		UptimeSeconds: int64(s.clock.Now().Sub(s.startedAt).Seconds()),
		Buses:         statuses,
	}, nil
}

// writeResponse writes one response frame. Write failures are logged
// at debug level — the connection is closing or the client is gone
// regardless.
func (s *Server) writeResponse(conn net.Conn, response busproto.Response) {
	conn.SetWriteDeadline(time.Now().Add(responseWriteTimeout))
	if err := busproto.WriteResponse(conn, response); err != nil {
		s.logger.Debug("failed to write response", "error", err)
	}
}
