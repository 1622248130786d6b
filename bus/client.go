// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/safetybus/lib/clock"
	"github.com/bureau-foundation/safetybus/lib/ref"
)

// Config holds configuration for creating a bus Client.
type Config struct {
	// Bus identifies the log this client reads and writes. Required.
	Bus ref.BusID

	// Transport carries operations to the bus service. Required for
	// [New]; [Dial] supplies it. The client owns the transport and
	// releases it on Close.
	Transport Transport

	// Logger is used for structured logging. Defaults to
	// slog.Default().
	Logger *slog.Logger

	// Clock provides time operations for the decision-wait loop.
	// Defaults to clock.Real(). Inject clock.Fake in tests for
	// deterministic polling.
	Clock clock.Clock
}

// Client is a handle to one safety bus. All methods are safe for
// concurrent use: independent operations interleave freely because
// each carries its own cursor and the transport serializes frame I/O
// internally.
type Client struct {
	bus       ref.BusID
	transport Transport
	logger    *slog.Logger
	clock     clock.Clock
}

// New creates a client over an already-open transport. Returns an
// error if the configuration is invalid; the transport is not closed
// on configuration errors since the caller opened it.
func New(config Config) (*Client, error) {
	if config.Bus.IsZero() {
		return nil, fmt.Errorf("bus: config: bus ID is required")
	}
	if config.Transport == nil {
		return nil, fmt.Errorf("bus: config: transport is required")
	}

	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}

	return &Client{
		bus:       config.Bus,
		transport: config.Transport,
		logger:    logger,
		clock:     clk,
	}, nil
}

// Dial connects to the bus service socket and builds a client over
// the connection. The connection is the client's single transport
// handle, held until Close. If construction fails after the dial
// succeeds, the connection is closed before the error returns.
func Dial(ctx context.Context, socketPath string, config Config) (*Client, error) {
	transport, err := DialSocket(ctx, socketPath)
	if err != nil {
		return nil, err
	}
	config.Transport = transport
	client, err := New(config)
	if err != nil {
		transport.Close()
		return nil, err
	}
	return client, nil
}

// Bus returns the bus this client operates on.
func (c *Client) Bus() ref.BusID {
	return c.bus
}

// Close releases the transport handle. The client must not be used
// after Close.
func (c *Client) Close() error {
	return c.transport.Close()
}
