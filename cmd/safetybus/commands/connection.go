// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/safetybus/bus"
	"github.com/bureau-foundation/safetybus/lib/config"
	"github.com/bureau-foundation/safetybus/lib/ref"
)

// busConnection carries the connection parameters shared by every
// command that talks to the bus service: config file selection, a
// socket path override, and the bus to operate on.
type busConnection struct {
	configPath string
	socketPath string
	busName    string
}

// AddFlags registers the shared connection flags on a command's flag set.
func (c *busConnection) AddFlags(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&c.configPath, "config", "", "config file path (overrides SAFETYBUS_CONFIG)")
	flagSet.StringVar(&c.socketPath, "socket", "", "bus service socket path (overrides config)")
	flagSet.StringVar(&c.busName, "bus", "", "bus to operate on (overrides the config default)")
}

// loadConfig resolves the effective configuration. The --config flag
// wins over the SAFETYBUS_CONFIG environment variable, which wins over
// built-in defaults. Flag-level overrides (--socket, --bus) apply on
// top of whatever the file provides.
func (c *busConnection) loadConfig() (*config.Config, error) {
	var cfg *config.Config
	var err error
	switch {
	case c.configPath != "":
		cfg, err = config.LoadFile(c.configPath)
	case os.Getenv("SAFETYBUS_CONFIG") != "":
		cfg, err = config.Load()
	default:
		cfg = config.Default()
	}
	if err != nil {
		return nil, err
	}

	if c.socketPath != "" {
		cfg.SocketPath = c.socketPath
	}
	if c.busName != "" {
		cfg.Client.DefaultBus = c.busName
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

// connect loads the configuration, dials the bus service socket, and
// returns a client bound to the selected bus. The caller owns the
// client and must Close it.
func (c *busConnection) connect(ctx context.Context, logger *slog.Logger) (*bus.Client, *config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, nil, err
	}

	busID, err := ref.ParseBusID(cfg.Client.DefaultBus)
	if err != nil {
		return nil, nil, err
	}

	client, err := bus.Dial(ctx, cfg.SocketPath, bus.Config{Bus: busID, Logger: logger})
	if err != nil {
		return nil, nil, fmt.Errorf("connecting to bus service at %s: %w", cfg.SocketPath, err)
	}
	return client, cfg, nil
}

// connectTransport dials the bus service and returns the raw socket
// transport plus the resolved bus. Commands that work with log entries
// directly (tail, export, status) use this instead of connect: the
// client API deals in payloads and decisions, not raw pages. The
// caller owns the transport and must Close it.
func (c *busConnection) connectTransport(ctx context.Context) (*bus.SocketTransport, ref.BusID, *config.Config, error) {
	cfg, err := c.loadConfig()
	if err != nil {
		return nil, ref.BusID{}, nil, err
	}

	busID, err := ref.ParseBusID(cfg.Client.DefaultBus)
	if err != nil {
		return nil, ref.BusID{}, nil, err
	}

	transport, err := bus.DialSocket(ctx, cfg.SocketPath)
	if err != nil {
		return nil, ref.BusID{}, nil, fmt.Errorf("connecting to bus service at %s: %w", cfg.SocketPath, err)
	}
	return transport, busID, cfg, nil
}

// callContext returns a context with a timeout suited to one-shot
// service calls (a single propose or a short poll). Commands with
// open-ended waits (propose --wait, tail --follow, watch) use the
// parent context directly.
func callContext(parent context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(parent, 30*time.Second)
}
