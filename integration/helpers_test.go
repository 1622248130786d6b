// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package integration exercises the full client/service stack over a
// real Unix socket: a busservice.Server on one side, bus.Dial clients
// on the other. Unit-level behavior lives with the packages; these
// tests cover the wire.
package integration

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/bureau-foundation/safetybus/bus"
	"github.com/bureau-foundation/safetybus/lib/buslog"
	"github.com/bureau-foundation/safetybus/lib/busservice"
	"github.com/bureau-foundation/safetybus/lib/ref"
	"github.com/bureau-foundation/safetybus/lib/testutil"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelError,
	}))
}

// startService runs a bus service over the given store on a fresh
// socket. A nil store gets an ephemeral in-memory one. Shutdown and
// drain happen in test cleanup.
func startService(t *testing.T, store *buslog.Store) string {
	t.Helper()

	if store == nil {
		store = buslog.NewStore(nil)
	}
	socketPath := filepath.Join(testutil.SocketDir(t), "bus.sock")
	server, err := busservice.NewServer(busservice.ServerOptions{
		Store:      store,
		SocketPath: socketPath,
		Logger:     testLogger(),
	})
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.Serve(ctx)
	}()
	t.Cleanup(func() {
		cancel()
		if err := testutil.RequireReceive(t, serveDone, 5*time.Second, "server shutdown"); err != nil {
			t.Errorf("Serve returned error: %v", err)
		}
	})

	waitForSocket(t, socketPath)
	return socketPath
}

func waitForSocket(t *testing.T, path string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for {
		if _, err := os.Stat(path); err == nil {
			return
		}
		if time.Now().After(deadline) {
			t.Fatalf("socket %s never appeared", path)
		}
		time.Sleep(5 * time.Millisecond)
	}
}

// dialClient connects a client to the service for the given bus. The
// client closes when the test finishes.
func dialClient(t *testing.T, socketPath string, busID ref.BusID) *bus.Client {
	t.Helper()
	client, err := bus.Dial(context.Background(), socketPath, bus.Config{
		Bus:    busID,
		Logger: testLogger(),
	})
	if err != nil {
		t.Fatalf("Dial failed: %v", err)
	}
	t.Cleanup(func() { client.Close() })
	return client
}
