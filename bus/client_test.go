// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package bus

import (
	"context"
	"io"
	"net"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/safetybus/lib/ref"
)

func testSocketPath(t *testing.T) string {
	t.Helper()
	return filepath.Join(t.TempDir(), "test.sock")
}

func TestNewRequiresBus(t *testing.T) {
	_, err := New(Config{Transport: NewMemoryTransport(nil)})
	if err == nil {
		t.Fatal("New without a bus ID should fail")
	}
	if !strings.Contains(err.Error(), "bus ID") {
		t.Errorf("error = %q, want bus ID complaint", err)
	}
}

func TestNewRequiresTransport(t *testing.T) {
	_, err := New(Config{Bus: ref.MustParseBusID("agent-7")})
	if err == nil {
		t.Fatal("New without a transport should fail")
	}
	if !strings.Contains(err.Error(), "transport") {
		t.Errorf("error = %q, want transport complaint", err)
	}
}

func TestClientBusAccessor(t *testing.T) {
	client := newTestClient(t, NewMemoryTransport(nil), nil)
	defer client.Close()
	if got := client.Bus().String(); got != "test-bus" {
		t.Errorf("Bus() = %q, want %q", got, "test-bus")
	}
}

func TestClientCloseReleasesTransport(t *testing.T) {
	script := &scriptTransport{}
	client := newTestClient(t, script, nil)
	if err := client.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if script.closeCount != 1 {
		t.Errorf("transport close count = %d, want 1", script.closeCount)
	}
}

func TestDialReleasesConnectionOnConstructionFailure(t *testing.T) {
	socketPath := testSocketPath(t)
	listener, err := net.Listen("unix", socketPath)
	if err != nil {
		t.Fatalf("Listen: %v", err)
	}
	defer listener.Close()

	accepted := make(chan net.Conn, 1)
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		accepted <- conn
	}()

	// Zero bus ID: the dial succeeds, then construction fails. The
	// dialed connection must be released before the error returns.
	_, err = Dial(context.Background(), socketPath, Config{})
	if err == nil {
		t.Fatal("Dial with zero bus ID should fail")
	}

	conn := <-accepted
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(5 * time.Second))
	buffer := make([]byte, 1)
	if _, err := conn.Read(buffer); err != io.EOF {
		t.Errorf("server read = %v, want io.EOF (client closed the connection)", err)
	}
}

func TestDialFailsWithoutService(t *testing.T) {
	socketPath := testSocketPath(t)
	_, err := Dial(context.Background(), socketPath, Config{Bus: ref.MustParseBusID("agent-7")})
	if err == nil {
		t.Fatal("Dial against a missing socket should fail")
	}
}
