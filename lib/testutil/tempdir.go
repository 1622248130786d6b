// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"os"
	"testing"
)

// SocketDir returns a directory with a path short enough to hold Unix
// socket files. sun_path caps socket paths at 108 bytes and test
// runners often point TMPDIR at deeply nested directories, so
// t.TempDir() is not safe for sockets; this allocates directly under
// /tmp and removes the directory in cleanup.
func SocketDir(t *testing.T) string {
	t.Helper()
	dir, err := os.MkdirTemp("/tmp", "safetybus-test-*")
	if err != nil {
		t.Fatalf("creating socket directory: %v", err)
	}
	t.Cleanup(func() { os.RemoveAll(dir) })
	return dir
}
