// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"sync/atomic"
)

var nextID atomic.Uint64

// UniqueID returns "prefix-N" with a process-wide increasing N, for
// bus names and intention content that must stay distinguishable when
// parallel tests share a service.
func UniqueID(prefix string) string {
	return fmt.Sprintf("%s-%d", prefix, nextID.Add(1))
}
