// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package commands builds the complete safetybus CLI command tree.
//
// Each command lives in its own file with its work split into a
// separable core function that takes a connected [bus.Client] (or raw
// transport) and an io.Writer. The Run closures handle flag plumbing
// and connection setup; the cores carry the behavior and are what the
// tests drive, over an in-memory transport.
//
// Connection parameters (--config, --socket, --bus) are shared across
// commands via [busConnection]. Configuration resolves in precedence
// order: the --config flag, then the SAFETYBUS_CONFIG environment
// variable, then built-in defaults.
package commands
