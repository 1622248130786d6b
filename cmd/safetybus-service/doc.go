// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command safetybus-service is the bus service daemon. It owns the
// append-only entry logs for every bus, serves the framed
// request-response protocol on a Unix socket, and optionally persists
// each bus to a journal file so logs survive restarts.
//
// Clients (agents, deciders, voters, the safetybus CLI) connect
// through [github.com/bureau-foundation/safetybus/bus.Dial]. The
// service creates buses on first propose; polling a bus that has
// never seen a propose returns an empty, complete page.
//
// Configuration comes from --config, the SAFETYBUS_CONFIG environment
// variable, or built-in development defaults, in that order. With
// persistence enabled (the default) the service replays every journal
// in the configured directory at startup before accepting
// connections.
package main
