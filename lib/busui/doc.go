// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package busui implements the interactive terminal viewer for a
// safety bus: a live list of intentions with their decision states
// alongside a detail pane for the selected intention.
//
// The viewer is strictly read-only. It polls the bus, renders what the
// log says, and decides nothing — recording decisions is the decide
// command's job, and making them is the external decider's.
//
// Data access goes through the [Source] interface so the UI is
// independent of the backend: [PollSource] drives a live bus over a
// transport, and tests substitute fixed snapshots.
package busui
