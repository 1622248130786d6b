// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/bureau-foundation/safetybus/cmd/safetybus/cli"
	"github.com/bureau-foundation/safetybus/lib/version"
)

// Root returns the safetybus command tree.
func Root() *cli.Command {
	return &cli.Command{
		Name:    "safetybus",
		Summary: "Operate an agent safety bus",
		Description: `safetybus is the operator tool for the agent safety bus: an
append-only log where agents propose intentions and wait for an
external commit or abort decision before acting.

Commands cover the full decision loop (propose, vote, decide), audit
access (history, tail, watch, export), and service operations
(status, policy).`,
		Subcommands: []*cli.Command{
			proposeCommand(),
			decideCommand(),
			voteCommand(),
			historyCommand(),
			tailCommand(),
			watchCommand(),
			exportCommand(),
			statusCommand(),
			policyCommand(),
			versionCommand(),
		},
	}
}

func versionCommand() *cli.Command {
	return &cli.Command{
		Name:    "version",
		Summary: "Print the safetybus version",
		Usage:   "safetybus version",
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			fmt.Println(version.Full())
			return nil
		},
	}
}
