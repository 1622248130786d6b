// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/safetybus/cmd/safetybus/cli"
	"github.com/bureau-foundation/safetybus/lib/busui"
)

func watchCommand() *cli.Command {
	var connection busConnection

	return &cli.Command{
		Name:    "watch",
		Summary: "Interactive bus viewer",
		Usage:   "safetybus watch [flags]",
		Description: `Launch a terminal UI showing the bus's intentions live.

The left pane lists every intention with its decision state; the
right pane shows the selected intention's content (rendered as
markdown), decision reason, votes, and recorded output. Press / to
fuzzy-filter, Tab to switch panes, q to quit.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("watch", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			transport, busID, _, err := connection.connectTransport(ctx)
			if err != nil {
				return err
			}
			defer transport.Close()

			// Background poll failures must not write to stderr while
			// the alt screen is up; they go to the discard logger and
			// the viewer keeps showing the last good snapshot.
			source := busui.NewPollSource(transport, busID, busui.PollSourceOptions{
				Logger: slog.New(slog.DiscardHandler),
			})

			pollCtx, cancelPoll := context.WithCancel(ctx)
			defer cancelPoll()
			go source.Run(pollCtx)

			program := tea.NewProgram(busui.NewModel(source), tea.WithAltScreen())
			_, err = program.Run()
			return err
		},
		Examples: []cli.Example{
			{
				Description: "Watch the default bus",
				Command:     "safetybus watch",
			},
			{
				Description: "Watch a specific bus",
				Command:     "safetybus watch --bus agent-7",
			},
		},
	}
}
