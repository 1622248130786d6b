// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/safetybus/bus"
	"github.com/bureau-foundation/safetybus/cmd/safetybus/cli"
)

func historyCommand() *cli.Command {
	var connection busConnection
	var maxIntentions int

	return &cli.Command{
		Name:    "history",
		Summary: "Print committed intention contents in commit order",
		Usage:   "safetybus history [flags]",
		Description: `Reconstruct the action history of the bus.

The history is the content of every committed intention, ordered by
when the commit (not the proposal) was logged. Aborted and undecided
intentions are excluded. The scan fails rather than truncates when
the log references intentions it never replayed or when the committed
count exceeds the --max budget.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("history", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			flagSet.IntVar(&maxIntentions, "max", 0, "committed-intentions budget (default from config)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			client, cfg, err := connection.connect(ctx, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			if maxIntentions == 0 {
				maxIntentions = cfg.Client.MaxIntentions
			}

			callCtx, cancel := callContext(ctx)
			defer cancel()
			return runHistory(callCtx, client, maxIntentions, os.Stdout)
		},
		Examples: []cli.Example{
			{
				Description: "Print the committed history of the default bus",
				Command:     "safetybus history",
			},
			{
				Description: "Cap the scan at 100 committed intentions",
				Command:     "safetybus history --max 100",
			},
		},
	}
}

func runHistory(ctx context.Context, client *bus.Client, maxIntentions int, w io.Writer) error {
	intentions, err := client.CommittedIntentions(ctx, bus.HistoryOptions{MaxIntentions: maxIntentions})
	if err != nil {
		return err
	}
	for _, content := range intentions {
		fmt.Fprintln(w, content)
	}
	return nil
}
