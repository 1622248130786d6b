// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/safetybus/bus"
	"github.com/bureau-foundation/safetybus/cmd/safetybus/cli"
	"github.com/bureau-foundation/safetybus/lib/config"
)

// proposeOptions carries the resolved inputs for runPropose.
type proposeOptions struct {
	// content is the intention text to append.
	content string
	// wait blocks on the safety decision after the append.
	wait bool
	// waitOptions configures the decision wait when wait is set.
	waitOptions bus.WaitOptions
}

func proposeCommand() *cli.Command {
	var connection busConnection
	var wait bool
	var maxAttempts int
	var interval time.Duration

	return &cli.Command{
		Name:    "propose",
		Summary: "Propose an intention and optionally wait for the decision",
		Usage:   "safetybus propose <content>|- [flags]",
		Description: `Append an intention to the bus and print its position.

The content is taken from the single positional argument, or from
stdin when the argument is "-" (a single trailing newline is trimmed).

With --wait, the command blocks until a commit or abort referencing
the intention appears, then exits 0 for approved and 1 for denied.
A wait that exhausts its attempt budget counts as denied. The attempt
budget and poll interval come from the client config unless overridden
with --max-attempts and --interval.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("propose", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			flagSet.BoolVar(&wait, "wait", false, "block until the safety decision; exit 0 approved, 1 denied")
			flagSet.IntVar(&maxAttempts, "max-attempts", 0, "poll attempts before a timeout denial (default from config)")
			flagSet.DurationVar(&interval, "interval", 0, "pause between poll attempts (default from config)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			content, err := proposalContent(args, os.Stdin)
			if err != nil {
				return err
			}

			client, cfg, err := connection.connect(ctx, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			options := proposeOptions{
				content:     content,
				wait:        wait,
				waitOptions: resolveWaitOptions(cfg, maxAttempts, interval),
			}
			return runPropose(ctx, client, options, os.Stdout)
		},
		Examples: []cli.Example{
			{
				Description: "Propose and print the assigned position",
				Command:     "safetybus propose 'delete the scratch directory'",
			},
			{
				Description: "Propose from stdin and block on the decision",
				Command:     "git diff | safetybus propose --wait -",
			},
			{
				Description: "Propose on a specific bus with a short wait",
				Command:     "safetybus propose --bus reviewer --wait --max-attempts 10 'push to main'",
			},
		},
	}
}

// proposalContent extracts the intention text from the positional
// arguments, reading stdin when the argument is "-".
func proposalContent(args []string, stdin io.Reader) (string, error) {
	if len(args) != 1 {
		return "", fmt.Errorf("expected exactly one argument: the intention content, or '-' to read stdin")
	}
	if args[0] != "-" {
		return args[0], nil
	}

	data, err := io.ReadAll(stdin)
	if err != nil {
		return "", fmt.Errorf("reading intention content from stdin: %w", err)
	}
	return strings.TrimSuffix(string(data), "\n"), nil
}

// resolveWaitOptions merges flag overrides over the config defaults.
// Zero flag values mean "not set".
func resolveWaitOptions(cfg *config.Config, maxAttempts int, interval time.Duration) bus.WaitOptions {
	options := bus.WaitOptions{
		MaxAttempts: cfg.Client.WaitMaxAttempts,
	}
	if configInterval, err := cfg.Client.WaitIntervalDuration(); err == nil {
		options.Interval = configInterval
	}
	if maxAttempts > 0 {
		options.MaxAttempts = maxAttempts
	}
	if interval > 0 {
		options.Interval = interval
	}
	return options
}

// runPropose appends the intention and, with wait set, blocks on the
// safety decision. The denied path prints the reason and returns
// [cli.ExitError] with code 1 so scripts can branch on the exit
// status alone.
func runPropose(ctx context.Context, client *bus.Client, options proposeOptions, w io.Writer) error {
	position, err := client.LogIntention(ctx, options.content)
	if err != nil {
		return err
	}

	if !options.wait {
		fmt.Fprintf(w, "%d\n", position)
		return nil
	}

	decision := client.WaitForSafetyDecision(ctx, position, options.waitOptions)
	if decision.Approved {
		if decision.Reason != "" {
			fmt.Fprintf(w, "intention %d approved: %s\n", position, decision.Reason)
		} else {
			fmt.Fprintf(w, "intention %d approved\n", position)
		}
		return nil
	}

	if decision.Reason != "" {
		fmt.Fprintf(w, "intention %d denied: %s\n", position, decision.Reason)
	} else {
		fmt.Fprintf(w, "intention %d denied\n", position)
	}
	return &cli.ExitError{Code: 1}
}
