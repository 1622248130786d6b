// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/safetybus/bus"
	"github.com/bureau-foundation/safetybus/cmd/safetybus/cli"
	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

// decideOptions carries the resolved inputs for runDecide.
type decideOptions struct {
	intentionID entry.Position
	approve     bool
	reason      string
}

func decideCommand() *cli.Command {
	var connection busConnection
	var approve bool
	var deny bool
	var reason string

	return &cli.Command{
		Name:    "decide",
		Summary: "Commit or abort a pending intention",
		Usage:   "safetybus decide <intention-id> --approve|--deny [flags]",
		Description: `Record a decision for a pending intention.

--approve appends a commit entry: the intention may execute, and its
content becomes part of the action history. --deny appends an abort
entry. Exactly one of the two must be given. Any client waiting on the
intention observes the decision on its next poll.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("decide", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			flagSet.BoolVar(&approve, "approve", false, "commit the intention")
			flagSet.BoolVar(&deny, "deny", false, "abort the intention")
			flagSet.StringVar(&reason, "reason", "", "free-text reason recorded with the decision")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) != 1 {
				return fmt.Errorf("expected exactly one argument: the intention ID")
			}
			intentionID, err := parseIntentionID(args[0])
			if err != nil {
				return err
			}
			if approve == deny {
				return fmt.Errorf("exactly one of --approve or --deny is required")
			}

			client, _, err := connection.connect(ctx, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			callCtx, cancel := callContext(ctx)
			defer cancel()

			options := decideOptions{
				intentionID: intentionID,
				approve:     approve,
				reason:      reason,
			}
			return runDecide(callCtx, client, options, os.Stdout)
		},
		Examples: []cli.Example{
			{
				Description: "Approve intention 3",
				Command:     "safetybus decide 3 --approve --reason 'scratch dir is disposable'",
			},
			{
				Description: "Deny intention 7 on the reviewer bus",
				Command:     "safetybus decide 7 --deny --bus reviewer --reason 'touches production config'",
			},
		},
	}
}

// parseIntentionID parses a positional intention-id argument. Also
// used by the vote command.
func parseIntentionID(arg string) (entry.Position, error) {
	value, err := strconv.ParseUint(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid intention ID %q: must be a positive integer", arg)
	}
	if value == 0 {
		return 0, fmt.Errorf("invalid intention ID %q: positions start at 1", arg)
	}
	return entry.Position(value), nil
}

func runDecide(ctx context.Context, client *bus.Client, options decideOptions, w io.Writer) error {
	var position entry.Position
	var err error
	var record string
	if options.approve {
		position, err = client.LogCommit(ctx, options.intentionID, options.reason)
		record = "committed"
	} else {
		position, err = client.LogAbort(ctx, options.intentionID, options.reason)
		record = "aborted"
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "intention %d %s (entry %d)\n", options.intentionID, record, position)
	return nil
}
