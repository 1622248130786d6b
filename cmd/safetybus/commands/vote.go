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
	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

func voteCommand() *cli.Command {
	var connection busConnection
	var approve bool
	var deny bool
	var probability float64
	var voter string
	var model string

	return &cli.Command{
		Name:    "vote",
		Summary: "Record an advisory reviewer verdict on an intention",
		Usage:   "safetybus vote <intention-id> --approve|--deny|--probability p --voter <name> [flags]",
		Description: `Append a vote entry for a pending intention.

Votes are advisory: the bus records them without aggregation, and
they carry no authority over whether the intention executes. The
verdict is either hard (--approve / --deny) or soft (--probability,
the voter's estimate in [0, 1] that the intention is safe); exactly
one form must be given.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("vote", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			flagSet.BoolVar(&approve, "approve", false, "hard verdict: the intention is safe")
			flagSet.BoolVar(&deny, "deny", false, "hard verdict: the intention is unsafe")
			flagSet.Float64Var(&probability, "probability", -1, "soft verdict: safety probability in [0, 1]")
			flagSet.StringVar(&voter, "voter", "", "voter name recorded with the verdict (required)")
			flagSet.StringVar(&model, "model", "", "model identifier for automated voters")
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
			verdict, err := buildVerdict(approve, deny, probability)
			if err != nil {
				return err
			}
			if voter == "" {
				return fmt.Errorf("--voter is required")
			}

			client, _, err := connection.connect(ctx, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			callCtx, cancel := callContext(ctx)
			defer cancel()

			vote := entry.Vote{
				IntentionID: intentionID,
				Verdict:     verdict,
				Voter:       entry.VoterInfo{Name: voter, Model: model},
			}
			return runVote(callCtx, client, vote, os.Stdout)
		},
		Examples: []cli.Example{
			{
				Description: "Human reviewer approves intention 3",
				Command:     "safetybus vote 3 --approve --voter alice",
			},
			{
				Description: "Automated voter records a soft verdict",
				Command:     "safetybus vote 3 --probability 0.92 --voter policy-voter-1 --model gpt-oss-120b",
			},
		},
	}
}

// buildVerdict converts the three verdict flags into a single Verdict,
// enforcing that exactly one form was chosen. The probability flag's
// "unset" marker is -1 since 0 is a legal probability.
func buildVerdict(approve, deny bool, probability float64) (entry.Verdict, error) {
	hardForms := 0
	if approve {
		hardForms++
	}
	if deny {
		hardForms++
	}
	softForm := probability >= 0

	switch {
	case hardForms > 1:
		return entry.Verdict{}, fmt.Errorf("--approve and --deny are mutually exclusive")
	case hardForms == 1 && softForm:
		return entry.Verdict{}, fmt.Errorf("--probability cannot be combined with --approve or --deny")
	case hardForms == 0 && !softForm:
		return entry.Verdict{}, fmt.Errorf("one of --approve, --deny, or --probability is required")
	case softForm:
		if probability > 1 {
			return entry.Verdict{}, fmt.Errorf("--probability %v out of range: must be within [0, 1]", probability)
		}
		return entry.ProbabilityVerdict(probability), nil
	default:
		return entry.BoolVerdict(approve), nil
	}
}

func runVote(ctx context.Context, client *bus.Client, vote entry.Vote, w io.Writer) error {
	position, err := client.LogVote(ctx, vote)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "vote recorded for intention %d (entry %d)\n", vote.IntentionID, position)
	return nil
}
