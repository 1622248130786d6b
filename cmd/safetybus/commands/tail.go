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

	"github.com/alecthomas/chroma/v2/quick"
	"github.com/muesli/termenv"
	"github.com/spf13/pflag"

	"github.com/bureau-foundation/safetybus/bus"
	"github.com/bureau-foundation/safetybus/cmd/safetybus/cli"
	"github.com/bureau-foundation/safetybus/lib/clock"
	"github.com/bureau-foundation/safetybus/lib/ref"
	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

// tailFollowInterval paces polling in --follow mode.
const tailFollowInterval = time.Second

func tailCommand() *cli.Command {
	var connection busConnection
	var options tailOptions

	return &cli.Command{
		Name:    "tail",
		Summary: "Print bus entries as they are logged",
		Usage:   "safetybus tail [flags]",
		Description: `Print every entry on the bus, one line per entry, oldest first.

Each line shows the entry position, its kind, and a summary of the
payload. Decision entries show the intention they reference. With
--follow the command keeps polling for new entries until interrupted.

With --syntax, intention content is syntax-highlighted as the given
language (any language Chroma knows, e.g. python, bash, go).`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("tail", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			flagSet.Uint64Var(&options.from, "from", 0, "first position to print (0 = from the beginning)")
			flagSet.BoolVarP(&options.follow, "follow", "f", false, "keep polling for new entries")
			flagSet.StringVar(&options.syntax, "syntax", "", "highlight intention content as this language")
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

			return runTail(ctx, transport, busID, options, clock.Real(), os.Stdout)
		},
		Examples: []cli.Example{
			{
				Description: "Print the full log of the default bus",
				Command:     "safetybus tail",
			},
			{
				Description: "Follow a specific bus for new entries",
				Command:     "safetybus tail --bus agent-7 --follow",
			},
			{
				Description: "Highlight proposed actions as Python",
				Command:     "safetybus tail --syntax python",
			},
		},
	}
}

type tailOptions struct {
	from   uint64
	follow bool
	syntax string
}

// runTail drains the log from the start position and prints each
// entry. In follow mode it keeps polling at tailFollowInterval until
// the context is cancelled; otherwise it returns once the drain is
// complete.
func runTail(ctx context.Context, transport bus.Transport, busID ref.BusID, options tailOptions, clk clock.Clock, w io.Writer) error {
	// termenv downgrades all styling to no-ops when w is not a
	// terminal, so piped output stays plain.
	output := termenv.NewOutput(w)
	cursor := entry.Position(options.from)

	for {
		entries, complete, err := transport.Poll(ctx, busID, cursor, 0, nil)
		if err != nil {
			return err
		}
		for _, logged := range entries {
			fmt.Fprintln(w, formatTailLine(output, logged, options.syntax))
		}
		if len(entries) > 0 {
			cursor = entries[len(entries)-1].Position + 1
		} else if !complete {
			return fmt.Errorf("tail: no progress from position %d (incomplete response with no entries)", cursor)
		}
		if !complete {
			continue
		}
		if !options.follow {
			return nil
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-clk.After(tailFollowInterval):
		}
	}
}

// kindColor maps entry kinds to ANSI colors: decisions get
// traffic-light colors, audit records stay muted.
func kindColor(kind entry.Kind) termenv.ANSIColor {
	switch kind {
	case entry.KindIntention:
		return termenv.ANSICyan
	case entry.KindCommit:
		return termenv.ANSIGreen
	case entry.KindAbort:
		return termenv.ANSIRed
	case entry.KindVote:
		return termenv.ANSIYellow
	case entry.KindControl:
		return termenv.ANSIMagenta
	default:
		return termenv.ANSIBrightBlack
	}
}

func formatTailLine(output *termenv.Output, logged entry.Entry, syntax string) string {
	kind := logged.Payload.Kind()
	position := output.String(fmt.Sprintf("#%-5d", logged.Position)).
		Foreground(termenv.ANSIBrightBlack).String()
	tag := output.String(fmt.Sprintf("%-16s", kind)).
		Foreground(kindColor(kind)).String()
	return position + " " + tag + " " + summarizePayload(output, logged.Payload, syntax)
}

// summarizePayload reduces a payload to a single display line.
// Multi-line content shows its first line with an ellipsis.
func summarizePayload(output *termenv.Output, payload entry.Payload, syntax string) string {
	switch p := payload.(type) {
	case *entry.Intention:
		return highlightContent(output, firstLine(p.Content), syntax)
	case *entry.Commit:
		return decisionSummary(p.IntentionID, p.Reason)
	case *entry.Abort:
		return decisionSummary(p.IntentionID, p.Reason)
	case *entry.Vote:
		return fmt.Sprintf("→ #%d %s by %s", p.IntentionID, p.Verdict.String(), p.Voter.Name)
	case *entry.ActionOutput:
		return fmt.Sprintf("→ #%d %s", p.IntentionID, firstLine(p.Content))
	case *entry.InferenceInput:
		return firstLine(p.Content)
	case *entry.InferenceOutput:
		return firstLine(p.Content)
	case *entry.AgentInput:
		return firstLine(p.Content)
	case *entry.AgentOutput:
		return firstLine(p.Content)
	case *entry.DeciderPolicy:
		return p.PolicyKind
	case *entry.VoterPolicy:
		return p.PolicyKind
	case *entry.Control:
		if p.Note != "" {
			return p.Command + " (" + p.Note + ")"
		}
		return p.Command
	default:
		return string(payload.Kind())
	}
}

func decisionSummary(id entry.Position, reason string) string {
	if reason == "" {
		return fmt.Sprintf("→ #%d", id)
	}
	return fmt.Sprintf("→ #%d %s", id, firstLine(reason))
}

func firstLine(content string) string {
	if newline := strings.IndexByte(content, '\n'); newline >= 0 {
		return content[:newline] + " …"
	}
	return content
}

// highlightContent syntax-highlights one line of intention content.
// Falls back to plain text when no language is requested, the output
// is not a terminal, or Chroma fails.
func highlightContent(output *termenv.Output, content, syntax string) string {
	if syntax == "" || output.Profile == termenv.Ascii {
		return content
	}
	var highlighted strings.Builder
	if err := quick.Highlight(&highlighted, content, syntax, "terminal256", "monokai"); err != nil {
		return content
	}
	return strings.TrimRight(highlighted.String(), "\n")
}
