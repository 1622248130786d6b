// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/spf13/pflag"
)

// Command is one node of the safetybus command tree. Interior nodes
// carry Subcommands and dispatch on the first positional argument;
// leaves carry Run. A node with both runs itself when no subcommand
// name matches.
type Command struct {
	// Name is what the user types to select this command.
	Name string

	// Summary is the one-line description in the parent's command list.
	Summary string

	// Description replaces Summary at the top of this command's own
	// help output. May span multiple lines.
	Description string

	// Usage overrides the synthesized usage line, for commands with
	// positional arguments ("safetybus decide <intention-id> [flags]").
	Usage string

	// Examples appear at the bottom of the help output.
	Examples []Example

	// Flags builds this command's flag set. Invoked fresh for each
	// parse so a failed parse never leaks state. Nil means no flags.
	Flags func() *pflag.FlagSet

	// Subcommands, dispatched by name.
	Subcommands []*Command

	// Run handles the command once flags are parsed. args holds the
	// remaining positionals.
	Run func(ctx context.Context, args []string, logger *slog.Logger) error

	// parent links back up the tree so help and errors can print the
	// full invocation path. Set during dispatch.
	parent *Command
}

// Example is one worked invocation for help output.
type Example struct {
	// Description is printed as a comment line above the command.
	Description string
	// Command is the literal invocation.
	Command string
}

// Execute resolves args against the command tree and invokes the
// selected command. Errors already include the pointer to --help, so
// callers only print them.
func (c *Command) Execute(ctx context.Context, args []string, logger *slog.Logger) error {
	if len(args) > 0 && isHelpFlag(args[0]) {
		c.PrintHelp(os.Stderr)
		return nil
	}

	if len(c.Subcommands) > 0 && len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		return c.dispatch(ctx, args, logger)
	}

	// An interior node reached without a subcommand name has nothing
	// to run; show help and report what went wrong.
	if len(c.Subcommands) > 0 && c.Run == nil {
		if len(args) > 0 && isHelpFlag(args[0]) {
			c.PrintHelp(os.Stderr)
			return nil
		}
		c.PrintHelp(os.Stderr)
		if len(args) == 0 {
			return fmt.Errorf("subcommand required")
		}
		return fmt.Errorf("subcommand required (got flag %q)", args[0])
	}

	if c.Flags != nil {
		remaining, err := c.parseFlags(args)
		if err != nil {
			return err
		}
		args = remaining
	}

	if c.Run != nil {
		return c.Run(ctx, args, logger)
	}

	c.PrintHelp(os.Stderr)
	return fmt.Errorf("no action defined for %q", c.fullName())
}

// dispatch routes args[0] to the matching subcommand, or builds the
// unknown-command error with a typo suggestion.
func (c *Command) dispatch(ctx context.Context, args []string, logger *slog.Logger) error {
	name := args[0]
	for _, sub := range c.Subcommands {
		if sub.Name == name {
			sub.parent = c
			return sub.Execute(ctx, args[1:], logger)
		}
	}

	if suggestion := suggestCommand(name, c.Subcommands); suggestion != "" {
		return fmt.Errorf("unknown command %q (did you mean %q?)\n\nRun '%s --help' for usage.",
			name, suggestion, c.fullName())
	}
	return fmt.Errorf("unknown command %q\n\nRun '%s --help' for usage.",
		name, c.fullName())
}

// parseFlags runs the command's flag set over args and returns the
// leftover positionals. Parse errors come back decorated with a typo
// suggestion where one applies; pflag's own output is suppressed
// since the message already carries everything.
func (c *Command) parseFlags(args []string) ([]string, error) {
	flagSet := c.Flags()
	flagSet.SetOutput(io.Discard)

	if err := flagSet.Parse(args); err != nil {
		if strings.Contains(err.Error(), "unknown flag") {
			// Fresh flag set for the lookup: the failed parse above may
			// have half-consumed this one.
			if suggestion := suggestFlag(args, c.Flags()); suggestion != "" {
				return nil, fmt.Errorf("%s (did you mean %s?)\n\nRun '%s --help' for usage.",
					err, suggestion, c.fullName())
			}
		}
		return nil, fmt.Errorf("%s\n\nRun '%s --help' for usage.", err, c.fullName())
	}
	return flagSet.Args(), nil
}

// PrintHelp writes the command's help text: description, usage,
// subcommand table, flags, examples, and the drill-down hint.
func (c *Command) PrintHelp(w io.Writer) {
	switch {
	case c.Description != "":
		fmt.Fprintf(w, "%s\n\n", c.Description)
	case c.Summary != "":
		fmt.Fprintf(w, "%s\n\n", c.Summary)
	}

	switch {
	case c.Usage != "":
		fmt.Fprintf(w, "Usage:\n  %s\n", c.Usage)
	case len(c.Subcommands) > 0:
		fmt.Fprintf(w, "Usage:\n  %s <command> [flags]\n", c.fullName())
	default:
		fmt.Fprintf(w, "Usage:\n  %s [flags]\n", c.fullName())
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nCommands:\n")
		table := tabwriter.NewWriter(w, 2, 0, 3, ' ', 0)
		for _, sub := range c.Subcommands {
			fmt.Fprintf(table, "  %s\t%s\n", sub.Name, sub.Summary)
		}
		table.Flush()
	}

	if c.Flags != nil {
		flagSet := c.Flags()
		var defaults strings.Builder
		flagSet.SetOutput(&defaults)
		flagSet.PrintDefaults()
		if defaults.Len() > 0 {
			fmt.Fprintf(w, "\nFlags:\n%s", defaults.String())
		}
	}

	if len(c.Examples) > 0 {
		fmt.Fprintf(w, "\nExamples:\n")
		for _, example := range c.Examples {
			if example.Description != "" {
				fmt.Fprintf(w, "  # %s\n", example.Description)
			}
			fmt.Fprintf(w, "  %s\n", example.Command)
			if example.Description != "" {
				fmt.Fprintln(w)
			}
		}
	}

	if len(c.Subcommands) > 0 {
		fmt.Fprintf(w, "\nRun '%s <command> --help' for more information on a command.\n", c.fullName())
	}
}

// fullName is the space-joined path from the root ("safetybus policy
// set-decider").
func (c *Command) fullName() string {
	if c.parent == nil {
		return c.Name
	}
	return c.parent.fullName() + " " + c.Name
}

func isHelpFlag(arg string) bool {
	return arg == "-h" || arg == "--help" || arg == "help"
}
