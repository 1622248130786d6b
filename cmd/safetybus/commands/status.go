// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/safetybus/cmd/safetybus/cli"
	"github.com/bureau-foundation/safetybus/lib/busproto"
)

func statusCommand() *cli.Command {
	var connection busConnection

	return &cli.Command{
		Name:    "status",
		Summary: "Show bus service status",
		Usage:   "safetybus status [flags]",
		Description: `Query the bus service for its version, uptime, and the buses it
currently holds with their entry counts.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("status", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			if len(args) > 0 {
				return fmt.Errorf("unexpected argument: %s", args[0])
			}
			transport, _, _, err := connection.connectTransport(ctx)
			if err != nil {
				return err
			}
			defer transport.Close()

			callCtx, cancel := callContext(ctx)
			defer cancel()

			status, err := transport.Status(callCtx)
			if err != nil {
				return err
			}
			return printStatus(status, os.Stdout)
		},
		Examples: []cli.Example{
			{
				Description: "Show the status of the default service",
				Command:     "safetybus status",
			},
			{
				Description: "Query a non-default socket",
				Command:     "safetybus status --socket /tmp/safetybus-dev/bus.sock",
			},
		},
	}
}

func printStatus(status busproto.StatusResult, w io.Writer) error {
	fmt.Fprintf(w, "version: %s\n", status.Version)
	fmt.Fprintf(w, "uptime:  %s\n", (time.Duration(status.UptimeSeconds) * time.Second).String())

	if len(status.Buses) == 0 {
		fmt.Fprintln(w, "buses:   none")
		return nil
	}

	fmt.Fprintln(w, "buses:")
	writer := tabwriter.NewWriter(w, 2, 4, 2, ' ', 0)
	fmt.Fprintln(writer, "  BUS\tENTRIES")
	for _, bus := range status.Buses {
		fmt.Fprintf(writer, "  %s\t%d\n", bus.Bus, bus.Entries)
	}
	return writer.Flush()
}
