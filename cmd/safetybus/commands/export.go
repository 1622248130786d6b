// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/safetybus/bus"
	"github.com/bureau-foundation/safetybus/cmd/safetybus/cli"
	"github.com/bureau-foundation/safetybus/lib/busarchive"
	"github.com/bureau-foundation/safetybus/lib/ref"
	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

func exportCommand() *cli.Command {
	var connection busConnection
	var outPath string
	var recipients []string

	return &cli.Command{
		Name:    "export",
		Summary: "Export a bus log to an archive file",
		Usage:   "safetybus export [flags]",
		Description: `Drain the full bus log and write it to a compressed archive.

The archive holds every entry in position order and can be inspected
or replayed offline. With one or more --encrypt-to recipients, the
archive is age-encrypted to their public keys; decrypt it with any
matching identity (age, or tooling built on lib/busarchive).`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("export", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			flagSet.StringVarP(&outPath, "out", "o", "", "output file (default <bus>.archive, or <bus>.archive.age when encrypted)")
			flagSet.StringArrayVar(&recipients, "encrypt-to", nil, "age recipient public key (repeatable)")
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

			if outPath == "" {
				outPath = busID.String() + ".archive"
				if len(recipients) > 0 {
					outPath += ".age"
				}
			}

			callCtx, cancel := callContext(ctx)
			defer cancel()

			count, err := runExport(callCtx, transport, busID, outPath, recipients)
			if err != nil {
				return err
			}
			logger.Info("bus exported", "bus", busID, "entries", count, "path", outPath)
			return nil
		},
		Examples: []cli.Example{
			{
				Description: "Export the default bus",
				Command:     "safetybus export",
			},
			{
				Description: "Export a bus encrypted to an auditor's key",
				Command:     "safetybus export --bus agent-7 --encrypt-to age1auditorkey...",
			},
		},
	}
}

// runExport drains the bus and writes the archive to path. The file is
// removed on a failed write so a partial archive is never left behind.
func runExport(ctx context.Context, transport bus.Transport, busID ref.BusID, path string, recipients []string) (int, error) {
	entries, err := drainEntries(ctx, transport, busID)
	if err != nil {
		return 0, err
	}

	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o600)
	if err != nil {
		return 0, fmt.Errorf("creating archive file: %w", err)
	}

	archive := busarchive.Archive{
		Header:  busarchive.Header{Bus: busID},
		Entries: entries,
	}
	if err := writeArchive(file, archive, recipients); err != nil {
		os.Remove(path)
		return 0, err
	}
	return len(entries), nil
}

func writeArchive(file *os.File, archive busarchive.Archive, recipients []string) error {
	if err := busarchive.Write(file, archive, recipients); err != nil {
		file.Close()
		return err
	}
	return file.Close()
}

// drainEntries reads the whole log, paging until the service reports a
// complete response.
func drainEntries(ctx context.Context, transport bus.Transport, busID ref.BusID) ([]entry.Entry, error) {
	var entries []entry.Entry
	var cursor entry.Position
	for {
		page, complete, err := transport.Poll(ctx, busID, cursor, 0, nil)
		if err != nil {
			return nil, err
		}
		entries = append(entries, page...)
		if complete {
			return entries, nil
		}
		if len(page) == 0 {
			return nil, fmt.Errorf("export: no progress from position %d (incomplete response with no entries)", cursor)
		}
		cursor = page[len(page)-1].Position + 1
	}
}
