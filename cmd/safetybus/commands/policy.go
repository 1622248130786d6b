// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/pflag"
	"github.com/tidwall/jsonc"

	"github.com/bureau-foundation/safetybus/bus"
	"github.com/bureau-foundation/safetybus/cmd/safetybus/cli"
	"github.com/bureau-foundation/safetybus/lib/schema/entry"
)

// policyDocument is the on-disk shape of a policy file: the policy
// family name plus its opaque configuration. Files are authored as
// JSONC (JSON extended with // line comments, /* block comments */,
// and trailing commas); the bus stores plain JSON.
type policyDocument struct {
	Kind   string          `json:"kind"`
	Config json.RawMessage `json:"config,omitempty"`
}

func policyCommand() *cli.Command {
	return &cli.Command{
		Name:    "policy",
		Summary: "Install decider and voter policies",
		Description: `Append policy entries to the bus.

Policies are advisory configuration for external deciders and voters:
the bus records them and serves them back, but does not interpret
them. The latest entry of each policy kind is the active one.`,
		Subcommands: []*cli.Command{
			setDeciderCommand(),
			setVoterCommand(),
		},
	}
}

func setDeciderCommand() *cli.Command {
	var connection busConnection
	var file string

	return &cli.Command{
		Name:    "set-decider",
		Summary: "Append a decider policy from a JSONC file",
		Usage:   "safetybus policy set-decider --file <policy.jsonc> [flags]",
		Description: `Append a decider policy entry.

The file is a JSONC document with a "kind" field naming the policy
family and an optional "config" object holding the policy body:

    {
      // require a human for anything touching production
      "kind": "human-review",
      "config": {"match": ["prod", "deploy"]},
    }`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("set-decider", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			flagSet.StringVar(&file, "file", "", "policy document path (required)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			document, err := readPolicyFile(file)
			if err != nil {
				return err
			}

			client, _, err := connection.connect(ctx, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			callCtx, cancel := callContext(ctx)
			defer cancel()
			return runSetDeciderPolicy(callCtx, client, document, os.Stdout)
		},
		Examples: []cli.Example{
			{
				Description: "Install a decider policy on the default bus",
				Command:     "safetybus policy set-decider --file decider.jsonc",
			},
		},
	}
}

func setVoterCommand() *cli.Command {
	var connection busConnection
	var file string

	return &cli.Command{
		Name:    "set-voter",
		Summary: "Append a voter policy from a JSONC file",
		Usage:   "safetybus policy set-voter --file <policy.jsonc> [flags]",
		Description: `Append a voter policy entry.

The file format matches set-decider: a JSONC document with a "kind"
field and an optional "config" object.`,
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("set-voter", pflag.ContinueOnError)
			connection.AddFlags(flagSet)
			flagSet.StringVar(&file, "file", "", "policy document path (required)")
			return flagSet
		},
		Run: func(ctx context.Context, args []string, logger *slog.Logger) error {
			document, err := readPolicyFile(file)
			if err != nil {
				return err
			}

			client, _, err := connection.connect(ctx, logger)
			if err != nil {
				return err
			}
			defer client.Close()

			callCtx, cancel := callContext(ctx)
			defer cancel()
			return runSetVoterPolicy(callCtx, client, document, os.Stdout)
		},
		Examples: []cli.Example{
			{
				Description: "Install a voter policy on the reviewer bus",
				Command:     "safetybus policy set-voter --bus reviewer --file voter.jsonc",
			},
		},
	}
}

// parsePolicyDocument strips JSONC comments and trailing commas from
// data, then unmarshals the result into a policyDocument.
func parsePolicyDocument(data []byte) (policyDocument, error) {
	stripped := jsonc.ToJSON(data)

	var document policyDocument
	if err := json.Unmarshal(stripped, &document); err != nil {
		return policyDocument{}, fmt.Errorf("parsing policy: %w", err)
	}
	if document.Kind == "" {
		return policyDocument{}, fmt.Errorf("policy document has no \"kind\" field")
	}
	return document, nil
}

// readPolicyFile reads and parses a JSONC policy file from disk.
func readPolicyFile(path string) (policyDocument, error) {
	if path == "" {
		return policyDocument{}, fmt.Errorf("--file is required")
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return policyDocument{}, fmt.Errorf("reading %s: %w", path, err)
	}
	document, err := parsePolicyDocument(data)
	if err != nil {
		return policyDocument{}, fmt.Errorf("%s: %w", path, err)
	}
	return document, nil
}

func runSetDeciderPolicy(ctx context.Context, client *bus.Client, document policyDocument, w io.Writer) error {
	position, err := client.SetDeciderPolicy(ctx, entry.DeciderPolicy{
		PolicyKind: document.Kind,
		Config:     document.Config,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "decider policy %q installed (entry %d)\n", document.Kind, position)
	return nil
}

func runSetVoterPolicy(ctx context.Context, client *bus.Client, document policyDocument, w io.Writer) error {
	position, err := client.SetVoterPolicy(ctx, entry.VoterPolicy{
		PolicyKind: document.Kind,
		Config:     document.Config,
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "voter policy %q installed (entry %d)\n", document.Kind, position)
	return nil
}
