// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fibertrace/cmd/fibertrace/cli"
	"github.com/bureau-foundation/fibertrace/lib/version"
)

func versionCommand(streams Streams) *cli.Command {
	var output cli.JSONOutput
	return &cli.Command{
		Name:    "version",
		Summary: "Print version information",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("version", pflag.ContinueOnError)
			output.BindJSONFlag(flagSet)
			return flagSet
		},
		Run: func(_ context.Context, _ []string) error {
			build := version.Current()
			if done, err := output.EmitJSON(streams.Stdout, build); done {
				return err
			}
			fmt.Fprintf(streams.Stdout, "fibertrace %s\n", build.Full())
			return nil
		},
	}
}
