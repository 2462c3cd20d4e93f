// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fibertrace/cmd/fibertrace/cli"
	"github.com/bureau-foundation/fibertrace/lib/bridge"
	"github.com/bureau-foundation/fibertrace/lib/demo"
	"github.com/bureau-foundation/fibertrace/lib/supervisor"
)

type demoParams struct {
	configFlag
	scenario string
	mode     string
	pace     time.Duration
	list     bool
}

func demoCommand(streams Streams) *cli.Command {
	var params demoParams
	return &cli.Command{
		Name:    "demo",
		Summary: "Run a built-in traced program",
		Description: `Run one of the built-in scenarios, writing TRACE_EVENT lines to stdout
interleaved with the scenario's ordinary output. Pipe it through
"fibertrace run" to see the reconstructed tree.

--mode picks the instrumentation: "manual" wraps each step explicitly,
"fibers" lets the runtime supervisor report every fiber, and "spans"
reports effects as OpenTelemetry spans with no fiber events.`,
		Usage: "fibertrace demo [flags]",
		Flags: func() *pflag.FlagSet {
			flagSet := pflag.NewFlagSet("demo", pflag.ContinueOnError)
			params.bind(flagSet)
			flagSet.StringVar(&params.scenario, "scenario", "all", "scenario to run ("+strings.Join(demo.Names(), ", ")+")")
			flagSet.StringVar(&params.mode, "mode", "", "instrumentation mode (default: tracer.mode from config)")
			flagSet.DurationVar(&params.pace, "pace", demo.DefaultPace, "duration of one sleep step")
			flagSet.BoolVar(&params.list, "list", false, "list the scenarios and exit")
			return flagSet
		},
		Examples: []cli.Example{
			{
				Description: "Watch the retry scenario live",
				Command:     "fibertrace run --live -- fibertrace demo --scenario retry --pace 200ms",
			},
		},
		Run: func(ctx context.Context, args []string) error {
			return runDemo(ctx, streams, &params, args)
		},
	}
}

func runDemo(ctx context.Context, streams Streams, params *demoParams, args []string) error {
	if len(args) > 0 {
		return cli.Validation("unexpected arguments: %s", strings.Join(args, " "))
	}
	if params.list {
		tw := tabwriter.NewWriter(streams.Stdout, 2, 0, 3, ' ', 0)
		for _, scenario := range demo.Scenarios() {
			fmt.Fprintf(tw, "%s\t%s\n", scenario.Name, scenario.Description)
		}
		return tw.Flush()
	}
	if _, err := demo.Lookup(params.scenario); err != nil {
		return cli.NotFound("%w", err).WithHint("Run 'fibertrace demo --list' to see the scenarios.")
	}

	cfg, logger, err := params.load(streams)
	if err != nil {
		return err
	}
	mode, err := cfg.TracerMode()
	if params.mode != "" {
		mode, err = supervisor.ParseMode(params.mode)
	}
	if err != nil {
		return cli.Validation("%w", err)
	}
	logger = logger.With("command", "demo", "scenario", params.scenario, "mode", string(mode))

	stdout := &lockedWriter{writer: streams.Stdout}
	sink := bridge.NewWriterSink(stdout, logger)
	err = demo.Run(ctx, demo.Options{
		Scenario: params.scenario,
		Mode:     mode,
		Sink:     sink,
		Output:   stdout,
		Pace:     params.pace,
		IDPrefix: cfg.Tracer.IDPrefix,
		Logger:   logger,
	})
	if failures := sink.Failures(); failures > 0 {
		logger.Warn("some trace lines could not be written", "failures", failures)
	}
	if err != nil {
		return cli.Internal("scenario %s: %w", params.scenario, err)
	}
	return nil
}
