// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/spf13/pflag"

	"github.com/bureau-foundation/fibertrace/cmd/fibertrace/cli"
	"github.com/bureau-foundation/fibertrace/lib/config"
)

// Streams are the standard streams a command writes to.
type Streams struct {
	Stdout io.Writer
	Stderr io.Writer
}

// StandardStreams returns the process's stdout and stderr.
func StandardStreams() Streams {
	return Streams{Stdout: os.Stdout, Stderr: os.Stderr}
}

// Root builds the complete fibertrace command tree.
func Root(streams Streams) *cli.Command {
	return &cli.Command{
		Name: "fibertrace",
		Description: `fibertrace: tracing and causal reconstruction for structured concurrency.

Programs instrumented with fibertrace write one TRACE_EVENT line per
event to stdout. fibertrace runs such a program, rebuilds its fiber tree
from the event stream, and shows the tree and a timeline of effects.`,
		HelpOutput: streams.Stderr,
		Subcommands: []*cli.Command{
			runCommand(streams),
			replayCommand(streams),
			demoCommand(streams),
			versionCommand(streams),
		},
		Examples: []cli.Example{
			{
				Description: "Trace the built-in demo program",
				Command:     "fibertrace run -- fibertrace demo",
			},
			{
				Description: "Watch a program live and keep a recording",
				Command:     "fibertrace run --live --record server.ftr -- ./server --port 8080",
			},
			{
				Description: "Render a recording as JSON",
				Command:     "fibertrace replay server.ftr --json",
			},
		},
	}
}

// configFlag is embedded by every command that reads configuration.
type configFlag struct {
	path string
}

func (flag *configFlag) bind(flagSet *pflag.FlagSet) {
	flagSet.StringVar(&flag.path, "config", "", "config file (default: $"+config.EnvironmentVariable+", else built-in defaults)")
}

// load resolves the configuration and builds the command logger from it.
func (flag *configFlag) load(streams Streams) (*config.Config, *slog.Logger, error) {
	cfg, err := config.Resolve(flag.path)
	if err != nil {
		return nil, nil, cli.Validation("loading configuration: %w", err)
	}
	level, err := cfg.SlogLevel()
	if err != nil {
		return nil, nil, cli.Validation("%w", err)
	}
	return cfg, cli.NewLogger(streams.Stderr, level), nil
}

// lockedWriter serializes whole Write calls. The demo's trace sink and
// its ordinary output share stdout through one.
type lockedWriter struct {
	mu     sync.Mutex
	writer io.Writer
}

func (locked *lockedWriter) Write(data []byte) (int, error) {
	locked.mu.Lock()
	defer locked.mu.Unlock()
	return locked.writer.Write(data)
}
