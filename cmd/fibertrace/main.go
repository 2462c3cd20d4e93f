// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Command fibertrace runs programs instrumented with the fibertrace
// tracing layer and reconstructs their fiber trees from the trace
// lines they print.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/bureau-foundation/fibertrace/cmd/fibertrace/commands"
	"github.com/bureau-foundation/fibertrace/lib/process"
)

func main() {
	process.Exit(run())
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return commands.Root(commands.StandardStreams()).Execute(ctx, os.Args[1:])
}
