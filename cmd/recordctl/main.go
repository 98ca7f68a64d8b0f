// Command recordctl runs record operations against the configured table from
// the command line.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cmd := newRootCommand(defaultDeps())
	cmd.SetContext(ctx)
	if err := cmd.Execute(); err != nil {
		os.Exit(1)
	}
}
