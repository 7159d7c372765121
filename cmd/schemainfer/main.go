// Command schemainfer infers field schemas from line-delimited JSON files
// and turns them into SQL DDL or JSON Schema.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/usestring/schemainfer/internal/config"
)

func main() {
	os.Exit(run())
}

func run() int {
	// Set up context with signal handling
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	// Defaults come from environment variables (see internal/config).
	c := &cli{cfg: config.Load()}
	defer c.close()

	if err := newRootCmd(c).ExecuteContext(ctx); err != nil {
		slog.Error("command failed", "error", err)
		return 1
	}
	return 0
}
