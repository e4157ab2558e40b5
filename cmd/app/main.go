package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"dfs_go/internal/cli"
)

func main() {
	// Ctrl+C cancels the running command's context, so generation stops at
	// the next attempt boundary and watch mode exits its feed loop.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cli.Execute(ctx)
}
