// Package main is the entry point for the fsgate CLI application.
//
// fsgate is a filesystem gateway: it exposes read, write, list, mkdir,
// delete and stat as tools, confined to a set of allowed directories.
// The application follows this startup sequence:
//
// 1. Parse the command line with cobra
// 2. Load configuration (defaults, config file, environment, flags)
// 3. Initialize logging at the configured level
// 4. Build the gateway and run the selected command
// 5. Handle graceful shutdown on SIGINT/SIGTERM
//
// Failed tool calls print "<Kind>: <message>" to stderr and exit with
// status 1, as do configuration errors.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"fsgate/internal/toolerr"
)

// version is overridden at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, formatError(err))
		stop()
		os.Exit(1)
	}
}

// formatError prints classified tool failures in the "<Kind>: <message>"
// form and everything else as a plain error.
func formatError(err error) string {
	var te *toolerr.Error
	if errors.As(err, &te) {
		return toolerr.Format(err)
	}
	return "Error: " + err.Error()
}
