// Package appshell adapts a RunContext-style entry point to a process:
// signals become context cancellation and the return value the exit status.
package appshell

import (
	"context"
	"io"
	"os"
	"os/signal"
	"syscall"
)

// RunFunc is the signature of app.RunContext.
type RunFunc func(ctx context.Context, argv []string, stdout, stderr io.Writer) int

// Main runs fn with os.Args and exits. An interrupted run exits 130 even if
// fn reported success.
func Main(fn RunFunc) {
	os.Exit(run(fn, os.Args[1:], os.Stdout, os.Stderr))
}

func run(fn RunFunc, argv []string, stdout, stderr io.Writer) int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	code := fn(ctx, argv, stdout, stderr)
	if ctx.Err() != nil && code == 0 {
		code = 130
	}
	return code
}
