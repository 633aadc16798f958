package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/Adda-Baaj/hscide-client/internal/logger"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "hscide: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return runCLI(ctx, os.Stdout, os.Args[1:])
}

// runCLI executes one command. The logger is flushed on every exit path,
// including commands that fail.
func runCLI(ctx context.Context, out io.Writer, args []string) error {
	defer func() { _ = logger.Close() }()

	root := newRootCmd(out)
	root.SetArgs(args)
	if err := root.ExecuteContext(ctx); err != nil {
		logger.ErrorObj("command failed", "command_error", map[string]any{
			"args":  args,
			"error": err.Error(),
		})
		return err
	}
	return nil
}
