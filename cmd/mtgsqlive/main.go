package main

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/omfgitsmark/mtgsqlive/internal/config"
	"github.com/omfgitsmark/mtgsqlive/internal/importer"
	"github.com/omfgitsmark/mtgsqlive/internal/loader"
	"github.com/omfgitsmark/mtgsqlive/internal/schema"
)

// Exit codes.
const (
	exitOK         = 0
	exitError      = 1
	exitConnection = 2
	exitConflict   = 3
	exitPartial    = 4
)

func main() {
	// Initialize slog before anything else that might log
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, nil)))

	cfg, err := config.LoadSettings()
	if err != nil {
		slog.Error("Failed to load settings", "error", err)
		os.Exit(exitError)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := execute(ctx, newApp(cfg, os.Stdin, os.Stdout, os.Stderr), os.Args[1:])
	stop()
	os.Exit(code)
}

func execute(ctx context.Context, a *app, args []string) int {
	cmd := a.rootCommand()
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(ctx)
	if err != nil && !errors.Is(err, importer.ErrPartialLoad) {
		slog.Error("mtgsqlive failed", "error", err)
	}
	return exitCode(err)
}

func exitCode(err error) int {
	var (
		connErr  *loader.ConnectionError
		conflict *schema.ConflictError
	)
	switch {
	case err == nil:
		return exitOK
	case errors.As(err, &connErr):
		return exitConnection
	case errors.As(err, &conflict):
		return exitConflict
	case errors.Is(err, importer.ErrPartialLoad):
		return exitPartial
	default:
		return exitError
	}
}
