package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MS1352/sqlalchemy-challenge/internal/app"
	"github.com/MS1352/sqlalchemy-challenge/internal/config"
	"github.com/MS1352/sqlalchemy-challenge/internal/logging"
)

const appName = "climate-api"

// Default version is "dev" if not set with -ldflags "-X main.version=..."
var version = "dev"

func main() {
	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}

	logger := logging.New(cfg, version, appName)
	slog.SetDefault(logger)

	slog.Info("starting",
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
		"log_level", cfg.LogLevel.String(),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := app.Run(ctx, cfg, appName, version); err != nil && !errors.Is(err, context.Canceled) {
		slog.Error("run failed", "err", err)
		stop()
		os.Exit(1)
	}

	slog.Info("shutting down")
}
