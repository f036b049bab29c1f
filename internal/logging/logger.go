package logging

import (
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"

	"github.com/MS1352/sqlalchemy-challenge/internal/config"
)

// New returns a colourised tint logger for dev builds and a JSON logger otherwise.
func New(cfg config.Config, version string, appName string) *slog.Logger {
	return newWithWriter(os.Stdout, cfg, version, appName)
}

func newWithWriter(w io.Writer, cfg config.Config, version string, appName string) *slog.Logger {
	if version == "dev" {
		h := tint.NewHandler(w, &tint.Options{
			Level:      cfg.LogLevel,
			AddSource:  true,
			TimeFormat: time.Kitchen,
			NoColor:    w != os.Stdout,
		})
		return slog.New(h).With("app", appName)
	}

	h := slog.NewJSONHandler(w, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	})
	return slog.New(h).With(
		"app", appName,
		"version", version,
		"env", cfg.AppEnv,
	)
}
