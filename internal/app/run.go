package app

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/MS1352/sqlalchemy-challenge/internal/config"
	db "github.com/MS1352/sqlalchemy-challenge/internal/db"
	httpapi "github.com/MS1352/sqlalchemy-challenge/internal/httpapi"
	climate "github.com/MS1352/sqlalchemy-challenge/internal/modules/climate"
	climateviews "github.com/MS1352/sqlalchemy-challenge/internal/modules/climate/views"
	"github.com/MS1352/sqlalchemy-challenge/internal/telemetry"
)

const shutdownTimeout = 10 * time.Second

// Run serves the climate API until ctx is cancelled or the listener fails.
// Store and template problems are fatal before anything is served.
func Run(ctx context.Context, cfg config.Config, appName, version string) error {
	slog.Info("config loaded",
		"appEnv", cfg.AppEnv,
		"logLevel", cfg.LogLevel.String(),
		"httpAddr", cfg.HTTPAddr,
		"sqlitePath", cfg.SQLitePath,
		"sqliteDSNOverride", cfg.SQLiteDSN != "",
		"sqliteMaxOpenConns", cfg.SQLiteMaxOpenConns,
		"sqliteMaxIdleConns", cfg.SQLiteMaxIdleConns,
		"sqliteConnMaxLifetime", cfg.SQLiteConnMaxLifetime,
		"sqliteLogStatements", cfg.SQLiteLogStatements,
		"breakerFailureThreshold", cfg.BreakerFailureThreshold,
		"breakerOpenTimeout", cfg.BreakerOpenTimeout,
		"otlpEndpoint", cfg.OTLPEndpoint,
	)

	tel, err := telemetry.Init(ctx, cfg, appName, version)
	if err != nil {
		return err
	}
	defer func() {
		flushCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := tel.Shutdown(flushCtx); err != nil {
			slog.Error("telemetry shutdown", "error", err)
		}
	}()

	dbConn, err := db.Open(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		closeErr := db.Close(dbConn)
		if closeErr != nil {
			slog.Error("db close", "error", closeErr)
		}
	}()

	if err := db.VerifySchema(ctx, dbConn); err != nil {
		return err
	}
	slog.Info("database connection successful")

	if err := climateviews.LoadTemplates(); err != nil {
		return err
	}

	router := httpapi.NewRouter(httpapi.Deps{
		DB:      dbConn,
		Climate: climate.NewService(dbConn, cfg),
		Metrics: httpapi.NewMetrics(dbConn),
	})
	srv := httpapi.NewServer(cfg, router)

	errCh := make(chan error, 1)
	go func() {
		slog.Info("http listening", "addr", cfg.HTTPAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	slog.Info("http shutting down")
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}

	err = <-errCh
	if err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	return ctx.Err()
}
