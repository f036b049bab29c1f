package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v4"
	_ "github.com/mattn/go-sqlite3"

	"github.com/MS1352/sqlalchemy-challenge/internal/config"
)

const driverName = "sqlite3"

// ErrStoreMissing is returned when the configured database file does not exist.
var ErrStoreMissing = errors.New("climate database not found")

// Open opens the climate store read-only and verifies connectivity, retrying
// the first ping with exponential backoff. The returned pool is safe for
// concurrent use and must be closed by the caller.
func Open(ctx context.Context, cfg config.Config, logger *slog.Logger) (*sql.DB, error) {
	if logger == nil {
		logger = slog.Default()
	}

	dsn, err := buildDSN(cfg)
	if err != nil {
		return nil, err
	}

	var db *sql.DB
	if cfg.SQLiteLogStatements {
		connector, err := NewLoggingConnector(dsn, logger)
		if err != nil {
			return nil, fmt.Errorf("db connector: %w", err)
		}
		db = sql.OpenDB(connector)
	} else {
		db, err = sql.Open(driverName, dsn)
		if err != nil {
			return nil, fmt.Errorf("db open: %w", err)
		}
	}

	if cfg.SQLiteMaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.SQLiteMaxOpenConns)
	}
	if cfg.SQLiteMaxIdleConns >= 0 {
		db.SetMaxIdleConns(cfg.SQLiteMaxIdleConns)
	}
	if cfg.SQLiteConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.SQLiteConnMaxLifetime)
	}

	if err := ping(ctx, db, cfg.DBConnectRetries, logger); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("db ping: %w", err)
	}

	return db, nil
}

func Close(db *sql.DB) error {
	if db == nil {
		return nil
	}
	return db.Close()
}

func ping(ctx context.Context, db *sql.DB, retries uint64, logger *slog.Logger) error {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 200 * time.Millisecond
	bo.MaxInterval = 2 * time.Second
	bo.MaxElapsedTime = 0

	policy := backoff.WithContext(backoff.WithMaxRetries(bo, retries), ctx)
	return backoff.RetryNotify(
		func() error { return db.PingContext(ctx) },
		policy,
		func(err error, wait time.Duration) {
			logger.Warn("db ping failed, retrying", "error", err, "wait", wait)
		},
	)
}

func buildDSN(cfg config.Config) (string, error) {
	if cfg.SQLiteDSN != "" {
		return cfg.SQLiteDSN, nil
	}

	path := strings.TrimPrefix(cfg.SQLitePath, "file:")
	if i := strings.Index(path, "?"); i >= 0 {
		path = path[:i]
	}
	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", fmt.Errorf("%w: %s", ErrStoreMissing, path)
		}
		return "", fmt.Errorf("stat %s: %w", path, err)
	}

	// The dataset is static; mode=ro keeps the service from ever writing to it.
	params := []string{
		"mode=ro",
		"_busy_timeout=5000",
	}

	if strings.HasPrefix(cfg.SQLitePath, "file:") {
		sep := "?"
		if strings.Contains(cfg.SQLitePath, "?") {
			sep = "&"
		}
		return cfg.SQLitePath + sep + strings.Join(params, "&"), nil
	}

	return fmt.Sprintf("file:%s?%s", cfg.SQLitePath, strings.Join(params, "&")), nil
}
