package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	AppEnv   string
	LogLevel slog.Level
	HTTPAddr string

	// SQLitePath points at the pre-populated climate database. It is opened read-only.
	SQLitePath string
	// SQLiteDSN, when set, is passed to the driver verbatim and SQLitePath is ignored.
	SQLiteDSN             string
	SQLiteMaxOpenConns    int
	SQLiteMaxIdleConns    int
	SQLiteConnMaxLifetime time.Duration
	SQLiteLogStatements   bool
	DBConnectRetries      uint64

	BreakerFailureThreshold uint32
	BreakerOpenTimeout      time.Duration

	// OTLPEndpoint enables trace export when non-empty.
	OTLPEndpoint string
}

// LoadFromEnv reads the process environment, after merging in a .env file
// (ENV_FILE or ./.env) when one exists. Variables already set win.
func LoadFromEnv() (Config, error) {
	if err := loadDotEnv(); err != nil {
		return Config{}, err
	}

	appEnv := strings.TrimSpace(os.Getenv("APP_ENV"))
	if appEnv == "" {
		appEnv = "dev"
	}
	switch appEnv {
	case "dev", "prod":
	default:
		return Config{}, fmt.Errorf("invalid APP_ENV %q (allowed: dev, prod)", appEnv)
	}

	logLevelStr := strings.TrimSpace(os.Getenv("LOG_LEVEL"))
	if logLevelStr == "" {
		logLevelStr = "info"
	}
	level, err := parseLogLevel(logLevelStr)
	if err != nil {
		return Config{}, err
	}

	httpAddr := strings.TrimSpace(os.Getenv("HTTP_ADDR"))
	if httpAddr == "" {
		httpAddr = ":8080"
	}

	path := strings.TrimSpace(os.Getenv("SQLITE_PATH"))
	if path == "" {
		path = "Resources/hawaii.sqlite"
	}
	dsn := strings.TrimSpace(os.Getenv("DB_DSN"))

	maxOpenConns, err := intFromEnv("DB_MAX_OPEN_CONNS", 4)
	if err != nil {
		return Config{}, err
	}
	maxIdleConns, err := intFromEnv("DB_MAX_IDLE_CONNS", 4)
	if err != nil {
		return Config{}, err
	}
	connMaxLifetime, err := durationFromEnv("DB_CONN_MAX_LIFETIME", 0)
	if err != nil {
		return Config{}, err
	}
	logStatements, err := boolFromEnv("DB_LOG_SQL", false)
	if err != nil {
		return Config{}, err
	}
	retries, err := intFromEnv("DB_CONNECT_RETRIES", 3)
	if err != nil {
		return Config{}, err
	}
	if retries < 0 {
		return Config{}, fmt.Errorf("invalid DB_CONNECT_RETRIES %d: must be >= 0", retries)
	}

	threshold, err := intFromEnv("BREAKER_FAILURE_THRESHOLD", 5)
	if err != nil {
		return Config{}, err
	}
	if threshold <= 0 {
		return Config{}, fmt.Errorf("invalid BREAKER_FAILURE_THRESHOLD %d: must be > 0", threshold)
	}
	openTimeout, err := durationFromEnv("BREAKER_OPEN_TIMEOUT", 30*time.Second)
	if err != nil {
		return Config{}, err
	}

	return Config{
		AppEnv:                  appEnv,
		LogLevel:                level,
		HTTPAddr:                httpAddr,
		SQLitePath:              path,
		SQLiteDSN:               dsn,
		SQLiteMaxOpenConns:      maxOpenConns,
		SQLiteMaxIdleConns:      maxIdleConns,
		SQLiteConnMaxLifetime:   connMaxLifetime,
		SQLiteLogStatements:     logStatements,
		DBConnectRetries:        uint64(retries),
		BreakerFailureThreshold: uint32(threshold),
		BreakerOpenTimeout:      openTimeout,
		OTLPEndpoint:            strings.TrimSpace(os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")),
	}, nil
}

func loadDotEnv() error {
	path := strings.TrimSpace(os.Getenv("ENV_FILE"))
	explicit := path != ""
	if !explicit {
		path = ".env"
	}
	err := godotenv.Load(path)
	if err == nil {
		return nil
	}
	// A missing default .env is normal; a missing explicit one is not.
	if !explicit && errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	return fmt.Errorf("load env file %q: %w", path, err)
}

func parseLogLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug, nil
	case "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("invalid LOG_LEVEL %q (allowed: debug, info, warn, error)", s)
	}
}

func intFromEnv(key string, def int) (int, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return n, nil
}

func durationFromEnv(key string, def time.Duration) (time.Duration, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return d, nil
}

func boolFromEnv(key string, def bool) (bool, error) {
	s := strings.TrimSpace(os.Getenv(key))
	if s == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(s)
	if err != nil {
		return false, fmt.Errorf("invalid %s %q: %w", key, s, err)
	}
	return b, nil
}
