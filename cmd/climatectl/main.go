package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/MS1352/sqlalchemy-challenge/internal/config"
	db "github.com/MS1352/sqlalchemy-challenge/internal/db"
	"github.com/MS1352/sqlalchemy-challenge/internal/logging"
	climate "github.com/MS1352/sqlalchemy-challenge/internal/modules/climate"
	"github.com/MS1352/sqlalchemy-challenge/internal/modules/climate/types"
)

const (
	appName = "climatectl"
	usage   = `usage: %s <command>
  check    verify the store has the expected tables and columns
  summary  print row counts, date range and most active station as JSON
`
)

var version = "dev"

func main() {
	if len(os.Args) < 2 {
		fmt.Fprintf(os.Stderr, usage, os.Args[0])
		os.Exit(2)
	}

	cfg, err := config.LoadFromEnv()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config error: %v\n", err)
		os.Exit(1)
	}
	slog.SetDefault(logging.New(cfg, version, appName))

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, os.Args[1], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "%s: %v\n", os.Args[1], err)
		stop()
		os.Exit(1)
	}
}

type summaryOutput struct {
	types.Summary
	MostActiveStation *string `json:"mostActiveStation"`
}

func run(ctx context.Context, cfg config.Config, command string, out io.Writer) error {
	switch command {
	case "check", "summary":
	default:
		return fmt.Errorf("unknown command (want check or summary)")
	}

	conn, err := db.Open(ctx, cfg, slog.Default())
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := db.Close(conn); closeErr != nil {
			slog.Error("db close", "err", closeErr)
		}
	}()

	if err := db.VerifySchema(ctx, conn); err != nil {
		return err
	}

	if command == "check" {
		_, err := fmt.Fprintln(out, "schema ok")
		return err
	}

	svc := climate.NewService(conn, cfg)
	sum, err := svc.Summary(ctx)
	if err != nil {
		return err
	}
	result := summaryOutput{Summary: sum}
	// An empty store has no most active station.
	if sum.Measurements > 0 {
		station, err := svc.MostActiveStation(ctx)
		if err != nil {
			return err
		}
		result.MostActiveStation = &station
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}
