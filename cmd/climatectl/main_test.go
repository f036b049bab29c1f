package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/hashicorp/go-multierror"

	"github.com/MS1352/sqlalchemy-challenge/internal/config"
	"github.com/MS1352/sqlalchemy-challenge/internal/db"
	"github.com/MS1352/sqlalchemy-challenge/internal/testutil/climatedb"
)

func testConfig(path string) config.Config {
	return config.Config{SQLitePath: path, SQLiteMaxOpenConns: 1}
}

func TestRun_Check(t *testing.T) {
	path := climatedb.WriteFile(t, climatedb.Hawaii())

	var out bytes.Buffer
	if err := run(context.Background(), testConfig(path), "check", &out); err != nil {
		t.Fatalf("check: %v", err)
	}
	if got := out.String(); got != "schema ok\n" {
		t.Errorf("output = %q; want %q", got, "schema ok\n")
	}
}

func TestRun_Summary(t *testing.T) {
	path := climatedb.WriteFile(t, climatedb.Hawaii())

	var out bytes.Buffer
	if err := run(context.Background(), testConfig(path), "summary", &out); err != nil {
		t.Fatalf("summary: %v", err)
	}

	var got struct {
		Measurements      int64  `json:"measurements"`
		Stations          int64  `json:"stations"`
		FirstDate         string `json:"firstDate"`
		LatestDate        string `json:"latestDate"`
		MostActiveStation string `json:"mostActiveStation"`
	}
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode %q: %v", out.String(), err)
	}
	if got.Measurements != 11 || got.Stations != 3 {
		t.Errorf("counts = %d/%d; want 11/3", got.Measurements, got.Stations)
	}
	if got.FirstDate != "2010-01-01" || got.LatestDate != "2017-08-23" {
		t.Errorf("dates = %s..%s", got.FirstDate, got.LatestDate)
	}
	if got.MostActiveStation != "USC00519281" {
		t.Errorf("mostActiveStation = %q; want USC00519281", got.MostActiveStation)
	}
}

func TestRun_SummaryEmptyStore(t *testing.T) {
	path := climatedb.WriteFile(t, climatedb.Dataset{})

	var out bytes.Buffer
	if err := run(context.Background(), testConfig(path), "summary", &out); err != nil {
		t.Fatalf("summary: %v", err)
	}
	var got map[string]any
	if err := json.Unmarshal(out.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got["mostActiveStation"] != nil {
		t.Errorf("mostActiveStation = %v; want null", got["mostActiveStation"])
	}
}

func TestRun_CheckReportsSchemaProblems(t *testing.T) {
	// A zero-length file is a valid, empty SQLite database.
	path := filepath.Join(t.TempDir(), "empty.sqlite")
	if err := os.WriteFile(path, nil, 0o644); err != nil {
		t.Fatalf("create empty db: %v", err)
	}

	err := run(context.Background(), testConfig(path), "check", &bytes.Buffer{})
	var merr *multierror.Error
	if !errors.As(err, &merr) {
		t.Fatalf("error = %v; want schema problems", err)
	}
}

func TestRun_MissingStore(t *testing.T) {
	err := run(context.Background(), testConfig(filepath.Join(t.TempDir(), "nope.sqlite")), "check", &bytes.Buffer{})
	if !errors.Is(err, db.ErrStoreMissing) {
		t.Fatalf("error = %v; want ErrStoreMissing", err)
	}
}

func TestRun_UnknownCommand(t *testing.T) {
	if err := run(context.Background(), config.Config{}, "migrate", &bytes.Buffer{}); err == nil {
		t.Fatal("expected error for unknown command")
	}
}
