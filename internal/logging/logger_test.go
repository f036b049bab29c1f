package logging

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/MS1352/sqlalchemy-challenge/internal/config"
)

func TestNew_devUsesTextHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, config.Config{AppEnv: "dev", LogLevel: slog.LevelInfo}, "dev", "climate")

	logger.Info("hello", "k", "v")

	out := buf.String()
	if !strings.Contains(out, "hello") || !strings.Contains(out, "app=climate") {
		t.Errorf("output = %q; want message and app attribute", out)
	}
	if json.Valid(bytes.TrimSpace(buf.Bytes())) {
		t.Errorf("dev output should not be JSON; got %q", out)
	}
}

func TestNew_releaseUsesJSONHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, config.Config{AppEnv: "prod", LogLevel: slog.LevelInfo}, "1.2.3", "climate")

	logger.Info("hello")

	var rec map[string]any
	if err := json.Unmarshal(buf.Bytes(), &rec); err != nil {
		t.Fatalf("output is not JSON: %v (%q)", err, buf.String())
	}
	for k, want := range map[string]string{"msg": "hello", "app": "climate", "version": "1.2.3", "env": "prod"} {
		if rec[k] != want {
			t.Errorf("%s = %v; want %q", k, rec[k], want)
		}
	}
}

func TestNew_respectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := newWithWriter(&buf, config.Config{AppEnv: "prod", LogLevel: slog.LevelWarn}, "1.0.0", "climate")

	logger.Info("dropped")
	if buf.Len() != 0 {
		t.Errorf("info record written at warn level: %q", buf.String())
	}
	logger.Warn("kept")
	if !strings.Contains(buf.String(), "kept") {
		t.Errorf("warn record missing: %q", buf.String())
	}
}
