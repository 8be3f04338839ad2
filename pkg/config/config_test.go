package config

import (
	"log/slog"
	"strings"
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":8080" || cfg.ServiceName != "reduxd" || cfg.Stream != "autocomplete" {
		t.Fatalf("unexpected defaults %+v", cfg)
	}
	if cfg.SearchDebounce != 250*time.Millisecond || cfg.SnapshotEvery != 50 {
		t.Fatalf("unexpected timing defaults %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelInfo {
		t.Fatalf("expected info level, got %v", cfg.LogLevel)
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("REDUX_ADDR", ":9090")
	t.Setenv("DATABASE_URL", "sqlite:file:x.db")
	t.Setenv("REDUX_TRACE_STDOUT", "true")
	t.Setenv("REDUX_LOG_LEVEL", "DEBUG")
	t.Setenv("REDUX_SEARCH_DEBOUNCE", "1s")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.Addr != ":9090" || cfg.DatabaseURL != "sqlite:file:x.db" || !cfg.TraceStdout {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
	if cfg.LogLevel != slog.LevelDebug || cfg.SearchDebounce != time.Second {
		t.Fatalf("overrides not applied: %+v", cfg)
	}
}

func TestLoadError(t *testing.T) {
	t.Setenv("REDUX_SNAPSHOT_EVERY", "not-an-int")
	_, err := Load()
	if err == nil || !strings.Contains(err.Error(), "parse env:") {
		t.Fatalf("expected parse env error, got %v", err)
	}

	t.Setenv("REDUX_SNAPSHOT_EVERY", "-1")
	if _, err := Load(); err == nil {
		t.Fatal("expected error for negative snapshot interval")
	}
}
