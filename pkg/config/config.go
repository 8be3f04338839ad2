// Package config loads runtime settings from the environment.
package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
)

// Config holds the settings of the reduxd devtools server.
type Config struct {
	Addr        string `env:"REDUX_ADDR"         envDefault:":8080"`
	DatabaseURL string `env:"DATABASE_URL"`
	// Stream names the journal stream the server's store writes to.
	Stream         string        `env:"REDUX_STREAM"          envDefault:"autocomplete"`
	ServiceName    string        `env:"REDUX_SERVICE_NAME"    envDefault:"reduxd"`
	ServiceVersion string        `env:"REDUX_VERSION"`
	TraceStdout    bool          `env:"REDUX_TRACE_STDOUT"    envDefault:"false"`
	SnapshotEvery  int           `env:"REDUX_SNAPSHOT_EVERY"  envDefault:"50"`
	SearchDebounce time.Duration `env:"REDUX_SEARCH_DEBOUNCE" envDefault:"250ms"`
	LogLevel       slog.Level    `env:"REDUX_LOG_LEVEL"       envDefault:"INFO"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// Load parses Config from the environment.
func Load() (Config, error) {
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return Config{}, err
	}
	if cfg.SnapshotEvery < 0 {
		return Config{}, fmt.Errorf("parse env: REDUX_SNAPSHOT_EVERY must not be negative, got %d", cfg.SnapshotEvery)
	}
	return cfg, nil
}
