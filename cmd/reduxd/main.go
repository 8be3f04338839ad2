// Command reduxd serves the autocomplete example store over HTTP for
// inspection and manual dispatch.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/wilhg/redux/examples/autocomplete"
	"github.com/wilhg/redux/pkg/config"
	"github.com/wilhg/redux/pkg/journal"
	otto "github.com/wilhg/redux/pkg/otel"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "reduxd: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	var showVersion bool
	flag.BoolVar(&showVersion, "version", false, "print version and exit")
	flag.StringVar(&cfg.Addr, "addr", cfg.Addr, "http listen address")
	flag.StringVar(&cfg.DatabaseURL, "db", cfg.DatabaseURL, "journal database url (sqlite:... or postgres://...); empty disables the journal")
	flag.BoolVar(&cfg.TraceStdout, "trace-stdout", cfg.TraceStdout, "export spans to stdout")
	flag.DurationVar(&cfg.SearchDebounce, "debounce", cfg.SearchDebounce, "search debounce window")
	flag.Parse()

	if showVersion {
		fmt.Printf("reduxd %s (commit=%s, date=%s)\n", version, commit, date)
		return nil
	}
	if cfg.ServiceVersion == "" {
		cfg.ServiceVersion = version
	}

	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: cfg.LogLevel}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTracing, err := otto.Init(ctx, otto.Config{
		ServiceName:    cfg.ServiceName,
		ServiceVersion: cfg.ServiceVersion,
		UseStdout:      cfg.TraceStdout,
	})
	if err != nil {
		return fmt.Errorf("init tracing: %w", err)
	}
	defer func() { _ = shutdownTracing(context.Background()) }()

	opts := autocomplete.Options{
		Debounce:      cfg.SearchDebounce,
		Logger:        logger,
		Stream:        cfg.Stream,
		SnapshotEvery: cfg.SnapshotEvery,
	}
	var j *journal.Journal
	if cfg.DatabaseURL != "" {
		j, err = journal.Open(ctx, cfg.DatabaseURL, journal.WithLogger(logger))
		if err != nil {
			return err
		}
		defer func() { _ = j.Close() }()
		if err := j.Migrate(ctx); err != nil {
			return err
		}
		opts.Journal = j
	}
	app, err := autocomplete.New(ctx, opts)
	if err != nil {
		return err
	}
	defer app.Close()

	server := &http.Server{
		Addr:              cfg.Addr,
		Handler:           otelhttp.NewHandler(buildMux(app, j, cfg.Stream), "reduxd"),
		ReadHeaderTimeout: 5 * time.Second,
	}
	errc := make(chan error, 1)
	go func() {
		logger.Info("listening", "addr", cfg.Addr, "journal", j != nil)
		errc <- server.ListenAndServe()
	}()

	select {
	case err := <-errc:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("server: %w", err)
		}
		return nil
	case <-ctx.Done():
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return server.Shutdown(shutdownCtx)
}
