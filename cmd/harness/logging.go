package main

import (
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// initLogging installs the default slog logger: a JSON handler writing to
// stderr at a caller-chosen level instead of a single --debug bool.
func initLogging(level string) {
	var lvl slog.Level
	switch level {
	case "debug":
		lvl = slog.LevelDebug
	case "warn":
		lvl = slog.LevelWarn
	case "error":
		lvl = slog.LevelError
	default:
		lvl = slog.LevelInfo
	}
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: lvl}))
	slog.SetDefault(logger)
}

var noColorOverride bool

// initColor disables fatih/color globally when requested or when stdout
// isn't a terminal, following the teacher's NO_COLOR/--no-color convention.
func initColor(disable bool) {
	noColorOverride = disable
	if disable || !isatty.IsTerminal(os.Stdout.Fd()) {
		color.NoColor = true
	}
}

// serveMetrics starts the Prometheus /metrics endpoint in the background,
// mirroring cmd/cie/index.go's metrics-goroutine shape exactly down to the
// ReadHeaderTimeout hardening. The returned func shuts the server down.
func serveMetrics(addr string) func() {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 10 * time.Second}
	go func() {
		slog.Info("metrics.http.start", "addr", addr, "path", "/metrics")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Warn("metrics.http.error", "err", err)
		}
	}()
	return func() { _ = srv.Close() }
}
