// Command server runs the DeArrow Browser API: it loads the CSV mirror into
// an in-memory snapshot (database.enabled only logs a warning here) and serves
// the browse API and SponsorBlockServer-compatible branding API over HTTP,
// grounded on the teacher's cmd/web/main.go bootstrap sequence.
package main

import (
	"context"
	"errors"
	"flag"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"dearrowbrowser.dev/server/internal/config"
	"dearrowbrowser.dev/server/internal/httpapi"
	"dearrowbrowser.dev/server/internal/reload"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	configPath := flag.String("config", "config.toml", "path to the TOML configuration file")
	flag.Parse()

	logger := slog.Default()
	logger.Info("starting dearrow browser server")

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if cfg.Database.Enabled {
		logger.Warn("database.enabled is set but this entrypoint only serves the CSV mirror pipeline; see cmd/migrator for the Postgres boundary")
	}

	controller := reload.NewController(cfg.MirrorPath)
	logger.Info("performing initial load", "mirror_path", cfg.MirrorPath)
	if err := controller.Load(); err != nil {
		logger.Error("initial load failed", "error", err)
		os.Exit(1)
	}

	server := httpapi.New(controller, cfg.AuthSecret, logger)

	addr := cfg.Listen.TCPHost + ":" + strconv.Itoa(cfg.Listen.TCPPort)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = server.Shutdown(shutdownCtx)
	}()

	logger.Info("listening", "addr", addr)
	if err := server.Start(addr); err != nil {
		if errors.Is(err, context.Canceled) || ctx.Err() != nil {
			return
		}
		logger.Error("server failed", "error", err)
		os.Exit(1)
	}
}

