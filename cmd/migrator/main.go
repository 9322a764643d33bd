// Command migrator runs the goose migrations describing the Postgres
// boundary schema, grounded on the teacher's cmd/pg-migrator/main.go.
package main

import (
	"context"
	"flag"
	"log/slog"
	"os"
	"time"

	"dearrowbrowser.dev/server/internal/config"
	"dearrowbrowser.dev/server/internal/pgsource"
)

func main() {
	configPath := flag.String("config", "config.toml", "path to the TOML configuration file")
	flag.Parse()

	logger := slog.Default()
	logger.Info("starting database migrator")

	startupCtx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	defer cancel()

	cfg, err := config.Load(*configPath)
	if err != nil {
		logger.Error("failed to load config", "error", err)
		os.Exit(1)
	}
	if !cfg.Database.Enabled {
		logger.Error("database.enabled is false; nothing to migrate")
		os.Exit(1)
	}

	pool, err := pgsource.Connect(startupCtx, pgsource.Config{
		Host:     cfg.Database.Host,
		User:     cfg.Database.User,
		Password: cfg.Database.Password,
		Name:     cfg.Database.Name,
	})
	if err != nil {
		logger.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	if err := pgsource.Migrate(startupCtx, pool); err != nil {
		logger.Error("failed to run postgres migrations", "error", err)
		os.Exit(1)
	}

	logger.Info("database migrations completed successfully")
}
