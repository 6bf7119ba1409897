// Package main implements the entry point for the taskhub API server,
// which exposes per-user task management behind bearer-token authentication.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"

	"github.com/phrazzld/taskhub-api/internal/config"
	"github.com/phrazzld/taskhub-api/internal/platform/logger"
)

func main() {
	skipMigrations := flag.Bool("skip-migrations", false, "do not apply database migrations on startup")
	flag.Parse()

	app, err := initializeApp(context.Background(), *skipMigrations)
	if err != nil {
		log.Fatalf("Failed to initialize application: %v", err)
	}

	if err := app.run(context.Background()); err != nil {
		app.logger.Error("server exited with error", "error", err)
		app.cleanup()
		log.Fatalf("Server error: %v", err)
	}
}

// initializeApp loads configuration, sets up logging, and wires the
// application dependencies.
func initializeApp(ctx context.Context, skipMigrations bool) (*application, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	appLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return nil, fmt.Errorf("failed to set up logger: %w", err)
	}

	slog.Info("Server configuration loaded",
		"port", cfg.Server.Port,
		"api_version", cfg.Server.APIVersion,
		"log_level", cfg.Server.LogLevel)

	app, err := newApplication(ctx, cfg, appLogger)
	if err != nil {
		return nil, err
	}

	if !skipMigrations {
		if err := runMigrations(app.db, appLogger); err != nil {
			app.cleanup()
			return nil, fmt.Errorf("failed to run migrations: %w", err)
		}
	}

	return app, nil
}
