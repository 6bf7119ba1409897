package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"net/url"
	"time"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/phrazzld/taskhub-api/internal/config"
)

// setupDatabase establishes a connection to the database and configures
// connection pools. Returns the database connection if successful, or an
// error if the connection fails.
func setupDatabase(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*sql.DB, error) {
	connURL, err := databaseURL(cfg)
	if err != nil {
		return nil, err
	}

	db, err := sql.Open("pgx", connURL)
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(5)
	db.SetConnMaxLifetime(5 * time.Minute)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		if closeErr := db.Close(); closeErr != nil {
			logger.Error("failed to close database after ping failure", "error", closeErr)
		}
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	logger.Info("Database connection established")
	return db, nil
}

// databaseURL returns the connection URL to use. In production the configured
// username and password override whatever the URL carries; outside production
// the URL is used as-is.
func databaseURL(cfg *config.Config) (string, error) {
	if !cfg.Server.Production || cfg.Database.Username == "" {
		return cfg.Database.URL, nil
	}

	parsed, err := url.Parse(cfg.Database.URL)
	if err != nil {
		return "", fmt.Errorf("failed to parse database URL: %w", err)
	}

	parsed.User = url.UserPassword(cfg.Database.Username, cfg.Database.Password)
	return parsed.String(), nil
}
