package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/phrazzld/taskhub-api/internal/audit"
	"github.com/phrazzld/taskhub-api/internal/config"
	"github.com/phrazzld/taskhub-api/internal/events"
	"github.com/phrazzld/taskhub-api/internal/platform/postgres"
	"github.com/phrazzld/taskhub-api/internal/queue"
	"github.com/phrazzld/taskhub-api/internal/service"
	"github.com/phrazzld/taskhub-api/internal/service/auth"
	"github.com/phrazzld/taskhub-api/internal/service/users"
	"github.com/phrazzld/taskhub-api/internal/store"
)

// application holds the wired dependencies for the server process.
type application struct {
	config *config.Config
	logger *slog.Logger

	db        *sql.DB
	taskStore store.TaskStore
	gateway   queue.Gateway
	cache     *users.RedisCache

	tokenCodec  auth.TokenCodec
	resolver    users.Resolver
	taskService service.TaskService
	auditLog    audit.Logger
}

// newApplication wires all application dependencies from configuration.
// On error, any resources opened so far are released before returning.
func newApplication(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*application, error) {
	app := &application{
		config: cfg,
		logger: logger,
	}

	db, err := setupDatabase(ctx, cfg, logger)
	if err != nil {
		return nil, err
	}
	app.db = db

	app.taskStore = postgres.NewTaskStore(db, logger)

	gateway := queue.NewNATSGateway(cfg.Queue, logger)
	if err := gateway.Init(ctx); err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to initialize queue gateway: %w", err)
	}
	app.gateway = gateway

	emitter := events.NewQueueEmitter(gateway, logger)

	codec, err := auth.NewTokenCodec(cfg.Auth)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create token codec: %w", err)
	}
	app.tokenCodec = codec

	// The redis cache is optional; the resolver degrades to plain HTTP
	// lookups when it is absent.
	var cache users.Cache
	if rc := users.NewRedisCache(cfg.Cache, logger); rc != nil {
		app.cache = rc
		cache = rc
	}
	app.resolver = users.NewResolver(cfg.Users, cache, logger)

	taskService, err := service.NewTaskService(app.taskStore, emitter, logger)
	if err != nil {
		app.cleanup()
		return nil, fmt.Errorf("failed to create task service: %w", err)
	}
	app.taskService = taskService

	app.auditLog = audit.NewLogger(logger)

	return app, nil
}

// run starts the HTTP server and blocks until shutdown completes.
func (app *application) run(ctx context.Context) error {
	router := app.setupRouter()
	return app.startHTTPServer(ctx, router)
}

// cleanup releases application resources in reverse dependency order.
// Safe to call with partially-wired state.
func (app *application) cleanup() {
	if app.gateway != nil {
		if err := app.gateway.Close(); err != nil {
			app.logger.Error("failed to close queue gateway", "error", err)
		}
	}

	if app.cache != nil {
		if err := app.cache.Close(); err != nil {
			app.logger.Error("failed to close cache connection", "error", err)
		}
	}

	if app.db != nil {
		if err := app.db.Close(); err != nil {
			app.logger.Error("failed to close database connection", "error", err)
		}
	}
}
