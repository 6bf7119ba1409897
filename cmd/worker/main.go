// Package main implements the task event worker. It consumes task events
// from the durable queue and records them, serving as the template for any
// downstream processing of task activity.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/phrazzld/taskhub-api/internal/config"
	"github.com/phrazzld/taskhub-api/internal/events"
	"github.com/phrazzld/taskhub-api/internal/platform/logger"
	"github.com/phrazzld/taskhub-api/internal/queue"
)

func main() {
	concurrency := flag.Int("concurrency", queue.DefaultConcurrency, "max in-flight events")
	flag.Parse()

	if err := run(context.Background(), *concurrency); err != nil {
		log.Fatalf("Worker error: %v", err)
	}
}

func run(ctx context.Context, concurrency int) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}

	workerLogger, err := logger.Setup(cfg.Server)
	if err != nil {
		return fmt.Errorf("failed to set up logger: %w", err)
	}

	gateway := queue.NewNATSGateway(cfg.Queue, workerLogger)
	if err := gateway.Init(ctx); err != nil {
		return fmt.Errorf("failed to initialize queue gateway: %w", err)
	}
	defer func() {
		if err := gateway.Close(); err != nil {
			workerLogger.Error("failed to close queue gateway", "error", err)
		}
	}()

	consumeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	consumer := events.NewConsumer(gateway, &eventRecorder{logger: workerLogger}, workerLogger)
	if err := consumer.Start(consumeCtx, concurrency); err != nil {
		return fmt.Errorf("failed to start event consumer: %w", err)
	}

	workerLogger.Info("worker started",
		slog.String("topic", events.TopicTasks),
		slog.Int("concurrency", concurrency))

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)
	<-shutdownCh

	workerLogger.Info("worker shutting down")
	return nil
}

// eventRecorder logs each task event it receives.
type eventRecorder struct {
	logger *slog.Logger
}

func (r *eventRecorder) HandleEvent(ctx context.Context, event *events.TaskEvent) error {
	r.logger.Info("task event received",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type),
		slog.Time("created_at", event.CreatedAt))
	return nil
}
