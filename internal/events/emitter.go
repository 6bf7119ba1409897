package events

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/phrazzld/taskhub-api/internal/queue"
)

// publishTimeout bounds a single queue publish so a stalled broker cannot
// hold a request open indefinitely.
const publishTimeout = 10 * time.Second

// QueueEmitter publishes task events through the durable queue gateway.
type QueueEmitter struct {
	gateway queue.Gateway
	logger  *slog.Logger
}

// Ensure QueueEmitter implements EventEmitter interface.
var _ EventEmitter = (*QueueEmitter)(nil)

// NewQueueEmitter creates an emitter backed by the given gateway.
func NewQueueEmitter(gateway queue.Gateway, logger *slog.Logger) *QueueEmitter {
	if logger == nil {
		logger = slog.Default()
	}

	return &QueueEmitter{
		gateway: gateway,
		logger:  logger.With(slog.String("component", "queue_event_emitter")),
	}
}

// EmitEvent implements EventEmitter.EmitEvent.
func (e *QueueEmitter) EmitEvent(ctx context.Context, event *TaskEvent) error {
	ctx, cancel := context.WithTimeout(ctx, publishTimeout)
	defer cancel()

	if err := e.gateway.Publish(ctx, TopicTasks, event); err != nil {
		return fmt.Errorf("failed to emit %s event: %w", event.Type, err)
	}

	e.logger.Debug("event emitted",
		slog.String("event_id", event.ID.String()),
		slog.String("event_type", event.Type))
	return nil
}

// Consumer subscribes to the task event topic and dispatches decoded events
// to a handler.
type Consumer struct {
	gateway queue.Gateway
	handler EventHandler
	logger  *slog.Logger
}

// NewConsumer creates a consumer dispatching to handler.
func NewConsumer(gateway queue.Gateway, handler EventHandler, logger *slog.Logger) *Consumer {
	if logger == nil {
		logger = slog.Default()
	}

	return &Consumer{
		gateway: gateway,
		handler: handler,
		logger:  logger.With(slog.String("component", "event_consumer")),
	}
}

// Start begins consuming task events with the given concurrency limit.
// Consumption stops when ctx is cancelled.
func (c *Consumer) Start(ctx context.Context, limit int) error {
	return c.gateway.Subscribe(ctx, TopicTasks, func(ctx context.Context, msg queue.Message) error {
		var event TaskEvent
		if err := json.Unmarshal(msg.Data(), &event); err != nil {
			// Undecodable payloads can never succeed; drop without requeue.
			c.logger.Error("discarding undecodable event", "error", err)
			return msg.Reject(false)
		}

		if err := c.handler.HandleEvent(ctx, &event); err != nil {
			return err
		}
		return msg.Ack()
	}, limit)
}
